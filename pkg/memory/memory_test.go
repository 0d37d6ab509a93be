package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePPU struct {
	regs    [8]uint8
	oam     []uint8
	lastReg uint16
}

func (p *fakePPU) ReadRegister(addr uint16) uint8 {
	p.lastReg = addr
	return p.regs[addr&0x07]
}

func (p *fakePPU) WriteRegister(addr uint16, value uint8) {
	p.lastReg = addr
	p.regs[addr&0x07] = value
}

func (p *fakePPU) WriteOAM(value uint8) { p.oam = append(p.oam, value) }

type fakeAPU struct {
	regs map[uint16]uint8
}

func (a *fakeAPU) ReadRegister(addr uint16) uint8 { return a.regs[addr] }

func (a *fakeAPU) WriteRegister(addr uint16, value uint8) {
	if a.regs == nil {
		a.regs = map[uint16]uint8{}
	}
	a.regs[addr] = value
}

type fakeController struct {
	reads  []int
	writes []uint8
}

func (c *fakeController) Read(player int) uint8 {
	c.reads = append(c.reads, player)
	return uint8(player + 1)
}

func (c *fakeController) Write(value uint8) { c.writes = append(c.writes, value) }

type fakeMapper struct {
	prg [0x10000]uint8
}

func (m *fakeMapper) ReadPRG(addr uint16) uint8 { return m.prg[addr] }

func (m *fakeMapper) WritePRG(addr uint16, value uint8) { m.prg[addr] = value }

type fakeCPU struct {
	stalled     int
	cycles      uint64
	invalidated int
}

func (c *fakeCPU) AddStall(cycles int) { c.stalled += cycles }

func (c *fakeCPU) Cycles() uint64 { return c.cycles }

func (c *fakeCPU) InvalidateCache() { c.invalidated++ }

func newTestMemory() (*Memory, *fakePPU, *fakeAPU, *fakeController, *fakeMapper, *fakeCPU) {
	m := New()
	ppu := &fakePPU{}
	apu := &fakeAPU{}
	ctrl := &fakeController{}
	mapper := &fakeMapper{}
	cpu := &fakeCPU{}
	m.Attach(ppu, apu, ctrl, cpu)
	m.SetMapper(mapper)
	return m, ppu, apu, ctrl, mapper, cpu
}

func TestRAMMirroring(t *testing.T) {
	m, _, _, _, _, _ := newTestMemory()
	for addr := uint32(0); addr < 0x2000; addr += 0x101 {
		m.Write(uint16(addr), uint8(addr))
		assert.Equal(t, uint8(addr), m.Read(uint16(addr%0x800)),
			"0x%04X mirrors 0x%04X", addr, addr%0x800)
	}

	m.Write(0x0000, 0xAA)
	for _, mirror := range []uint16{0x0800, 0x1000, 0x1800} {
		assert.Equal(t, uint8(0xAA), m.Read(mirror))
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	m, ppu, _, _, _, _ := newTestMemory()
	m.Write(0x2000, 0x80)
	assert.Equal(t, uint16(0x2000), ppu.lastReg)

	m.Write(0x3FF8, 0x12) // mirrors 0x2000
	assert.Equal(t, uint16(0x2000), ppu.lastReg)
	assert.Equal(t, uint8(0x12), ppu.regs[0])

	m.Read(0x200A) // mirrors 0x2002
	assert.Equal(t, uint16(0x2002), ppu.lastReg)
}

func TestControllerPorts(t *testing.T) {
	m, _, _, ctrl, _, _ := newTestMemory()
	m.Write(0x4016, 0x01)
	assert.Equal(t, []uint8{0x01}, ctrl.writes)

	assert.Equal(t, uint8(1), m.Read(0x4016))
	assert.Equal(t, uint8(2), m.Read(0x4017))
	assert.Equal(t, []int{0, 1}, ctrl.reads)
}

func TestAPURouting(t *testing.T) {
	m, _, apu, _, _, _ := newTestMemory()
	m.Write(0x4000, 0x3F)
	m.Write(0x4015, 0x0F)
	m.Write(0x4017, 0x40) // frame counter write goes to the APU
	assert.Equal(t, uint8(0x3F), apu.regs[0x4000])
	assert.Equal(t, uint8(0x0F), apu.regs[0x4015])
	assert.Equal(t, uint8(0x40), apu.regs[0x4017])
}

func TestUnmappedRegionIsOpenBus(t *testing.T) {
	m, _, _, _, _, _ := newTestMemory()
	assert.Zero(t, m.Read(0x4018))
	assert.Zero(t, m.Read(0x401F))
	m.Write(0x4018, 0xFF) // dropped
	assert.Zero(t, m.Read(0x4018))
}

func TestCartridgeRouting(t *testing.T) {
	m, _, _, _, mapper, _ := newTestMemory()
	mapper.prg[0x8000] = 0x42
	mapper.prg[0x6000] = 0x24
	mapper.prg[0x4020] = 0x11
	assert.Equal(t, uint8(0x42), m.Read(0x8000))
	assert.Equal(t, uint8(0x24), m.Read(0x6000))
	assert.Equal(t, uint8(0x11), m.Read(0x4020), "expansion range routes to the cartridge")
}

func TestNoMapperReadsZero(t *testing.T) {
	m := New()
	assert.Zero(t, m.Read(0x8000))
	m.Write(0x8000, 0x01) // no crash
}

func TestROMWriteInvalidatesDecodeCache(t *testing.T) {
	m, _, _, _, _, cpu := newTestMemory()
	baseline := cpu.invalidated // SetMapper already invalidated once

	m.Write(0x8000, 0x01)
	assert.Equal(t, baseline+1, cpu.invalidated)

	m.Write(0x6000, 0x01) // PRG RAM writes do not switch banks
	assert.Equal(t, baseline+1, cpu.invalidated)
}

func TestOAMDMATransfersAndStalls(t *testing.T) {
	m, ppu, _, _, _, cpu := newTestMemory()
	for i := 0; i < 256; i++ {
		m.Write(uint16(0x0300+i), uint8(i))
	}

	cpu.cycles = 100 // even start
	m.Write(0x4014, 0x03)
	require.Len(t, ppu.oam, 256)
	assert.Equal(t, uint8(0), ppu.oam[0])
	assert.Equal(t, uint8(255), ppu.oam[255])
	assert.Equal(t, 513, cpu.stalled)

	ppu.oam = nil
	cpu.stalled = 0
	cpu.cycles = 101 // odd start costs one more
	m.Write(0x4014, 0x03)
	assert.Equal(t, 514, cpu.stalled)
}
