package test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snagata/famicore/pkg/cartridge"
	"github.com/snagata/famicore/pkg/nes"
	"github.com/snagata/famicore/pkg/region"
)

// buildMMC3ROM assembles a mapper-4 image: 128 KiB of PRG with every 8 KiB
// bank stamped with its index, plus 8 KiB of CHR.
func buildMMC3ROM(t *testing.T) *cartridge.Cartridge {
	t.Helper()
	header := make([]byte, 16)
	copy(header, "NES\x1A")
	header[4] = 8    // 8 x 16 KiB PRG
	header[5] = 1    // CHR
	header[6] = 0x40 // mapper 4, horizontal mirroring

	prg := make([]byte, 8*0x4000)
	for i := range prg {
		prg[i] = uint8(i / 0x2000)
	}

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(prg)
	buf.Write(make([]byte, 0x2000))

	data := buf.Bytes()
	cart, status := cartridge.Load(bytes.NewReader(data), len(data))
	require.Equal(t, cartridge.LoadOK, status)
	return cart
}

func TestMMC3BankSelectThroughBus(t *testing.T) {
	s := nes.New(region.NTSC)
	s.LoadCartridge(buildMMC3ROM(t))

	// Fixed windows first.
	assert.Equal(t, uint8(15), s.Memory.Read(0xE000))

	s.Memory.Write(0x8000, 6)
	s.Memory.Write(0x8001, 0x07)
	s.Memory.Write(0x8000, 7)
	s.Memory.Write(0x8001, 0x08)

	assert.Equal(t, uint8(0x07), s.Memory.Read(0x8000))
	assert.Equal(t, uint8(0x08), s.Memory.Read(0xA000))
}

func TestMMC3ScanlineIRQFromRendering(t *testing.T) {
	s := nes.New(region.NTSC)
	cart := buildMMC3ROM(t)
	s.LoadCartridge(cart)

	// Background from 0x0000, sprites from 0x1000: A12 rises in the sprite
	// fetch region of every rendered scanline.
	s.Memory.Write(0x2000, 0x08)
	s.Memory.Write(0x2001, 0x18)

	s.Memory.Write(0xC000, 2) // latch
	s.Memory.Write(0xC001, 0) // reload
	s.Memory.Write(0xE001, 0) // enable

	require.False(t, cart.Mapper.IRQPending())

	// Four rendered scanlines give the counter its reload plus enough
	// decrements to expire.
	for i := 0; i < 4*341; i++ {
		s.PPU.Step()
	}
	assert.True(t, cart.Mapper.IRQPending())

	cart.Mapper.ClearIRQ()
	assert.False(t, cart.Mapper.IRQPending())
}
