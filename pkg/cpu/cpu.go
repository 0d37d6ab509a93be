package cpu

import (
	"github.com/snagata/famicore/pkg/logger"
)

// Bus is the CPU's window onto the rest of the machine. The memory package
// implements it on top of the cartridge mapper.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
}

// Interrupt identifies the three interrupt sources plus the idle state.
type Interrupt int

const (
	InterruptNone Interrupt = iota
	InterruptIRQ
	InterruptNMI
	InterruptReset
)

// Interrupt vectors and stack page.
const (
	vectorNMI    = 0xFFFA
	vectorReset  = 0xFFFC
	vectorIRQ    = 0xFFFE
	stackPage    = 0x0100
	stackDefault = 0xFD

	interruptCycles = 7
)

// Flags is the processor status register as named bits. The hardware byte is
// packed and unpacked explicitly; the always-one bit exists only in Raw.
type Flags struct {
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool
	Break            bool
	Overflow         bool
	Sign             bool
}

// Raw packs the flags into the status byte with the always-one bit set.
func (f *Flags) Raw() uint8 {
	var v uint8 = 0x20
	if f.Carry {
		v |= 0x01
	}
	if f.Zero {
		v |= 0x02
	}
	if f.InterruptDisable {
		v |= 0x04
	}
	if f.Decimal {
		v |= 0x08
	}
	if f.Break {
		v |= 0x10
	}
	if f.Overflow {
		v |= 0x40
	}
	if f.Sign {
		v |= 0x80
	}
	return v
}

// SetRaw unpacks a status byte pulled from the stack.
func (f *Flags) SetRaw(v uint8) {
	f.Carry = v&0x01 != 0
	f.Zero = v&0x02 != 0
	f.InterruptDisable = v&0x04 != 0
	f.Decimal = v&0x08 != 0
	f.Break = v&0x10 != 0
	f.Overflow = v&0x40 != 0
	f.Sign = v&0x80 != 0
}

// TrapStatus reports why the CPU stopped.
type TrapStatus int

const (
	TrapNone TrapStatus = iota
	TrapUnsupportedOpcode
)

// CPU is a 6502 interpreter stepped one cycle at a time. An instruction
// executes on the cycle its fetch lands on and leaves its cost in the busy
// counter; subsequent cycles drain the counter.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	PC uint16
	Flags

	bus Bus

	pending     Interrupt
	nmiDetected bool
	nmiQueued   bool

	busy        int
	branchTaken bool
	cycles      uint64

	Trap       TrapStatus
	TrapOpcode uint8

	cache cache
}

// New creates a CPU on the given bus. Reset must run before the first cycle.
func New(bus Bus) *CPU {
	return &CPU{bus: bus}
}

// Reset puts the CPU into its power-on state and issues the RESET interrupt,
// which loads PC from 0xFFFC and charges seven cycles.
func (c *CPU) Reset() {
	c.Flags = Flags{InterruptDisable: true}
	c.SP = stackDefault
	c.pending = InterruptNone
	c.nmiDetected = false
	c.nmiQueued = false
	c.Trap = TrapNone
	c.busy = interruptCycles
	c.branchTaken = false
	c.cache.invalidate()
	c.Interrupt(InterruptReset)
}

// SetNMILine samples the level the PPU drives. Only the 0-to-1 transition is
// latched; the level staying high does not retrigger.
func (c *CPU) SetNMILine(level bool) {
	if level && !c.nmiDetected {
		c.nmiDetected = true
		c.nmiQueued = true
	} else if !level {
		c.nmiDetected = false
	}
}

// Interrupt queues an interrupt. IRQs are refused while the disable flag is
// set, and nothing displaces an already-latched NMI. RESET takes effect
// immediately.
func (c *CPU) Interrupt(kind Interrupt) {
	if kind == InterruptNone {
		return
	}
	if kind == InterruptReset {
		c.InterruptDisable = true
		c.PC = c.read16(vectorReset)
		return
	}
	if kind == InterruptIRQ && c.InterruptDisable {
		return
	}
	if c.pending == InterruptNMI {
		return
	}
	c.pending = kind
}

// Cycle advances the CPU by one cycle. It returns true only when execution
// trapped on an unmapped opcode.
func (c *CPU) Cycle() bool {
	c.cycles++

	if c.busy > 0 {
		c.busy--
		return false
	}

	if c.nmiQueued {
		c.nmiQueued = false
		c.Interrupt(InterruptNMI)
	}

	switch c.pending {
	case InterruptIRQ:
		c.service(vectorIRQ)
		c.pending = InterruptNone
		c.busy = interruptCycles
		return false
	case InterruptNMI:
		c.service(vectorNMI)
		c.pending = InterruptNone
		c.busy = interruptCycles
		return false
	}

	return c.execute()
}

// execute fetches, decodes and runs one instruction, charging its cycle cost
// into the busy counter.
func (c *CPU) execute() bool {
	if entry, ok := c.cache.lookup(c.PC); ok {
		c.PC += uint16(entry.size)
		c.branchTaken = false
		entry.exec(c, entry.addr)
		c.busy += entry.cycles
		if c.branchTaken {
			c.busy++
		}
		return false
	}

	opcode := c.bus.Read(c.PC)
	in := &instructions[opcode]
	if in.exec == nil {
		logger.CPU("unsupported opcode 0x%02X at PC=0x%04X", opcode, c.PC)
		c.Trap = TrapUnsupportedOpcode
		c.TrapOpcode = opcode
		return true
	}

	addr, crossed := c.operandAddress(in.mode, c.PC)
	size := modeSizes[in.mode]

	cycles := in.cycles
	if in.pageCycle && crossed {
		cycles++
	}
	if cacheableModes[in.mode] {
		c.cache.store(c.PC, cachedInstr{exec: in.exec, addr: addr, size: size, cycles: cycles})
	}

	c.PC += uint16(size)
	c.branchTaken = false
	in.exec(c, addr)
	c.busy += cycles
	if c.branchTaken {
		c.busy++
	}
	return false
}

// service pushes PC and status and vectors to the handler. Hardware
// interrupts push with the break bit clear.
func (c *CPU) service(vector uint16) {
	c.push16(c.PC)
	c.push8(c.Flags.Raw() &^ 0x10)
	c.InterruptDisable = true
	c.PC = c.read16(vector)
}

// AddStall charges extra cycles into the busy counter; used by OAM DMA.
func (c *CPU) AddStall(cycles int) {
	c.busy += cycles
}

// Cycles returns the total number of CPU cycles stepped since power-on.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// InvalidateCache discards all pre-decoded instructions. The bus calls this
// whenever a write may have switched a program bank.
func (c *CPU) InvalidateCache() {
	c.cache.invalidate()
}

// Memory and stack helpers.

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.bus.Read(addr))
	hi := uint16(c.bus.Read(addr + 1))
	return hi<<8 | lo
}

// read16Bug reproduces the hardware's indirect fetch: when the pointer's low
// byte is 0xFF the high byte comes from the start of the same page.
func (c *CPU) read16Bug(addr uint16) uint16 {
	if addr&0xFF == 0xFF {
		lo := uint16(c.bus.Read(addr))
		hi := uint16(c.bus.Read(addr & 0xFF00))
		return hi<<8 | lo
	}
	return c.read16(addr)
}

func (c *CPU) push8(value uint8) {
	c.bus.Write(stackPage|uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop8() uint8 {
	c.SP++
	return c.bus.Read(stackPage | uint16(c.SP))
}

func (c *CPU) push16(value uint16) {
	c.push8(uint8(value >> 8))
	c.push8(uint8(value))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop8())
	hi := uint16(c.pop8())
	return hi<<8 | lo
}
