package cpu

// AddressingMode enumerates the documented 6502 addressing modes.
type AddressingMode int

const (
	ModeImplied AddressingMode = iota
	ModeAccumulator
	ModeImmediate
	ModeZeroPage
	ModeZeroPageX
	ModeZeroPageY
	ModeRelative
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirect
	ModeIndexedIndirect // (zp,X)
	ModeIndirectIndexed // (zp),Y
	numModes
)

// modeSizes gives the instruction length in bytes per mode.
var modeSizes = [numModes]int{
	ModeImplied:         1,
	ModeAccumulator:     1,
	ModeImmediate:       2,
	ModeZeroPage:        2,
	ModeZeroPageX:       2,
	ModeZeroPageY:       2,
	ModeRelative:        2,
	ModeAbsolute:        3,
	ModeAbsoluteX:       3,
	ModeAbsoluteY:       3,
	ModeIndirect:        3,
	ModeIndexedIndirect: 2,
	ModeIndirectIndexed: 2,
}

// cacheableModes marks the modes whose effective address does not depend on
// runtime register state, making the decode safe to pre-compute.
var cacheableModes = [numModes]bool{
	ModeImplied:     true,
	ModeAccumulator: true,
	ModeImmediate:   true,
	ModeZeroPage:    true,
	ModeRelative:    true,
	ModeAbsolute:    true,
	ModeIndirect:    true,
}

// operandAddress resolves the effective address for an instruction at pc
// without advancing it. The second result reports a page crossing for the
// modes that charge one.
func (c *CPU) operandAddress(mode AddressingMode, pc uint16) (uint16, bool) {
	switch mode {
	case ModeImplied, ModeAccumulator:
		return 0, false

	case ModeImmediate:
		return pc + 1, false

	case ModeZeroPage:
		return uint16(c.bus.Read(pc + 1)), false

	case ModeZeroPageX:
		return uint16(c.bus.Read(pc+1)+c.X) & 0xFF, false

	case ModeZeroPageY:
		return uint16(c.bus.Read(pc+1)+c.Y) & 0xFF, false

	case ModeRelative:
		// Branches never report a crossing here; their only extra cycle is
		// the branch-taken one charged by the dispatcher.
		offset := int8(c.bus.Read(pc + 1))
		addr := uint16(int32(pc+2) + int32(offset))
		return addr, false

	case ModeAbsolute:
		return c.read16(pc + 1), false

	case ModeAbsoluteX:
		base := c.read16(pc + 1)
		addr := base + uint16(c.X)
		return addr, base&0xFF00 != addr&0xFF00

	case ModeAbsoluteY:
		base := c.read16(pc + 1)
		addr := base + uint16(c.Y)
		return addr, base&0xFF00 != addr&0xFF00

	case ModeIndirect:
		return c.read16Bug(c.read16(pc + 1)), false

	case ModeIndexedIndirect:
		ptr := uint16(c.bus.Read(pc+1)+c.X) & 0xFF
		lo := uint16(c.bus.Read(ptr))
		hi := uint16(c.bus.Read((ptr + 1) & 0xFF))
		return hi<<8 | lo, false

	case ModeIndirectIndexed:
		ptr := uint16(c.bus.Read(pc + 1))
		lo := uint16(c.bus.Read(ptr))
		hi := uint16(c.bus.Read((ptr + 1) & 0xFF))
		base := hi<<8 | lo
		addr := base + uint16(c.Y)
		return addr, base&0xFF00 != addr&0xFF00
	}
	return 0, false
}
