package mapper

// Mapper3 (CNROM) switches the whole 8 KiB pattern space; PRG is fixed.
type Mapper3 struct {
	windows
}

// NewMapper3 creates a CNROM mapper.
func NewMapper3(data *Data, mirror Mirroring) *Mapper3 {
	m := &Mapper3{windows: newWindows(data, mirror)}
	if m.prg16Count() == 1 {
		m.mapPRG16(1, 0)
	}
	return m
}

// ReadPRG reads PRG RAM or ROM.
func (m *Mapper3) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return m.readPRGROM(addr)
	case addr >= 0x6000:
		return m.readPRGRAM(addr)
	}
	return 0
}

// WritePRG selects the CHR bank on ROM-range writes.
func (m *Mapper3) WritePRG(addr uint16, value uint8) {
	switch {
	case addr >= 0x8000:
		m.mapCHR8(int(value & 0x03))
	case addr >= 0x6000:
		m.writePRGRAM(addr, value)
	}
}

// ReadCHR reads pattern or nametable memory.
func (m *Mapper3) ReadCHR(addr uint16) uint8 { return m.readCHR(addr) }

// WriteCHR writes CHR RAM or nametable memory.
func (m *Mapper3) WriteCHR(addr uint16, value uint8) { m.writeCHR(addr, value) }

// NotifyA12 is a no-op; CNROM has no IRQ counter.
func (m *Mapper3) NotifyA12(addr uint16) {}

// IRQPending always reports false for CNROM.
func (m *Mapper3) IRQPending() bool { return false }

// ClearIRQ is a no-op for CNROM.
func (m *Mapper3) ClearIRQ() {}
