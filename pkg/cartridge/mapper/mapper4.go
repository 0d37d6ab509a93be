package mapper

import "github.com/snagata/famicore/pkg/logger"

// Mapper4 (MMC3) pairs even/odd register writes across four address ranges:
// bank select/data, mirroring/RAM protect, IRQ latch/reload, IRQ
// disable/enable. The IRQ counter is clocked by rising edges of PPU address
// line A12, which the PPU reports through NotifyA12 on every pattern fetch.
type Mapper4 struct {
	windows

	bankSelect uint8
	banks      [8]uint8
	ramProtect uint8

	irqLatch   uint8
	irqCounter uint8
	irqReload  bool
	irqEnabled bool
	irqPending bool

	a12High bool
	a12Low  int // pattern fetches observed with A12 low since the last edge
}

// NewMapper4 creates an MMC3 mapper. The two fixed PRG slots point at the
// last banks so the reset vector is reachable before any register write.
func NewMapper4(data *Data, mirror Mirroring) *Mapper4 {
	m := &Mapper4{windows: newWindows(data, mirror), ramProtect: 0x80}
	m.banks[6] = uint8(m.prg8Count() - 2)
	m.banks[7] = uint8(m.prg8Count() - 1)
	for i := 0; i < 6; i++ {
		m.banks[i] = uint8(i)
	}
	m.apply()
	return m
}

// ReadPRG reads PRG RAM (when enabled) or banked ROM.
func (m *Mapper4) ReadPRG(addr uint16) uint8 {
	switch {
	case addr >= 0x8000:
		return m.readPRGROM(addr)
	case addr >= 0x6000:
		if m.ramProtect&0x80 != 0 {
			return m.readPRGRAM(addr)
		}
	}
	return 0
}

// WritePRG dispatches register writes by range and address parity.
func (m *Mapper4) WritePRG(addr uint16, value uint8) {
	if addr >= 0x6000 && addr < 0x8000 {
		if m.ramProtect&0x80 != 0 && m.ramProtect&0x40 == 0 {
			m.writePRGRAM(addr, value)
		}
		return
	}
	if addr < 0x8000 {
		return
	}

	switch addr & 0xE001 {
	case 0x8000:
		m.bankSelect = value
		m.apply()
	case 0x8001:
		m.banks[m.bankSelect&0x07] = value
		m.apply()
	case 0xA000:
		if m.mirror != MirrorFourScreen {
			if value&1 != 0 {
				m.setMirroring(MirrorHorizontal)
			} else {
				m.setMirroring(MirrorVertical)
			}
		}
	case 0xA001:
		m.ramProtect = value
	case 0xC000:
		m.irqLatch = value
	case 0xC001:
		m.irqCounter = 0
		m.irqReload = true
	case 0xE000:
		m.irqEnabled = false
		m.irqPending = false
	case 0xE001:
		m.irqEnabled = true
	}
}

// apply rebuilds the window table from the bank registers, honouring the PRG
// bank mode (bit 6) and CHR A12 inversion (bit 7).
func (m *Mapper4) apply() {
	last := m.prg8Count() - 1
	if m.bankSelect&0x40 == 0 {
		m.mapPRG8(0, int(m.banks[6]))
		m.mapPRG8(1, int(m.banks[7]))
		m.mapPRG8(2, last-1)
		m.mapPRG8(3, last)
	} else {
		m.mapPRG8(0, last-1)
		m.mapPRG8(1, int(m.banks[7]))
		m.mapPRG8(2, int(m.banks[6]))
		m.mapPRG8(3, last)
	}

	// R0/R1 are 2 KiB banks (low bit ignored), R2-R5 are 1 KiB. Bit 7 swaps
	// the two pattern-table halves.
	inv := 0
	if m.bankSelect&0x80 != 0 {
		inv = 4
	}
	m.mapCHR1(inv^0, int(m.banks[0]&0xFE))
	m.mapCHR1(inv^1, int(m.banks[0]&0xFE)+1)
	m.mapCHR1(inv^2, int(m.banks[1]&0xFE))
	m.mapCHR1(inv^3, int(m.banks[1]&0xFE)+1)
	m.mapCHR1(inv^4, int(m.banks[2]))
	m.mapCHR1(inv^5, int(m.banks[3]))
	m.mapCHR1(inv^6, int(m.banks[4]))
	m.mapCHR1(inv^7, int(m.banks[5]))
}

// ReadCHR reads pattern or nametable memory.
func (m *Mapper4) ReadCHR(addr uint16) uint8 { return m.readCHR(addr) }

// WriteCHR writes CHR RAM or nametable memory.
func (m *Mapper4) WriteCHR(addr uint16, value uint8) { m.writeCHR(addr, value) }

// NotifyA12 watches PPU pattern fetches for A12 rising edges. The line must
// have been observed low a few fetches in a row before an edge counts, which
// filters the rapid toggling inside a single tile fetch.
func (m *Mapper4) NotifyA12(addr uint16) {
	high := addr&0x1000 != 0
	if !high {
		m.a12Low++
		m.a12High = false
		return
	}
	if !m.a12High && m.a12Low >= 3 {
		m.clockIRQ()
	}
	m.a12High = true
	m.a12Low = 0
}

func (m *Mapper4) clockIRQ() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
		logger.Mapper("MMC3 IRQ asserted (latch=%d)", m.irqLatch)
	}
}

// IRQPending reports whether the scanline counter has asserted the IRQ line.
func (m *Mapper4) IRQPending() bool { return m.irqPending }

// ClearIRQ deasserts the IRQ line after the CPU services it.
func (m *Mapper4) ClearIRQ() { m.irqPending = false }
