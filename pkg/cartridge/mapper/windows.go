package mapper

// Bank and window geometry. The CPU sees PRG ROM through four 8 KiB slots at
// 0x8000/0xA000/0xC000/0xE000; the PPU sees patterns through eight 1 KiB
// slots and the nametables through four 1 KiB slots into cartridge VRAM.
// Every access indirects through these offsets, so bank switching is a table
// update, never a copy.
const (
	prgSlotSize = 0x2000
	chrSlotSize = 0x400
	ntSlotSize  = 0x400
)

type windows struct {
	data   *Data
	prg    [4]int
	chr    [8]int
	nt     [4]int
	mirror Mirroring
}

func newWindows(data *Data, mirror Mirroring) windows {
	w := windows{data: data}
	w.mapPRG16(0, 0)
	w.mapPRG16(1, w.prg16Count()-1)
	for i := 0; i < 8; i++ {
		w.mapCHR1(i, i)
	}
	w.setMirroring(mirror)
	return w
}

func (w *windows) prg16Count() int { return len(w.data.PRGROM) / (2 * prgSlotSize) }

func (w *windows) prg8Count() int { return len(w.data.PRGROM) / prgSlotSize }

func (w *windows) chr1Count() int { return len(w.data.CHR) / chrSlotSize }

// mapPRG16 points one of the two 16 KiB CPU windows at a 16 KiB bank.
func (w *windows) mapPRG16(window, bank int) {
	if n := w.prg16Count(); n > 0 {
		bank = ((bank % n) + n) % n
	} else {
		bank = 0
	}
	w.prg[window*2] = bank * 2 * prgSlotSize
	w.prg[window*2+1] = bank*2*prgSlotSize + prgSlotSize
}

// mapPRG8 points one 8 KiB CPU slot at an 8 KiB bank.
func (w *windows) mapPRG8(slot, bank int) {
	if n := w.prg8Count(); n > 0 {
		bank = ((bank % n) + n) % n
	} else {
		bank = 0
	}
	w.prg[slot] = bank * prgSlotSize
}

// mapCHR1 points one 1 KiB PPU slot at a 1 KiB bank.
func (w *windows) mapCHR1(slot, bank int) {
	if n := w.chr1Count(); n > 0 {
		bank = ((bank % n) + n) % n
	} else {
		bank = 0
	}
	w.chr[slot] = bank * chrSlotSize
}

// mapCHR8 points all eight PPU slots at one 8 KiB bank.
func (w *windows) mapCHR8(bank int) {
	for i := 0; i < 8; i++ {
		w.mapCHR1(i, bank*8+i)
	}
}

func (w *windows) setMirroring(m Mirroring) {
	w.mirror = m
	var layout [4]int
	switch m {
	case MirrorHorizontal:
		layout = [4]int{0, 0, 1, 1}
	case MirrorVertical:
		layout = [4]int{0, 1, 0, 1}
	case MirrorFourScreen:
		layout = [4]int{0, 1, 2, 3}
	case MirrorSingleLow:
		layout = [4]int{0, 0, 0, 0}
	case MirrorSingleHigh:
		layout = [4]int{1, 1, 1, 1}
	}
	for i, bank := range layout {
		w.nt[i] = bank * ntSlotSize
	}
}

func (w *windows) readPRGROM(addr uint16) uint8 {
	offset := w.prg[(addr-0x8000)/prgSlotSize] + int(addr&(prgSlotSize-1))
	if offset < len(w.data.PRGROM) {
		return w.data.PRGROM[offset]
	}
	return 0
}

func (w *windows) readPRGRAM(addr uint16) uint8 {
	if i := int(addr - 0x6000); i < len(w.data.PRGRAM) {
		return w.data.PRGRAM[i]
	}
	return 0
}

func (w *windows) writePRGRAM(addr uint16, value uint8) {
	if i := int(addr - 0x6000); i < len(w.data.PRGRAM) {
		w.data.PRGRAM[i] = value
	}
}

// readCHR resolves a PPU address below 0x3F00. Addresses 0x3000-0x3EFF alias
// 0x2000-0x2EFF.
func (w *windows) readCHR(addr uint16) uint8 {
	if addr < 0x2000 {
		offset := w.chr[addr/chrSlotSize] + int(addr&(chrSlotSize-1))
		if offset < len(w.data.CHR) {
			return w.data.CHR[offset]
		}
		return 0
	}
	nt := (addr & 0x0FFF) / ntSlotSize
	return w.data.VRAM[w.nt[nt]+int(addr&(ntSlotSize-1))]
}

func (w *windows) writeCHR(addr uint16, value uint8) {
	if addr < 0x2000 {
		if !w.data.CHRWritable {
			return
		}
		offset := w.chr[addr/chrSlotSize] + int(addr&(chrSlotSize-1))
		if offset < len(w.data.CHR) {
			w.data.CHR[offset] = value
		}
		return
	}
	nt := (addr & 0x0FFF) / ntSlotSize
	w.data.VRAM[w.nt[nt]+int(addr&(ntSlotSize-1))] = value
}
