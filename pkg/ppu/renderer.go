package ppu

// Background pipeline: the 8-cycle fetch cadence (nametable, attribute,
// pattern low, pattern high at dots 2, 4, 6, 0 mod 8), the pattern and
// attribute shift registers, and the scroll-counter updates on v.

func (p *PPU) stepBackground(visible, pre bool) {
	fetchWindow := (p.Cycle >= 1 && p.Cycle <= 256) || (p.Cycle >= 321 && p.Cycle <= 336)

	if fetchWindow {
		if visible && p.Cycle <= 256 {
			p.renderPixel()
		}
		p.shiftBackground()
		switch p.Cycle % 8 {
		case 2:
			p.fetchNametable()
		case 4:
			p.fetchAttribute()
		case 6:
			p.fetchPatternLow()
		case 0:
			p.fetchPatternHigh()
			p.loadShifters()
			p.incrementCoarseX()
		}
	}
	if p.Cycle == 340 {
		p.fetchNametable()
	}

	if p.Cycle == 256 {
		p.incrementY()
	}
	if p.Cycle == 257 {
		p.copyHorizontal()
	}
	if pre && p.Cycle >= 280 && p.Cycle <= 304 {
		p.copyVertical()
	}
}

func (p *PPU) fetchNametable() {
	p.ntByte = p.readVRAM(0x2000 | p.v&0x0FFF)
}

// fetchAttribute reads the attribute byte and reduces it to the two palette
// bits for the current tile quadrant.
func (p *PPU) fetchAttribute() {
	addr := 0x23C0 | p.v&0x0C00 | p.v>>4&0x38 | p.v>>2&0x07
	shift := (p.v >> 4 & 0x04) | (p.v & 0x02)
	p.atByte = p.readVRAM(addr) >> shift & 0x03
}

func (p *PPU) patternAddress() uint16 {
	addr := uint16(p.ntByte)*16 + (p.v >> 12 & 0x07)
	if p.Ctrl.BGTableHigh {
		addr += 0x1000
	}
	return addr
}

func (p *PPU) fetchPatternLow() {
	addr := p.patternAddress()
	p.notifyA12(addr)
	p.patternLo = p.readVRAM(addr)
}

func (p *PPU) fetchPatternHigh() {
	addr := p.patternAddress() + 8
	p.notifyA12(addr)
	p.patternHi = p.readVRAM(addr)
}

func (p *PPU) notifyA12(addr uint16) {
	if p.mapper != nil {
		p.mapper.NotifyA12(addr)
	}
}

// loadShifters moves the fetched tile into the low byte of each shifter; the
// high byte still holds the tile being emitted.
func (p *PPU) loadShifters() {
	p.bgShiftLo = p.bgShiftLo&0xFF00 | uint16(p.patternLo)
	p.bgShiftHi = p.bgShiftHi&0xFF00 | uint16(p.patternHi)
	// The attribute pair is constant across the tile, so it inflates to a
	// full byte.
	p.atShiftLo &= 0xFF00
	if p.atByte&0x01 != 0 {
		p.atShiftLo |= 0x00FF
	}
	p.atShiftHi &= 0xFF00
	if p.atByte&0x02 != 0 {
		p.atShiftHi |= 0x00FF
	}
}

func (p *PPU) shiftBackground() {
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.atShiftLo <<= 1
	p.atShiftHi <<= 1
}

// incrementCoarseX advances v one tile to the right, toggling the horizontal
// nametable on wrap.
func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY advances fine-y, carrying into coarse-y. Row 29 wraps with a
// vertical nametable toggle; row 31 wraps without (attribute territory).
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := p.v >> 5 & 0x1F
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | y<<5
}

// copyHorizontal loads the horizontal bits of t into v at dot 257.
func (p *PPU) copyHorizontal() {
	p.v = p.v&^0x041F | p.t&0x041F
}

// copyVertical loads the vertical bits of t into v on pre-render dots
// 280-304.
func (p *PPU) copyVertical() {
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}

// renderPixel combines the background and sprite pipelines for the dot at
// (Scanline, Cycle-1) and writes the resolved palette color.
func (p *PPU) renderPixel() {
	x := p.Cycle - 1
	y := p.Scanline

	var bgPixel, bgPalette uint8
	if p.Mask.ShowBG && (x >= 8 || p.Mask.ShowLeftBG) {
		mux := uint16(0x8000) >> p.x
		if p.bgShiftLo&mux != 0 {
			bgPixel |= 0x01
		}
		if p.bgShiftHi&mux != 0 {
			bgPixel |= 0x02
		}
		if p.atShiftLo&mux != 0 {
			bgPalette |= 0x01
		}
		if p.atShiftHi&mux != 0 {
			bgPalette |= 0x02
		}
	}

	spPixel, spPalette, spBehind, spZero := p.spritePixel(x)

	var paletteAddr uint16
	switch {
	case bgPixel == 0 && spPixel == 0:
		paletteAddr = 0x3F00
	case bgPixel == 0:
		paletteAddr = 0x3F10 + uint16(spPalette)<<2 + uint16(spPixel)
	case spPixel == 0:
		paletteAddr = 0x3F00 + uint16(bgPalette)<<2 + uint16(bgPixel)
	default:
		if spZero && x != 255 {
			p.sprite0Hit = true
		}
		if spBehind {
			paletteAddr = 0x3F00 + uint16(bgPalette)<<2 + uint16(bgPixel)
		} else {
			paletteAddr = 0x3F10 + uint16(spPalette)<<2 + uint16(spPixel)
		}
	}

	color := p.readPalette(paletteAddr)
	if p.Mask.Greyscale {
		color &= 0x30
	}
	p.frameBuffer[y*Width+x] = color
}
