package ppu

import (
	"github.com/snagata/famicore/pkg/region"
)

// Mapper is the cartridge side of the PPU bus: pattern tables and nametables
// live behind it. NotifyA12 feeds pattern-fetch addresses to mappers with an
// A12-clocked IRQ counter.
type Mapper interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)
	NotifyA12(addr uint16)
}

// Control is PPUCTRL (0x2000) as named fields.
type Control struct {
	NametableSelect uint8 // base nametable, bits 0-1
	IncrementBy32   bool  // PPUDATA increment 32 instead of 1
	SpriteTableHigh bool  // 8x8 sprites fetch from 0x1000
	BGTableHigh     bool  // background fetches from 0x1000
	SpriteSize16    bool  // 8x16 sprites
	MasterSlave     bool
	NMIEnable       bool
}

// SetRaw unpacks the register byte.
func (c *Control) SetRaw(v uint8) {
	c.NametableSelect = v & 0x03
	c.IncrementBy32 = v&0x04 != 0
	c.SpriteTableHigh = v&0x08 != 0
	c.BGTableHigh = v&0x10 != 0
	c.SpriteSize16 = v&0x20 != 0
	c.MasterSlave = v&0x40 != 0
	c.NMIEnable = v&0x80 != 0
}

// Mask is PPUMASK (0x2001) as named fields.
type Mask struct {
	Greyscale      bool
	ShowLeftBG     bool
	ShowLeftSprite bool
	ShowBG         bool
	ShowSprites    bool
	EmphasizeR     bool
	EmphasizeG     bool
	EmphasizeB     bool
}

// SetRaw unpacks the register byte.
func (m *Mask) SetRaw(v uint8) {
	m.Greyscale = v&0x01 != 0
	m.ShowLeftBG = v&0x02 != 0
	m.ShowLeftSprite = v&0x04 != 0
	m.ShowBG = v&0x08 != 0
	m.ShowSprites = v&0x10 != 0
	m.EmphasizeR = v&0x20 != 0
	m.EmphasizeG = v&0x40 != 0
	m.EmphasizeB = v&0x80 != 0
}

// rendering reports whether either layer is enabled.
func (m *Mask) rendering() bool { return m.ShowBG || m.ShowSprites }

// Screen geometry and frame timing.
const (
	Width  = 256
	Height = 240

	dotsPerScanline  = 341
	visibleScanlines = 240
	vblankScanline   = 241
)

// PPU is the picture processing unit, stepped one dot at a time.
type PPU struct {
	Ctrl Control
	Mask Mask

	// PPUSTATUS bits
	vblank         bool
	sprite0Hit     bool
	spriteOverflow bool

	oamAddr uint8

	// Scroll latches. v and t pack coarse-x:5 / coarse-y:5 / nametable:2 /
	// fine-y:3; x is the fine-x offset; w is the shared write toggle.
	v uint16
	t uint16
	x uint8
	w bool

	readBuffer uint8

	oam       [256]uint8
	secondary [32]uint8
	palette   [32]uint8

	// Background pipeline latches.
	ntByte    uint8
	atByte    uint8
	patternLo uint8
	patternHi uint8
	bgShiftLo uint16
	bgShiftHi uint16
	atShiftLo uint16
	atShiftHi uint16

	// Sprite latches for the scanline in progress.
	spriteCount  int
	spriteLo     [8]uint8
	spriteHi     [8]uint8
	spriteAttr   [8]uint8
	spriteX      [8]uint8
	spriteIsZero [8]bool

	Cycle    int
	Scanline int
	Frame    uint64
	odd      bool
	flip     bool

	frameBuffer [Width * Height]uint8

	mapper    Mapper
	preRender int
}

// New creates a PPU for the given region.
func New(r region.Region) *PPU {
	return &PPU{preRender: r.Scanlines() - 1}
}

// SetMapper attaches the cartridge side of the PPU bus.
func (p *PPU) SetMapper(m Mapper) {
	p.mapper = m
}

// Reset returns the PPU to its power-on register state.
func (p *PPU) Reset() {
	p.Ctrl = Control{}
	p.Mask = Mask{}
	p.vblank = false
	p.sprite0Hit = false
	p.spriteOverflow = false
	p.oamAddr = 0
	p.v = 0
	p.t = 0
	p.x = 0
	p.w = false
	p.readBuffer = 0
	p.Cycle = 0
	p.Scanline = 0
	p.Frame = 0
	p.odd = false
	p.flip = false
	p.spriteCount = 0
}

// NMILine is the level the PPU drives into the CPU; the CPU latches the
// rising edge.
func (p *PPU) NMILine() bool {
	return p.vblank && p.Ctrl.NMIEnable
}

// TakeFrameFlip reports and consumes the once-per-frame completion edge.
func (p *PPU) TakeFrameFlip() bool {
	flip := p.flip
	p.flip = false
	return flip
}

// FrameBuffer exposes the palette-indexed 256x240 raster of the last
// completed dot.
func (p *PPU) FrameBuffer() []uint8 {
	return p.frameBuffer[:]
}

// Step advances the PPU by one dot.
func (p *PPU) Step() {
	visible := p.Scanline < visibleScanlines
	pre := p.Scanline == p.preRender
	rendering := p.Mask.rendering()

	if rendering && (visible || pre) {
		p.stepBackground(visible, pre)
		if visible {
			p.stepSprites()
		}
	}

	// Status events happen at fixed dots regardless of rendering.
	if p.Scanline == vblankScanline && p.Cycle == 1 {
		p.vblank = true
	}
	if pre && p.Cycle == 1 {
		p.vblank = false
		p.sprite0Hit = false
		p.spriteOverflow = false
	}

	p.advance(pre, rendering)
}

// advance moves the dot and scanline counters, handling the odd-frame skip
// and the frame flip edge.
func (p *PPU) advance(pre, rendering bool) {
	p.Cycle++
	if p.Cycle < dotsPerScanline {
		return
	}
	p.Cycle = 0
	p.Scanline++
	if p.Scanline <= p.preRender {
		return
	}
	p.Scanline = 0
	p.Frame++
	p.odd = !p.odd
	p.flip = true
	if p.odd && rendering {
		// Odd frames drop dot (0,0), making the frame one dot short.
		p.Cycle = 1
	}
}

// ReadRegister handles the CPU-visible register file at 0x2000-0x2007.
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr {
	case 0x2002: // PPUSTATUS
		var value uint8
		if p.vblank {
			value |= 0x80
		}
		if p.sprite0Hit {
			value |= 0x40
		}
		if p.spriteOverflow {
			value |= 0x20
		}
		p.vblank = false
		p.w = false
		return value

	case 0x2004: // OAMDATA
		return p.oam[p.oamAddr]

	case 0x2007: // PPUDATA
		var value uint8
		if p.v&0x3FFF >= 0x3F00 {
			// Palette reads bypass the buffer; the buffer still picks up the
			// nametable byte underneath.
			value = p.readPalette(p.v)
			p.readBuffer = p.readVRAM(p.v - 0x1000)
		} else {
			value = p.readBuffer
			p.readBuffer = p.readVRAM(p.v)
		}
		p.incrementV()
		return value
	}
	return 0
}

// WriteRegister handles the CPU-visible register file at 0x2000-0x2007.
func (p *PPU) WriteRegister(addr uint16, value uint8) {
	switch addr {
	case 0x2000: // PPUCTRL
		p.Ctrl.SetRaw(value)
		p.t = (p.t & 0xF3FF) | (uint16(value)&0x03)<<10

	case 0x2001: // PPUMASK
		p.Mask.SetRaw(value)

	case 0x2003: // OAMADDR
		p.oamAddr = value

	case 0x2004: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++

	case 0x2005: // PPUSCROLL
		if !p.w {
			p.t = (p.t & 0xFFE0) | uint16(value)>>3
			p.x = value & 0x07
		} else {
			p.t = (p.t & 0x8FFF) | (uint16(value)&0x07)<<12
			p.t = (p.t & 0xFC1F) | (uint16(value)&0xF8)<<2
		}
		p.w = !p.w

	case 0x2006: // PPUADDR
		if !p.w {
			p.t = (p.t & 0x80FF) | (uint16(value)&0x3F)<<8
		} else {
			p.t = (p.t & 0xFF00) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w

	case 0x2007: // PPUDATA
		p.writeVRAM(p.v, value)
		p.incrementV()
	}
}

// WriteOAM is the DMA port: one byte into OAM at the current address.
func (p *PPU) WriteOAM(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

func (p *PPU) incrementV() {
	if p.Ctrl.IncrementBy32 {
		p.v += 32
	} else {
		p.v++
	}
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		return p.readPalette(addr)
	}
	if p.mapper == nil {
		return 0
	}
	return p.mapper.ReadCHR(addr)
}

func (p *PPU) writeVRAM(addr uint16, value uint8) {
	addr &= 0x3FFF
	if addr >= 0x3F00 {
		p.writePalette(addr, value)
		return
	}
	if p.mapper != nil {
		p.mapper.WriteCHR(addr, value)
	}
}
