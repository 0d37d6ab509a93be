package cartridge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/snagata/famicore/pkg/cartridge/mapper"
	"github.com/snagata/famicore/pkg/logger"
	"github.com/snagata/famicore/pkg/region"
)

// LoadStatus classifies the outcome of a ROM load attempt.
type LoadStatus int

const (
	LoadOK LoadStatus = iota
	LoadMissing
	LoadDamaged
	LoadUnknownMapper
)

func (s LoadStatus) String() string {
	switch s {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadDamaged:
		return "damaged"
	case LoadUnknownMapper:
		return "unknown mapper"
	}
	return "invalid"
}

// Format distinguishes the three header generations the loader accepts.
type Format int

const (
	FormatArchaic Format = iota
	FormatINES
	FormatNES2
)

func (f Format) String() string {
	switch f {
	case FormatINES:
		return "iNES"
	case FormatNES2:
		return "NES 2.0"
	}
	return "archaic NES"
}

// Header is the decoded 16-byte file header.
// https://wiki.nesdev.com/w/index.php/INES#iNES_file_format
type Header struct {
	PRGUnits uint8 // 16 KiB units
	CHRUnits uint8 // 8 KiB units; 0 means CHR RAM
	Flags6   uint8
	Flags7   uint8
	Flags8   uint8
	Flags9   uint8
	Flags10  uint8
	Tail     [5]uint8
}

// Flag accessors; pack/unpack is explicit rather than struct-layout tricks.

func (h *Header) MirrorVertical() bool { return h.Flags6&0x01 != 0 }

func (h *Header) PersistentRAM() bool { return h.Flags6&0x02 != 0 }

func (h *Header) HasTrainer() bool { return h.Flags6&0x04 != 0 }

func (h *Header) FourScreen() bool { return h.Flags6&0x08 != 0 }

func (h *Header) Version() uint8 { return (h.Flags7 >> 2) & 0x03 }

// Format detects NES 2.0 by the version field plus a PRG size consistent
// with the file length, and iNES by a zeroed tail; anything else is archaic.
func (h *Header) Format(fileSize int) Format {
	prgUnits := int(h.PRGUnits) | int(h.Flags9&0x0F)<<8
	if h.Version() == 2 && prgUnits*0x4000 <= fileSize {
		return FormatNES2
	}
	if h.Version() == 0 && h.Tail == [5]uint8{} {
		return FormatINES
	}
	return FormatArchaic
}

// MapperNumber combines the nibbles from flags 6/7 plus the NES 2.0
// extension bits.
func (h *Header) MapperNumber(f Format) uint32 {
	n := uint32(h.Flags6>>4) | uint32(h.Flags7&0xF0)
	if f == FormatNES2 {
		n |= uint32(h.Flags8&0x0F) << 8
	}
	return n
}

// PRGSize returns the PRG ROM size in bytes.
func (h *Header) PRGSize(f Format) int {
	units := int(h.PRGUnits)
	if f == FormatNES2 {
		units |= int(h.Flags9&0x0F) << 8
	}
	return units * 0x4000
}

// CHRSize returns the CHR ROM size in bytes; 0 means the cartridge carries
// CHR RAM instead.
func (h *Header) CHRSize(f Format) int {
	units := int(h.CHRUnits)
	if f == FormatNES2 {
		units |= int(h.Flags9&0xF0) << 4
	}
	return units * 0x2000
}

// Region reads the TV-system bits: byte 12 for NES 2.0, byte 9 bit 0 for
// iNES. Both header generations default to NTSC.
func (h *Header) Region(f Format) region.Region {
	if f == FormatNES2 {
		timing := h.Tail[1]
		if timing&0x01 != 0 && timing&0x02 == 0 {
			return region.PAL
		}
		return region.NTSC
	}
	if h.Flags9&0x01 != 0 {
		return region.PAL
	}
	return region.NTSC
}

// Cartridge owns the ROM banks, the optional save RAM, and the mapper that
// banks them into the CPU and PPU address spaces.
type Cartridge struct {
	Header Header
	Format Format

	PRGROM []uint8
	CHR    []uint8
	PRGRAM []uint8
	VRAM   []uint8

	Persistent bool
	Mapper     mapper.Mapper
}

const (
	headerSize  = 16
	trainerSize = 512
	prgRAMSize  = 0x2000
	chrRAMSize  = 0x2000
	vramSize    = 0x0800
)

var magic = []byte{0x4E, 0x45, 0x53, 0x1A}

// LoadFile opens and parses a ROM file, mapping filesystem and parse errors
// to a LoadStatus the system surfaces to the host.
func LoadFile(path string) (*Cartridge, LoadStatus) {
	file, err := os.Open(path)
	if err != nil {
		logger.Error("ROM open failed: %v", err)
		return nil, LoadMissing
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, LoadMissing
	}
	return Load(file, int(info.Size()))
}

// Load parses a ROM image of the given total size from r.
func Load(r io.Reader, fileSize int) (*Cartridge, LoadStatus) {
	cart := &Cartridge{}

	raw := make([]uint8, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, LoadDamaged
	}
	if !bytes.Equal(raw[:4], magic) {
		return nil, LoadDamaged
	}
	cart.Header = Header{
		PRGUnits: raw[4],
		CHRUnits: raw[5],
		Flags6:   raw[6],
		Flags7:   raw[7],
		Flags8:   raw[8],
		Flags9:   raw[9],
		Flags10:  raw[10],
	}
	copy(cart.Header.Tail[:], raw[11:])
	cart.Format = cart.Header.Format(fileSize)
	cart.Persistent = cart.Header.PersistentRAM()

	if cart.Header.HasTrainer() {
		if _, err := io.CopyN(io.Discard, r, trainerSize); err != nil {
			return nil, LoadDamaged
		}
	}

	cart.PRGROM = make([]uint8, cart.Header.PRGSize(cart.Format))
	if len(cart.PRGROM) == 0 {
		return nil, LoadDamaged
	}
	if _, err := io.ReadFull(r, cart.PRGROM); err != nil {
		return nil, LoadDamaged
	}

	chrWritable := false
	if size := cart.Header.CHRSize(cart.Format); size > 0 {
		cart.CHR = make([]uint8, size)
		if _, err := io.ReadFull(r, cart.CHR); err != nil {
			return nil, LoadDamaged
		}
	} else {
		cart.CHR = make([]uint8, chrRAMSize)
		chrWritable = true
	}

	cart.PRGRAM = make([]uint8, prgRAMSize)

	mirror := mapper.MirrorHorizontal
	if cart.Header.FourScreen() {
		mirror = mapper.MirrorFourScreen
	} else if cart.Header.MirrorVertical() {
		mirror = mapper.MirrorVertical
	}
	if mirror == mapper.MirrorFourScreen {
		cart.VRAM = make([]uint8, 2*vramSize)
	} else {
		cart.VRAM = make([]uint8, vramSize)
	}

	number := cart.Header.MapperNumber(cart.Format)
	if number > 0xFF {
		return nil, LoadUnknownMapper
	}
	data := &mapper.Data{
		PRGROM:      cart.PRGROM,
		PRGRAM:      cart.PRGRAM,
		CHR:         cart.CHR,
		CHRWritable: chrWritable,
		VRAM:        cart.VRAM,
	}
	m, err := mapper.New(uint8(number), data, mirror)
	if err != nil {
		logger.Error("%v", err)
		return nil, LoadUnknownMapper
	}
	cart.Mapper = m

	logger.Info("loaded %s ROM: mapper %d, PRG %d KiB, CHR %d KiB",
		cart.Format, number, len(cart.PRGROM)/1024, len(cart.CHR)/1024)
	return cart, LoadOK
}

// Region reports the TV system the ROM declares.
func (c *Cartridge) Region() region.Region {
	return c.Header.Region(c.Format)
}

// String summarises the cartridge for diagnostics.
func (c *Cartridge) String() string {
	return fmt.Sprintf("%s mapper=%d prg=%dK chr=%dK persistent=%v",
		c.Format, c.Header.MapperNumber(c.Format), len(c.PRGROM)/1024, len(c.CHR)/1024, c.Persistent)
}
