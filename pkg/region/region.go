package region

// Region selects the video standard the console is emulated under. Only NTSC
// and PAL shipped officially; Dendy is the common PAL-timing famiclone.
type Region int

const (
	NTSC Region = iota
	PAL
	Dendy
)

// Master clock rates in kHz (clocks per millisecond). The CPU divides the
// master clock by 12, the PPU by 4.
const (
	masterClocksPerMsNTSC = 21477.272
	masterClocksPerMsPAL  = 26601.712

	CPUDivider = 12
	PPUDivider = 4
)

func (r Region) String() string {
	switch r {
	case NTSC:
		return "NTSC"
	case PAL:
		return "PAL"
	case Dendy:
		return "Dendy"
	}
	return "unknown"
}

// ClocksPerMillisecond returns the master clock rate for the region.
func (r Region) ClocksPerMillisecond() float64 {
	switch r {
	case PAL, Dendy:
		return masterClocksPerMsPAL
	}
	return masterClocksPerMsNTSC
}

// CPUClockPeriod is the host-millisecond cost of one CPU cycle. The system
// scheduler drains its time budget in these units.
func (r Region) CPUClockPeriod() float64 {
	return CPUDivider / r.ClocksPerMillisecond()
}

// Scanlines returns the number of PPU scanlines per frame.
func (r Region) Scanlines() int {
	switch r {
	case PAL, Dendy:
		return 312
	}
	return 262
}

// ScreenWidth and ScreenHeight give the visible raster size.
func (r Region) ScreenWidth() int { return 256 }

func (r Region) ScreenHeight() int { return 240 }
