package apu

// The five channels. Pulse, triangle and noise are generated; the DMC is
// declared with its register file but contributes silence to the mixer and
// never raises its interrupt.

var dutySequences = [4][8]uint8{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var triangleSequence = [32]uint8{
	15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// noisePeriods are the NTSC timer periods selected by register 0x400E.
var noisePeriods = [16]uint16{
	4, 8, 16, 32, 64, 96, 128, 160, 202, 254, 380, 508, 762, 1016, 2034, 4068,
}

// Pulse is one of the two square-wave channels.
type Pulse struct {
	Timer    Timer
	Envelope Envelope
	Sweep    Sweep
	Length   LengthCounter

	Duty      uint8
	seqPos    int
	dutyValue uint8

	onesComplement bool
}

func (p *Pulse) clockSequencer() {
	p.seqPos = (p.seqPos + 1) % 8
	p.dutyValue = dutySequences[p.Duty][p.seqPos]
}

func (p *Pulse) restartSequencer() {
	p.seqPos = 0
	p.dutyValue = dutySequences[p.Duty][0]
}

// output is the channel's mixer contribution. Silenced on a zero duty step,
// a period swept out of range, or an expired length counter.
func (p *Pulse) output(enabled bool) uint8 {
	if !enabled {
		return 0
	}
	if p.dutyValue == 0 {
		return 0
	}
	if p.Timer.Period > 0x7FF || p.Timer.Period < 8 {
		return 0
	}
	if p.Length.Value() == 0 {
		return 0
	}
	return p.Envelope.Output()
}

// Triangle is the 32-step triangle channel with its linear counter.
type Triangle struct {
	Timer  Timer
	Length LengthCounter

	Control       bool
	linearCounter uint8
	linearReload  uint8
	reloadFlag    bool

	seqPos int
	value  uint8
}

func (t *Triangle) clockSequencer() {
	if t.linearCounter > 0 && t.Timer.Divider > 0 {
		t.seqPos = (t.seqPos + 1) % 32
		t.value = triangleSequence[t.seqPos]
	}
}

// clockLinear advances the linear counter one quarter frame.
func (t *Triangle) clockLinear() {
	if t.reloadFlag {
		t.linearCounter = t.linearReload
	} else if t.linearCounter != 0 {
		t.linearCounter--
	}
	if !t.Control {
		t.reloadFlag = false
	}
}

func (t *Triangle) output(enabled bool) uint8 {
	if !enabled {
		return 0
	}
	if t.linearCounter == 0 {
		return 0
	}
	if t.Length.Value() == 0 {
		return 0
	}
	return t.value
}

// Noise is the LFSR channel.
type Noise struct {
	Timer    Timer
	Envelope Envelope
	Length   LengthCounter

	Mode  bool
	shift uint16
}

// clockLFSR shifts the 15-bit feedback register. Mode selects the tap that
// produces the short 93-step sequence.
func (n *Noise) clockLFSR() {
	bit0 := n.shift & 0x01
	tap := uint16(1)
	if n.Mode {
		tap = 6
	}
	feedback := bit0 ^ (n.shift >> tap & 0x01)
	n.shift = n.shift>>1 | feedback<<14
}

func (n *Noise) output(enabled bool) uint8 {
	if !enabled {
		return 0
	}
	if n.shift&0x01 == 0x01 {
		return 0
	}
	if n.Length.Value() == 0 {
		return 0
	}
	return n.Envelope.Output()
}

// DMC carries the delta-modulation register file. Playback is not
// implemented: its mixer input stays zero and its interrupt line is never
// asserted.
type DMC struct {
	IRQEnable     bool
	Loop          bool
	Rate          uint8
	DirectLoad    uint8
	SampleAddress uint16
	SampleLength  uint16
}

func (d *DMC) output(enabled bool) uint8 {
	return 0
}
