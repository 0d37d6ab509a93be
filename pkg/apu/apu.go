package apu

import "github.com/snagata/famicore/pkg/region"

// EnqueueAudio hands a full buffer of mixed samples to the host.
type EnqueueAudio func(samples []float32)

// GetQueueSize lets the core see how far the host's audio queue is backed
// up. The APU does not currently throttle on it, but the hook is part of the
// host contract.
type GetQueueSize func() int

// DefaultBufferSize is the circular buffer capacity used when the host does
// not configure one.
const DefaultBufferSize = 2048

// Frame counter sequences, indexed by CPU cycles since the last reset.
var (
	frameSequence4 = [4]uint16{3729, 7457, 11186, 14914}
	frameSequence5 = [5]uint16{3729, 7457, 11186, 14915, 18641}
)

type frameCounter struct {
	Mode1      bool
	IRQInhibit bool

	cycles       uint16
	index        int
	resetQueued  bool
	resetDivider int
}

func (f *frameCounter) reset() {
	f.cycles = 0
	f.index = 0
	f.resetQueued = false
	f.resetDivider = 0
}

// status mirrors register 0x4015: which channels are enabled plus the two
// interrupt flags.
type status struct {
	Pulse1   bool
	Pulse2   bool
	Triangle bool
	Noise    bool
	DMC      bool

	FrameInterrupt bool
	DMCInterrupt   bool
}

// APU is the audio unit, stepped once per CPU cycle.
type APU struct {
	Pulse1   Pulse
	Pulse2   Pulse
	Triangle Triangle
	Noise    Noise
	DMC      DMC

	Frame  frameCounter
	Status status

	evenCycle bool

	buffer      []float32
	cursor      int
	sampleSkips float64
	sampleRatio float64

	pulseTable [31]float32
	tndTable   [203]float32

	enqueue   EnqueueAudio
	queueSize GetQueueSize
	irq       func()
}

// New creates an APU mixing down to the given host sample rate.
func New(r region.Region, hostRate int, bufferSize int) *APU {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	a := &APU{
		buffer: make([]float32, bufferSize),
	}
	a.Pulse1.onesComplement = true
	a.Noise.shift = 1

	// One mixed sample per APU cycle, which runs at half the CPU rate.
	cpuRate := r.ClocksPerMillisecond() * 1000 / region.CPUDivider
	a.sampleRatio = cpuRate / 2 / float64(hostRate)

	// Mixer lookup tables, with the all-silent entry pinned to zero.
	// https://wiki.nesdev.com/w/index.php/APU_Mixer#Lookup_Table
	for i := 1; i < len(a.pulseTable); i++ {
		a.pulseTable[i] = float32(95.52 / (8128.0/float64(i) + 100))
	}
	for i := 1; i < len(a.tndTable); i++ {
		a.tndTable[i] = float32(163.67 / (24329.0/float64(i) + 100))
	}
	return a
}

// SetIRQ wires the frame counter interrupt into the CPU.
func (a *APU) SetIRQ(irq func()) {
	a.irq = irq
}

// SetHost installs the audio callbacks for the current run slice.
func (a *APU) SetHost(enqueue EnqueueAudio, queueSize GetQueueSize) {
	a.enqueue = enqueue
	a.queueSize = queueSize
}

// Reset silences every channel and restarts the frame counter.
func (a *APU) Reset() {
	a.Pulse1 = Pulse{onesComplement: true}
	a.Pulse2 = Pulse{}
	a.Triangle = Triangle{}
	a.Noise = Noise{shift: 1}
	a.DMC = DMC{}
	a.Frame = frameCounter{}
	a.Status = status{}
	a.evenCycle = false
	a.cursor = 0
	a.sampleSkips = 0
}

// Step advances the APU by one CPU cycle: clock the channel timers, the
// frame counter, and emit a down-sampled mix.
func (a *APU) Step() {
	if a.evenCycle {
		a.Pulse1.Timer.Clock(a.Pulse1.clockSequencer)
		a.Pulse2.Timer.Clock(a.Pulse2.clockSequencer)
		a.Noise.Timer.Clock(a.Noise.clockLFSR)
	}
	a.Triangle.Timer.Clock(a.Triangle.clockSequencer)

	a.evenCycle = !a.evenCycle

	a.clockFrameCounter()

	if a.evenCycle {
		return // mixer output advances at the APU rate
	}
	if a.sampleSkips <= 1 {
		a.writeSample(a.mix())
		a.sampleSkips += a.sampleRatio
	} else {
		a.sampleSkips--
	}
}

func (a *APU) clockQuarterFrame() {
	a.Pulse1.Envelope.Clock()
	a.Pulse2.Envelope.Clock()
	a.Noise.Envelope.Clock()
	a.Triangle.clockLinear()
}

func (a *APU) clockHalfFrame() {
	a.Pulse1.Length.Clock()
	a.Pulse2.Length.Clock()
	a.Triangle.Length.Clock()
	a.Noise.Length.Clock()

	a.Pulse1.Sweep.Clock(&a.Pulse1.Timer.Period, true)
	a.Pulse2.Sweep.Clock(&a.Pulse2.Timer.Period, false)
}

func (a *APU) raiseFrameIRQ() {
	if a.Frame.IRQInhibit {
		return
	}
	a.Status.FrameInterrupt = true
	if a.irq != nil {
		a.irq()
	}
}

// clockFrameCounter walks the 4- or 5-step sequence. A queued reset from a
// 0x4017 write lands two or three cycles later depending on write phase.
func (a *APU) clockFrameCounter() {
	f := &a.Frame
	if !f.Mode1 {
		if f.cycles == frameSequence4[f.index] {
			switch f.index {
			case 0, 2:
				a.clockQuarterFrame()
			case 1:
				a.clockQuarterFrame()
				a.clockHalfFrame()
			case 3:
				a.clockQuarterFrame()
				a.clockHalfFrame()
				a.raiseFrameIRQ()
			}
			f.index++
			if f.index >= len(frameSequence4) {
				f.reset()
			}
			return
		}
	} else {
		if f.cycles == frameSequence5[f.index] {
			switch f.index {
			case 0, 2:
				a.clockQuarterFrame()
			case 1, 4:
				a.clockQuarterFrame()
				a.clockHalfFrame()
			}
			f.index++
			if f.index >= len(frameSequence5) {
				f.reset()
			}
			return
		}
	}

	f.cycles++
	if f.resetQueued {
		f.resetDivider--
		if f.resetDivider == 0 {
			f.reset()
		}
	}
}

func (a *APU) mix() float32 {
	p1 := a.Pulse1.output(a.Status.Pulse1)
	p2 := a.Pulse2.output(a.Status.Pulse2)
	t := a.Triangle.output(a.Status.Triangle)
	n := a.Noise.output(a.Status.Noise)
	d := a.DMC.output(a.Status.DMC)

	pulseOut := a.pulseTable[p1+p2]
	tndOut := a.tndTable[3*uint16(t)+2*uint16(n)+uint16(d)]
	return pulseOut + tndOut
}

func (a *APU) writeSample(value float32) {
	a.buffer[a.cursor] = value
	a.cursor++
	if a.cursor == len(a.buffer) {
		a.cursor = 0
		if a.enqueue != nil {
			a.enqueue(a.buffer)
		}
	}
}
