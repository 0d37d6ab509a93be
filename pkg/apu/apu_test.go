package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snagata/famicore/pkg/region"
)

func newTestAPU() *APU {
	return New(region.NTSC, 44100, 0)
}

func TestPulseRegisterDecode(t *testing.T) {
	a := newTestAPU()

	a.WriteRegister(0x4000, 0xBF) // duty 2, halt, constant, volume 15
	assert.Equal(t, uint8(2), a.Pulse1.Duty)
	assert.True(t, a.Pulse1.Length.Halt)
	assert.True(t, a.Pulse1.Envelope.Constant)
	assert.Equal(t, uint8(15), a.Pulse1.Envelope.Volume)

	a.WriteRegister(0x4001, 0x9B) // enabled, period 1, negate, shift 3
	assert.True(t, a.Pulse1.Sweep.Enabled)
	assert.Equal(t, uint8(1), a.Pulse1.Sweep.Period)
	assert.True(t, a.Pulse1.Sweep.Negate)
	assert.Equal(t, uint8(3), a.Pulse1.Sweep.Shift)
	assert.True(t, a.Pulse1.Sweep.Reload)

	a.WriteRegister(0x4002, 0x55)
	a.WriteRegister(0x4003, 0x12) // timer high 2, length load 2
	assert.Equal(t, uint16(0x255), a.Pulse1.Timer.Period)
}

func TestLengthCounterLoadRequiresEnable(t *testing.T) {
	a := newTestAPU()

	a.WriteRegister(0x4003, 0x08) // load index 1 while disabled
	assert.Zero(t, a.Pulse1.Length.Value())

	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4003, 0x08) // index 1 -> 254
	assert.Equal(t, uint8(254), a.Pulse1.Length.Value())

	// Disabling zeroes the counter immediately.
	a.WriteRegister(0x4015, 0x00)
	assert.Zero(t, a.Pulse1.Length.Value())
}

func TestStatusReadReportsLengths(t *testing.T) {
	a := newTestAPU()
	// Enabling a channel reloads its length counter, so pulse 1 and triangle
	// report immediately.
	a.WriteRegister(0x4015, 0x05)
	value := a.ReadRegister(0x4015)
	assert.Equal(t, uint8(0x05), value&0x0F)

	a.WriteRegister(0x4015, 0x04) // dropping pulse 1 zeroes its counter
	value = a.ReadRegister(0x4015)
	assert.Equal(t, uint8(0x04), value&0x0F)
}

func TestStatusReadClearsFrameInterrupt(t *testing.T) {
	a := newTestAPU()
	a.Status.FrameInterrupt = true
	a.Status.DMCInterrupt = true
	value := a.ReadRegister(0x4015)
	assert.NotZero(t, value&0x40)
	assert.NotZero(t, value&0x80)
	assert.False(t, a.Status.FrameInterrupt, "read clears the frame interrupt")
	assert.True(t, a.Status.DMCInterrupt, "read leaves the DMC interrupt")
}

func TestEnvelopeDecay(t *testing.T) {
	var e Envelope
	e.Volume = 0 // divider period 0: decay steps every clock
	e.Start = true

	e.Clock()
	assert.Equal(t, uint8(15), e.Output())
	for i := 14; i >= 0; i-- {
		e.Clock()
		assert.Equal(t, uint8(i), e.Output())
	}
	e.Clock()
	assert.Equal(t, uint8(0), e.Output(), "decay holds at zero without loop")

	e.Loop = true
	e.Clock()
	assert.Equal(t, uint8(15), e.Output(), "loop wraps decay to 15")
}

func TestEnvelopeConstantVolume(t *testing.T) {
	var e Envelope
	e.Constant = true
	e.Volume = 9
	assert.Equal(t, uint8(9), e.Output())
}

func TestSweepNegateComplements(t *testing.T) {
	// Pulse 1 negates with one's complement, pulse 2 with two's.
	var s Sweep
	s.Enabled = true
	s.Negate = true
	s.Shift = 1

	period1 := uint16(0x100)
	s.Clock(&period1, true) // divider at zero: sweeps immediately
	assert.Equal(t, uint16(0x100-0x80-1), period1)

	var s2 Sweep
	s2.Enabled = true
	s2.Negate = true
	s2.Shift = 1
	period2 := uint16(0x100)
	s2.Clock(&period2, false)
	assert.Equal(t, uint16(0x100-0x80), period2)
}

func TestLengthCounterHalt(t *testing.T) {
	var l LengthCounter
	l.SetLoad(0)
	l.Reload()
	require.Equal(t, uint8(10), l.Value())

	l.Clock()
	assert.Equal(t, uint8(9), l.Value())

	l.Halt = true
	l.Clock()
	assert.Equal(t, uint8(9), l.Value(), "halt freezes the counter")
}

func TestFrameCounterQuarterTiming(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4003, 0x00) // restart envelope

	// The first quarter-frame clock lands when the counter hits 3729.
	for i := 0; i < 3729; i++ {
		a.Step()
	}
	assert.True(t, a.Pulse1.Envelope.Start, "no quarter frame yet")
	a.Step()
	assert.False(t, a.Pulse1.Envelope.Start, "quarter frame consumed the start flag")
}

func TestFrameIRQAtSequenceEnd(t *testing.T) {
	a := newTestAPU()
	fired := 0
	a.SetIRQ(func() { fired++ })

	// Each sequence match consumes a step without advancing the counter, so
	// the final match lands a few steps past 14914.
	for i := 0; i < 14920; i++ {
		a.Step()
	}
	assert.Equal(t, 1, fired, "4-step mode raises IRQ at the sequence end")
	assert.True(t, a.Status.FrameInterrupt)
}

func TestFrameIRQInhibited(t *testing.T) {
	a := newTestAPU()
	fired := 0
	a.SetIRQ(func() { fired++ })
	a.WriteRegister(0x4017, 0x40)

	for i := 0; i < 20000; i++ {
		a.Step()
	}
	assert.Zero(t, fired)
	assert.False(t, a.Status.FrameInterrupt)
}

func TestMode1NeverRaisesIRQ(t *testing.T) {
	a := newTestAPU()
	fired := 0
	a.SetIRQ(func() { fired++ })
	a.WriteRegister(0x4017, 0x80)

	for i := 0; i < 40000; i++ {
		a.Step()
	}
	assert.Zero(t, fired)
}

func TestFrameCounterWriteClocksImmediatelyInMode1(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4003, 0x00) // length 10
	a.Pulse1.Length.Halt = false

	a.WriteRegister(0x4017, 0x80)
	assert.Equal(t, uint8(9), a.Pulse1.Length.Value(), "mode-1 write clocks a half frame")
}

func TestFrameCounterResetQueue(t *testing.T) {
	a := newTestAPU()
	for i := 0; i < 101; i++ {
		a.Step()
	}
	require.NotZero(t, a.Frame.cycles)

	phase := a.evenCycle
	a.WriteRegister(0x4017, 0x00)
	expect := 3
	if !phase {
		expect = 2
	}
	for i := 0; i < expect-1; i++ {
		a.Step()
		assert.NotZero(t, a.Frame.cycles, "reset must not land early")
	}
	a.Step()
	assert.Zero(t, a.Frame.cycles, "queued reset lands after %d cycles", expect)
}

func TestLengthSumNonIncreasing(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x00)
	a.WriteRegister(0x4007, 0x08)
	a.WriteRegister(0x400B, 0x10)
	a.WriteRegister(0x400F, 0x18)
	a.Triangle.Length.Halt = false
	a.Triangle.reloadFlag = false

	sum := func() int {
		return int(a.Pulse1.Length.Value()) + int(a.Pulse2.Length.Value()) +
			int(a.Triangle.Length.Value()) + int(a.Noise.Length.Value())
	}

	last := sum()
	for i := 0; i < 200000; i++ {
		a.Step()
		s := sum()
		assert.LessOrEqual(t, s, last, "length counters only count down without writes")
		last = s
	}
}

func TestPulseToneScenario(t *testing.T) {
	a := newTestAPU()
	a.WriteRegister(0x4000, 0x3F) // constant volume 15, halt
	a.WriteRegister(0x4002, 0xFE)
	a.WriteRegister(0x4003, 0x00)
	a.WriteRegister(0x4015, 0x01)

	seen := map[uint8]bool{}
	transitions := 0
	prev := a.Pulse1.output(true)
	for i := 0; i < 20000; i++ {
		a.Step()
		out := a.Pulse1.output(true)
		seen[out] = true
		if out != prev {
			transitions++
			prev = out
		}
	}
	assert.True(t, seen[0], "pulse output visits 0")
	assert.True(t, seen[15], "pulse output visits 15")
	assert.Len(t, seen, 2, "constant-volume pulse only emits 0 and 15")
	assert.Greater(t, transitions, 1, "output alternates at the configured period")
}

func TestNoiseLFSRTaps(t *testing.T) {
	var n Noise
	n.shift = 1
	n.clockLFSR()
	// bit0=1, bit1=0 -> feedback 1 into bit 14
	assert.Equal(t, uint16(0x4000), n.shift)

	n.Mode = true
	n.shift = 0x41 // bit0=1, bit6=1 -> feedback 0
	n.clockLFSR()
	assert.Equal(t, uint16(0x20), n.shift)
}

func TestNoiseSilencedByLFSRBit(t *testing.T) {
	var n Noise
	n.Envelope.Constant = true
	n.Envelope.Volume = 8
	n.Length.SetLoad(0)
	n.Length.Reload()

	n.shift = 0x01
	assert.Zero(t, n.output(true), "LFSR bit 0 set silences the channel")
	n.shift = 0x02
	assert.Equal(t, uint8(8), n.output(true))
}

func TestTriangleLinearCounter(t *testing.T) {
	var tri Triangle
	tri.linearReload = 5
	tri.reloadFlag = true
	tri.clockLinear()
	assert.Equal(t, uint8(5), tri.linearCounter)
	assert.False(t, tri.reloadFlag, "reload flag clears when control is off")

	tri.clockLinear()
	assert.Equal(t, uint8(4), tri.linearCounter)

	tri.Control = true
	tri.reloadFlag = true
	tri.clockLinear()
	tri.clockLinear()
	assert.Equal(t, uint8(5), tri.linearCounter, "control keeps the reload flag set")
}

func TestMixerTables(t *testing.T) {
	a := newTestAPU()
	assert.Zero(t, a.pulseTable[0], "all-silent entry is zero")
	assert.Zero(t, a.tndTable[0])
	assert.InDelta(t, 95.52/(8128.0/30+100), float64(a.pulseTable[30]), 1e-4)
	assert.InDelta(t, 163.67/(24329.0/202+100), float64(a.tndTable[202]), 1e-4)
	// Tables are monotonically increasing.
	for i := 1; i < len(a.pulseTable); i++ {
		assert.Greater(t, a.pulseTable[i], a.pulseTable[i-1])
	}
}

func TestAudioBufferWrapsThroughCallback(t *testing.T) {
	a := New(region.NTSC, 44100, 64)
	var buffers int
	a.SetHost(func(samples []float32) {
		buffers++
		assert.Len(t, samples, 64)
	}, nil)

	// Samples are emitted at the host rate: ~894886/44100 APU cycles apiece.
	for i := 0; i < 300000; i++ {
		a.Step()
	}
	assert.Greater(t, buffers, 0, "buffer wrap invokes the enqueue callback")
}

func TestPulseSilencedOutsidePeriodRange(t *testing.T) {
	var p Pulse
	p.Envelope.Constant = true
	p.Envelope.Volume = 7
	p.dutyValue = 1
	p.Length.SetLoad(0)
	p.Length.Reload()

	p.Timer.Period = 7
	assert.Zero(t, p.output(true), "period < 8 silences")
	p.Timer.Period = 0x800
	assert.Zero(t, p.output(true), "period > 0x7FF silences")
	p.Timer.Period = 0x100
	assert.Equal(t, uint8(7), p.output(true))
	assert.Zero(t, p.output(false), "disabled channel is silent")
}
