package nes

import (
	"github.com/snagata/famicore/pkg/apu"
	"github.com/snagata/famicore/pkg/cartridge"
	"github.com/snagata/famicore/pkg/cpu"
	"github.com/snagata/famicore/pkg/input"
	"github.com/snagata/famicore/pkg/logger"
	"github.com/snagata/famicore/pkg/memory"
	"github.com/snagata/famicore/pkg/ppu"
	"github.com/snagata/famicore/pkg/region"
)

// Status reports why the system is not running.
type Status int

const (
	StatusNone Status = iota
	StatusROMMissing
	StatusROMDamaged
	StatusROMMapper
	StatusUnsupportedInstruction
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "ok"
	case StatusROMMissing:
		return "ROM missing"
	case StatusROMDamaged:
		return "ROM damaged"
	case StatusROMMapper:
		return "unknown mapper"
	case StatusUnsupportedInstruction:
		return "unsupported instruction"
	}
	return "invalid"
}

// DefaultSampleRate is the host audio rate used when the front end does not
// pick one.
const DefaultSampleRate = 44100

// System owns the component quartet and the master-clock scheduler. All
// component-to-component references are non-owning; nothing outlives the
// System.
type System struct {
	CPU        *cpu.CPU
	PPU        *ppu.PPU
	APU        *apu.APU
	Memory     *memory.Memory
	Controller *input.Controller
	Cart       *cartridge.Cartridge

	Region region.Region
	Status Status

	drivers []input.PollFunc
	clock   float64
	running bool
}

// New builds a system for the given region.
func New(r region.Region) *System {
	return NewWithAudio(r, DefaultSampleRate, apu.DefaultBufferSize)
}

// NewWithAudio builds a system with an explicit host sample rate and audio
// buffer capacity.
func NewWithAudio(r region.Region, sampleRate, bufferSize int) *System {
	s := &System{Region: r}
	s.Memory = memory.New()
	s.CPU = cpu.New(s.Memory)
	s.PPU = ppu.New(r)
	s.APU = apu.New(r, sampleRate, bufferSize)
	s.Controller = input.New()

	s.Memory.Attach(s.PPU, s.APU, s.Controller, s.CPU)
	s.APU.SetIRQ(func() { s.CPU.Interrupt(cpu.InterruptIRQ) })
	return s
}

// LoadROM loads a cartridge from disk, attaches it to both buses and resets
// the machine. On failure the system keeps no mapper and stays stopped.
func (s *System) LoadROM(path string) Status {
	cart, status := cartridge.LoadFile(path)
	switch status {
	case cartridge.LoadOK:
		s.LoadCartridge(cart)
		s.Status = StatusNone
	case cartridge.LoadMissing:
		s.detach()
		s.Status = StatusROMMissing
	case cartridge.LoadDamaged:
		s.detach()
		s.Status = StatusROMDamaged
	case cartridge.LoadUnknownMapper:
		s.detach()
		s.Status = StatusROMMapper
	}
	return s.Status
}

// LoadCartridge attaches an already-parsed cartridge.
func (s *System) LoadCartridge(cart *cartridge.Cartridge) {
	s.Cart = cart
	s.Memory.SetMapper(cart.Mapper)
	s.PPU.SetMapper(cart.Mapper)
	s.Reset()
}

func (s *System) detach() {
	s.Cart = nil
	s.Memory.SetMapper(nil)
	s.PPU.SetMapper(nil)
	s.running = false
}

// Reset resets every component and the scheduler clock.
func (s *System) Reset() {
	s.CPU.Reset()
	s.PPU.Reset()
	s.APU.Reset()
	s.clock = 0
}

// Start begins (or resumes) execution; it refuses without a loaded ROM.
func (s *System) Start() {
	if s.Cart == nil {
		s.Status = StatusROMMissing
		return
	}
	s.running = true
}

// Pause suspends execution without resetting.
func (s *System) Pause() {
	s.running = false
}

// Stop halts execution and resets the CPU.
func (s *System) Stop() {
	s.running = false
	s.CPU.Reset()
}

// Running reports whether Run will make progress.
func (s *System) Running() bool {
	return s.running
}

// AddInputDriver registers a poll callback invoked at every frame edge.
func (s *System) AddInputDriver(poll input.PollFunc) {
	s.drivers = append(s.drivers, poll)
}

// Run advances the machine by ms milliseconds of emulated time, draining
// audio through the provided callbacks. It returns true when the CPU trapped
// and the system stopped.
func (s *System) Run(ms float64, enqueue apu.EnqueueAudio, queueSize apu.GetQueueSize) bool {
	if !s.running {
		return false
	}
	s.APU.SetHost(enqueue, queueSize)

	period := s.Region.CPUClockPeriod()
	s.clock += ms
	for s.clock >= period {
		if s.Step() {
			logger.Error("CPU trapped on opcode 0x%02X at PC=0x%04X", s.CPU.TrapOpcode, s.CPU.PC)
			s.Status = StatusUnsupportedInstruction
			s.running = false
			return true
		}
		s.clock -= period

		if s.PPU.TakeFrameFlip() {
			s.pollInput()
		}
	}
	return false
}

// Step executes one CPU cycle and the three PPU dots plus one APU step that
// share it. It returns true on a CPU trap.
func (s *System) Step() bool {
	s.CPU.SetNMILine(s.PPU.NMILine())
	if s.CPU.Cycle() {
		return true
	}
	s.PPU.Step()
	s.PPU.Step()
	s.PPU.Step()
	s.APU.Step()

	if s.Cart != nil && s.Cart.Mapper.IRQPending() {
		s.CPU.Interrupt(cpu.InterruptIRQ)
		s.Cart.Mapper.ClearIRQ()
	}
	return false
}

// StepFrame runs whole CPU cycles until the next frame edge, polling input
// at the boundary. Useful for headless and test harnesses.
func (s *System) StepFrame() bool {
	for {
		if s.Step() {
			s.Status = StatusUnsupportedInstruction
			s.running = false
			return true
		}
		if s.PPU.TakeFrameFlip() {
			s.pollInput()
			return false
		}
	}
}

// pollInput clears the bitmap, runs every driver, and soft-resets when all
// player-1 buttons are held at once.
func (s *System) pollInput() {
	s.Controller.Clear()
	for _, poll := range s.drivers {
		poll(s.Controller)
	}
	if s.Controller.Pressed(0) == 0xFF {
		logger.Info("soft reset chord")
		s.Stop()
		s.Start()
	}
}

// FrameBuffer exposes the PPU's palette-indexed raster.
func (s *System) FrameBuffer() []uint8 {
	return s.PPU.FrameBuffer()
}

// Palette exposes the 64-entry RGB table the host uploads with the frame.
func (s *System) Palette() [64]uint32 {
	return ppu.Colors
}
