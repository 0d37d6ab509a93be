package gui

import (
	"runtime"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/snagata/famicore/pkg/input"
	"github.com/snagata/famicore/pkg/logger"
	"github.com/snagata/famicore/pkg/nes"
	"github.com/snagata/famicore/pkg/ppu"
)

const (
	windowScale = 3
	windowTitle = "famicore"

	audioSampleRate = 44100
	audioBuffer     = 1024
)

// GUI is the SDL2 host: window, streaming texture, audio queue, and the
// keyboard input driver.
type GUI struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	system   *nes.System

	audioDevice sdl.AudioDeviceID

	pixels  [ppu.Width * ppu.Height]uint32
	running bool
}

// New initialises SDL and builds the host around a system.
func New(system *nes.System) (*GUI, error) {
	runtime.LockOSThread()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, err
	}

	window, err := sdl.CreateWindow(
		windowTitle,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		ppu.Width*windowScale, ppu.Height*windowScale,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING,
		ppu.Width, ppu.Height,
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, err
	}

	g := &GUI{
		window:   window,
		renderer: renderer,
		texture:  texture,
		system:   system,
		running:  true,
	}

	if err := g.initAudio(); err != nil {
		logger.Error("audio unavailable: %v", err)
	}

	system.AddInputDriver(g.pollKeyboard)
	return g, nil
}

func (g *GUI) initAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     audioSampleRate,
		Format:   sdl.AUDIO_F32SYS,
		Channels: 1,
		Samples:  audioBuffer,
	}
	device, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return err
	}
	g.audioDevice = device
	sdl.PauseAudioDevice(device, false)
	return nil
}

// enqueueAudio is handed to System.Run; the APU calls it on every buffer
// wrap.
func (g *GUI) enqueueAudio(samples []float32) {
	if g.audioDevice == 0 {
		return
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4)
	if err := sdl.QueueAudio(g.audioDevice, data); err != nil {
		logger.Error("audio queue: %v", err)
	}
}

func (g *GUI) queueSize() int {
	if g.audioDevice == 0 {
		return 0
	}
	return int(sdl.GetQueuedAudioSize(g.audioDevice))
}

// keyBindings maps scancodes to player-1 buttons.
var keyBindings = map[sdl.Scancode]uint8{
	sdl.SCANCODE_Z:     input.ButtonA,
	sdl.SCANCODE_X:     input.ButtonB,
	sdl.SCANCODE_A:     input.ButtonSelect,
	sdl.SCANCODE_S:     input.ButtonStart,
	sdl.SCANCODE_UP:    input.ButtonUp,
	sdl.SCANCODE_DOWN:  input.ButtonDown,
	sdl.SCANCODE_LEFT:  input.ButtonLeft,
	sdl.SCANCODE_RIGHT: input.ButtonRight,
}

// pollKeyboard is the SDL input driver, invoked by the core at frame edges.
func (g *GUI) pollKeyboard(c *input.Controller) {
	keys := sdl.GetKeyboardState()
	for scancode, button := range keyBindings {
		if keys[scancode] != 0 {
			c.Press(0, button)
		}
	}
}

// Run drives the system in real time until the window closes or the CPU
// traps.
func (g *GUI) Run() {
	palette := g.system.Palette()
	last := time.Now()

	for g.running {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				g.running = false
			case *sdl.KeyboardEvent:
				if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
					g.running = false
				}
			}
		}

		now := time.Now()
		elapsed := now.Sub(last)
		last = now
		if elapsed > 50*time.Millisecond {
			elapsed = 50 * time.Millisecond
		}

		if g.system.Run(float64(elapsed.Nanoseconds())/1e6, g.enqueueAudio, g.queueSize) {
			logger.Error("system stopped: %s", g.system.Status)
			g.running = false
		}

		g.present(palette)
		sdl.Delay(1)
	}
}

// present converts the palette-indexed framebuffer through the RGB table and
// uploads it.
func (g *GUI) present(palette [64]uint32) {
	frame := g.system.FrameBuffer()
	for i, color := range frame {
		g.pixels[i] = 0xFF000000 | palette[color&0x3F]
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&g.pixels[0])), len(g.pixels)*4)
	g.texture.Update(nil, data, ppu.Width*4)
	g.renderer.Clear()
	g.renderer.Copy(g.texture, nil, nil)
	g.renderer.Present()
}

// Destroy tears down all SDL resources.
func (g *GUI) Destroy() {
	if g.audioDevice != 0 {
		sdl.CloseAudioDevice(g.audioDevice)
	}
	if g.texture != nil {
		g.texture.Destroy()
	}
	if g.renderer != nil {
		g.renderer.Destroy()
	}
	if g.window != nil {
		g.window.Destroy()
	}
	sdl.Quit()
}
