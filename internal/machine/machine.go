// Package machine wires the CPU core, bus, DOS/BIOS personality, audio
// sink and video backend together and runs the rate-compensated worker
// loop, grounded on the teacher's own top-level frontend goroutine (one
// thread stepping the CPU in bursts, a second owning audio, ebiten owning
// its own draw/input loop) per spec.md §5's three-thread ownership split.
package machine

import (
	"fmt"
	"time"

	"github.com/pcx86/emu/internal/audioout"
	"github.com/pcx86/emu/internal/bus"
	"github.com/pcx86/emu/internal/config"
	"github.com/pcx86/emu/internal/cpu"
	"github.com/pcx86/emu/internal/dosshell"
	"github.com/pcx86/emu/internal/logx"
	"github.com/pcx86/emu/internal/mz"
	"github.com/pcx86/emu/internal/video"
)

var log = logx.For("machine")

// Machine owns every emulated component and the worker loop that steps
// them. Construct with New, then call Run.
type Machine struct {
	cfg   config.Config
	cpu   *cpu.CPU
	bus   *bus.Bus
	shell *dosshell.Shell

	sink  *audioout.Sink
	video video.Backend

	stop chan struct{}
}

// New constructs every component and loads the MZ executable at path,
// returning a Machine ready to Run. backend lets the caller choose the
// windowed or headless video.Backend; passing nil (as cmd/pcemu does) picks
// the build's default via video.NewBackend, which the headless build tag
// selects.
func New(cfg config.Config, execPath string, backend video.Backend) (*Machine, error) {
	b := bus.New(cfg.Timing.ClockFrequency, cfg.Audio.Enabled, cfg.Audio.SoundBlasterEnabled)
	c := cpu.New(b)
	b.AttachCPU(c)

	const loadSegment = 0x1000
	loaded, err := mz.Load(execPath, b.RAM(), loadSegment)
	if err != nil {
		return nil, fmt.Errorf("machine: load %s: %w", execPath, err)
	}

	shell := dosshell.New()
	b.AttachBIOS(shell.BIOSAdapter())
	b.AttachDOS(shell.DOSAdapter())

	const pspSegment = loadSegment - 0x10
	const envSegment = pspSegment - 0x10
	shell.Setup(c, b.RAM(), dosshell.Loaded{
		CS: loaded.CS, IP: loaded.IP, SS: loaded.SS, SP: loaded.SP,
		LoadSegment:        loadSegment,
		PSPSegment:         pspSegment,
		EnvironmentSegment: envSegment,
		GuestPath:          execPath,
	})

	if backend == nil {
		backend = video.NewBackend(cfg.Keymap)
	}

	m := &Machine{cfg: cfg, cpu: c, bus: b, shell: shell, video: backend, stop: make(chan struct{})}

	if cfg.Audio.Enabled {
		const sampleRate = 44100
		mixer := audioout.NewMixer(c, cfg.Timing.ClockFrequency, sampleRate, cfg.Audio.BeeperVolume, b.FMEvents(), b.BeeperEvents())
		sink, err := audioout.NewSink(sampleRate, mixer)
		if err != nil {
			log.Warn("audio disabled: could not open sink", "error", err)
		} else {
			m.sink = sink
		}
	}

	return m, nil
}

// Run starts the video backend and drives the CPU in rate-compensated
// bursts until Stop is called, following spec.md §5's pacing formula:
// run clock_frequency/compensation_frequency instructions, sleep for
// however much wall-clock time that burst should have taken minus however
// much it actually took (never negative).
func (m *Machine) Run() error {
	v := m.bus.VGA()
	if err := m.video.Start(int(v.Width), int(v.Height)); err != nil {
		return fmt.Errorf("machine: start video: %w", err)
	}
	defer m.video.Stop()
	if m.sink != nil {
		defer m.sink.Close()
	}

	burst := uint64(m.cfg.Timing.ClockFrequency / m.cfg.Timing.CompensationFrequency)
	if burst == 0 {
		burst = 1
	}
	burstPeriod := time.Duration(float64(time.Second) / m.cfg.Timing.CompensationFrequency)
	framePeriod := time.Duration(float64(time.Second) / m.cfg.Timing.WindowUpdateFrequency)

	var frameBuf []byte
	lastFrame := time.Now()

	for {
		select {
		case <-m.stop:
			return nil
		default:
		}

		burstStart := time.Now()
		for i := uint64(0); i < burst; i++ {
			m.cpu.Step()
		}
		for _, ev := range m.video.PollInput() {
			m.shell.PushKey(ev.BIOSKey)
			scan := ev.ScanCode
			if !ev.Pressed {
				scan |= 0x80
			}
			m.bus.PushPS2Data(scan)
		}

		if elapsed := time.Since(burstStart); elapsed < burstPeriod {
			time.Sleep(burstPeriod - elapsed)
		}

		if since := time.Since(lastFrame); since >= framePeriod {
			if v.VRAMDirty || v.PaletteDirty || v.VideoModeDirty {
				frameBuf = renderFrame(v, frameBuf)
				m.video.PresentFrame(frameBuf, int(v.Width), int(v.Height))
				v.VRAMDirty, v.PaletteDirty, v.VideoModeDirty = false, false, false
			}
			lastFrame = time.Now()
		}
	}
}

// Stop signals Run's burst loop to return at the next iteration boundary.
func (m *Machine) Stop() { close(m.stop) }
