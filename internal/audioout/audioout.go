// Package audioout turns the bus's two event channels (PC-speaker beeper
// frequency changes and OPL register updates) into a single PCM stream and
// plays it through oto, grounded on the teacher's audio_backend_oto.go
// player-callback shape (SetupPlayer/Read/Start/Stop) adapted from a
// SoundChip ring buffer to spec.md §4.7/§4.8's two-source event mixer.
package audioout

import (
	"encoding/binary"
	"math"

	"github.com/ebitengine/oto/v3"

	"github.com/pcx86/emu/internal/bus"
	"github.com/pcx86/emu/internal/opl"
)

// ClockSource is the sliver of *cpu.CPU the mixer needs: the free-running
// cycle counter both event streams are timestamped against.
type ClockSource interface {
	Cycles() uint64
}

type beeperState struct {
	events  <-chan bus.BeeperEvent
	pending *bus.BeeperEvent
	freq    float32
	phase   float64
}

func (b *beeperState) drainUpTo(cycle uint64) {
	for {
		if b.pending == nil {
			select {
			case e, ok := <-b.events:
				if !ok {
					return
				}
				b.pending = &e
			default:
				return
			}
		}
		if b.pending.Cycle > cycle {
			return
		}
		b.freq = b.pending.FrequencyHz
		b.pending = nil
	}
}

func (b *beeperState) sample(sampleRate, volume float64) float32 {
	if b.freq <= 0 {
		return 0
	}
	b.phase += float64(b.freq) / sampleRate
	b.phase -= math.Floor(b.phase)
	if b.phase < 0.5 {
		return float32(volume)
	}
	return float32(-volume)
}

// Mixer is the io.Reader oto pulls PCM float32LE mono samples from: one
// sample per output frame, the OPL renderer's 9-channel mix summed with
// the PC-speaker square wave.
type Mixer struct {
	clock         ClockSource
	renderer      *opl.Renderer
	beeper        beeperState
	beeperVolume  float64
	sampleRate    float64
	cyclesPerSamp uint64
	fmBuf         []float32
}

// NewMixer builds a mixer reading FM synthesis updates from fmEvents and
// beeper frequency changes from beeperEvents, both produced by the worker
// thread's port writes, rendering at sampleRate Hz against clock's cycle
// counter (spec.md §4.8's audio thread owns the render cursor and reads
// the CPU's cycle counter as an effectively-immutable snapshot).
func NewMixer(clock ClockSource, clockFreqHz, sampleRate float64, beeperVolume float32, fmEvents <-chan opl.Event, beeperEvents <-chan bus.BeeperEvent) *Mixer {
	return &Mixer{
		clock:         clock,
		renderer:      opl.NewRenderer(fmEvents, sampleRate),
		beeper:        beeperState{events: beeperEvents},
		beeperVolume:  float64(beeperVolume),
		sampleRate:    sampleRate,
		cyclesPerSamp: uint64(clockFreqHz / sampleRate),
		fmBuf:         make([]float32, 0, 4096),
	}
}

// Read implements io.Reader for oto.NewPlayer: p is a byte buffer of
// float32LE mono frames. Per spec.md §4.8, when the CPU is not running the
// render cursor still advances (events keep draining) but the mixer
// produces only what the two event sources describe — silence if neither
// has anything queued.
func (m *Mixer) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(m.fmBuf) < n {
		m.fmBuf = make([]float32, n)
	}
	buf := m.fmBuf[:n]

	cycle := m.clock.Cycles()
	m.renderer.Render(buf, cycle, m.cyclesPerSamp)

	for i := 0; i < n; i++ {
		sampleCycle := cycle + uint64(i)*m.cyclesPerSamp
		m.beeper.drainUpTo(sampleCycle)
		mix := buf[i] + m.beeper.sample(m.sampleRate, m.beeperVolume)
		if mix > 1 {
			mix = 1
		} else if mix < -1 {
			mix = -1
		}
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(mix))
	}
	return len(p), nil
}

// Sink owns the oto context/player driving Mixer.
type Sink struct {
	ctx    *oto.Context
	player *oto.Player
	mixer  *Mixer
}

// NewSink opens the platform audio device at sampleRate and wires mixer as
// its sample source. The player starts immediately; Close stops it.
func NewSink(sampleRate int, mixer *Mixer) (*Sink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(mixer)
	player.Play()
	return &Sink{ctx: ctx, player: player, mixer: mixer}, nil
}

// Close stops playback. The oto context itself has no explicit close.
func (s *Sink) Close() error {
	return s.player.Close()
}
