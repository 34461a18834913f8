package audioout

import (
	"math"
	"testing"

	"github.com/pcx86/emu/internal/bus"
	"github.com/pcx86/emu/internal/opl"
)

type fakeClock struct{ cycle uint64 }

func (f *fakeClock) Cycles() uint64 { return f.cycle }

func TestMixerSilentWithNoEvents(t *testing.T) {
	clock := &fakeClock{}
	fmEvents := make(chan opl.Event)
	beeperEvents := make(chan bus.BeeperEvent)
	m := NewMixer(clock, 4772726, 44100, 0.25, fmEvents, beeperEvents)

	buf := make([]byte, 4*8)
	n, err := m.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read returned %d, want %d", n, len(buf))
	}
	for i := 0; i < len(buf); i += 4 {
		v := math.Float32frombits(uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24)
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0 with no queued events", i/4, v)
		}
	}
}

func TestMixerBeeperProducesNonzeroSamples(t *testing.T) {
	clock := &fakeClock{}
	fmEvents := make(chan opl.Event, 1)
	beeperEvents := make(chan bus.BeeperEvent, 1)
	beeperEvents <- bus.BeeperEvent{Cycle: 0, FrequencyHz: 440}

	m := NewMixer(clock, 4772726, 44100, 0.5, fmEvents, beeperEvents)
	buf := make([]byte, 4*64)
	if _, err := m.Read(buf); err != nil {
		t.Fatalf("Read: %v", err)
	}

	sawNonzero := false
	for i := 0; i < len(buf); i += 4 {
		v := math.Float32frombits(uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24)
		if v != 0 {
			sawNonzero = true
			break
		}
	}
	if !sawNonzero {
		t.Fatal("expected a queued beeper frequency to produce nonzero output")
	}
}
