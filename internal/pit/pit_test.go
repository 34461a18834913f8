package pit

import (
	"testing"

	"github.com/pcx86/emu/internal/devbus"
)

type fakeCPU struct{}

func (fakeCPU) Resume() {}

type fakePIC struct{ requests []uint8 }

func (f *fakePIC) RequestInterrupt(cpu devbus.CPU, n uint8) { f.requests = append(f.requests, n) }

type fakeScheduler struct {
	scheduled map[Kind]uint64
	canceled  []Kind
}

func newFakeScheduler() *fakeScheduler { return &fakeScheduler{scheduled: map[Kind]uint64{}} }

func (f *fakeScheduler) ScheduleTimer(kind Kind, triggerAt uint64) { f.scheduled[kind] = triggerAt }
func (f *fakeScheduler) CancelTimer(kind Kind)                     { f.canceled = append(f.canceled, kind); delete(f.scheduled, kind) }

type fakeSink struct{ events []float32 }

func (f *fakeSink) PushBeeperEvent(cycle uint64, hz float32) { f.events = append(f.events, hz) }

// Scenario 4: program channel 0, mode 3, reload 0x4000. After 0x8000 cycles
// the channel's output has toggled once and IRQ0 has been raised once.
func TestMode3SquareWave(t *testing.T) {
	p := New(4772726, true)
	sched := newFakeScheduler()
	sink := &fakeSink{}
	cpu := fakeCPU{}
	pic := &fakePIC{}

	// Control word: channel 0, mode 3, access LowThenHigh.
	p.OutByte(0, sched, sink, 0x43, 0x00<<6|3<<1|3<<4)
	p.OutByte(0, sched, sink, 0x40, 0x00) // reload low byte
	p.OutByte(0, sched, sink, 0x40, 0x40) // reload high byte -> 0x4000, commits

	period := p.reloadPeriod(Channel0)
	if period != 0x4000*4 {
		t.Fatalf("period=%d want %d", period, 0x4000*4)
	}

	if !p.output(Channel0, 0x8000) {
		t.Error("expected output toggled high after half the mode-3 period")
	}

	p.ScheduledHandler(cpu, pic, sched, Channel0)
	if len(pic.requests) != 1 || pic.requests[0] != 0 {
		t.Fatalf("requests=%v want exactly one IRQ0", pic.requests)
	}
	// Mode 3 is continuous: the handler must reschedule itself.
	if _, ok := sched.scheduled[Channel0]; !ok {
		t.Error("expected channel 0 rescheduled after firing")
	}
}

func TestReloadZeroIsTreatedAs0x10000(t *testing.T) {
	p := New(1000000, false)
	sched := newFakeScheduler()
	sink := &fakeSink{}
	p.OutByte(0, sched, sink, 0x43, 1<<6|3<<4) // channel 1, mode 0, LowThenHigh
	p.OutByte(0, sched, sink, 0x41, 0x00)
	p.OutByte(0, sched, sink, 0x41, 0x00)
	if got := p.reloadPeriod(Channel1); got != 0x10000*2 {
		t.Errorf("reloadPeriod=%d want %d", got, 0x10000*2)
	}
}

func TestBeeperEventOnGateChange(t *testing.T) {
	p := New(1000000, true)
	sched := newFakeScheduler()
	sink := &fakeSink{}
	p.OutByte(100, sched, sink, 0x61, 0) // gate low
	if len(sink.events) != 1 || sink.events[0] != 0 {
		t.Fatalf("events=%v want single zero-frequency event", sink.events)
	}
}

func TestLatchReadDoesNotAdvanceCounter(t *testing.T) {
	p := New(1000000, false)
	sched := newFakeScheduler()
	sink := &fakeSink{}
	p.OutByte(0, sched, sink, 0x43, 2<<1|1<<4) // channel 0, mode 2, AlwaysLow
	p.OutByte(0, sched, sink, 0x40, 0xFF)

	p.OutByte(50, sched, sink, 0x43, 0) // latch channel 0's current counter
	want := uint8(p.counter(Channel0, 50))
	got := p.InByte(999, 0x40) // read later: must return the value latched at cycle 50, not a fresh count
	if got != want {
		t.Errorf("latched low byte = %#02x, want %#02x (counter at latch time)", got, want)
	}
}
