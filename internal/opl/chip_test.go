package opl

import (
	"testing"

	"github.com/pcx86/emu/internal/devbus"
)

type fakeCPU struct{}

func (fakeCPU) Resume() {}

type fakePIC struct{ n int }

func (f *fakePIC) RequestInterrupt(cpu devbus.CPU, n uint8) { f.n++ }

type fakeScheduler struct {
	scheduled map[int]uint64
	canceled  []int
}

func newFakeScheduler() *fakeScheduler { return &fakeScheduler{scheduled: map[int]uint64{}} }

func (f *fakeScheduler) ScheduleFMTimer(idx int, triggerAt uint64) { f.scheduled[idx] = triggerAt }
func (f *fakeScheduler) CancelFMTimer(idx int) {
	f.canceled = append(f.canceled, idx)
	delete(f.scheduled, idx)
}

type fakeSink struct{ events []Event }

func (f *fakeSink) PushOPLEvent(e Event) { f.events = append(f.events, e) }

func programRegister(c *Chip, sched Scheduler, sink EventSink, index, value uint8) {
	c.OutByte(0, sched, sink, 0x388, index)
	c.OutByte(0, sched, sink, 0x389, value)
}

// Scenario 6 (spec.md §8): writing a key-on control byte must emit the two
// operators' key-state events before the channel/operator synthesis update,
// so a consumer never sees the channel snapshot before the key state it
// describes.
func TestKeyOnOrdersKeyStateBeforeChannel(t *testing.T) {
	c := New(true)
	sched := newFakeScheduler()
	sink := &fakeSink{}

	programRegister(c, sched, sink, 0xA0, 0x44) // channel 0 key index low byte
	programRegister(c, sched, sink, 0xB0, 0x20) // octave 0, key-on bit set

	var sawKeyState, sawChannel bool
	for _, e := range sink.events {
		if e.Kind == EventKeyState {
			sawKeyState = true
		}
		if e.Kind == EventChannel {
			sawChannel = true
			if !sawKeyState {
				t.Fatal("channel update arrived before the key-state events")
			}
		}
	}
	if !sawChannel || !sawKeyState {
		t.Fatalf("expected both a channel and key-state event, got %d events", len(sink.events))
	}
}

func TestOscillatorAtAddressBankedMapping(t *testing.T) {
	c := New(true)
	// Register 0x20 addresses channel 0 operator 0; 0x23 addresses channel 0
	// operator 1; 0x28 addresses channel 3 operator 0 (second bank); 0x35
	// addresses channel 8 operator 1 (third bank).
	cases := []struct {
		reg        uint8
		wantChan   int
		wantOscIdx int
	}{
		{0x20, 0, 0},
		{0x23, 0, 1},
		{0x28, 3, 0},
		{0x35, 8, 1},
	}
	for _, tc := range cases {
		osc := c.oscillatorAt(tc.reg)
		got := &c.channels[tc.wantChan].oscillators[tc.wantOscIdx]
		if osc != got {
			t.Errorf("register %#02x: oscillatorAt mismatch", tc.reg)
		}
	}
}

func TestTimerStatusBits(t *testing.T) {
	c := New(true)
	sched := newFakeScheduler()
	pic := &fakePIC{}
	cpu := fakeCPU{}

	programRegister(c, sched, &fakeSink{}, 0x02, 0xFF) // timer0 latch = 0xFF
	programRegister(c, sched, &fakeSink{}, 0x04, 1<<6|1) // bit 6 selects timer0, bit 0 starts it

	if _, ok := sched.scheduled[0]; !ok {
		t.Fatal("expected timer 0 scheduled")
	}
	c.ScheduledHandler(cpu, pic, 0)
	if pic.n != 1 {
		t.Fatalf("pic requests=%d want 1", pic.n)
	}
	if got := c.InByte(0x388); got&(1<<7) == 0 || got&(1<<6) == 0 {
		t.Errorf("status=%#02x want bit7 and bit6 set", got)
	}
}

func TestDisabledChipIgnoresWrites(t *testing.T) {
	c := New(false)
	sched := newFakeScheduler()
	sink := &fakeSink{}
	programRegister(c, sched, sink, 0xA0, 0xFF)
	if c.channels[0].keyIndex != 0 {
		t.Error("disabled chip should ignore register writes")
	}
}
