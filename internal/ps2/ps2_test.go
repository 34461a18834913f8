package ps2

import (
	"testing"

	"github.com/pcx86/emu/internal/devbus"
)

type fakeCPU struct{}

func (fakeCPU) Resume() {}

type fakePIC struct{ n int }

func (f *fakePIC) RequestInterrupt(cpu devbus.CPU, n uint8) { f.n++ }

type fakeScheduler struct{ triggers []uint64 }

func (f *fakeScheduler) SchedulePS2(triggerAt uint64) { f.triggers = append(f.triggers, triggerAt) }

func TestPushPopRoundTrip(t *testing.T) {
	c := New()
	cpu, pic, sched := fakeCPU{}, &fakePIC{}, &fakeScheduler{}

	if dropped := c.PushData(cpu, pic, sched, 0, 0x1E); dropped {
		t.Fatal("unexpected drop on empty queue")
	}
	if pic.n != 1 {
		t.Fatalf("pic requests=%d want 1", pic.n)
	}
	v, ok := c.PopData(cpu, pic, sched, 100)
	if !ok || v != 0x1E {
		t.Fatalf("got v=%#02x ok=%v want 0x1E/true", v, ok)
	}
	if c.DataAvailable() {
		t.Fatal("queue should be empty after draining its only byte")
	}
}

func TestOverflowDropsNewestByte(t *testing.T) {
	c := New()
	cpu, pic, sched := fakeCPU{}, &fakePIC{}, &fakeScheduler{}
	for i := 0; i < bufferSize-1; i++ {
		if dropped := c.PushData(cpu, pic, sched, 0, uint8(i)); dropped {
			t.Fatalf("unexpected drop filling slot %d", i)
		}
	}
	if dropped := c.PushData(cpu, pic, sched, 0, 0xFF); !dropped {
		t.Fatal("expected overflow to report dropped")
	}
	v, _ := c.PopData(cpu, pic, sched, 0)
	if v != 0 {
		t.Fatalf("oldest queued byte should still be 0, got %#02x", v)
	}
}

func TestInBytePeeksWithoutDequeuing(t *testing.T) {
	c := New()
	cpu, pic, sched := fakeCPU{}, &fakePIC{}, &fakeScheduler{}
	c.PushData(cpu, pic, sched, 0, 0x42)
	if got := c.InByte(0x60); got != 0x42 {
		t.Fatalf("InByte=%#02x want 0x42", got)
	}
	if got := c.InByte(0x60); got != 0x42 {
		t.Fatalf("second InByte=%#02x want 0x42 (peek must not dequeue)", got)
	}
}
