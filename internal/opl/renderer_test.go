package opl

import "testing"

func TestRenderSilentWithNoEvents(t *testing.T) {
	events := make(chan Event, 4)
	r := NewRenderer(events, 48000)
	buf := make([]float32, 32)
	r.Render(buf, 0, 100)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %v, want silence with no key-on events", i, v)
		}
	}
}

func TestRenderAppliesQueuedOperatorUpdate(t *testing.T) {
	events := make(chan Event, 4)
	events <- Event{Cycle: 0, Kind: EventOperator, Index: 1, Operator: OperatorSynthesis{
		PhaseIncrement: 1 << 20,
		Volume:         0,
	}}
	events <- Event{Cycle: 0, Kind: EventKeyState, Index: 1, KeyOn: true}
	close(events)

	r := NewRenderer(events, 48000)
	buf := make([]float32, 8)
	r.Render(buf, 0, 1000)

	any := false
	for _, v := range buf {
		if v != 0 {
			any = true
		}
	}
	if !any {
		t.Error("expected a keyed-on carrier to produce a non-silent sample")
	}
}
