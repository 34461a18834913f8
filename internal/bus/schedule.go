package bus

// scheduleKind identifies one of the bus's six independently-scheduled
// device handlers. spec.md §4.3 extends the original four-slot schedule
// (three PIT channels plus the PS/2 controller) with the FM synth's two
// internal timers, since sound_blaster.rs schedules those through the same
// mechanism.
type scheduleKind uint8

const (
	kindPitChannel0 scheduleKind = iota
	kindPitChannel1
	kindPitChannel2
	kindPS2Controller
	kindFMTimer0
	kindFMTimer1
	kindNone
	scheduleSlots = int(kindNone)
)

const noTrigger = ^uint64(0)

type scheduleEntry struct {
	kind      scheduleKind
	triggerAt uint64
}

// schedule holds at most one pending entry per device kind and tracks the
// soonest trigger cycle across all of them, so Bus.Tick can cheaply decide
// whether anything is due without scanning the full slot array on every
// instruction.
type schedule struct {
	slots             [scheduleSlots]scheduleEntry
	nextIndex         int
	nextTriggerCycle  uint64
}

func newSchedule() *schedule {
	s := &schedule{nextTriggerCycle: noTrigger}
	for i := range s.slots {
		s.slots[i].kind = kindNone
	}
	return s
}

func (s *schedule) recompute() {
	s.nextTriggerCycle = noTrigger
	for i := range s.slots {
		if s.slots[i].kind != kindNone && s.slots[i].triggerAt < s.nextTriggerCycle {
			s.nextIndex = i
			s.nextTriggerCycle = s.slots[i].triggerAt
		}
	}
}

func (s *schedule) arm(kind scheduleKind, triggerAt uint64) {
	s.slots[kind] = scheduleEntry{kind: kind, triggerAt: triggerAt}
	s.recompute()
}

func (s *schedule) cancel(kind scheduleKind) {
	s.slots[kind].kind = kindNone
	s.recompute()
}

// due reports whether a slot has reached its trigger cycle and, if so,
// cancels and returns it.
func (s *schedule) due(cycle uint64) (scheduleKind, bool) {
	if s.nextTriggerCycle > cycle {
		return kindNone, false
	}
	kind := s.slots[s.nextIndex].kind
	s.cancel(kind)
	return kind, true
}
