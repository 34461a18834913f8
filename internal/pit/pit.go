// Package pit implements the three-channel 8253/8254-style programmable
// interval timer: channel 0 drives IRQ0, channel 2 drives the PC speaker.
package pit

import "github.com/pcx86/emu/internal/devbus"

// AccessMode selects which half of a 16-bit reload/counter a port 0x40-0x42
// access touches. HighThenLow is never programmed directly (mode 0 on the
// control word selects a latch, handled separately) - it exists purely as
// the toggle target for LowThenHigh's two-step access.
type AccessMode uint8

const (
	AccessHighThenLow AccessMode = iota
	AccessAlwaysLow
	AccessAlwaysHigh
	AccessLowThenHigh
)

const noTrigger = ^uint64(0)

type timer struct {
	operationMode uint8
	accessMode    AccessMode
	latchRead     uint16
	reload        uint16
	triggerAt     uint64
	isLatched     bool
	inputMask     bool // channel 2 only: the 0x61 gate bit
}

// Kind identifies one of the three channels for scheduling purposes.
type Kind uint8

const (
	Channel0 Kind = iota
	Channel1
	Channel2
)

// Scheduler lets a channel arrange its own next tick; the bus owns the
// actual event-schedule array (see internal/bus).
type Scheduler interface {
	ScheduleTimer(kind Kind, triggerAt uint64)
	CancelTimer(kind Kind)
}

// BeeperSink receives a frequency update whenever channel 2's gate state or
// reload changes in a way that would change what's audible.
type BeeperSink interface {
	PushBeeperEvent(cycle uint64, frequencyHz float32)
}

// PIT holds the three independent timer channels.
type PIT struct {
	timers        [3]timer
	clockFreqHz   float64
	beeperEnabled bool
}

// New returns a PIT with all channels un-triggered and channel 2's gate
// held high (the BIOS leaves the speaker gate open at boot).
func New(clockFreqHz float64, beeperEnabled bool) *PIT {
	p := &PIT{clockFreqHz: clockFreqHz, beeperEnabled: beeperEnabled}
	for i := range p.timers {
		p.timers[i] = timer{accessMode: AccessLowThenHigh, triggerAt: noTrigger, inputMask: true}
	}
	return p
}

// reloadPeriod returns the full period of channel ch in CPU cycles: twice
// the 16-bit reload (0 treated as 0x10000, per spec.md §9's resolved open
// question), quadrupled in modes 3 and 7 whose square wave needs two
// half-periods per toggle.
func (p *PIT) reloadPeriod(ch Kind) uint64 {
	reload := uint64(p.timers[ch].reload)
	if reload == 0 {
		reload = 0x10000
	}
	switch p.timers[ch].operationMode {
	case 3, 7:
		return reload * 4
	default:
		return reload * 2
	}
}

func (p *PIT) counter(ch Kind, now uint64) uint16 {
	t := &p.timers[ch]
	if t.triggerAt == noTrigger {
		return 0
	}
	period := p.reloadPeriod(ch)
	lastStart := now - t.triggerAt + period
	switch t.operationMode {
	case 2, 3, 6, 7:
		return uint16(lastStart % period)
	default:
		return uint16(lastStart)
	}
}

func (p *PIT) output(ch Kind, now uint64) bool {
	t := &p.timers[ch]
	if t.triggerAt == noTrigger {
		return t.operationMode > 1
	}
	period := p.reloadPeriod(ch)
	lastStart := now - (t.triggerAt - period)
	switch t.operationMode {
	case 0, 1:
		return lastStart >= period
	case 3, 7:
		return lastStart*2 >= period
	default:
		return true
	}
}

func (p *PIT) pushBeeperEvent(sink BeeperSink, cycle uint64) {
	if !p.beeperEnabled {
		return
	}
	freq := float32(p.clockFreqHz / float64(p.reloadPeriod(Channel2)))
	if !p.timers[Channel2].inputMask {
		freq = 0
	}
	sink.PushBeeperEvent(cycle, freq)
}

// ScheduledHandler runs when channel ch's schedule entry fires: continuous
// modes (2/3/6/7) reschedule themselves one period out, one-shot modes do
// not; channel 0 always raises IRQ0.
func (p *PIT) ScheduledHandler(cpu devbus.CPU, picCtl devbus.PIC, sched Scheduler, ch Kind) {
	t := &p.timers[ch]
	switch t.operationMode {
	case 2, 3, 6, 7:
		t.triggerAt += p.reloadPeriod(ch)
		sched.ScheduleTimer(ch, t.triggerAt)
	}
	if ch == Channel0 {
		picCtl.RequestInterrupt(cpu, 0)
	}
}

// InByte implements port 0x61 (gate/speaker status) and 0x40-0x42 (channel
// counter/latch reads, alternating low/high byte under LowThenHigh/
// HighThenLow access mode).
func (p *PIT) InByte(cycle uint64, port uint16) uint8 {
	switch {
	case port == 0x61:
		out := uint8(0)
		if p.output(Channel2, cycle) {
			out = 1
		}
		gate := uint8(0)
		if p.timers[Channel2].inputMask {
			gate = 1
		}
		return out<<5 | gate
	case port >= 0x40 && port <= 0x42:
		ch := Kind(port - 0x40)
		t := &p.timers[ch]
		var value uint16
		if t.isLatched {
			value = t.latchRead
		} else {
			value = p.counter(ch, cycle)
		}
		var b uint8
		switch t.accessMode {
		case AccessLowThenHigh, AccessAlwaysLow:
			b = uint8(value)
		default:
			b = uint8(value >> 8)
		}
		if t.accessMode != AccessLowThenHigh {
			t.isLatched = false
		}
		t.accessMode = toggleAccess(t.accessMode)
		return b
	default:
		return 0
	}
}

// OutByte implements port 0x61 (speaker gate), 0x40-0x42 (reload writes)
// and 0x43 (control word: channel select, operation mode, access mode, or
// a latch-current-counter request when access mode bits are 0).
func (p *PIT) OutByte(cycle uint64, sched Scheduler, sink BeeperSink, port uint16, v uint8) {
	switch {
	case port == 0x61:
		mask := v&1 == 1
		changed := p.timers[Channel2].inputMask != mask
		p.timers[Channel2].inputMask = mask
		if changed {
			p.pushBeeperEvent(sink, cycle)
		}
	case port >= 0x40 && port <= 0x42:
		ch := Kind(port - 0x40)
		t := &p.timers[ch]
		switch t.accessMode {
		case AccessLowThenHigh, AccessAlwaysLow:
			t.reload = (t.reload & 0xFF00) | uint16(v)
		default:
			t.reload = (t.reload & 0x00FF) | uint16(v)<<8
		}
		if t.accessMode != AccessLowThenHigh {
			if ch == Channel2 {
				p.pushBeeperEvent(sink, cycle)
			}
			t.triggerAt = cycle + p.reloadPeriod(ch)
			sched.ScheduleTimer(ch, t.triggerAt)
		}
		t.accessMode = toggleAccess(t.accessMode)
	case port == 0x43:
		ch := Kind(v >> 6)
		opMode := (v >> 1) & 7
		accessBits := (v >> 4) & 3
		t := &p.timers[ch]
		if accessBits == 0 {
			t.isLatched = true
			t.latchRead = p.counter(ch, cycle)
			return
		}
		t.operationMode = opMode
		t.accessMode = AccessMode(accessBits)
		t.reload = 0
		t.triggerAt = noTrigger
		t.isLatched = false
		sched.CancelTimer(ch)
	}
}

// toggleAccess flips LowThenHigh<->HighThenLow between successive byte
// halves of a 16-bit access; AlwaysLow/AlwaysHigh never change.
func toggleAccess(m AccessMode) AccessMode {
	switch m {
	case AccessLowThenHigh:
		return AccessHighThenLow
	case AccessHighThenLow:
		return AccessLowThenHigh
	default:
		return m
	}
}
