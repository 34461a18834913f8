package opl

import "github.com/pcx86/emu/internal/devbus"

// Scheduler lets a chip timer arrange its own expiry; the bus owns the
// actual event-schedule array (see internal/bus).
type Scheduler interface {
	ScheduleFMTimer(idx int, triggerAt uint64)
	CancelFMTimer(idx int)
}

// EventSink receives synthesis updates destined for the audio thread.
type EventSink interface {
	PushOPLEvent(Event)
}

type timer struct {
	enabled   bool
	expired   bool
	latch     uint8
	triggerAt uint64
}

type oscillator struct {
	keyState              bool
	keyScalingRateEnabled  bool
	frequencyMultiplier    uint8
	totalLevel             uint8
	keyScalingLevel        uint8
	attackRate             uint8
	decayRate              uint8
	sustainLevel           uint8
	releaseRate            uint8
	synthesis              OperatorSynthesis
}

type channel struct {
	keyIndex    uint16
	octave      uint8
	oscillators [2]oscillator
	synthesis   ChannelSynthesis
}

// Chip is the register-addressable half of the synth: every OUT to its
// port pair mutates this state and, where the real chip would start
// producing a different waveform, emits an Event for the render thread.
type Chip struct {
	registerIndex            uint8
	waveformControl          bool
	keyboardSplitNoteSelect  bool
	timers                   [2]timer
	channels                 [9]channel
	synthesis                GlobalSynthesis
	enabled                  bool
}

// New returns a chip with both timers stopped and every channel silent.
// enabled gates register writes the way config Audio.SoundBlasterEnabled
// does in the original: when false, writes to the data port are dropped.
func New(enabled bool) *Chip {
	c := &Chip{enabled: enabled}
	for i := range c.timers {
		c.timers[i].triggerAt = noTrigger
	}
	return c
}

const noTrigger = ^uint64(0)

func (c *Chip) setTimer(cycle uint64, sched Scheduler, idx int, enabled bool) {
	c.timers[idx].enabled = enabled
	if enabled {
		step := uint64(382)
		if idx == 1 {
			step = 1527
		}
		c.timers[idx].triggerAt = cycle + step*(uint64(0x100)-uint64(c.timers[idx].latch))
		sched.ScheduleFMTimer(idx, c.timers[idx].triggerAt)
	} else {
		c.timers[idx].triggerAt = noTrigger
		sched.CancelFMTimer(idx)
	}
}

// ScheduledHandler fires when one of the two internal timers expires: it
// latches the expired flag (visible on the status port) and raises IRQ0,
// matching how a real AdLib/Sound Blaster timer signals the PIC.
func (c *Chip) ScheduledHandler(cpu devbus.CPU, pic devbus.PIC, idx int) {
	c.timers[idx].expired = true
	c.timers[idx].triggerAt = noTrigger
	pic.RequestInterrupt(cpu, 0)
}

// oscillatorAt decodes the banked register addressing formula: the low 5
// bits of a register address select one of 18 operators laid out as three
// banks of 6 (channels 0-2, 3-5, 6-8), each bank holding two operators per
// channel.
func (c *Chip) oscillatorAt(address uint8) *oscillator {
	channelIndex := (address&7)%3 + (address&0x1F)/8*3
	oscillatorIndex := (address & 7) / 3
	return &c.channels[channelIndex].oscillators[oscillatorIndex]
}

func (c *Chip) sendChannelUpdate(cycle uint64, sink EventSink, channelIndex int) {
	ch := &c.channels[channelIndex]
	keyScalingLevelBase := keyScalingLevelTable[int(ch.octave)<<4|int(ch.keyIndex)>>6]
	splitShift := uint(9)
	if c.keyboardSplitNoteSelect {
		splitShift = 8
	}
	keyScalingRateBase := ch.octave<<1 | uint8(ch.keyIndex>>splitShift)&1
	frequencyIndex := uint32(ch.keyIndex) << ch.octave
	vibrato := uint32(ch.keyIndex) >> 7 << ch.octave

	for i := range ch.oscillators {
		osc := &ch.oscillators[i]
		osc.synthesis.Volume = uint16(osc.totalLevel)<<2 + uint16(keyScalingLevelBase>>uint32(keyScaleLevelShiftTable[osc.keyScalingLevel]))
		multiplier := frequencyMultiplierTable[osc.frequencyMultiplier]
		osc.synthesis.PhaseIncrement = frequencyIndex * multiplier
		osc.synthesis.Vibrato = vibrato * multiplier

		keyScalingRate := keyScalingRateBase
		if !osc.keyScalingRateEnabled {
			keyScalingRate >>= 2
		}
		rateIndex := func(rate uint8) int { return int(rate)*4 + int(keyScalingRate) }

		osc.synthesis.AttackIncrement = 0
		if osc.attackRate > 0 {
			osc.synthesis.AttackIncrement = rateIncrementTable[rateIndex(osc.attackRate)]
		}
		osc.synthesis.DecayIncrement = 0
		if osc.decayRate > 0 {
			osc.synthesis.DecayIncrement = rateIncrementTable[rateIndex(osc.decayRate)]
		}
		osc.synthesis.ReleaseIncrement = 0
		if osc.releaseRate > 0 {
			osc.synthesis.ReleaseIncrement = rateIncrementTable[rateIndex(osc.releaseRate)]
		}
		if rateIndex(osc.attackRate) >= 60 {
			osc.synthesis.AttackIncrement = rateIncrementTable[76]
		}

		sink.PushOPLEvent(Event{Cycle: cycle, Kind: EventOperator, Index: channelIndex*2 + i, Operator: osc.synthesis})
	}
	sink.PushOPLEvent(Event{Cycle: cycle, Kind: EventChannel, Index: channelIndex, Channel: ch.synthesis})
}

func (c *Chip) sendKeyState(cycle uint64, sink EventSink, channelIndex, oscillatorIndex int, nextKeyState bool) {
	osc := &c.channels[channelIndex].oscillators[oscillatorIndex]
	if osc.keyState == nextKeyState {
		return
	}
	sink.PushOPLEvent(Event{Cycle: cycle, Kind: EventKeyState, Index: channelIndex*2 + oscillatorIndex, KeyOn: nextKeyState})
	osc.keyState = nextKeyState
}

// InByte implements the status register mirrored at 0x220/0x222/0x388: bit
// 7 is set whenever either internal timer has expired, bits 6/5 report
// which one.
func (c *Chip) InByte(port uint16) uint8 {
	switch port {
	case 0x220, 0x222, 0x388:
		any := c.timers[0].expired || c.timers[1].expired
		var v uint8
		if any {
			v |= 1 << 7
		}
		if c.timers[0].expired {
			v |= 1 << 6
		}
		if c.timers[1].expired {
			v |= 1 << 5
		}
		return v
	default:
		return 0
	}
}

// OutByte implements the index/data port pairs at 0x220/0x221, 0x222/0x223
// and 0x388/0x389 (all three addresses alias the same register file, as on
// real OPL-compatible hardware).
func (c *Chip) OutByte(cycle uint64, sched Scheduler, sink EventSink, port uint16, value uint8) {
	if !c.enabled {
		return
	}
	switch port {
	case 0x220, 0x222, 0x388:
		c.registerIndex = value
		return
	case 0x221, 0x223, 0x389:
	default:
		return
	}

	switch {
	case c.registerIndex == 0x01:
		c.waveformControl = value&(1<<5) != 0
	case c.registerIndex == 0x02:
		c.timers[0].latch = value
	case c.registerIndex == 0x03:
		c.timers[1].latch = value
	case c.registerIndex == 0x04:
		if value&(1<<7) != 0 {
			c.timers[0].expired = false
			c.timers[1].expired = false
		} else {
			if value>>6 != 0 {
				c.setTimer(cycle, sched, 0, value&1 != 0)
			}
			if value>>5 != 0 {
				c.setTimer(cycle, sched, 1, value>>1&1 != 0)
			}
		}
	case c.registerIndex == 0x08:
		c.keyboardSplitNoteSelect = value>>6&1 != 0
	case isOperatorRange(c.registerIndex, 0x20, 0x25):
		osc := c.oscillatorAt(c.registerIndex)
		osc.synthesis.TremoloEnabled = value>>7&1 != 0
		osc.synthesis.VibratoEnabled = value>>6&1 != 0
		osc.synthesis.SustainEnabled = value>>5&1 != 0
		osc.keyScalingRateEnabled = value>>4&1 != 0
		osc.frequencyMultiplier = value & 0x0F
	case isOperatorRange(c.registerIndex, 0x40, 0x45):
		osc := c.oscillatorAt(c.registerIndex)
		osc.totalLevel = value & 0x3F
		osc.keyScalingLevel = value >> 6 & 0x03
	case isOperatorRange(c.registerIndex, 0x60, 0x65):
		osc := c.oscillatorAt(c.registerIndex)
		osc.attackRate = value >> 4 & 0x0F
		osc.decayRate = value & 0x0F
	case isOperatorRange(c.registerIndex, 0x80, 0x85):
		osc := c.oscillatorAt(c.registerIndex)
		osc.sustainLevel = value >> 4 & 0x0F
		osc.releaseRate = value & 0x0F
		sustain := uint32(osc.sustainLevel)
		if osc.sustainLevel == 0xF {
			sustain = 31
		}
		osc.synthesis.SustainVolume = sustain << 4
	case c.registerIndex >= 0xA0 && c.registerIndex <= 0xA8:
		ch := &c.channels[c.registerIndex-0xA0]
		ch.keyIndex = ch.keyIndex&0xFF00 | uint16(value)
	case c.registerIndex >= 0xB0 && c.registerIndex <= 0xB8:
		channelIndex := int(c.registerIndex - 0xB0)
		ch := &c.channels[channelIndex]
		nextKeyState := value>>5&1 != 0
		ch.octave = value >> 2 & 0x07
		ch.keyIndex = ch.keyIndex&0x00FF | uint16(value&0x03)<<8
		// Key-on/off must reach the renderer before the channel's
		// frequency/octave snapshot, so a consumer observes the operators'
		// new key state ahead of the synthesis update it now applies to.
		for i := 0; i < 2; i++ {
			c.sendKeyState(cycle, sink, channelIndex, i, nextKeyState)
		}
		c.sendChannelUpdate(cycle, sink, channelIndex)
	case c.registerIndex == 0xBD:
		if value>>7&1 != 0 {
			c.synthesis.TremoloStrength = 0
		} else {
			c.synthesis.TremoloStrength = 2
		}
		if value>>6&1 != 0 {
			c.synthesis.VibratoStrength = 0
		} else {
			c.synthesis.VibratoStrength = 1
		}
		c.synthesis.RhythmEnabled = value>>5&1 != 0
		sink.PushOPLEvent(Event{Cycle: cycle, Kind: EventGlobal, Global: c.synthesis})
		if c.synthesis.RhythmEnabled {
			c.sendKeyState(cycle, sink, 6, 0, value>>4&1 != 0)
			c.sendKeyState(cycle, sink, 6, 1, value>>4&1 != 0)
			c.sendKeyState(cycle, sink, 7, 0, value&1 != 0)
			c.sendKeyState(cycle, sink, 7, 1, value>>3&1 != 0)
			c.sendKeyState(cycle, sink, 8, 0, value>>2&1 != 0)
			c.sendKeyState(cycle, sink, 8, 1, value>>1&1 != 0)
		} else {
			for channelIndex := 6; channelIndex < 9; channelIndex++ {
				for oscillatorIndex := 0; oscillatorIndex < 2; oscillatorIndex++ {
					c.sendKeyState(cycle, sink, channelIndex, oscillatorIndex, false)
				}
			}
		}
	case c.registerIndex >= 0xC0 && c.registerIndex <= 0xC8:
		ch := &c.channels[c.registerIndex-0xC0]
		strength := value >> 1 & 0x07
		if strength == 0 {
			ch.synthesis.FeedbackStrength = 31
		} else {
			ch.synthesis.FeedbackStrength = 9 - strength
		}
		if value&1 == 0 {
			ch.synthesis.ConnectionMode = ConnectionFM
		} else {
			ch.synthesis.ConnectionMode = ConnectionAM
		}
	case isOperatorRange(c.registerIndex, 0xE0, 0xE5):
		waveformControl := c.waveformControl
		osc := c.oscillatorAt(c.registerIndex)
		if waveformControl {
			osc.synthesis.Waveform = value & 0x07
		} else {
			osc.synthesis.Waveform = 0
		}
	}
}

// isOperatorRange reports whether register matches one of the three 6-wide
// per-bank windows (base, base+8, base+16) the chip's banked addressing
// scheme uses for the six operator-block register groups.
func isOperatorRange(register, base, end uint8) bool {
	for _, bankOffset := range [3]uint8{0, 8, 16} {
		if register >= base+bankOffset && register <= end+bankOffset {
			return true
		}
	}
	return false
}
