// Package opl implements the register file and audio-thread renderer for a
// 9-channel, 2-operator-per-channel FM synthesizer (an OPL2-class chip,
// addressed the way the original Sound Blaster / AdLib register map works),
// per spec.md §4.6.
package opl

// ConnectionMode selects whether a channel's two operators are chained
// (FM, the modulator feeds the carrier's phase) or summed (AM, both
// operators output directly).
type ConnectionMode uint8

const (
	ConnectionFM ConnectionMode = iota
	ConnectionAM
)

// OperatorSynthesis is the derived, ready-to-render state of one operator:
// everything the audio thread needs, already resolved from raw register
// bits into LUT-indexed increments, so the render loop only accumulates
// phase and envelope and looks the results up in the sine and exponential
// tables.
type OperatorSynthesis struct {
	TremoloEnabled   bool
	VibratoEnabled   bool
	SustainEnabled   bool
	Waveform         uint8
	AttackIncrement  uint32
	DecayIncrement   uint32
	SustainVolume    uint32
	ReleaseIncrement uint32
	PhaseIncrement   uint32
	Vibrato          uint32
	Volume           uint16
}

// ChannelSynthesis is the derived per-channel state covering how its two
// operators combine.
type ChannelSynthesis struct {
	FeedbackStrength uint8
	ConnectionMode   ConnectionMode
}

// GlobalSynthesis covers the chip-wide LFO depth and rhythm mode switch.
type GlobalSynthesis struct {
	TremoloStrength uint8
	VibratoStrength uint8
	RhythmEnabled   bool
}

// EventKind tags which payload an Event carries.
type EventKind uint8

const (
	EventGlobal EventKind = iota
	EventChannel
	EventOperator
	EventKeyState
)

// Event crosses from the worker goroutine (which owns register writes) to
// the audio goroutine (which owns the render loop) over a channel, carrying
// the cycle it was generated at so the renderer can align it to the sample
// it is currently producing.
type Event struct {
	Cycle    uint64
	Kind     EventKind
	Index    int // operator index (0-17) for Operator/KeyState, channel index (0-8) for Channel
	Global   GlobalSynthesis
	Channel  ChannelSynthesis
	Operator OperatorSynthesis
	KeyOn    bool
}
