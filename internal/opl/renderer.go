package opl

const (
	channelCount  = 9
	operatorCount = channelCount * 2
)

type envelopeStage uint8

const (
	stageOff envelopeStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

type operatorState struct {
	synthesis OperatorSynthesis
	phase     uint32
	envelope  uint32 // 0 = full volume, rises toward silence
	stage     envelopeStage
}

type channelState struct {
	synthesis ChannelSynthesis
	feedback  float32
}

// Renderer owns the audio-thread side of the synth: it drains Events
// produced by Chip's register writes and turns the resulting per-operator
// state into PCM samples, filling the whole buffer passed to each Render
// call.
type Renderer struct {
	events     <-chan Event
	pending    *Event
	operators  [operatorCount]operatorState
	channels   [channelCount]channelState
	global     GlobalSynthesis
	sampleRate float64
}

// NewRenderer returns a renderer that reads synthesis updates from events
// and produces samples at sampleRate Hz.
func NewRenderer(events <-chan Event, sampleRate float64) *Renderer {
	return &Renderer{events: events, sampleRate: sampleRate}
}

func (r *Renderer) applyEvent(e Event) {
	switch e.Kind {
	case EventGlobal:
		r.global = e.Global
	case EventChannel:
		r.channels[e.Index].synthesis = e.Channel
	case EventOperator:
		r.operators[e.Index].synthesis = e.Operator
	case EventKeyState:
		op := &r.operators[e.Index]
		if e.KeyOn {
			op.stage = stageAttack
		} else if op.stage != stageOff {
			op.stage = stageRelease
		}
	}
}

// drainUpTo applies every queued event generated at or before cycle,
// leaving later events queued for a subsequent sample.
func (r *Renderer) drainUpTo(cycle uint64) {
	for {
		if r.pending == nil {
			select {
			case e, ok := <-r.events:
				if !ok {
					return
				}
				r.pending = &e
			default:
				return
			}
		}
		if r.pending.Cycle > cycle {
			return
		}
		r.applyEvent(*r.pending)
		r.pending = nil
	}
}

func (op *operatorState) advanceEnvelope() {
	const ceiling = 1 << 21
	switch op.stage {
	case stageAttack:
		if op.synthesis.AttackIncrement == 0 {
			return
		}
		if op.envelope <= op.synthesis.AttackIncrement {
			op.envelope = 0
			op.stage = stageDecay
			return
		}
		op.envelope -= op.synthesis.AttackIncrement
	case stageDecay:
		op.envelope += op.synthesis.DecayIncrement
		if op.envelope >= op.synthesis.SustainVolume<<10 {
			op.envelope = op.synthesis.SustainVolume << 10
			op.stage = stageSustain
		}
	case stageSustain:
		if !op.synthesis.SustainEnabled {
			op.stage = stageRelease
		}
	case stageRelease:
		op.envelope += op.synthesis.ReleaseIncrement
		if op.envelope >= ceiling {
			op.envelope = ceiling
			op.stage = stageOff
		}
	}
}

func attenuationToLinear(envelope uint32, volume uint16) float32 {
	level := int(envelope>>10) + int(volume)
	if level >= expTableSize {
		return 0
	}
	return expTable[level]
}

// Render fills buffer (one float32 sample per frame, mono-summed across
// all 9 channels) starting at cycle, advancing cyclesPerSample each frame.
func (r *Renderer) Render(buffer []float32, cycle uint64, cyclesPerSample uint64) {
	for i := range buffer {
		r.drainUpTo(cycle)
		var mix float32
		for ci := 0; ci < channelCount; ci++ {
			mix += r.renderChannel(ci)
		}
		buffer[i] = mix / channelCount
		cycle += cyclesPerSample
	}
}

func (r *Renderer) renderChannel(ci int) float32 {
	ch := &r.channels[ci]
	mod := &r.operators[ci*2]
	car := &r.operators[ci*2+1]

	modOut := r.stepOperator(mod, 0)
	switch ch.synthesis.ConnectionMode {
	case ConnectionFM:
		carOut := r.stepOperator(car, modOut)
		return carOut
	default:
		carOut := r.stepOperator(car, 0)
		return (modOut + carOut) / 2
	}
}

func (r *Renderer) stepOperator(op *operatorState, phaseModulation float32) float32 {
	if op.stage == stageOff {
		op.phase += op.synthesis.PhaseIncrement
		return 0
	}
	op.advanceEnvelope()
	phaseIdx := int(op.phase>>22) & (sineTableSize - 1)
	sample := sineTable[phaseIdx]
	sample += phaseModulation
	amplitude := attenuationToLinear(op.envelope, op.synthesis.Volume)
	op.phase += op.synthesis.PhaseIncrement
	return sample * amplitude
}
