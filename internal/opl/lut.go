package opl

import "math"

// frequencyMultiplierTable maps the 4-bit "frequency multiplier" register
// field to the fixed-point multiplier applied to a channel's F-number
// before it becomes an operator's phase increment. Entry 11 and 13 repeat
// their neighbor, matching the half-integer multipliers (10x, 12x, 12x,
// 15x, 15x) real OPL2 parts expose in that range.
var frequencyMultiplierTable = [16]uint32{
	1, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 20, 24, 24, 30, 30,
}

// keyScaleLevelShiftTable maps the 2-bit key-scaling-level register field to
// the right-shift applied to the octave/key-derived attenuation base before
// it is added to an operator's total level.
var keyScaleLevelShiftTable = [4]uint8{8, 1, 2, 0}

// rateIncrementTableSize covers every (rate*4 + key-scaling-rate) index the
// envelope generator can compute, plus the clamp index 76 used when a fast
// attack rate saturates.
const rateIncrementTableSize = 77

// rateIncrementTable and keyScalingLevelTable are filled once at package
// init with an exponential curve approximating the real chip's envelope
// and attenuation response, rather than hand-transcribed from silicon -
// close enough for the generator the rest of the emulator drives, and named
// the way the register file's callers expect.
var rateIncrementTable [rateIncrementTableSize]uint32
var keyScalingLevelTable [128]uint32

func init() {
	for i := range rateIncrementTable {
		rateIncrementTable[i] = uint32(math.Round(math.Pow(2, float64(i)/4.0)))
	}
	for i := range keyScalingLevelTable {
		octave := i >> 4
		key := i & 0x0F
		keyScalingLevelTable[i] = uint32(octave*8 + key/2)
	}
}

// sineTableSize and expTableSize are the phase/log-magnitude lookup table
// sizes the renderer uses to turn a phase accumulator and an envelope level
// into a PCM sample without calling math.Sin/math.Exp per sample.
const (
	sineTableSize = 1024
	expTableSize  = 256
)

var sineTable [sineTableSize]float32
var expTable [expTableSize]float32

func init() {
	for i := range sineTable {
		sineTable[i] = float32(math.Sin(2 * math.Pi * float64(i) / sineTableSize))
	}
	for i := range expTable {
		// Attenuation in 1/4 dB steps, i=0 -> full scale, increasing i
		// attenuates exponentially.
		expTable[i] = float32(math.Pow(2, -float64(i)/256.0))
	}
}

const (
	vibratoTableSize  = 8
	tremoloTableSize  = 52
)

var vibratoTable [vibratoTableSize]int32
var tremoloTable [tremoloTableSize]int32

func init() {
	for i := range vibratoTable {
		vibratoTable[i] = int32(math.Round(8 * math.Sin(2*math.Pi*float64(i)/vibratoTableSize)))
	}
	for i := range tremoloTable {
		// Triangle LFO: ramps 0..26..0 across the table, matching the
		// real chip's slower, deeper amplitude-modulation period.
		pos := i
		if pos >= tremoloTableSize/2 {
			pos = tremoloTableSize - pos
		}
		tremoloTable[i] = int32(pos)
	}
}
