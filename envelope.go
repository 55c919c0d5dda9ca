package chipsynth

import "math"

// evaluateEnvelope returns the time->scalar curve value for envType at time
// t (seconds since note start) with the given speed and beatsPerSecond
// (used by the tremolo family), per spec §4.5.
//
// noteExpression is only consulted for EnvelopeCustom.
func evaluateEnvelope(envType EnvelopeType, t, speed, beatsPerSecond, noteExpression float64) float64 {
	switch envType {
	case EnvelopeSteady:
		return 1
	case EnvelopeCustom:
		return noteExpression
	case EnvelopeTwang:
		return 1 / (1 + t*speed)
	case EnvelopeSwell:
		return 1 - 1/(1+t*speed)
	case EnvelopeTremolo:
		return 0.5 - 0.5*math.Cos(2*math.Pi*beatsPerSecond*t)
	case EnvelopeTremolo2:
		return 0.75 - 0.25*math.Cos(2*math.Pi*beatsPerSecond*t)
	case EnvelopePunch:
		v := 2 - 10*t
		if v < 1 {
			v = 1
		}
		return v
	case EnvelopeFlare:
		attack := 0.25 / math.Sqrt(speed)
		if t < attack {
			return t / attack
		}
		return 1 / (1 + (t-attack)*speed)
	case EnvelopeDecay:
		return math.Pow(2, -speed*t)
	}
	// Unknown envelope at tone time indicates a configuration bug, not user
	// input, and is fatal per spec §7.
	panic("chipsynth: unknown envelope type")
}
