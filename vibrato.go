package chipsynth

import "math"

// vibratoLFO is the running phase state for a tone's vibrato LFO, one phase
// accumulator per summed sine in the selected Vibrato.
type vibratoLFO struct {
	phases []float64
}

func newVibratoLFO(v *Vibrato) *vibratoLFO {
	return &vibratoLFO{phases: make([]float64, len(v.Periods))}
}

// advance steps each sine's phase by dt seconds.
func (l *vibratoLFO) advance(v *Vibrato, dt float64) {
	for i, period := range v.Periods {
		if period <= 0 {
			continue
		}
		l.phases[i] += dt / period
		if l.phases[i] >= 1 {
			l.phases[i] -= math.Floor(l.phases[i])
		}
	}
}

// wrapAtBarBoundary re-anchors each sine's phase to the next bar's phase, to
// avoid an audible discontinuity at bar boundaries, per spec §4.5.
func (l *vibratoLFO) wrapAtBarBoundary(nextPhases []float64) {
	copy(l.phases, nextPhases)
}

// raw returns the unscaled LFO sum (sum of sines, each contributing
// amplitude/len(Periods) so multiple sines don't simply add up to a louder
// vibrato).
func (l *vibratoLFO) raw(v *Vibrato) float64 {
	if len(v.Periods) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range l.phases {
		sum += math.Sin(2 * math.Pi * p)
	}
	return sum / float64(len(v.Periods))
}

// vibratoDelayRamp ramps vibrato amplitude from 0 to 1 over 2 ticks starting
// delayTicks after note start, per spec §4.5.
func vibratoDelayRamp(ticksSinceStart float64, delayTicks float64) float64 {
	elapsed := ticksSinceStart - delayTicks
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= 2 {
		return 1
	}
	return elapsed / 2
}

// interval returns the vibrato-modulated interval contribution in
// semitones for the given vibrato selection and LFO state.
func (l *vibratoLFO) interval(v *Vibrato, ticksSinceStart float64) float64 {
	ramp := vibratoDelayRamp(ticksSinceStart, v.DelayTicks)
	return l.raw(v) * v.Amplitude * ramp
}
