package chipsynth

import "math"

// synthesizePWM runs two saw phase accumulators separated by pulseWidth in
// (0,1), subtracted, each with a PolyBLEP correction at discontinuities,
// per spec §4.6.
func synthesizePWM(t *tone, pulseWidth float64, buffer []float64, sampleRate float64) {
	phaseDelta := t.phaseDeltaStart

	for i := 0; i < len(buffer); i++ {
		t.phaseA += phaseDelta
		if t.phaseA >= 1 {
			t.phaseA -= math.Floor(t.phaseA)
		}
		phaseB := t.phaseA + pulseWidth
		if phaseB >= 1 {
			phaseB -= math.Floor(phaseB)
		}

		sawA := 2*t.phaseA - 1
		sawA += polyBLEP(t.phaseA, phaseDelta)

		sawB := 2*phaseB - 1
		sawB += polyBLEP(phaseB, phaseDelta)

		x := (sawA - sawB) * 0.5
		accumulateMono(t, buffer, i, x)
	}
}

// polyBLEP returns the two-sample polynomial correction subtracted at
// sawtooth discontinuities to suppress aliasing, per spec GLOSSARY.
func polyBLEP(phase, delta float64) float64 {
	if delta <= 0 {
		return 0
	}
	if phase < delta {
		t := phase / delta
		return (t + t - t*t - 1) * 0.5
	}
	if phase > 1-delta {
		t := (phase - 1) / delta
		return (t*t + t + t + 1) * 0.5
	}
	return 0
}
