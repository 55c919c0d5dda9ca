package chipsynth

import "math"

// synthesizeChip runs the chip/harmonics inner loop: two phase accumulators
// detuned by a fixed +/-0.05% around the tone frequency (the instrument's
// Interval setting is not read), each reading an integrated wave table so the
// per-sample output is a band-limited first difference, per spec §4.6.
func synthesizeChip(t *tone, table []float64, buffer []float64, sampleRate float64) {
	phaseDelta := t.phaseDeltaStart

	intervalSign := 1.0
	if t.pitchCount > 1 {
		intervalSign = -1.0
	}

	n := len(buffer)
	for i := 0; i < n; i++ {
		t.phaseA += phaseDelta * (1 + 0.0005*intervalSign)
		t.phaseB += phaseDelta * (1 - 0.0005*intervalSign)
		if t.phaseA >= 1 {
			t.phaseA -= math.Floor(t.phaseA)
		}
		if t.phaseB >= 1 {
			t.phaseB -= math.Floor(t.phaseB)
		}

		sampleA := sampleIntegrated(table, t.phaseA, phaseDelta)
		sampleB := sampleIntegrated(table, t.phaseB, phaseDelta)
		x := (sampleA + sampleB) * 0.5

		accumulateMono(t, buffer, i, x)
		phaseDelta *= t.phaseDeltaScale
	}
}
