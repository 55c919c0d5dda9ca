package chipsynth

import "math"

// synthesizeNoise reads the cached retro LFSR noise wave at phaseDelta with
// a one-pole smoothing step whose cutoff is proportional to the tone's
// fundamental, per spec §4.6.
func synthesizeNoise(t *tone, caches *engineCaches, buffer []float64, sampleRate float64) {
	wave := caches.retroNoise
	n := len(wave)
	phaseDelta := t.phaseDeltaStart * float64(n) // table positions advanced per sample

	pitchFilterMult := 200.0
	smoothCutoff := math.Min(1, t.phaseDeltaStart*pitchFilterMult)

	smoothed := t.noisePhaseSmoothedValue
	for i := 0; i < len(buffer); i++ {
		t.noisePhase += phaseDelta
		if t.noisePhase >= float64(n) {
			t.noisePhase -= math.Floor(t.noisePhase/float64(n)) * float64(n)
		}
		raw := wave[int(t.noisePhase)%n]
		smoothed += (raw - smoothed) * smoothCutoff

		accumulateMono(t, buffer, i, smoothed)
	}
	t.noisePhaseSmoothedValue = smoothed
}
