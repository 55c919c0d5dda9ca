package chipsynth

// runToneFilters pushes one raw synth sample through the tone's filter
// cascade (in cascade order), stepping each filter's gradient.
func runToneFilters(t *tone, x float64) float64 {
	for i := 0; i < t.numFilters; i++ {
		x = t.filters[i].process(x)
	}
	return x
}

// accumulateMono scales x by the tone's current expression ramp, advances
// the ramp, and adds the result into buffer[i].
func accumulateMono(t *tone, buffer []float64, i int, x float64) {
	expr := t.expressionStart + t.expressionDelta*float64(i)
	buffer[i] += runToneFilters(t, x) * expr
}

// sanitizeToneFilters clears denormal/NaN history in every filter stage a
// tone carries, per the per-tick sanitization sweep (spec §9).
func sanitizeToneFilters(t *tone) {
	for i := 0; i < t.numFilters; i++ {
		t.filters[i].sanitize()
	}
	for i := 0; i < t.numDistortionFilters; i++ {
		t.distortionFilters[i].sanitize()
	}
	if t.guitarDispersion != nil {
		t.guitarDispersion.sanitize()
	}
	if t.guitarDecay != nil {
		t.guitarDecay.sanitize()
	}
	for i := range t.guitarDelay {
		t.guitarDelay[i] = sanitizeDelayValue(t.guitarDelay[i])
	}
}
