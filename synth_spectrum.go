package chipsynth

import "math"

// synthesizeSpectrum reads an FFT-derived wave table built from the
// instrument's 30-point spectrum control array, smoothed with a one-pole
// filter whose cutoff is min(1, phaseDelta), per spec §4.6. Spectrum waves
// randomize their starting phase to a nearby zero-crossing on pluck to
// avoid a DC pop at note onset.
func synthesizeSpectrum(t *tone, inst *Instrument, caches *engineCaches, buffer []float64, sampleRate float64, rng *lcg) {
	table := caches.spectrum.get(inst, rng)
	n := len(table) - 1
	if !t.onsetPhaseChosen {
		t.noisePhase = nearestZeroCrossingPhase(table, rng)
		t.onsetPhaseChosen = true
	}

	phaseDelta := t.phaseDeltaStart
	smoothCutoff := math.Min(1, phaseDelta)
	smoothed := t.spectrumSmoothedValue

	for i := 0; i < len(buffer); i++ {
		t.noisePhase += phaseDelta
		if t.noisePhase >= 1 {
			t.noisePhase -= math.Floor(t.noisePhase)
		}
		raw := sampleIntegrated(table, t.noisePhase, phaseDelta)
		smoothed += (raw - smoothed) * smoothCutoff
		accumulateMono(t, buffer, i, smoothed)
	}
	t.spectrumSmoothedValue = smoothed
	_ = n
}

// nearestZeroCrossingPhase picks a random starting phase in [0,1) and
// nudges it to the nearest zero crossing of the derivative wave so the
// first sample doesn't pop.
func nearestZeroCrossingPhase(table []float64, rng *lcg) float64 {
	n := len(table) - 1
	start := int(rng.float64() * float64(n))
	best := start
	for d := 0; d < n; d++ {
		i := (start + d) % n
		a := table[i]
		b := table[(i+1)%n]
		if (a <= 0 && b >= 0) || (a >= 0 && b <= 0) {
			best = i
			break
		}
	}
	return float64(best) / float64(n)
}

// spectrumWaveCache lazily builds and caches the wave table for an
// instrument's spectrum array, keyed by the 30-point control array.
type spectrumWaveCache struct {
	byKey map[[30]int][]float64
}

func newSpectrumWaveCache() *spectrumWaveCache {
	return &spectrumWaveCache{byKey: make(map[[30]int][]float64)}
}

func (c *spectrumWaveCache) get(inst *Instrument, rng *lcg) []float64 {
	if w, ok := c.byKey[inst.SpectrumWave]; ok {
		return w
	}
	w := buildSpectrumWave(inst.SpectrumWave, rng.next())
	c.byKey[inst.SpectrumWave] = w
	return w
}
