package chipsynth

import "math"

// synthesizeDrumset clamps the tone's displayed pitch into 0..drumCount-1
// and selects one of twelve spectrum waves (the per-drum envelopes are not
// applied here), then uses the same
// FFT-wave-plus-one-pole-smoothing mechanics as synthesizeSpectrum, per
// spec §4.5/§4.6.
func synthesizeDrumset(t *tone, inst *Instrument, caches *engineCaches, buffer []float64, sampleRate float64, rng *lcg) {
	drum := clampInt(t.drumsetPitch, 0, drumsetPitchCount-1)
	table := caches.drumset.get(inst, drum, rng)

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
}

type drumsetKey struct {
	waves [12][30]int
	drum  int
}

// drumsetWaveCache lazily builds and caches each of the twelve drumset
// spectrum waves per instrument.
type drumsetWaveCache struct {
	byKey map[drumsetKey][]float64
}

func newDrumsetWaveCache() *drumsetWaveCache {
	return &drumsetWaveCache{byKey: make(map[drumsetKey][]float64)}
}

func (c *drumsetWaveCache) get(inst *Instrument, drum int, rng *lcg) []float64 {
	key := drumsetKey{waves: inst.DrumsetSpectrumWaves, drum: drum}
	if w, ok := c.byKey[key]; ok {
		return w
	}
	w := buildSpectrumWave(inst.DrumsetSpectrumWaves[drum], rng.next())
	c.byKey[key] = w
	return w
}

// drumsetEnvelopeFor returns the envelope the given drum pitch should use.
func drumsetEnvelopeFor(inst *Instrument, drum int) EnvelopeType {
	return EnvelopeType(inst.DrumsetEnvelopes[clampInt(drum, 0, drumsetPitchCount-1)])
}
