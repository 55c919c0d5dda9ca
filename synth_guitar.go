package chipsynth

import "math"

// guitarImpulseWave is a precomputed antialiased impulse wave, integrated so
// it can be sampled the same way as the built-in chip waves, used to inject
// the initial spectrum into the delay line on a pluck. Cached per-engine,
// not process-global, per spec §9.
func buildGuitarImpulseWave() []float64 {
	raw := sampleWave(waveTableSize, func(t float64) float64 {
		// A single band-limited cycle shaped like a narrow raised cosine,
		// which plucks reasonably close to a real string's initial
		// condition without needing a full physical model.
		if t < 0.5 {
			return math.Cos(math.Pi * t)
		}
		return 0
	})
	return integrateWave(raw)
}

// synthesizeGuitar runs the plucked-string-with-dispersion inner loop, per
// spec §4.6. A circular delay line of length >= the period at pitch 12 is
// read through a fractional-delay tap, then a dispersion all-pass, then a
// high-shelf decay filter, and the result is written back into the delay
// line.
func synthesizeGuitar(t *tone, inst *Instrument, caches *engineCaches, buffer []float64, sampleRate float64, rng *lcg) {
	freq := t.phaseDeltaStart * sampleRate
	if freq < 1 {
		freq = 1
	}
	period := sampleRate / freq

	if t.guitarDelay == nil {
		minPeriod := sampleRate / pitchToFreq(12)
		capacity := nextPowerOfTwo(int(minPeriod) + 4)
		t.guitarDelay = make([]float64, capacity)
		t.guitarDispersion = &dynamicBiquad{}
		t.guitarDecay = &dynamicBiquad{}
		t.guitarFracTap = newFractionalDelayAllpass(0)
	}
	t.guitarPeriod = period

	// Dispersion all-pass: phase cutoff depends on pitch so the effective
	// delay length (including the allpass's own phase delay) stays close to
	// an integer multiple of the period.
	dispW0 := clamp(2*math.Pi*freq*6/sampleRate, 0.02, math.Pi*0.49)
	dispCoeffs := allpass1stOrder(dispW0)
	dispStart := dispCoeffs
	if t.guitarDispersionPrimed {
		dispStart = t.guitarDispersionTarget
	}
	invN := 1.0 / math.Max(1, float64(len(buffer)))
	t.guitarDispersion.loadCoefficientsWithGradient(dispStart, dispCoeffs, invN)
	t.guitarDispersionTarget = dispCoeffs
	t.guitarDispersionPrimed = true

	// High-shelf decay: Sustain (0..10ish) sets how much the shelf
	// attenuates per cycle; higher sustain -> gain closer to unity.
	sustain := clamp(float64(inst.Sustain)/10.0, 0, 1)
	shelfGain := math.Pow(10, -(1-sustain)*2.5/20)
	shelfW0 := clamp(2*math.Pi*freq*3/sampleRate, 0.02, math.Pi*0.49)
	decayCoeffs := highShelf1stOrder(shelfW0, shelfGain)
	decayStart := decayCoeffs
	if t.guitarDecayPrimed {
		decayStart = t.guitarDecayTarget
	}
	t.guitarDecay.loadCoefficientsWithGradient(decayStart, decayCoeffs, invN)
	t.guitarDecayTarget = decayCoeffs
	t.guitarDecayPrimed = true

	if !t.guitarPlucked || t.guitarLastPitch != t.lastPitch {
		pluckGuitar(t, inst, caches, period, rng)
		t.guitarPlucked = true
		t.guitarLastPitch = t.lastPitch
	}

	n := len(t.guitarDelay)
	fracDelay := period - math.Floor(period)
	t.guitarFracTap.g = (1 - fracDelay) / (1 + fracDelay)

	for i := 0; i < len(buffer); i++ {
		readIdx := t.guitarDelayIndex - int(period)
		for readIdx < 0 {
			readIdx += n
		}
		tap := t.guitarDelay[readIdx%n]

		y := t.guitarFracTap.process(tap)
		y = t.guitarDispersion.process(y)
		y = t.guitarDecay.process(y)

		t.guitarDelay[t.guitarDelayIndex%n] = y
		t.guitarDelayIndex++

		accumulateMono(t, buffer, i, y)
	}
}

// pluckGuitar zeros a region of the delay line spanning two periods then
// injects an antialiased impulse by integrating two offset copies of the
// cached guitar impulse wave, per spec §4.6.
func pluckGuitar(t *tone, inst *Instrument, caches *engineCaches, period float64, rng *lcg) {
	n := len(t.guitarDelay)
	span := int(period*2) + 2
	for i := 0; i < span && i < n; i++ {
		idx := (t.guitarDelayIndex + i) % n
		t.guitarDelay[idx] = 0
	}

	pulseWidth := (float64(inst.PulseWidth) + 1) / 10.0
	jitter := 1 + (rng.float64()-0.5)*guitarPulseWidthRandomness
	offset := pulseWidth * period * jitter

	wave := caches.guitarImpulse
	waveLen := len(wave) - 1
	for i := 0; i < span && i < n; i++ {
		idx := (t.guitarDelayIndex + i) % n
		p1 := float64(i) / period
		p2 := (float64(i) - offset) / period
		if p1 >= 0 && p1 < 1 {
			t.guitarDelay[idx] += wave[int(p1*float64(waveLen))%waveLen] / period
		}
		if p2 >= 0 && p2 < 1 {
			t.guitarDelay[idx] -= wave[int(p2*float64(waveLen))%waveLen] / period
		}
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
