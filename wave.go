package chipsynth

import "math"

// waveTableSize is the number of samples in each generated wave table.
const waveTableSize = 2048

// chipWaves are the small built-in waveform shapes (triangle, square-ish,
// sawtooth, etc.) identified by Instrument.ChipWave.
var chipWaves = buildChipWaves()

func buildChipWaves() [][]float64 {
	waves := make([][]float64, 6)
	waves[0] = sampleWave(waveTableSize, func(t float64) float64 { // triangle
		return 1 - 4*math.Abs(math.Round(t-0.25)-(t-0.25))
	})
	waves[1] = sampleWave(waveTableSize, func(t float64) float64 { // thin pulse
		if t < 0.125 {
			return 1
		}
		return -1
	})
	waves[2] = sampleWave(waveTableSize, func(t float64) float64 { // square
		if t < 0.5 {
			return 1
		}
		return -1
	})
	waves[3] = sampleWave(waveTableSize, func(t float64) float64 { // sawtooth
		return 2*t - 1
	})
	waves[4] = sampleWave(waveTableSize, func(t float64) float64 { // double pulse
		if t < 0.25 {
			return 1
		} else if t < 0.5 {
			return -1
		} else if t < 0.75 {
			return 1
		}
		return -1
	})
	waves[5] = sampleWave(waveTableSize, func(t float64) float64 { // trapezoid
		if t < 0.25 {
			return t * 4
		} else if t < 0.5 {
			return 1
		} else if t < 0.75 {
			return 1 - (t-0.5)*4
		}
		return -1
	})
	for i := range waves {
		waves[i] = integrateWave(waves[i])
	}
	return waves
}

func sampleWave(n int, f func(t float64) float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = f(float64(i) / float64(n))
	}
	return out
}

// integrateWave turns a wave table into its running sum, so that a
// per-sample read can use a first-difference divided by phaseDelta to
// produce correctly band-limited step interpolation, per spec §4.6.
func integrateWave(wave []float64) []float64 {
	out := make([]float64, len(wave)+1)
	sum := 0.0
	for i, v := range wave {
		sum += v
		out[i] = sum
	}
	out[len(wave)] = out[0] // wrap sentinel
	// Remove DC bias so the integral doesn't ramp away over long notes.
	mean := sum / float64(len(wave))
	for i := range out {
		out[i] -= mean * float64(i)
	}
	return out
}

// sampleIntegrated reads the integrated wave table at fractional phase
// (0..1) and returns the band-limited derivative sample:
// (table[i+1]-table[i]) / phaseDelta.
func sampleIntegrated(table []float64, phase, phaseDelta float64) float64 {
	n := len(table) - 1
	pos := phase * float64(n)
	i := int(pos)
	frac := pos - float64(i)
	a := table[i%n]
	b := table[(i+1)%n]
	v0 := lerp(a, b, frac)

	i2 := (i + 1) % n
	frac2 := frac
	a2 := table[i2]
	b2 := table[(i2+1)%n]
	v1 := lerp(a2, b2, frac2)

	return (v1 - v0) / math.Max(phaseDelta, 1e-9)
}

// inverseRealFFT performs a real inverse DFT of spectrum magnitudes (and a
// fixed phase) into a time-domain wave of length n, per spec §2 "FFT & wave
// builders". This is a direct O(n*k) synthesis rather than a
// divide-and-conquer FFT since the spectrum tables here only carry 28-30
// harmonic bins.
func inverseRealFFT(magnitudes []float64, n int) []float64 {
	out := make([]float64, n)
	for k, mag := range magnitudes {
		if mag == 0 {
			continue
		}
		freq := float64(k + 1)
		for i := 0; i < n; i++ {
			phase := 2 * math.Pi * freq * float64(i) / float64(n)
			out[i] += mag * math.Sin(phase)
		}
	}
	return out
}

// buildSpectrumWave synthesizes a custom wave from the 30-point spectrum
// control array (each point 0..7 sets that harmonic's magnitude to
// (point/7)^2, with a random sign).
func buildSpectrumWave(points [30]int, seed uint64) []float64 {
	mags := make([]float64, 30)
	rng := newLCG(seed)
	for i, p := range points {
		amp := float64(p) / 7.0
		// Randomize phase per-harmonic by jittering magnitude sign, giving
		// the resulting wave a noise-like texture instead of a pure tone.
		if rng.next()&1 == 1 {
			amp = -amp
		}
		mags[i] = amp * math.Abs(amp)
	}
	wave := inverseRealFFT(mags, waveTableSize)
	return integrateWave(normalizeWave(wave))
}

// buildHarmonicsWave synthesizes a custom wave from the 28-point harmonics
// control array (linear harmonic amplitudes, additive synthesis).
func buildHarmonicsWave(points [28]int) []float64 {
	mags := make([]float64, 28)
	for i, p := range points {
		mags[i] = float64(p) / 15.0 / float64(i+1)
	}
	wave := inverseRealFFT(mags, waveTableSize)
	return integrateWave(normalizeWave(wave))
}

func normalizeWave(wave []float64) []float64 {
	peak := 0.0
	for _, v := range wave {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak < 1e-9 {
		return wave
	}
	out := make([]float64, len(wave))
	for i, v := range wave {
		out[i] = v / peak
	}
	return out
}

// lcg is a tiny deterministic pseudo-random generator used for cached retro
// noise/spectrum wave construction, so engine instances don't share
// process-global RNG state (spec §9 "Global mutable caches").
type lcg struct{ state uint64 }

func newLCG(seed uint64) *lcg {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &lcg{state: seed}
}

func (g *lcg) next() uint64 {
	g.state ^= g.state << 13
	g.state ^= g.state >> 7
	g.state ^= g.state << 17
	return g.state
}

func (g *lcg) float64() float64 {
	return float64(g.next()>>11) / float64(1<<53)
}

// retroNoiseWaveLength is the period of the classic 15-bit LFSR noise wave.
const retroNoiseWaveLength = 1 << 15

// buildLFSRNoiseWave generates the cached retro LFSR noise wave: a 15-bit
// Fibonacci LFSR whose output bit sequence is sampled as a bipolar wave.
func buildLFSRNoiseWave() []float64 {
	out := make([]float64, retroNoiseWaveLength)
	lfsr := uint32(1)
	for i := range out {
		bit := (lfsr ^ (lfsr >> 1)) & 1
		if bit == 1 {
			out[i] = 1
		} else {
			out[i] = -1
		}
		lfsr = (lfsr >> 1) | (bit << 14)
	}
	return out
}

// drumsetPitchCount is the number of distinct drumset pitches (spec §4.5
// "Drumset clamps...into 0..drumCount-1").
const drumsetPitchCount = 12
