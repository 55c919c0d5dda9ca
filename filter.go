package chipsynth

import "math"

// dynamicBiquad is a biquad filter whose five coefficients linearly
// interpolate from a start value to an end value over a run of samples, per
// spec §4.4. The difference equation is Direct Form I.
type dynamicBiquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	db0, db1, db2 float64
	da1, da2      float64

	x1, x2 float64
	y1, y2 float64
}

// loadCoefficientsWithGradient sets the filter's coefficients to start and
// its per-sample deltas to (end-start)*invN, so that after N samples (where
// invN == 1/N) the coefficients equal end.
func (f *dynamicBiquad) loadCoefficientsWithGradient(start, end biquadCoefficients, invN float64) {
	f.b0, f.b1, f.b2 = start.b0, start.b1, start.b2
	f.a1, f.a2 = start.a1, start.a2

	f.db0 = (end.b0 - start.b0) * invN
	f.db1 = (end.b1 - start.b1) * invN
	f.db2 = (end.b2 - start.b2) * invN
	f.da1 = (end.a1 - start.a1) * invN
	f.da2 = (end.a2 - start.a2) * invN
}

// process runs one sample through the filter and steps the coefficients by
// their deltas.
func (f *dynamicBiquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2

	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y

	f.b0 += f.db0
	f.b1 += f.db1
	f.b2 += f.db2
	f.a1 += f.da1
	f.a2 += f.da2

	return y
}

// sanitize clears denormal/NaN history, per spec §9.
func (f *dynamicBiquad) sanitize() {
	f.x1 = sanitizeDelayValue(f.x1)
	f.x2 = sanitizeDelayValue(f.x2)
	f.y1 = sanitizeDelayValue(f.y1)
	f.y2 = sanitizeDelayValue(f.y2)
}

func (f *dynamicBiquad) reset() {
	*f = dynamicBiquad{}
}

// biquadCoefficients is the (a1, a2, b0, b1, b2) tuple a dynamicBiquad
// gradient interpolates between.
type biquadCoefficients struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// lowpass2ndOrder builds a 2nd-order Butterworth lowpass at angular cutoff
// w0 (radians/sample) with linear output gain.
func lowpass2ndOrder(w0, gain float64) biquadCoefficients {
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / math.Sqrt2 // Q = sqrt(0.5) -> Butterworth

	a0 := 1 + alpha
	b0 := (1 - cw) / 2 / a0 * gain
	b1 := (1 - cw) / a0 * gain
	b2 := b0
	a1 := -2 * cw / a0
	a2 := (1 - alpha) / a0

	return biquadCoefficients{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// highpass2ndOrder builds a 2nd-order Butterworth highpass.
func highpass2ndOrder(w0, gain float64) biquadCoefficients {
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / math.Sqrt2

	a0 := 1 + alpha
	b0 := (1 + cw) / 2 / a0 * gain
	b1 := -(1 + cw) / a0 * gain
	b2 := b0
	a1 := -2 * cw / a0
	a2 := (1 - alpha) / a0

	return biquadCoefficients{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// lowpass1stOrder builds a 1st-order lowpass (b2=a2=0).
func lowpass1stOrder(w0, gain float64) biquadCoefficients {
	k := math.Tan(w0 / 2)
	a0 := 1 + k
	b0 := k / a0 * gain
	b1 := b0
	a1 := (k - 1) / a0

	return biquadCoefficients{b0: b0, b1: b1, a1: a1}
}

// highpass1stOrder builds a 1st-order highpass.
func highpass1stOrder(w0, gain float64) biquadCoefficients {
	k := math.Tan(w0 / 2)
	a0 := 1 + k
	b0 := 1 / a0 * gain
	b1 := -b0
	a1 := (k - 1) / a0

	return biquadCoefficients{b0: b0, b1: b1, a1: a1}
}

// peakConstantQ builds a constant-Q peaking filter centered at w0 radians
// with linear peak gain.
func peakConstantQ(w0, q, gain float64) biquadCoefficients {
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * q)
	a := math.Sqrt(gain)

	a0 := 1 + alpha/a
	b0 := (1 + alpha*a) / a0
	b1 := -2 * cw / a0
	b2 := (1 - alpha*a) / a0
	a1 := -2 * cw / a0
	a2 := (1 - alpha/a) / a0

	return biquadCoefficients{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// highShelf1stOrder builds a 1st-order high shelf with the given linear
// shelf gain.
func highShelf1stOrder(w0, shelfGain float64) biquadCoefficients {
	k := math.Tan(w0 / 2)
	g := math.Sqrt(shelfGain)
	a0 := 1 + k/g
	b0 := (1 + k*g) / a0
	b1 := (k*g - 1) / a0
	a1 := (k/g - 1) / a0

	return biquadCoefficients{b0: b0, b1: b1, a1: a1}
}

// allpass1stOrder builds a 1st-order all-pass parameterized by the
// above-unity phase cutoff w0.
func allpass1stOrder(w0 float64) biquadCoefficients {
	k := math.Tan(w0 / 2)
	a0 := 1 + k
	b0 := (k - 1) / a0
	b1 := 1.0
	a1 := (k - 1) / a0

	return biquadCoefficients{b0: b0, b1: b1, a1: a1}
}

// fractionalDelayAllpass is a single fractional-delay all-pass stage:
// y = g*x + x1 - g*y1, with g = (1-d)/(1+d) for fractional delay d in [0,1).
type fractionalDelayAllpass struct {
	g      float64
	x1, y1 float64
}

func newFractionalDelayAllpass(d float64) *fractionalDelayAllpass {
	return &fractionalDelayAllpass{g: (1 - d) / (1 + d)}
}

func (a *fractionalDelayAllpass) process(x float64) float64 {
	y := a.g*x + a.x1 - a.g*a.y1
	a.x1 = x
	a.y1 = y
	return y
}

func (a *fractionalDelayAllpass) sanitize() {
	a.x1 = sanitizeDelayValue(a.x1)
	a.y1 = sanitizeDelayValue(a.y1)
}

// filterPointVolumeCompensation returns a scalar that counteracts the
// perceptual loudness change introduced by a control point, per spec §4.4.
func filterPointVolumeCompensation(p FilterControlPoint) float64 {
	switch p.Type {
	case FilterLowpass:
		// Attenuating low frequencies is perceived as quieter; a cutoff near
		// the top of the range has negligible effect, a cutoff near the
		// bottom needs more compensation.
		normalizedFreq := float64(p.Freq) / float64(filterFreqRange-1)
		return 1.0 + (1.0-normalizedFreq)*0.25*p.LinearGain()
	case FilterHighpass:
		normalizedFreq := float64(p.Freq) / float64(filterFreqRange-1)
		return 1.0 + normalizedFreq*0.2*p.LinearGain()
	case FilterPeak:
		// A resonant peak sounds louder than its average energy; damp the
		// compensation in proportion to how far above unity the peak gain is.
		g := p.LinearGain()
		if g > 1 {
			return 1.0 / (1.0 + (g-1.0)*0.7)
		}
		return 1.0
	}
	return 1.0
}

// buildCoefficients turns a FilterControlPoint into concrete biquad
// coefficients at the given sample rate.
func (p FilterControlPoint) buildCoefficients(sampleRate float64) biquadCoefficients {
	w0 := 2 * math.Pi * p.Hz() / sampleRate
	if w0 > math.Pi*0.999 {
		w0 = math.Pi * 0.999
	}
	gain := p.LinearGain()
	switch p.Type {
	case FilterLowpass:
		return lowpass2ndOrder(w0, gain)
	case FilterHighpass:
		return highpass2ndOrder(w0, gain)
	case FilterPeak:
		return peakConstantQ(w0, 2.0, gain)
	}
	return biquadCoefficients{b0: 1}
}
