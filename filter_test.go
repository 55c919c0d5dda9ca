package chipsynth

import (
	"math"
	"testing"
)

func TestDynamicBiquadGradientReachesTarget(t *testing.T) {
	start := lowpass2ndOrder(0.1, 1.0)
	end := highpass2ndOrder(0.3, 1.0)

	const n = 100
	var f dynamicBiquad
	f.loadCoefficientsWithGradient(start, end, 1.0/n)
	for i := 0; i < n; i++ {
		f.process(0)
	}

	const eps = 1e-9
	if math.Abs(f.b0-end.b0) > eps || math.Abs(f.a1-end.a1) > eps {
		t.Errorf("after %d steps coefficients = %+v, want %+v", n, f, end)
	}
}

func TestDynamicBiquadDCGainUnityAtLowCutoff(t *testing.T) {
	// A lowpass with cutoff far above DC should pass a constant signal
	// through near unchanged once settled.
	coeffs := lowpass2ndOrder(0.5, 1.0)
	var f dynamicBiquad
	f.loadCoefficientsWithGradient(coeffs, coeffs, 1.0)

	var y float64
	for i := 0; i < 200; i++ {
		y = f.process(1.0)
	}
	if math.Abs(y-1.0) > 0.05 {
		t.Errorf("settled lowpass DC response = %f, want ~1.0", y)
	}
}

func TestDynamicBiquadSanitizeClearsBlownUpState(t *testing.T) {
	f := dynamicBiquad{x1: math.NaN(), y1: 1e30, x2: math.Inf(1)}
	f.sanitize()

	if f.x1 != 0 || f.y1 != 0 || f.x2 != 0 {
		t.Errorf("sanitize() left blown-up state: %+v", f)
	}
}

func TestFractionalDelayAllpassPassesThroughAtZeroDelay(t *testing.T) {
	a := newFractionalDelayAllpass(0)
	// At d=0, g=1, so y = x + x1 - y1, which settles to x for a constant
	// input after the initial transient.
	var y float64
	for i := 0; i < 10; i++ {
		y = a.process(2.0)
	}
	if math.Abs(y-2.0) > 1e-9 {
		t.Errorf("settled allpass output = %f, want 2.0", y)
	}
}

func TestFilterPointVolumeCompensationIsPositive(t *testing.T) {
	points := []FilterControlPoint{
		{Type: FilterLowpass, Freq: 0, Gain: 10},
		{Type: FilterLowpass, Freq: filterFreqRange - 1, Gain: 10},
		{Type: FilterHighpass, Freq: 10, Gain: 10},
		{Type: FilterPeak, Freq: 10, Gain: 14},
	}
	for _, p := range points {
		if c := filterPointVolumeCompensation(p); c <= 0 {
			t.Errorf("filterPointVolumeCompensation(%+v) = %f, want > 0", p, c)
		}
	}
}

func TestBuildCoefficientsClampsNearNyquist(t *testing.T) {
	p := FilterControlPoint{Type: FilterLowpass, Freq: filterFreqRange - 1, Gain: 10}
	c := p.buildCoefficients(8000) // a low sample rate pushes w0 near/above pi
	if math.IsNaN(c.b0) || math.IsInf(c.b0, 0) {
		t.Errorf("buildCoefficients near Nyquist produced non-finite b0: %f", c.b0)
	}
}
