package chipsynth

import "testing"

func TestCompressorConvergesNearUnityGainForFullScaleSignal(t *testing.T) {
	c := newCompressor()
	var l, r float64
	for i := 0; i < 5000; i++ {
		l, r = c.process(1.0, 1.0, 44100)
	}
	if l <= 0 || l >= 1.0 {
		t.Errorf("converged output = %v, want in (0, 1): limit*1.05 denominator keeps gain just under unity", l)
	}
	if l != r {
		t.Errorf("symmetric input gave asymmetric output: l=%v r=%v", l, r)
	}
}

func TestCompressorAttenuatesLoudSignal(t *testing.T) {
	c := newCompressor()
	var l, r float64
	for i := 0; i < 5000; i++ {
		l, r = c.process(4.0, 4.0, 44100)
	}
	if l >= 4.0 || r >= 4.0 {
		t.Errorf("sustained loud signal not attenuated: (%v, %v)", l, r)
	}
	if l <= 0 || r <= 0 {
		t.Errorf("compressor output collapsed to non-positive: (%v, %v)", l, r)
	}
}

// TestCompressorLimitDecaysTowardZeroAfterSilence checks testable property 8:
// limit returns to (near) 0 a bounded number of samples after input silence.
func TestCompressorLimitDecaysTowardZeroAfterSilence(t *testing.T) {
	c := newCompressor()
	for i := 0; i < 5000; i++ {
		c.process(3.0, 3.0, 44100)
	}
	limitAfterPeak := c.limit

	for i := 0; i < 200000; i++ {
		c.process(0, 0, 44100)
	}
	if c.limit >= limitAfterPeak {
		t.Errorf("limit did not decay after silence: before=%v after=%v", limitAfterPeak, c.limit)
	}
	if c.limit > 0.01 {
		t.Errorf("limit = %v, want close to 0 after a long silence", c.limit)
	}
}

func TestCompressorSanitizeResetsBlownUpLimitToZero(t *testing.T) {
	c := &compressor{limit: 1e9, Volume: 1}
	c.sanitize()
	if c.limit != 0 {
		t.Errorf("sanitize() did not reset blown-up limit to 0, got %v", c.limit)
	}

	c.limit = -5
	c.sanitize()
	if c.limit != 0 {
		t.Errorf("sanitize() did not clamp negative limit to 0, got %v", c.limit)
	}
}
