package chipsynth

import "math"

// compressor is the master leaky-peak-follower limiter applied to the
// final stereo mix, per spec §4.8. It tracks a slowly-decaying peak level
// and scales the output down whenever the instantaneous peak exceeds it,
// so that dense mixes of many tones don't clip.
type compressor struct {
	limit  float64
	Volume float64 // master output gain applied after limiting, 1.0 = unity
}

func newCompressor() *compressor {
	return &compressor{limit: 0, Volume: 1}
}

// process updates the peak follower from this sample's stereo peak and
// returns the gain-compensated (left, right) pair: limit += (peak - limit)
// * (rise if rising else decay*(1+limit)), output = sample * volume /
// (limit*1.05 if limit>=1 else limit*0.8+0.25).
func (c *compressor) process(left, right, sampleRate float64) (float64, float64) {
	peak := math.Abs(left)
	if r := math.Abs(right); r > peak {
		peak = r
	}

	rise := 4000.0 / sampleRate
	decay := 4.0 / sampleRate

	if peak > c.limit {
		c.limit += (peak - c.limit) * rise
	} else {
		c.limit += (peak - c.limit) * decay * (1 + c.limit)
	}
	if c.limit < 0 {
		c.limit = 0
	}

	var denom float64
	if c.limit >= 1 {
		denom = c.limit * 1.05
	} else {
		denom = c.limit*0.8 + 0.25
	}

	gain := c.Volume / denom
	return left * gain, right * gain
}

// sanitize resets the peak follower if it has drifted to a denormal or NaN
// value, per the per-tick sanitization sweep (spec §9).
func (c *compressor) sanitize() {
	if c.limit != c.limit || c.limit < 1e-24 || c.limit > 1e6 {
		c.limit = 0
	}
}
