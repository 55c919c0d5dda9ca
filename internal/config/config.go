// Package config resolves CLI flag values into runtime objects for the
// chipsynth command-line tools, mirroring how the teacher's same-named
// package turned a -reverb flag into a comb.Reverber instance.
package config

import (
	"fmt"
	"strconv"
)

// ResolveSeed turns a -seed flag value into the uint64 the engine's RNG
// wants. An empty string means "deterministic default seed" (0); any other
// value is parsed as a base-10 or 0x-prefixed integer.
func ResolveSeed(seed string) (uint64, error) {
	if seed == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(seed, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognized seed value %q: %w", seed, err)
	}
	return v, nil
}

// ApplyBoost scales a rendered float32 buffer by boost (clamped to [1,4],
// matching the -boost flag's documented range) in place, clipping to
// +/-1 since that's the headroom the engine's compressor targets. A boost
// of 1 is a no-op copy-free pass.
func ApplyBoost(out []float32, boost int) {
	if boost <= 1 {
		return
	}
	if boost > 4 {
		boost = 4
	}
	for i, s := range out {
		v := s * float32(boost)
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		out[i] = v
	}
}
