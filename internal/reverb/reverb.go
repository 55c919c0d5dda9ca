// Package reverb implements a small feedback delay network (FDN) reverb: a
// 4x4 Hadamard mix across four taps at prime-ish offsets inside a ring
// buffer, per-tap one-pole lowpass with a feedback gain.
//
// This generalizes the delay-line bookkeeping of a classic comb filter
// (single feedback tap, wraparound read/write) to four cross-mixed taps.
package reverb

const ringSize = 16384

// tapOffsets are prime-ish offsets into the ring for each of the four taps,
// chosen to be mutually non-commensurate so the network doesn't develop an
// audible periodic comb.
var tapOffsets = [4]int{1559, 3583, 5279, 7043}

// FDN is a four-tap Hadamard feedback delay network reverb.
type FDN struct {
	ring   [4][ringSize]float64
	pos    [4]int
	lpf    [4]float64 // one-pole lowpass history per tap
	mult   float64     // reverbMult feedback gain
	cutoff float64     // one-pole lowpass cutoff, 0..1
}

// New creates an FDN with the given feedback gain (reverbMult) and per-tap
// lowpass cutoff (0..1, as a one-pole coefficient).
func New(mult, cutoff float64) *FDN {
	return &FDN{mult: mult, cutoff: cutoff}
}

// SetParams updates the feedback gain and lowpass cutoff without resetting
// delay line contents.
func (f *FDN) SetParams(mult, cutoff float64) {
	f.mult = mult
	f.cutoff = cutoff
}

// hadamard4 applies the normalized 4x4 Hadamard matrix to x in place.
func hadamard4(x *[4]float64) {
	a, b, c, d := x[0], x[1], x[2], x[3]
	const h = 0.5
	x[0] = (a + b + c + d) * h
	x[1] = (a - b + c - d) * h
	x[2] = (a + b - c - d) * h
	x[3] = (a - b - c + d) * h
}

// Process runs one sample through the network: input is added equally into
// all four taps, the taps are mixed through the Hadamard matrix and fed
// back with a one-pole lowpass and the feedback gain, and the four taps'
// current values are summed for output.
func (f *FDN) Process(input float64) float64 {
	var read [4]float64
	for i := 0; i < 4; i++ {
		readPos := f.pos[i] - tapOffsets[i]
		for readPos < 0 {
			readPos += ringSize
		}
		read[i] = f.ring[i][readPos%ringSize]
	}

	mixed := read
	hadamard4(&mixed)

	out := 0.0
	for i := 0; i < 4; i++ {
		f.lpf[i] += (mixed[i] - f.lpf[i]) * f.cutoff
		fed := f.lpf[i]*f.mult + input*0.25

		f.ring[i][f.pos[i]%ringSize] = fed
		f.pos[i]++

		out += read[i]
	}
	return out * 0.5
}

// Sanitize clears denormal/NaN/blown-up feedback state in every tap, per
// the per-tick sanitization sweep.
func (f *FDN) Sanitize() {
	for i := 0; i < 4; i++ {
		if isBad(f.lpf[i]) {
			f.lpf[i] = 0
		}
		for j := range f.ring[i] {
			if isBad(f.ring[i][j]) {
				f.ring[i][j] = 0
			}
		}
	}
}

func isBad(v float64) bool {
	if v != v { // NaN
		return true
	}
	a := v
	if a < 0 {
		a = -a
	}
	return a > 100 || (a > 0 && a < 1e-24)
}

// Clear zeroes every delay line, used when the effect tail has fully
// flushed and the instrument deactivates.
func (f *FDN) Clear() {
	for i := 0; i < 4; i++ {
		for j := range f.ring[i] {
			f.ring[i][j] = 0
		}
		f.lpf[i] = 0
		f.pos[i] = 0
	}
}

// BufferSize reports the total delay capacity in samples: four rings of
// ringSize each.
func BufferSize() int { return ringSize * 4 }

// IsSilent reports whether every tap's lowpass state is below the given
// threshold, used to decide when to stop running the network.
func (f *FDN) IsSilent(threshold float64) bool {
	for i := 0; i < 4; i++ {
		v := f.lpf[i]
		if v < 0 {
			v = -v
		}
		if v >= threshold {
			return false
		}
	}
	return true
}
