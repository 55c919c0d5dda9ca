package chipsynth

import (
	"math"

	"github.com/gochip/chipsynth/internal/reverb"
)

// effectChain holds the per-instrument stereo effects state: distortion,
// bitcrusher, a distortion filter cascade, a panning delay, chorus, and
// reverb. One chain is owned per (channel, instrument) pair by the player,
// mirroring how each tone owns its own synth-stage filters in tone.go.
type effectChain struct {
	panDelayL, panDelayR []float64
	panDelayPos          int

	chorusDelay        []float64
	chorusPos          int

	bitcrusherPhase float64
	bitcrusherHold  float64

	reverb *reverb.FDN

	active                  bool
	idleSamples             int
	deactivateAfterThisTick bool
}

// panDelayBufferSize covers panDelaySecondsMax at any sample rate up to
// 96kHz, rounded up generously.
const panDelayBufferSize = 64
const chorusDelayBufferSize = 4096

func newEffectChain() *effectChain {
	return &effectChain{
		panDelayL: make([]float64, panDelayBufferSize),
		panDelayR: make([]float64, panDelayBufferSize),
		chorusDelay: make([]float64, chorusDelayBufferSize),
		reverb: reverb.New(0, 0),
	}
}

// chorusTapOffsets are the three per-side sinusoidal base offsets (in
// seconds), per spec §4.7 "six taps, three per side".
var chorusTapOffsets = [3]float64{0.0015, 0.0023, 0.0031}
var chorusTapRates = [3]float64{0.61, 0.84, 1.18}

// process runs one stereo sample of a single instrument's raw mono mix
// through its effects chain, in the order distortion -> bitcrusher ->
// distortion-filter cascade -> panning delay -> chorus -> reverb, per
// spec §4.7. The mono input has already passed through the tone's own
// per-sample synth filters (see tone.go); this stage applies instrument-
// wide post effects and produces the stereo (left, right) contribution.
func (e *effectChain) process(inst *Instrument, t *tone, mono float64, sampleRate float64, time float64) (left, right float64) {
	x := mono

	if inst.Effects&EffectBitDistortion != 0 {
		x = applyDistortion(x, inst.DistortionAmount)
	}

	if inst.Effects&EffectBitBitcrusher != 0 {
		x = e.applyBitcrusher(x, inst.BitcrusherFreq, inst.BitcrusherQuant, sampleRate)
	}

	if inst.Effects&EffectBitFilter != 0 {
		for i := 0; i < t.numDistortionFilters; i++ {
			x = t.distortionFilters[i].process(x)
		}
	}

	left, right = x, x

	if inst.Effects&EffectBitPan != 0 {
		left, right = e.applyPan(left, right, inst.Pan, sampleRate)
	}

	if inst.Effects&EffectBitChorus != 0 {
		cl, cr := e.applyChorus(x, sampleRate, time)
		left += cl
		right += cr
	}

	if inst.Effects&EffectBitReverb != 0 {
		mult, cutoff := reverbParams(inst.Reverb)
		e.reverb.SetParams(mult, cutoff)
		wet := e.reverb.Process((left + right) * 0.5)
		left += wet
		right += wet
	}

	return left, right
}

// applyDistortion is a soft-clip waveshaper; amount 0..distortionRange-1
// maps to a drive multiplier.
func applyDistortion(x float64, amount int) float64 {
	drive := 1.0 + float64(amount)*0.5
	y := x * drive
	return math.Tanh(y) / math.Tanh(drive)
}

// applyBitcrusher holds the input at a reduced effective sample rate
// (freq param) and quantizes it to a reduced bit depth (quant param).
func (e *effectChain) applyBitcrusher(x float64, freq, quant int, sampleRate float64) float64 {
	crushRate := bitcrusherRateHz(freq)
	step := 1.0 / sampleRate
	e.bitcrusherPhase += step * crushRate
	if e.bitcrusherPhase >= 1 {
		e.bitcrusherPhase -= math.Floor(e.bitcrusherPhase)
		e.bitcrusherHold = x
	}

	levels := bitcrusherLevels(quant)
	return math.Round(e.bitcrusherHold*levels) / levels
}

func bitcrusherRateHz(freq int) float64 {
	// freq=0 -> 16kHz (barely audible), freq=max -> 500Hz.
	t := float64(freq) / float64(bitcrusherFreqRange-1)
	return pow2(lerp(math.Log2(16000), math.Log2(500), t))
}

func bitcrusherLevels(quant int) float64 {
	t := float64(quant) / float64(bitcrusherQuantRange-1)
	bits := lerp(16, 2, t)
	return pow2(bits - 1)
}

// applyPan reads each channel from its own short delay line at an offset
// derived from a cosine pan law, producing an interaural delay plus a gain
// difference, per spec §4.7.
func (e *effectChain) applyPan(left, right float64, pan int, sampleRate float64) (float64, float64) {
	t := float64(pan) / float64(panRange-1) // 0..1, 0.5 = center
	angle := (t - 0.5) * math.Pi / 2
	gainL := math.Cos(angle + math.Pi/4)
	gainR := math.Sin(angle + math.Pi/4)

	delaySamples := (t - 0.5) * 2 * panDelaySecondsMax * sampleRate
	offsetL := int(math.Max(0, delaySamples))
	offsetR := int(math.Max(0, -delaySamples))

	n := len(e.panDelayL)
	e.panDelayL[e.panDelayPos%n] = left
	e.panDelayR[e.panDelayPos%n] = right

	readL := e.panDelayL[(e.panDelayPos-offsetL+n)%n]
	readR := e.panDelayR[(e.panDelayPos-offsetR+n)%n]
	e.panDelayPos++

	return readL * gainL, readR * gainR
}

// applyChorus mixes six detuned taps (three per side) of a shared delay
// line, each offset by a slowly moving sinusoid, per spec §4.7.
func (e *effectChain) applyChorus(x float64, sampleRate float64, time float64) (left, right float64) {
	n := len(e.chorusDelay)
	e.chorusDelay[e.chorusPos%n] = x
	e.chorusPos++

	for i := 0; i < 3; i++ {
		mod := 1 + 0.3*math.Sin(2*math.Pi*chorusTapRates[i]*time)
		delaySamples := chorusTapOffsets[i] * mod * sampleRate
		readPos := float64(e.chorusPos) - delaySamples
		left += sampleChorusDelay(e.chorusDelay, readPos) / 3
	}
	for i := 0; i < 3; i++ {
		mod := 1 + 0.3*math.Sin(2*math.Pi*chorusTapRates[i]*time+math.Pi/3)
		delaySamples := (chorusTapOffsets[i] + 0.0007) * mod * sampleRate
		readPos := float64(e.chorusPos) - delaySamples
		right += sampleChorusDelay(e.chorusDelay, readPos) / 3
	}
	return left, right
}

func sampleChorusDelay(buf []float64, readPos float64) float64 {
	n := len(buf)
	i0 := int(math.Floor(readPos))
	frac := readPos - float64(i0)
	i0 = ((i0 % n) + n) % n
	i1 := (i0 + 1) % n
	return lerp(buf[i0], buf[i1], frac)
}

// reverbParams maps the 0..reverbRange-1 instrument reverb amount to an FDN
// feedback gain and lowpass cutoff.
func reverbParams(amount int) (mult, cutoff float64) {
	t := float64(amount) / float64(reverbRange-1)
	mult = lerp(0, 0.85, t)
	cutoff = 0.35
	return
}

// sanitize clears denormal/NaN state across every stateful stage.
func (e *effectChain) sanitize() {
	for i := range e.panDelayL {
		e.panDelayL[i] = sanitizeDelayValue(e.panDelayL[i])
		e.panDelayR[i] = sanitizeDelayValue(e.panDelayR[i])
	}
	for i := range e.chorusDelay {
		e.chorusDelay[i] = sanitizeDelayValue(e.chorusDelay[i])
	}
	e.reverb.Sanitize()
}

// tailFlushed reports whether the chain's delay lines have decayed below
// 1/256 full scale, the point at which the player can deactivate a
// finished instrument's effect chain, per spec §4.7. It requires both the
// reverb's feedback network to be silent and enough idle (forced-zero)
// samples to have passed to flush the chorus ring buffer.
func (e *effectChain) tailFlushed() bool {
	const threshold = 1.0 / 256
	return e.reverb.IsSilent(threshold) && e.idleSamples >= chorusDelayBufferSize
}

// tickIdle drains n samples of silence through whatever delay lines are
// enabled, so a tail already in flight keeps decaying even with no tone
// feeding the chain, and reports whether the chain just flushed and should
// be deactivated, per spec property 6. deactivateAfterThisTick latches once
// true and the chain is reset so its buffers observably read zero.
func (e *effectChain) tickIdle(inst *Instrument, sampleRate float64, n int) bool {
	if !e.active || e.deactivateAfterThisTick {
		return e.deactivateAfterThisTick
	}
	for i := 0; i < n; i++ {
		if inst.Effects&EffectBitChorus != 0 {
			e.applyChorus(0, sampleRate, 0)
		}
		if inst.Effects&EffectBitReverb != 0 {
			mult, cutoff := reverbParams(inst.Reverb)
			e.reverb.SetParams(mult, cutoff)
			e.reverb.Process(0)
		}
		e.idleSamples++
	}
	if e.tailFlushed() {
		e.reset()
		e.deactivateAfterThisTick = true
		return true
	}
	return false
}

// reset clears all delay line contents, used when an effect chain is
// recycled for a new instrument voice.
func (e *effectChain) reset() {
	for i := range e.panDelayL {
		e.panDelayL[i] = 0
		e.panDelayR[i] = 0
	}
	for i := range e.chorusDelay {
		e.chorusDelay[i] = 0
	}
	e.reverb.Clear()
	e.bitcrusherPhase = 0
	e.bitcrusherHold = 0
	e.active = false
	e.idleSamples = 0
	e.deactivateAfterThisTick = false
}
