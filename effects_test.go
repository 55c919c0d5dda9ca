package chipsynth

import (
	"math"
	"testing"
)

func TestApplyDistortionIsOddSymmetric(t *testing.T) {
	pos := applyDistortion(0.5, 5)
	neg := applyDistortion(-0.5, 5)
	if math.Abs(pos+neg) > 1e-9 {
		t.Errorf("applyDistortion(0.5) = %v, applyDistortion(-0.5) = %v; want symmetric", pos, neg)
	}
}

func TestApplyDistortionBoundedAtZeroAmount(t *testing.T) {
	// amount=0 still applies a drive of 1, tanh(x)/tanh(1) is not identity,
	// but it should still be a monotonic, bounded mapping near the origin.
	y := applyDistortion(0.1, 0)
	if math.IsNaN(y) || math.Abs(y) > 1 {
		t.Errorf("applyDistortion(0.1, amount=0) = %v, want small finite value", y)
	}
}

func TestEffectChainBypassesDisabledEffects(t *testing.T) {
	e := newEffectChain()
	inst := NewDefaultInstrument(false)
	inst.Effects = 0 // no effects enabled

	tn := &tone{}
	left, right := e.process(&inst, tn, 0.5, 44100, 0)
	if left != 0.5 || right != 0.5 {
		t.Errorf("process() with no effects = (%v, %v), want (0.5, 0.5)", left, right)
	}
}

func TestEffectChainPanShiftsBalance(t *testing.T) {
	e := newEffectChain()
	inst := NewDefaultInstrument(false)
	inst.Effects = EffectBitPan
	inst.Pan = panRange - 1 // hard right

	var left, right float64
	for i := 0; i < panDelayBufferSize+4; i++ {
		left, right = e.process(&inst, &tone{}, 1.0, 44100, 0)
	}
	if right <= left {
		t.Errorf("hard-right pan gave left=%v right=%v, want right > left", left, right)
	}
}

func TestEffectChainReverbAddsEnergyWhenEnabled(t *testing.T) {
	e := newEffectChain()
	inst := NewDefaultInstrument(false)
	inst.Effects = EffectBitReverb
	inst.Reverb = reverbRange - 1 // maximum wet

	var left float64
	for i := 0; i < 2000; i++ {
		l, _ := e.process(&inst, &tone{}, 1.0, 44100, float64(i)/44100)
		left = l
	}
	if left <= 1.0 {
		t.Errorf("expected reverb tail to add energy above the dry 1.0 input, got %v", left)
	}
}

func TestEffectChainSanitizeClearsBlownUpDelayLines(t *testing.T) {
	e := newEffectChain()
	for i := range e.panDelayL {
		e.panDelayL[i] = math.NaN()
	}
	e.sanitize()
	for i, v := range e.panDelayL {
		if v != 0 {
			t.Errorf("panDelayL[%d] = %v after sanitize, want 0", i, v)
		}
	}
}

func TestEffectChainResetClearsState(t *testing.T) {
	e := newEffectChain()
	inst := NewDefaultInstrument(false)
	inst.Effects = EffectBitPan | EffectBitChorus | EffectBitReverb
	e.process(&inst, &tone{}, 1.0, 44100, 0)

	e.reset()

	for _, v := range e.panDelayL {
		if v != 0 {
			t.Error("reset() left nonzero panDelayL content")
			break
		}
	}
	if !e.reverb.IsSilent(1.0 / 256) {
		t.Error("reset() did not clear the reverb tail")
	}
}
