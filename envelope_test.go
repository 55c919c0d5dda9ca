package chipsynth

import (
	"math"
	"testing"
)

func TestEnvelopeSteadyIsConstant(t *testing.T) {
	for _, tt := range []float64{0, 0.1, 10} {
		if v := evaluateEnvelope(EnvelopeSteady, tt, 1, 2, 0.5); v != 1 {
			t.Errorf("EnvelopeSteady(t=%v) = %v, want 1", tt, v)
		}
	}
}

func TestEnvelopeCustomReturnsExpression(t *testing.T) {
	if v := evaluateEnvelope(EnvelopeCustom, 5, 1, 1, 0.75); v != 0.75 {
		t.Errorf("EnvelopeCustom = %v, want 0.75 (the passed expression)", v)
	}
}

func TestEnvelopeTwangDecaysTowardZero(t *testing.T) {
	early := evaluateEnvelope(EnvelopeTwang, 0, 4, 1, 0)
	late := evaluateEnvelope(EnvelopeTwang, 10, 4, 1, 0)
	if early != 1 {
		t.Errorf("EnvelopeTwang(t=0) = %v, want 1", early)
	}
	if late >= early || late <= 0 {
		t.Errorf("EnvelopeTwang(t=10) = %v, want in (0, %v)", late, early)
	}
}

func TestEnvelopeSwellRisesTowardOne(t *testing.T) {
	early := evaluateEnvelope(EnvelopeSwell, 0, 4, 1, 0)
	late := evaluateEnvelope(EnvelopeSwell, 10, 4, 1, 0)
	if early != 0 {
		t.Errorf("EnvelopeSwell(t=0) = %v, want 0", early)
	}
	if late <= early || late >= 1 {
		t.Errorf("EnvelopeSwell(t=10) = %v, want in (%v, 1)", late, early)
	}
}

func TestEnvelopeTremoloBounded(t *testing.T) {
	for tt := 0.0; tt < 2; tt += 0.05 {
		v := evaluateEnvelope(EnvelopeTremolo, tt, 1, 1, 0)
		if v < 0 || v > 1 {
			t.Errorf("EnvelopeTremolo(t=%v) = %v, out of [0,1]", tt, v)
		}
	}
}

func TestEnvelopePunchNeverBelowOne(t *testing.T) {
	for tt := 0.0; tt < 2; tt += 0.1 {
		if v := evaluateEnvelope(EnvelopePunch, tt, 1, 1, 0); v < 1 {
			t.Errorf("EnvelopePunch(t=%v) = %v, want >= 1", tt, v)
		}
	}
}

func TestEnvelopeDecayHalvesAtSpeedInterval(t *testing.T) {
	v := evaluateEnvelope(EnvelopeDecay, 1, 1, 1, 0)
	if math.Abs(v-0.5) > 1e-9 {
		t.Errorf("EnvelopeDecay(t=1, speed=1) = %v, want 0.5", v)
	}
}

func TestEnvelopeUnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown envelope type")
		}
	}()
	evaluateEnvelope(EnvelopeType(999), 0, 1, 1, 0)
}
