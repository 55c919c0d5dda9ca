package chipsynth

import "math"

// legacyFilterReferenceSampleRate is the sample rate the original simplified
// filter model was authored against.
const legacyFilterReferenceSampleRate = 48000.0

// translateLegacyFilter converts a pre-v9 legacy (cutoff, resonance,
// hasEnvelope) filter description into at most one modern FilterControlPoint,
// per spec §4.3. cutoff is 0..10, resonance is 0..7.
func translateLegacyFilter(cutoff, resonance int, envelopeDecays bool, kind InstrumentKind) []FilterControlPoint {
	// Flat, no-envelope, cutoff-at-max: no points.
	if cutoff >= 10 && resonance == 0 && !envelopeDecays {
		return nil
	}

	secondOrder := kind == KindChip || kind == KindHarmonics || kind == KindPWM || kind == KindGuitar

	if !secondOrder {
		return []FilterControlPoint{translateLegacyFirstOrder(cutoff, envelopeDecays)}
	}
	return []FilterControlPoint{translateLegacySecondOrder(cutoff, resonance, envelopeDecays)}
}

// translateLegacyFirstOrder remaps a legacy cutoff ~3.5 octaves up with a
// fixed gain of -3.5 octaves (-2 when the envelope decays). The legacy
// 1st-order magnitude at the new cutoff is computed but does not affect
// the gain.
func translateLegacyFirstOrder(cutoff int, envelopeDecays bool) FilterControlPoint {
	// Legacy cutoff space: 0..10 maps onto a fraction of Nyquist at the
	// legacy reference rate.
	legacyFreqFraction := float64(cutoff) / 10.0
	legacyHz := legacyFreqFraction * (legacyFilterReferenceSampleRate / 2)
	if legacyHz < 20 {
		legacyHz = 20
	}

	// Warp ~3.5 octaves up for the modern filter point.
	const octaveShift = 3.5
	newHz := legacyHz * math.Pow(2, octaveShift)
	if newHz > filterMaxHz {
		newHz = filterMaxHz
	}

	// The legacy 1st-order lowpass magnitude at the new cutoff; the gain
	// below is -3.5 octaves (-2 for decaying envelopes) regardless of it.
	legacyW := 2 * math.Pi * newHz / legacyFilterReferenceSampleRate
	legacyMagnitudeDB := -20 * math.Log10(math.Sqrt(1+math.Pow(math.Tan(legacyW/2)/math.Tan(2*math.Pi*legacyHz/legacyFilterReferenceSampleRate/2), 2)))

	gainOctaves := -3.5
	if envelopeDecays && gainOctaves < -2 {
		gainOctaves = -2
	}
	// legacyMagnitudeDB is not used in the gain.
	_ = legacyMagnitudeDB

	gainValueUnit := clampInt(filterGainCenter+int(math.Round(gainOctaves/filterGainStep)), 0, filterGainRange-1)

	return FilterControlPoint{Type: FilterLowpass, Freq: freqHzToBin(newHz), Gain: gainValueUnit}
}

// translateLegacySecondOrder maps the legacy cutoff linearly onto
// 20Hz..filterMaxHz and the resonance onto a peak gain (sqrt(0.5) when
// non-resonant, scaled by 0.85 in dB when the envelope decays). No
// frequency warping of the cutoff is applied.
func translateLegacySecondOrder(cutoff, resonance int, envelopeDecays bool) FilterControlPoint {
	legacyFreqFraction := float64(cutoff) / 10.0
	newHz := legacyFreqFraction * (filterMaxHz)
	if newHz < 20 {
		newHz = 20
	}

	// Resonance 0..7 maps to a Q-like peak gain; non-resonant (0) clamps to
	// sqrt(0.5), the Butterworth Q, so it never peaks above flat response.
	var gain float64
	if resonance == 0 {
		gain = math.Sqrt(0.5)
	} else {
		gain = math.Sqrt(0.5) + float64(resonance)/7.0*1.5
	}
	gainDB := 20 * math.Log10(gain)
	if envelopeDecays {
		gainDB *= 0.85
	}

	gainValueUnit := clampInt(filterGainCenter+int(math.Round(gainDB/20/filterGainStep)), 0, filterGainRange-1)

	return FilterControlPoint{Type: FilterLowpass, Freq: freqHzToBin(newHz), Gain: gainValueUnit}
}

func freqHzToUnit(hz float64) float64 {
	return math.Log2(hz/filterMaxHz)/filterFreqStep + (filterFreqRange - 1)
}

func freqHzToBin(hz float64) int {
	return clampInt(int(math.Round(freqHzToUnit(hz))), 0, filterFreqRange-1)
}

// translateLegacyReverb maps the pre-v7 song-global reverb amount (0..4) into
// each pitched instrument's reverb slot and reports whether the reverb
// effect bit should be enabled. The mapping is the identity, preserved even
// though legacy inputs cannot produce values above legacyGlobalReverbMax, per
// spec §9 open question.
func translateLegacyReverb(legacyGlobalReverb int) (reverbValue int, enable bool) {
	if legacyGlobalReverb < 0 {
		legacyGlobalReverb = 0
	}
	return legacyGlobalReverb, legacyGlobalReverb > 0
}
