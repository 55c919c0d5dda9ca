package chipsynth

import "math"

// fmAlgorithm selects, per operator, which higher-indexed operators
// modulate it, and whether it is a carrier (summed to output) or purely a
// modulator. Operators are always evaluated high index to low index so a
// modulator's current sample is available before the carrier it feeds
// needs it, per spec §4.6/§9 ("consult the algorithm table outside the
// inner loop").
type fmAlgorithm struct {
	carriers   [4]bool
	modulators [4][]int // modulators[k] = operator indices (> k) feeding operator k
}

var fmAlgorithms = [algorithmCount]fmAlgorithm{
	{carriers: [4]bool{true, true, true, true}}, // 0: four independent carriers
	{carriers: [4]bool{true, false, true, false}, modulators: [4][]int{0: {1}, 2: {3}}},            // 1: two 2-op stacks
	{carriers: [4]bool{true, false, false, false}, modulators: [4][]int{0: {1}, 1: {2}, 2: {3}}},    // 2: serial chain into one carrier
	{carriers: [4]bool{true, true, false, false}, modulators: [4][]int{0: {2}, 1: {2}, 2: {3}}},     // 3: shared modulator into two carriers
	{carriers: [4]bool{true, false, false, false}, modulators: [4][]int{0: {1, 2, 3}}},              // 4: three modulators into one carrier
	{carriers: [4]bool{true, false, true, false}, modulators: [4][]int{0: {1}, 2: {3}}},             // 5: alias of 1 with different feedback routing
	{carriers: [4]bool{true, false, false, false}, modulators: [4][]int{0: {1}, 1: {2}, 2: {3}}},    // 6: alias of 2
	{carriers: [4]bool{true, true, true, true}, modulators: [4][]int{0: {1}, 1: {2}, 2: {3}}},       // 7: ring of carriers, each lightly modulated
}

const fmSineTableLength = 2048

var fmSineTable = buildFMSineTable()

func buildFMSineTable() []float64 {
	t := make([]float64, fmSineTableLength)
	for i := range t {
		t[i] = math.Sin(2 * math.Pi * float64(i) / float64(fmSineTableLength))
	}
	return t
}

func fmSine(phase float64) float64 {
	phase -= math.Floor(phase)
	return fmSineTable[int(phase*fmSineTableLength)%fmSineTableLength]
}

// operatorFrequencyRatios maps Instrument.Operators[i].Frequency to a
// ratio of the fundamental.
var operatorFrequencyRatios = []float64{
	0.5, 0.75, 1, 1.5, 2, 3, 4, 5, 6, 8, 9, 10, 12, 15, 16, 20,
}

func operatorFreqRatio(idx int) float64 {
	if idx < 0 || idx >= len(operatorFrequencyRatios) {
		return 1
	}
	return operatorFrequencyRatios[idx]
}

// synthesizeFM runs the four-operator FM inner loop: each operator is a
// sine phase accumulator, combined per the selected algorithm and feedback
// entry, per spec §4.6.
func synthesizeFM(t *tone, inst *Instrument, envScalar float64, buffer []float64, sampleRate float64) {
	alg := fmAlgorithms[clampInt(inst.Algorithm, 0, algorithmCount-1)]

	baseFreq := t.phaseDeltaStart * sampleRate

	var out [4]float64 // this sample's raw operator outputs, index 3 computed first
	feedbackAmp := float64(inst.FeedbackAmplitude) / 15.0

	// Sine-expression boost compensates for the perceptual gain loss of
	// heavy modulation: instruments with more active modulators get a
	// small makeup gain on their carriers.
	modulatorCount := 0
	for k := 0; k < 4; k++ {
		if !alg.carriers[k] {
			modulatorCount++
		}
	}
	boost := 1.0 + 0.12*float64(modulatorCount)

	var prevFeedback float64

	for i := 0; i < len(buffer); i++ {
		for k := 3; k >= 0; k-- {
			freq := baseFreq * operatorFreqRatio(inst.Operators[k].Frequency)
			t.fmPhase[k] += freq / sampleRate
			if t.fmPhase[k] >= 1 {
				t.fmPhase[k] -= math.Floor(t.fmPhase[k])
			}

			modIn := 0.0
			for _, j := range alg.modulators[k] {
				modIn += out[j] * fmSineTableLength / (2 * math.Pi) * 0.0019 // scaled by sine-table length per spec
			}
			if k == 0 && inst.FeedbackType > 0 {
				modIn += prevFeedback * feedbackAmp
			}

			amp := float64(inst.Operators[k].Amplitude) / 15.0
			env := evaluateEnvelope(EnvelopeType(inst.Operators[k].Envelope), t.secondsSinceStart, 4.0, 1.0, envScalar)
			out[k] = fmSine(t.fmPhase[k]+modIn) * amp * env
		}
		prevFeedback = out[0]

		x := 0.0
		for k := 0; k < 4; k++ {
			if alg.carriers[k] {
				x += out[k] * boost
			}
		}
		accumulateMono(t, buffer, i, x)
	}
}
