package chipsynth

import "math"

// tone is one active or released voice. Tones are owned by value inside a
// tonePool arena (see tonepool.go); queues elsewhere in the engine hold
// indices into that arena, never pointers, per spec §9 "Tone lifetime".
type tone struct {
	inUse    bool
	released bool
	lastTick bool

	channelIdx    int
	instrumentIdx int

	pitches   [maxChordSize]int
	pitchCount int
	lastPitch  int

	noteStartPart int
	noteEndPart   int

	// Continuous clocks, advanced every call to computeTone.
	ticksSinceStart     float64
	ticksSinceReleased  float64
	secondsSinceStart   float64

	// Per-run ramps computed by computeTone and consumed by the instrument
	// synth loop.
	expressionStart, expressionDelta float64
	phaseDeltaStart, phaseDeltaScale float64
	intervalMult, intervalExpressionMult float64

	// Phase accumulators, used by whichever synth kind owns this tone.
	phaseA, phaseB float64 // chip/harmonics/pwm: two detuned phases
	fmPhase        [4]float64
	noisePhase     float64
	noisePhaseSmoothedValue float64
	drumsetPitch   int
	spectrumSmoothedValue   float64
	onsetPhaseChosen        bool

	// Guitar (plucked string) state.
	guitarDelay      []float64
	guitarDelayIndex int
	guitarDispersion *dynamicBiquad
	guitarDecay      *dynamicBiquad
	guitarFracTap    *fractionalDelayAllpass
	guitarPeriod     float64
	guitarPlucked    bool
	guitarLastPitch  int

	guitarDispersionTarget biquadCoefficients
	guitarDispersionPrimed bool
	guitarDecayTarget      biquadCoefficients
	guitarDecayPrimed      bool

	vibrato *vibratoLFO

	filters              [maxFilterPoints]dynamicBiquad
	numFilters           int
	filterTargets        [maxFilterPoints]biquadCoefficients
	filterTargetsPrimed  [maxFilterPoints]bool
	distortionFilters    [maxFilterPoints]dynamicBiquad
	numDistortionFilters int
	distortionFilterTargets       [maxFilterPoints]biquadCoefficients
	distortionFilterTargetsPrimed [maxFilterPoints]bool

	// Arpeggio bookkeeping.
	arpeggioStep int

	fadeOutFast bool

	// Slide-transition blend state, set up by player.go's triggerNote when
	// the instrument's transition Slides, per spec §4.5. slideTicksRemaining
	// counts down to 0 over slideTotalTicks; interval and expression are
	// pulled toward the outgoing note's values in proportion to how much of
	// the window remains.
	slideTicksRemaining float64
	slideTotalTicks     float64
	slideFromInterval   float64
	slideFromExpression float64
	lastExpression      float64
}

func (t *tone) reset() {
	*t = tone{}
}

// release marks the tone as released; the caller (player.go) is responsible
// for queuing it on the per-instrument released queue.
func (t *tone) release() {
	t.released = true
	t.ticksSinceReleased = 0
}

// toneComputeParams bundles the per-run context computeTone needs beyond the
// tone itself.
type toneComputeParams struct {
	song           *Song
	channelIdx     int
	instrumentIdx  int
	sampleRate     float64
	samplesInRun   int
	startRatio     float64 // position of this run within the tick, 0..1
	endRatio       float64
	secondsPerTick float64
	beatsPerSecond float64
	note           *Note // nil if the tone is released and the note has ended
}

// computeTone produces the per-run ramp parameters and loads the tone's
// filter cascade with a start->end coefficient gradient, per spec §4.5.
func computeTone(t *tone, p *toneComputeParams) {
	song := p.song
	ch := &song.Channels[p.channelIdx]
	inst := &ch.Instruments[p.instrumentIdx]

	chord := &chords[inst.Chord]
	transition := &transitions[inst.Transition]

	// --- pitch & interval -------------------------------------------------
	basePitch := 0
	if t.pitchCount > 0 {
		idx := 0
		if chord.Arpeggiates {
			step := int(t.ticksSinceStart / ticksPerArpeggio)
			idx = arpeggioPitchIndex(t.pitchCount, song.Rhythm, step)
		}
		basePitch = t.pitches[idx]
	}

	interval := 0.0
	if p.note != nil {
		interval = interpolatePinInterval(p.note, t.ticksSinceStart, p.secondsPerTick)
	}

	if t.vibrato != nil {
		dt := p.secondsPerTick * (p.endRatio - p.startRatio)
		t.vibrato.advance(&vibratos[inst.Vibrato], dt)
		interval += t.vibrato.interval(&vibratos[inst.Vibrato], t.ticksSinceStart)
	}

	slideBlend := 0.0
	if t.slideTicksRemaining > 0 && t.slideTotalTicks > 0 {
		slideBlend = clamp(t.slideTicksRemaining/t.slideTotalTicks, 0, 1)
		interval += t.slideFromInterval * slideBlend
	}

	pitch := float64(basePitch+ch.OctaveOffset*pitchesPerOctave) + interval
	freq := pitchToFreq(pitch)
	phaseDelta := freq / p.sampleRate

	t.phaseDeltaStart = phaseDelta
	t.phaseDeltaScale = 1.0 // per-sample multiplicative ramp; flat within a run

	t.intervalMult = 1
	t.intervalExpressionMult = 1
	if chord.CustomInterval {
		// Subsequent pitches in the chord are additional fixed intervals
		// rather than arpeggiated or strummed; triggerNote gives each pitch
		// its own tone, so the multiplier stays at unity.
		t.intervalMult = 1
	}

	// --- expression ---------------------------------------------------
	noteExpr := 1.0
	if p.note != nil {
		noteExpr = interpolatePinExpression(p.note, t.ticksSinceStart, p.secondsPerTick)
	}

	env := envelopeForFilter(inst)
	envScalar := evaluateEnvelope(env, t.secondsSinceStart, 4.0, p.beatsPerSecond, noteExpr)

	expression := noteExpr * envScalar

	if t.released {
		ticksUntilDone := float64(transition.ReleaseTicks)
		if ticksUntilDone < 1 {
			ticksUntilDone = 1
		}
		releaseScalar := math.Pow(clamp(1-t.ticksSinceReleased/ticksUntilDone, 0, 1), 1.5)
		expression *= releaseScalar
		if t.fadeOutFast {
			expression *= 1 - p.endRatio
		}
		if t.ticksSinceReleased+1 >= ticksUntilDone {
			t.lastTick = true
		}
	}

	startExpr := expression
	// Linear ramp across the run; absent higher-resolution pin data at
	// sub-run granularity, the end value is the same curve evaluated at the
	// run's end-of-tick time.
	endSeconds := t.secondsSinceStart + p.secondsPerTick*(p.endRatio-p.startRatio)
	endNoteExpr := noteExpr
	if p.note != nil {
		endNoteExpr = interpolatePinExpression(p.note, t.ticksSinceStart+(p.endRatio-p.startRatio), p.secondsPerTick)
	}
	endEnv := evaluateEnvelope(env, endSeconds, 4.0, p.beatsPerSecond, endNoteExpr)
	endExpr := endNoteExpr * endEnv
	if t.released {
		ticksUntilDone := math.Max(float64(transition.ReleaseTicks), 1)
		releaseScalar := math.Pow(clamp(1-(t.ticksSinceReleased+(p.endRatio-p.startRatio))/ticksUntilDone, 0, 1), 1.5)
		endExpr *= releaseScalar
	}

	t.expressionStart = startExpr * float64(inst.Volume+1) / 8.0
	if p.samplesInRun > 0 {
		t.expressionDelta = (endExpr - startExpr) * float64(inst.Volume+1) / 8.0 / float64(p.samplesInRun)
	}
	if slideBlend > 0 {
		t.expressionStart = lerp(t.expressionStart, t.slideFromExpression, slideBlend)
	}
	t.lastExpression = t.expressionStart + t.expressionDelta*float64(p.samplesInRun)

	// --- filter cascade -------------------------------------------------
	loadToneFilters(t, inst, env, envScalar, p)

	t.lastPitch = basePitch
}

// envelopeForFilter returns the filter envelope the instrument's cutoff
// modulation uses.
func envelopeForFilter(inst *Instrument) EnvelopeType {
	return EnvelopeType(inst.FilterEnvelope)
}

// loadToneFilters loads each of the tone's cascade filters with a
// start->end coefficient gradient for this run, combining the instrument's
// static filter points with the envelope's effect on their freq parameter.
func loadToneFilters(t *tone, inst *Instrument, env EnvelopeType, envScalar float64, p *toneComputeParams) {
	t.numFilters = len(inst.Filter)
	for i, fp := range inst.Filter {
		if i >= maxFilterPoints {
			break
		}
		modFreq := clampInt(int(math.Round(float64(fp.Freq)*envScalar)), 0, filterFreqRange-1)
		modPoint := FilterControlPoint{Type: fp.Type, Freq: modFreq, Gain: fp.Gain}
		coeffs := modPoint.buildCoefficients(p.sampleRate)
		invN := 1.0
		if p.samplesInRun > 0 {
			invN = 1.0 / float64(p.samplesInRun)
		}
		start := coeffs
		if t.filterTargetsPrimed[i] {
			start = t.filterTargets[i]
		}
		t.filters[i].loadCoefficientsWithGradient(start, coeffs, invN)
		t.filterTargets[i] = coeffs
		t.filterTargetsPrimed[i] = true
	}

	t.numDistortionFilters = len(inst.DistortionFilter)
	for i, fp := range inst.DistortionFilter {
		if i >= maxFilterPoints {
			break
		}
		coeffs := fp.buildCoefficients(p.sampleRate)
		invN := 1.0
		if p.samplesInRun > 0 {
			invN = 1.0 / float64(p.samplesInRun)
		}
		start := coeffs
		if t.distortionFilterTargetsPrimed[i] {
			start = t.distortionFilterTargets[i]
		}
		t.distortionFilters[i].loadCoefficientsWithGradient(start, coeffs, invN)
		t.distortionFilterTargets[i] = coeffs
		t.distortionFilterTargetsPrimed[i] = true
	}
}

// interpolatePinInterval linearly interpolates interval between the two
// bracketing pins of note by tick-time ratio, per spec §4.5.
func interpolatePinInterval(note *Note, ticksSinceStart float64, secondsPerTick float64) float64 {
	partsElapsed := ticksSinceStart / ticksPerPart
	return interpolatePins(note, partsElapsed, func(p Pin) float64 { return float64(p.Interval) })
}

// interpolatePinExpression linearly interpolates expression between the two
// bracketing pins, converting 0..3 velocity to linear gain via (x/3)^1.5.
func interpolatePinExpression(note *Note, ticksSinceStart float64, secondsPerTick float64) float64 {
	partsElapsed := ticksSinceStart / ticksPerPart
	return interpolatePins(note, partsElapsed, func(p Pin) float64 {
		return math.Pow(float64(p.Expression)/3.0, 1.5)
	})
}

func interpolatePins(note *Note, partsElapsed float64, value func(Pin) float64) float64 {
	pins := note.Pins
	if len(pins) == 0 {
		return 0
	}
	if partsElapsed <= float64(pins[0].Time) {
		return value(pins[0])
	}
	last := pins[len(pins)-1]
	if partsElapsed >= float64(last.Time) {
		return value(last)
	}
	for i := 1; i < len(pins); i++ {
		if partsElapsed <= float64(pins[i].Time) {
			a, b := pins[i-1], pins[i]
			span := float64(b.Time - a.Time)
			t := 0.0
			if span > 0 {
				t = (partsElapsed - float64(a.Time)) / span
			}
			return lerp(value(a), value(b), t)
		}
	}
	return value(last)
}

// pitchToFreq converts a 0-based semitone pitch (60 == middle C, A4==440Hz
// convention with A at pitch 69) into Hz.
func pitchToFreq(pitch float64) float64 {
	return 440.0 * math.Pow(2, (pitch-69)/12.0)
}
