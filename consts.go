package chipsynth

// Tuning constants for the tick/part/beat/bar sequencer and the synth
// engine's value ranges.

const (
	// Nested time units: ticks < parts < beats < bars.
	ticksPerPart = 2
	partsPerBeat = 24

	maxChordSize        = 4
	maxPitchOctaves     = 7
	pitchesPerOctave    = 12
	maxPitch            = maxPitchOctaves * pitchesPerOctave
	maximumTonesPerChannel = 8

	recentPitchListSize = 8
	recentShapeListSize = 10

	// Filter control point encoding, see FilterControlPoint.
	filterFreqRange    = 36
	filterFreqStep     = 0.25 // octaves per freq unit
	filterMaxHz        = 8000.0
	filterGainRange    = 15
	filterGainCenter   = (filterGainRange - 1) / 2
	filterGainStep     = 0.5 // dB-ish units per gain unit, in log2 domain

	maxFilterPoints = 8

	defaultSampleRate = 44100

	// legacy limits, preserved per spec §9 open question.
	legacyGlobalReverbMax = 4
	reverbRange           = 32
	volumeRange           = 8
	panRange              = 101 // 0..100, 50 = center
	panDelaySecondsMax    = 0.0005
	distortionRange       = 32
	bitcrusherFreqRange   = 16
	bitcrusherQuantRange  = 16
	algorithmCount        = 8
	feedbackTypeCount     = 8

	guitarPulseWidthRandomness = 0.1
)

// InstrumentKind selects which per-tone synth inner loop is used.
type InstrumentKind int

const (
	KindChip InstrumentKind = iota
	KindFM
	KindNoise
	KindSpectrum
	KindDrumset
	KindHarmonics
	KindPWM
	KindGuitar
)

// FilterType identifies what kind of biquad section a control point builds.
type FilterType int

const (
	FilterLowpass FilterType = iota
	FilterHighpass
	FilterPeak
)

// EnvelopeType names a time->scalar curve, see envelope.go.
type EnvelopeType int

const (
	EnvelopeSteady EnvelopeType = iota
	EnvelopeCustom
	EnvelopeTwang
	EnvelopeSwell
	EnvelopeTremolo
	EnvelopeTremolo2
	EnvelopePunch
	EnvelopeFlare
	EnvelopeDecay
)

// Transition is a named bundle selecting note-boundary behavior.
type Transition struct {
	Name          string
	AttackSeconds float64
	ReleaseTicks  int
	IsSeamless    bool
	Slides        bool
	SlideTicks    int
	Releases      bool
}

// Chord is a named bundle selecting how multiple pitches in a note map to
// tones.
type Chord struct {
	Name          string
	SingleTone    bool
	Arpeggiates   bool
	CustomInterval bool
	StrumParts    int
	Harmonizes    bool
}

// Vibrato describes an LFO applied to interval.
type Vibrato struct {
	Name       string
	Amplitude  float64
	Type       int // 0 = normal (sum of sines), 1 = shaky, etc.
	DelayTicks float64
	Periods    []float64 // one period (seconds) per summed sine
}

var transitions = []Transition{
	{Name: "normal", AttackSeconds: 0.0, ReleaseTicks: 3, IsSeamless: false},
	{Name: "interrupt", AttackSeconds: 0.0, ReleaseTicks: 3, IsSeamless: true},
	{Name: "continue", AttackSeconds: 0.0, ReleaseTicks: 0, IsSeamless: true},
	{Name: "slide", AttackSeconds: 0.025, ReleaseTicks: 3, IsSeamless: true, Slides: true, SlideTicks: 3},
	{Name: "no release", AttackSeconds: 0.0, ReleaseTicks: 1, Releases: false},
	{Name: "slide in pattern", AttackSeconds: 0.025, ReleaseTicks: 3, IsSeamless: true, Slides: true, SlideTicks: 3},
}

// defaultTransitionIndex is where an unrecognized legacy transition name
// falls back to, per spec §7.
const defaultTransitionIndex = 1

var chords = []Chord{
	{Name: "simultaneous", SingleTone: false},
	{Name: "strum", SingleTone: false, StrumParts: 1},
	{Name: "arpeggio", SingleTone: true, Arpeggiates: true},
	{Name: "custom interval", SingleTone: false, CustomInterval: true},
	{Name: "harmony", SingleTone: false, Harmonizes: true},
}

var vibratos = []Vibrato{
	{Name: "none", Amplitude: 0},
	{Name: "light", Amplitude: 0.15, DelayTicks: 0, Periods: []float64{0.14}},
	{Name: "delayed", Amplitude: 0.3, DelayTicks: 18, Periods: []float64{0.14}},
	{Name: "heavy", Amplitude: 0.45, DelayTicks: 0, Periods: []float64{0.14}},
	{Name: "shaky", Amplitude: 0.1, DelayTicks: 0, Periods: []float64{0.11, 0.077, 0.059}},
}
