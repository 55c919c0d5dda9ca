package chipsynth

import "errors"

// ErrMalformedSong is returned by the codec for structurally invalid input.
var ErrMalformedSong = errors.New("chipsynth: malformed song data")

// Pin is a (time, interval, expression) control point within a Note. Time is
// relative to the note's Start. Consecutive pins define linear bends.
type Pin struct {
	Time       int // relative to the owning Note's Start, in parts
	Interval   int // semitone bend relative to the note's base pitches
	Expression int // 0..3 velocity
}

// Note is a span of one or more simultaneous pitches (a chord) with a pin
// envelope describing bend and velocity over its lifetime.
type Note struct {
	Start    int // in parts
	End      int // in parts, End > Start
	Pitches  []int
	Pins     []Pin
}

// Duration returns End - Start, the note's length in parts.
func (n *Note) Duration() int { return n.End - n.Start }

// Validate checks the invariants spec.md §3 requires of a Note.
func (n *Note) Validate() error {
	if n.End <= n.Start {
		return ErrMalformedSong
	}
	if len(n.Pitches) == 0 || len(n.Pitches) > maxChordSize {
		return ErrMalformedSong
	}
	if len(n.Pins) == 0 {
		return ErrMalformedSong
	}
	if n.Pins[0].Time != 0 || n.Pins[0].Interval != 0 {
		return ErrMalformedSong
	}
	if n.Pins[len(n.Pins)-1].Time != n.Duration() {
		return ErrMalformedSong
	}
	for i := 1; i < len(n.Pins); i++ {
		if n.Pins[i].Time <= n.Pins[i-1].Time {
			return ErrMalformedSong
		}
	}
	return nil
}

// Pattern is one instrument slot's worth of notes for a bar, sorted by
// Start and non-overlapping.
type Pattern struct {
	Instrument int // 0-based into the owning Channel's Instruments
	Notes      []Note
}

// Channel is one pitched or noise voice of the song: a fixed-size set of
// instruments and patterns, and the bar sequence that plays them.
type Channel struct {
	IsNoise       bool
	OctaveOffset  int
	Mute          bool
	Instruments   []Instrument
	Patterns      []Pattern
	Bars          []int // 0 = empty bar, else 1-based pattern index

	// recent-pitch and recent-shape move-to-front lists, maintained by the
	// codec while encoding/decoding this channel's pattern bit-streams.
	recentPitches []int
	recentShapes  []noteShape
}

// Song is the root of the data model: global parameters plus an ordered
// list of pitch channels followed by noise channels.
type Song struct {
	ScaleIndex       int
	Key              int
	Tempo            int // BPM
	BeatsPerBar      int
	BarCount         int
	PatternsPerChannel int
	Rhythm           int
	InstrumentsPerChannel int
	LoopStart        int
	LoopLength       int
	ReverbLegacy     int // only meaningful for versions < 7, see codec_legacy.go

	Channels []Channel // pitch channels first, then noise channels
}

// PitchChannelCount returns how many of Channels are pitched (not noise).
func (s *Song) PitchChannelCount() int {
	n := 0
	for _, c := range s.Channels {
		if !c.IsNoise {
			n++
		}
	}
	return n
}

// NoiseChannelCount returns how many of Channels are noise channels.
func (s *Song) NoiseChannelCount() int {
	return len(s.Channels) - s.PitchChannelCount()
}

// NewDefaultSong returns a song initialized to defaults, as if constructed
// with no URL.
func NewDefaultSong() *Song {
	s := &Song{
		ScaleIndex:            0,
		Key:                   0,
		Tempo:                 120,
		BeatsPerBar:           8,
		BarCount:              16,
		PatternsPerChannel:    8,
		Rhythm:                1,
		InstrumentsPerChannel: 1,
		LoopStart:             0,
		LoopLength:            16,
	}
	s.Channels = append(s.Channels, newDefaultChannel(false))
	s.Channels = append(s.Channels, newDefaultChannel(true))
	return s
}

func newDefaultChannel(isNoise bool) Channel {
	c := Channel{IsNoise: isNoise, OctaveOffset: 3}
	c.Instruments = []Instrument{NewDefaultInstrument(isNoise)}
	c.Patterns = make([]Pattern, 8)
	c.Bars = make([]int, 16)
	return c
}

// ResizeChannels resizes the pitch+noise channel list, preserving existing
// channels and appending new defaults or truncating as needed. pitchCount
// and noiseCount are the desired counts of each kind.
func (s *Song) ResizeChannels(pitchCount, noiseCount int) {
	var pitched, noise []Channel
	for _, c := range s.Channels {
		if c.IsNoise {
			noise = append(noise, c)
		} else {
			pitched = append(pitched, c)
		}
	}
	pitched = resizeChannelSlice(pitched, pitchCount, false)
	noise = resizeChannelSlice(noise, noiseCount, true)

	s.Channels = make([]Channel, 0, pitchCount+noiseCount)
	s.Channels = append(s.Channels, pitched...)
	s.Channels = append(s.Channels, noise...)
}

func resizeChannelSlice(chs []Channel, count int, isNoise bool) []Channel {
	for len(chs) < count {
		chs = append(chs, newDefaultChannel(isNoise))
	}
	return chs[:count]
}

// ResizeInstruments resizes a channel's instrument list in place, preserving
// existing instruments.
func (c *Channel) ResizeInstruments(count int) {
	for len(c.Instruments) < count {
		c.Instruments = append(c.Instruments, NewDefaultInstrument(c.IsNoise))
	}
	c.Instruments = c.Instruments[:count]
}

// ResizePatterns resizes a channel's pattern list in place, preserving
// existing patterns.
func (c *Channel) ResizePatterns(count int) {
	for len(c.Patterns) < count {
		c.Patterns = append(c.Patterns, Pattern{})
	}
	c.Patterns = c.Patterns[:count]
}

// ResizeBars resizes a channel's bar sequence, preserving existing bar
// references and clamping any that now point past PatternsPerChannel.
func (c *Channel) ResizeBars(count, patternsPerChannel int) {
	for len(c.Bars) < count {
		c.Bars = append(c.Bars, 0)
	}
	c.Bars = c.Bars[:count]
	for i, b := range c.Bars {
		if b > patternsPerChannel {
			c.Bars[i] = patternsPerChannel
		}
	}
}

// PatternAt returns the pattern sounding in channel ch at bar, or nil if the
// bar is empty (0) or out of range.
func (s *Song) PatternAt(chIdx, bar int) *Pattern {
	ch := &s.Channels[chIdx]
	if bar < 0 || bar >= len(ch.Bars) {
		return nil
	}
	barRef := ch.Bars[bar]
	if barRef == 0 || barRef > len(ch.Patterns) {
		return nil
	}
	return &ch.Patterns[barRef-1]
}
