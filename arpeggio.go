package chipsynth

// ticksPerArpeggio is how many ticks each arpeggio step holds before
// advancing to the next chord pitch.
const ticksPerArpeggio = 3

// arpeggioPatternsByRhythm maps rhythm (song.Rhythm, the steps-per-beat
// selection) to a chord-size-keyed cycle of pitch indices, per spec §4.5
// ("the mapping table depends on chord size and rhythm"). Rhythm 0 is the
// straight, evenly-stepped cycle; rhythm 1 leans on a triplet feel that
// revisits the root between neighbor tones; rhythm 2's wider subdivision
// favors the outer chord tones.
var arpeggioPatternsByRhythm = map[int]map[int][]int{
	0: {
		1: {0},
		2: {0, 1},
		3: {0, 1, 2},
		4: {0, 1, 2, 3},
	},
	1: {
		1: {0},
		2: {0, 1, 0},
		3: {0, 1, 2, 1},
		4: {0, 1, 2, 3, 2, 1},
	},
	2: {
		1: {0},
		2: {0, 1},
		3: {0, 2, 1},
		4: {0, 3, 1, 2},
	},
}

// arpeggioPitchIndex returns which pitch (0-based into the chord) should
// sound at arpeggio step `step`, for a chord of size pitchCount under the
// given rhythm.
func arpeggioPitchIndex(pitchCount, rhythm int, step int) int {
	byChordSize, ok := arpeggioPatternsByRhythm[rhythm]
	if !ok {
		byChordSize = arpeggioPatternsByRhythm[0]
	}
	pattern, ok := byChordSize[pitchCount]
	if !ok || len(pattern) == 0 {
		return 0
	}
	if step < 0 {
		step = 0
	}
	return pattern[step%len(pattern)]
}
