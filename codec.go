package chipsynth

// currentCodecVersion is the version symbol written by the encoder. Older
// symbols (2..8) are still accepted on read, see codec_legacy.go.
const currentCodecVersion = 9

// Tag characters, one per song/channel/instrument field the URL format can
// carry. These mirror the historical tag table: a letter names a field,
// and its payload shape is fixed per field (scalars as long-tail integers,
// the four bulkier fields - bars, patterns, spectrum and harmonics - as
// dedicated bit-packed records).
const (
	tagBeatsPerBar        = 'a'
	tagBars               = 'b'
	tagVibrato            = 'c'
	tagTransition         = 'd'
	tagLoopEnd            = 'e'
	tagFilter             = 'f'
	tagBarCount           = 'g'
	tagInterval           = 'h'
	tagInstrumentCount    = 'i'
	tagPatternCount       = 'j'
	tagKey                = 'k'
	tagLoopStart          = 'l'
	tagReverbLegacy       = 'm'
	tagChannelCount       = 'n'
	tagChannelOctave      = 'o'
	tagPatterns           = 'p'
	tagEffects            = 'q'
	tagRhythm             = 'r'
	tagScale              = 's'
	tagTempo              = 't'
	tagPreset             = 'u'
	tagVolume             = 'v'
	tagWave               = 'w'
	tagAlgorithm          = 'A'
	tagFeedbackAmplitude  = 'B'
	tagChord              = 'C'
	tagDistortion         = 'D'
	tagFeedbackType       = 'F'
	tagDistortionFilter   = 'G'
	tagHarmonics          = 'H'
	tagPan                = 'L'
	tagOperatorAmplitudes = 'P'
	tagOperatorFrequencies = 'Q'
	tagBitcrusher         = 'R'
	tagSpectrum           = 'S'
	tagStartInstrument    = 'T'
	tagSustain            = 'U'
	tagPulseWidth         = 'W'
	tagEnd                = '\x00' // sentinel, never written; decode loop stops at end of stream
)

// noteShapePin is one pin's contribution to a note's "shape" fingerprint:
// everything about the pin except the absolute pitch it bends toward.
type noteShapePin struct {
	intervalDelta int
	duration      int
	expression    int
}

// noteShape is the part of a Note that the pattern codec's move-to-front
// shape list dedups: chord size plus the full pin timing/expression
// sequence. Two notes with an identical shape differ only in which
// pitches they use.
type noteShape struct {
	chordSize         int
	initialExpression int
	pins              []noteShapePin
}

func shapesEqual(a, b noteShape) bool {
	if a.chordSize != b.chordSize || a.initialExpression != b.initialExpression || len(a.pins) != len(b.pins) {
		return false
	}
	for i := range a.pins {
		if a.pins[i] != b.pins[i] {
			return false
		}
	}
	return true
}

func noteToShape(n *Note) noteShape {
	shape := noteShape{chordSize: len(n.Pitches), initialExpression: n.Pins[0].Expression}
	for i := 1; i < len(n.Pins); i++ {
		shape.pins = append(shape.pins, noteShapePin{
			intervalDelta: n.Pins[i].Interval - n.Pins[i-1].Interval,
			duration:      n.Pins[i].Time - n.Pins[i-1].Time,
			expression:    n.Pins[i].Expression,
		})
	}
	return shape
}

// pushRecentShape looks up shape in ch's move-to-front list. If found, it
// is moved to the front and its (pre-move) index returned. Otherwise it is
// inserted at the front, evicting the oldest entry past
// recentShapeListSize, and -1 is returned.
func pushRecentShape(ch *Channel, shape noteShape) int {
	for i, s := range ch.recentShapes {
		if shapesEqual(s, shape) {
			ch.recentShapes = append(ch.recentShapes[:i], ch.recentShapes[i+1:]...)
			ch.recentShapes = append([]noteShape{shape}, ch.recentShapes...)
			return i
		}
	}
	ch.recentShapes = append([]noteShape{shape}, ch.recentShapes...)
	if len(ch.recentShapes) > recentShapeListSize {
		ch.recentShapes = ch.recentShapes[:recentShapeListSize]
	}
	return -1
}

func recentShapeAt(ch *Channel, idx int) (noteShape, bool) {
	if idx < 0 || idx >= len(ch.recentShapes) {
		return noteShape{}, false
	}
	s := ch.recentShapes[idx]
	ch.recentShapes = append(ch.recentShapes[:idx], ch.recentShapes[idx+1:]...)
	ch.recentShapes = append([]noteShape{s}, ch.recentShapes...)
	return s, true
}

// pushRecentPitch mirrors pushRecentShape for the per-channel 8-entry
// recent-pitch list.
func pushRecentPitch(ch *Channel, pitch int) int {
	for i, p := range ch.recentPitches {
		if p == pitch {
			ch.recentPitches = append(ch.recentPitches[:i], ch.recentPitches[i+1:]...)
			ch.recentPitches = append([]int{pitch}, ch.recentPitches...)
			return i
		}
	}
	ch.recentPitches = append([]int{pitch}, ch.recentPitches...)
	if len(ch.recentPitches) > recentPitchListSize {
		ch.recentPitches = ch.recentPitches[:recentPitchListSize]
	}
	return -1
}

func recentPitchAt(ch *Channel, idx int) (int, bool) {
	if idx < 0 || idx >= len(ch.recentPitches) {
		return 0, false
	}
	p := ch.recentPitches[idx]
	ch.recentPitches = append(ch.recentPitches[:idx], ch.recentPitches[idx+1:]...)
	ch.recentPitches = append([]int{p}, ch.recentPitches...)
	return p, true
}

// EncodeSongURL serializes song into the bit-packed base64 tag-stream
// format, always at currentCodecVersion, per spec §4.2/§6.
func EncodeSongURL(song *Song) string {
	w := &bitWriter{}
	w.writeBits(6, currentCodecVersion)

	writeTag(w, tagScale, func() { w.writeLongTail(0, 3, song.ScaleIndex) })
	writeTag(w, tagKey, func() { w.writeLongTail(0, 3, song.Key) })
	writeTag(w, tagTempo, func() { w.writeLongTail(0, 7, song.Tempo) })
	writeTag(w, tagBeatsPerBar, func() { w.writeLongTail(1, 3, song.BeatsPerBar) })
	writeTag(w, tagBarCount, func() { w.writeLongTail(1, 5, song.BarCount) })
	writeTag(w, tagPatternCount, func() { w.writeLongTail(1, 3, song.PatternsPerChannel) })
	writeTag(w, tagInstrumentCount, func() { w.writeLongTail(1, 2, song.InstrumentsPerChannel) })
	writeTag(w, tagRhythm, func() { w.writeLongTail(0, 2, song.Rhythm) })
	writeTag(w, tagLoopStart, func() { w.writeLongTail(0, 5, song.LoopStart) })
	writeTag(w, tagLoopEnd, func() { w.writeLongTail(0, 5, song.LoopLength-1) })
	writeTag(w, tagChannelCount, func() {
		w.writeLongTail(0, 3, song.PitchChannelCount())
		w.writeLongTail(0, 2, song.NoiseChannelCount())
	})

	for chIdx := range song.Channels {
		ch := &song.Channels[chIdx]

		writeTag(w, tagChannelOctave, func() {
			w.writeLongTail(0, 2, chIdx)
			w.writeLongTail(0, 3, ch.OctaveOffset)
		})

		writeTag(w, tagBars, func() { encodeBars(w, chIdx, ch) })
		writeTag(w, tagPatterns, func() { encodePatterns(w, chIdx, ch, song.BeatsPerBar*partsPerBeat) })

		for instIdx := range ch.Instruments {
			inst := &ch.Instruments[instIdx]
			writeTag(w, tagStartInstrument, func() {
				w.writeLongTail(0, 3, chIdx)
				w.writeLongTail(0, 2, instIdx)
			})
			encodeInstrument(w, inst)
		}
	}

	return w.toBase64()
}

func writeTag(w *bitWriter, tag rune, payload func()) {
	w.writeBits(6, int(base64Lookup[byte(tag)]))
	payload()
}

func encodeBars(w *bitWriter, chIdx int, ch *Channel) {
	w.writeLongTail(0, 5, len(ch.Bars))
	for _, b := range ch.Bars {
		w.writeLongTail(0, 3, b)
	}
}

func encodePatterns(w *bitWriter, chIdx int, ch *Channel, partsPerBar int) {
	// The decoder starts every channel with empty MTF lists.
	ch.recentShapes = nil
	ch.recentPitches = nil
	body := &bitWriter{}
	body.writeLongTail(0, 5, len(ch.Patterns))
	for i := range ch.Patterns {
		pat := &ch.Patterns[i]
		body.writeLongTail(0, 2, pat.Instrument)
		hasNotes := len(pat.Notes) > 0
		body.writeBit(hasNotes)
		if !hasNotes {
			continue
		}
		cursor := 0
		for n := range pat.Notes {
			note := &pat.Notes[n]
			if gap := note.Start - cursor; gap > 0 {
				body.writeBit(false) // rest
				body.writeLongTail(1, 3, gap)
			}
			body.writeBit(true) // note
			encodeNote(body, ch, note)
			cursor = note.End
		}
		// trailing rest to the end of the bar, so the decoder stops here
		if cursor < partsPerBar {
			body.writeBit(false)
			body.writeLongTail(1, 3, partsPerBar-cursor)
		}
	}

	// length-of-length prefix: how many base64 symbols the bit-stream
	// below takes, itself written as a long-tail value.
	length := body.lengthInBase64Symbols()
	w.writeLongTail(0, 4, length)
	bits := body.bits
	for i := 0; i < len(bits); i++ {
		w.writeBit(bits[i])
	}
	// pad to the declared symbol count
	for padded := len(bits); padded < length*6; padded++ {
		w.writeBit(false)
	}
}

func encodeNote(w *bitWriter, ch *Channel, note *Note) {
	shape := noteToShape(note)
	idx := pushRecentShape(ch, shape)
	if idx >= 0 {
		w.writeBit(true)
		w.writeBits(4, idx)
	} else {
		w.writeBit(false)
		writeUnary(w, shape.chordSize-1, maxChordSize-1)
		w.writeLongTail(1, 0, len(note.Pins))
		w.writeBits(2, note.Pins[0].Expression)
		for i := 1; i < len(note.Pins); i++ {
			p := &shape.pins[i-1]
			w.writeSignedLongTail(p.intervalDelta)
			w.writeLongTail(1, 3, p.duration)
			w.writeBits(2, p.expression)
		}
	}

	lastPitch := 0
	for _, pitch := range note.Pitches {
		if pIdx := pushRecentPitch(ch, pitch); pIdx >= 0 {
			w.writeBit(true)
			w.writeBits(3, pIdx)
		} else {
			w.writeBit(false)
			w.writeSignedLongTail(pitch - lastPitch)
		}
		lastPitch = pitch
	}
}

func writeUnary(w *bitWriter, n, max int) {
	for i := 0; i < n; i++ {
		w.writeBit(true)
	}
	if n < max {
		w.writeBit(false)
	}
}

func encodeInstrument(w *bitWriter, inst *Instrument) {
	writeTag(w, tagPreset, func() { w.writeLongTail(0, 7, inst.Preset) })
	writeTag(w, tagVolume, func() { w.writeLongTail(0, 3, inst.Volume) })
	writeTag(w, tagTransition, func() { w.writeLongTail(0, 3, inst.Transition) })
	writeTag(w, tagChord, func() { w.writeLongTail(0, 3, inst.Chord) })
	writeTag(w, tagVibrato, func() { w.writeLongTail(0, 3, inst.Vibrato) })
	writeTag(w, tagInterval, func() { w.writeLongTail(0, 3, inst.Interval) })
	writeTag(w, tagEffects, func() { w.writeLongTail(0, 6, int(inst.Effects)) })

	writeTag(w, tagFilter, func() { encodeFilterPoints(w, inst.Filter) })
	if inst.Effects&EffectBitFilter != 0 {
		writeTag(w, tagDistortionFilter, func() { encodeFilterPoints(w, inst.DistortionFilter) })
	}
	if inst.Effects&EffectBitDistortion != 0 {
		writeTag(w, tagDistortion, func() { w.writeLongTail(0, 5, inst.DistortionAmount) })
	}
	if inst.Effects&EffectBitBitcrusher != 0 {
		writeTag(w, tagBitcrusher, func() {
			w.writeLongTail(0, 4, inst.BitcrusherFreq)
			w.writeLongTail(0, 4, inst.BitcrusherQuant)
		})
	}
	if inst.Effects&EffectBitPan != 0 {
		writeTag(w, tagPan, func() { w.writeLongTail(0, 7, inst.Pan) })
	}
	if inst.Effects&EffectBitReverb != 0 {
		writeTag(w, tagReverbLegacy, func() { w.writeLongTail(0, 5, inst.Reverb) })
	}

	switch inst.Kind {
	case KindChip, KindPWM, KindGuitar:
		writeTag(w, tagWave, func() { w.writeLongTail(0, 3, inst.ChipWave) })
		if inst.Kind == KindPWM {
			writeTag(w, tagPulseWidth, func() { w.writeLongTail(0, 4, inst.PulseWidth) })
		}
		if inst.Kind == KindGuitar {
			writeTag(w, tagSustain, func() { w.writeLongTail(0, 4, inst.Sustain) })
			writeTag(w, tagPulseWidth, func() { w.writeLongTail(0, 4, inst.PulseWidth) })
		}
	case KindNoise:
		writeTag(w, tagWave, func() { w.writeLongTail(0, 2, inst.NoiseWave) })
	case KindSpectrum:
		writeTag(w, tagSpectrum, func() { encodeIntArray(w, inst.SpectrumWave[:], 3) })
	case KindHarmonics:
		writeTag(w, tagHarmonics, func() { encodeIntArray(w, inst.HarmonicsWave[:], 4) })
	case KindDrumset:
		for d := 0; d < drumsetPitchCount; d++ {
			writeTag(w, tagSpectrum, func() { encodeIntArray(w, inst.DrumsetSpectrumWaves[d][:], 3) })
		}
	case KindFM:
		writeTag(w, tagAlgorithm, func() { w.writeLongTail(0, 3, inst.Algorithm) })
		writeTag(w, tagFeedbackType, func() { w.writeLongTail(0, 3, inst.FeedbackType) })
		writeTag(w, tagFeedbackAmplitude, func() { w.writeLongTail(0, 4, inst.FeedbackAmplitude) })
		writeTag(w, tagOperatorFrequencies, func() {
			for _, op := range inst.Operators {
				w.writeLongTail(0, 4, op.Frequency)
			}
		})
		writeTag(w, tagOperatorAmplitudes, func() {
			for _, op := range inst.Operators {
				w.writeLongTail(0, 4, op.Amplitude)
			}
		})
	}
}

func encodeFilterPoints(w *bitWriter, pts []FilterControlPoint) {
	w.writeLongTail(0, 3, len(pts))
	for _, p := range pts {
		w.writeBits(2, int(p.Type))
		w.writeLongTail(0, 5, p.Freq)
		w.writeLongTail(0, 3, p.Gain)
	}
}

func encodeIntArray(w *bitWriter, arr []int, bitsPerValue int) {
	for _, v := range arr {
		w.writeBits(bitsPerValue, v)
	}
}
