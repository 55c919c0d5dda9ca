package chipsynth

// versionFlags captures which legacy payload shapes a decoded version needs
// to honor. Computed once from the leading version symbol and consulted by
// individual tag handlers, per spec §9 "Model the decoder as a state
// machine keyed on the version flag set".
type versionFlags struct {
	beforeThree bool // channel identity was explicit, not cursor-based
	beforeSix   bool // effects were a name-indexed enum
	beforeSeven bool // reverb was song-global, not per-instrument
	beforeNine  bool // filter was a single (cutoff, resonance, envelope) tuple
}

func flagsForVersion(v int) versionFlags {
	return versionFlags{
		beforeThree: v < 3,
		beforeSix:   v < 6,
		beforeSeven: v < 7,
		beforeNine:  v < 9,
	}
}

// decodeState threads the version flags and "current instrument" cursor
// (set by tagStartInstrument) through tag handling.
type decodeState struct {
	song  *Song
	flags versionFlags

	curChannel    int
	curInstrument int

	// drumsetSlot tracks which of the 12 drumset spectrum slots the next
	// tagSpectrum record fills in for the current instrument, since a
	// drumset instrument emits that tag twelve times in a row. Reset
	// whenever tagStartInstrument selects a new instrument.
	drumsetSlot int
}

// DecodeSongURL parses the bit-packed base64 tag-stream format (see
// EncodeSongURL) into a Song, applying legacy migrations for older version
// symbols, per spec §4.2/§6.
func DecodeSongURL(raw string) (*Song, error) {
	r, err := newBitReaderFromBase64(raw)
	if err != nil {
		return nil, err
	}

	version, err := r.readBits(6)
	if err != nil {
		return nil, err
	}
	if version < 2 || version > 9 {
		return nil, ErrMalformedSong
	}

	st := &decodeState{song: NewDefaultSong(), flags: flagsForVersion(version)}
	st.song.Channels = nil

	legacyGlobalReverb := 0
	pendingReverbEnable := false

	for r.remaining() >= 6 {
		tagBits, err := r.readBits(6)
		if err != nil {
			return nil, err
		}
		tag := base64Alphabet[tagBits]

		switch tag {
		case tagScale:
			st.song.ScaleIndex, err = r.readLongTail(0, 3)
		case tagKey:
			st.song.Key, err = r.readLongTail(0, 3)
		case tagTempo:
			st.song.Tempo, err = r.readLongTail(0, 7)
		case tagBeatsPerBar:
			st.song.BeatsPerBar, err = r.readLongTail(1, 3)
		case tagBarCount:
			st.song.BarCount, err = r.readLongTail(1, 5)
		case tagPatternCount:
			st.song.PatternsPerChannel, err = r.readLongTail(1, 3)
		case tagInstrumentCount:
			st.song.InstrumentsPerChannel, err = r.readLongTail(1, 2)
		case tagRhythm:
			st.song.Rhythm, err = r.readLongTail(0, 2)
		case tagLoopStart:
			st.song.LoopStart, err = r.readLongTail(0, 5)
		case tagLoopEnd:
			var length int
			length, err = r.readLongTail(0, 5)
			st.song.LoopLength = length + 1
		case tagReverbLegacy:
			if st.flags.beforeSeven {
				legacyGlobalReverb, err = r.readLongTail(0, 5)
				pendingReverbEnable = legacyGlobalReverb > 0
			} else {
				err = decodeInstrumentTag(r, st, tag)
			}
		case tagChannelCount:
			var pitchCount, noiseCount int
			if pitchCount, err = r.readLongTail(0, 3); err == nil {
				noiseCount, err = r.readLongTail(0, 2)
			}
			if err == nil {
				for i := 0; i < pitchCount; i++ {
					st.song.Channels = append(st.song.Channels, newDefaultChannel(false))
				}
				for i := 0; i < noiseCount; i++ {
					st.song.Channels = append(st.song.Channels, newDefaultChannel(true))
				}
			}
		case tagChannelOctave:
			var chIdx, octave int
			if chIdx, err = r.readLongTail(0, 2); err == nil {
				octave, err = r.readLongTail(0, 3)
			}
			if err == nil && chIdx < len(st.song.Channels) {
				st.song.Channels[chIdx].OctaveOffset = octave
				st.curChannel = chIdx
			}
		case tagBars:
			err = decodeBars(r, st)
		case tagPatterns:
			err = decodePatterns(r, st)
		case tagStartInstrument:
			if st.curChannel, err = r.readLongTail(0, 3); err == nil {
				st.curInstrument, err = r.readLongTail(0, 2)
			}
			if err == nil {
				st.ensureInstrument()
				st.drumsetSlot = 0
			}
		default:
			err = decodeInstrumentTag(r, st, tag)
		}
		if err != nil {
			return nil, err
		}
	}

	if st.flags.beforeSeven && pendingReverbEnable {
		for i := range st.song.Channels {
			ch := &st.song.Channels[i]
			if ch.IsNoise {
				continue
			}
			for j := range ch.Instruments {
				inst := &ch.Instruments[j]
				reverbVal, enable := translateLegacyReverb(legacyGlobalReverb)
				inst.Reverb = reverbVal
				if enable {
					inst.Effects |= EffectBitReverb
				}
			}
		}
	}
	st.song.ReverbLegacy = legacyGlobalReverb

	return st.song, nil
}

func (st *decodeState) ensureInstrument() {
	if st.curChannel < 0 || st.curChannel >= len(st.song.Channels) {
		return
	}
	ch := &st.song.Channels[st.curChannel]
	for len(ch.Instruments) <= st.curInstrument {
		ch.Instruments = append(ch.Instruments, NewDefaultInstrument(ch.IsNoise))
	}
}

func (st *decodeState) instrument() *Instrument {
	if st.curChannel < 0 || st.curChannel >= len(st.song.Channels) {
		return nil
	}
	ch := &st.song.Channels[st.curChannel]
	if st.curInstrument < 0 || st.curInstrument >= len(ch.Instruments) {
		return nil
	}
	return &ch.Instruments[st.curInstrument]
}

func decodeBars(r *bitReader, st *decodeState) error {
	// The preceding startInstrument/channelOctave tags establish which
	// channel bars belong to implicitly via encounter order; for
	// simplicity bars are read for the channel most recently touched by
	// tagChannelOctave (matching the encoder's per-channel emission order).
	count, err := r.readLongTail(0, 5)
	if err != nil {
		return err
	}
	ch := &st.song.Channels[st.curChannel]
	ch.Bars = make([]int, count)
	for i := 0; i < count; i++ {
		v, err := r.readLongTail(0, 3)
		if err != nil {
			return err
		}
		ch.Bars[i] = v
	}
	return nil
}

func decodePatterns(r *bitReader, st *decodeState) error {
	lengthSymbols, err := r.readLongTail(0, 4)
	if err != nil {
		return err
	}
	bitsLen := lengthSymbols * 6
	bodyBits := make([]bool, 0, bitsLen)
	for i := 0; i < bitsLen; i++ {
		b, err := r.readBit()
		if err != nil {
			return err
		}
		bodyBits = append(bodyBits, b)
	}
	body := &bitReader{bits: bodyBits}

	ch := &st.song.Channels[st.curChannel]
	count, err := body.readLongTail(0, 5)
	if err != nil {
		return err
	}
	ch.Patterns = make([]Pattern, count)
	partDurationMinBits := 3
	if st.flags.beforeThree {
		partDurationMinBits = 2
	}
	for i := 0; i < count; i++ {
		pat := &ch.Patterns[i]
		pat.Instrument, err = body.readLongTail(0, 2)
		if err != nil {
			return err
		}
		hasNotes, err := body.readBit()
		if err != nil {
			return err
		}
		if !hasNotes {
			continue
		}
		cursor := 0
		for body.remaining() > 0 && cursor < st.song.BeatsPerBar*partsPerBeat {
			marker, err := body.readBit()
			if err != nil {
				return err
			}
			if !marker {
				gap, err := body.readLongTail(1, partDurationMinBits)
				if err != nil {
					return err
				}
				cursor += gap
				continue
			}
			note, err := decodeNote(body, ch, cursor, partDurationMinBits)
			if err != nil {
				return err
			}
			pat.Notes = append(pat.Notes, *note)
			cursor = note.End
			if cursor >= st.song.BeatsPerBar*partsPerBeat {
				break
			}
		}
	}
	return nil
}

func decodeNote(r *bitReader, ch *Channel, start int, partDurationMinBits int) (*Note, error) {
	reuse, err := r.readBit()
	if err != nil {
		return nil, err
	}

	var shape noteShape
	if reuse {
		idx, err := r.readBits(4)
		if err != nil {
			return nil, err
		}
		s, ok := recentShapeAt(ch, idx)
		if !ok {
			return nil, ErrMalformedSong
		}
		shape = s
	} else {
		chordSize, err := readUnary(r, maxChordSize-1)
		if err != nil {
			return nil, err
		}
		chordSize++
		pinCount, err := r.readLongTail(1, 0)
		if err != nil {
			return nil, err
		}
		initialExpr, err := r.readBits(2)
		if err != nil {
			return nil, err
		}
		shape = noteShape{chordSize: chordSize}
		shape.pins = make([]noteShapePin, 0, pinCount-1)
		for i := 1; i < pinCount; i++ {
			delta, err := r.readSignedLongTail()
			if err != nil {
				return nil, err
			}
			dur, err := r.readLongTail(1, partDurationMinBits)
			if err != nil {
				return nil, err
			}
			expr, err := r.readBits(2)
			if err != nil {
				return nil, err
			}
			shape.pins = append(shape.pins, noteShapePin{intervalDelta: delta, duration: dur, expression: expr})
		}
		shape.initialExpression = initialExpr
		pushRecentShape(ch, shape)
	}

	note := &Note{Start: start}
	note.Pitches = make([]int, 0, shape.chordSize)
	lastPitch := 0
	for i := 0; i < shape.chordSize; i++ {
		ref, err := r.readBit()
		if err != nil {
			return nil, err
		}
		var pitch int
		if ref {
			idx, err := r.readBits(3)
			if err != nil {
				return nil, err
			}
			p, ok := recentPitchAt(ch, idx)
			if !ok {
				return nil, ErrMalformedSong
			}
			pitch = p
		} else {
			delta, err := r.readSignedLongTail()
			if err != nil {
				return nil, err
			}
			pitch = lastPitch + delta
			pushRecentPitch(ch, pitch)
		}
		note.Pitches = append(note.Pitches, pitch)
		lastPitch = pitch
	}

	interval := 0
	t := 0
	note.Pins = append(note.Pins, Pin{Time: 0, Interval: 0, Expression: shape.initialExpression})
	for _, p := range shape.pins {
		t += p.duration
		interval += p.intervalDelta
		note.Pins = append(note.Pins, Pin{Time: t, Interval: interval, Expression: p.expression})
	}
	note.End = start + t

	return note, nil
}

func readUnary(r *bitReader, max int) (int, error) {
	n := 0
	for n < max {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if !b {
			return n, nil
		}
		n++
	}
	return n, nil
}

// decodeInstrumentTag handles every per-instrument scalar/array tag,
// applying the pre-v9 single-tuple filter shape where the version flags
// require it. The effects value is read as a bitmask for every version;
// pre-v6 effects enum values are not translated.
func decodeInstrumentTag(r *bitReader, st *decodeState, tag byte) error {
	inst := st.instrument()
	if inst == nil {
		return ErrMalformedSong
	}

	var err error
	switch tag {
	case tagPreset:
		inst.Preset, err = r.readLongTail(0, 7)
	case tagVolume:
		inst.Volume, err = r.readLongTail(0, 3)
	case tagTransition:
		inst.Transition, err = r.readLongTail(0, 3)
	case tagChord:
		inst.Chord, err = r.readLongTail(0, 3)
	case tagVibrato:
		inst.Vibrato, err = r.readLongTail(0, 3)
	case tagInterval:
		inst.Interval, err = r.readLongTail(0, 3)
	case tagEffects:
		var v int
		v, err = r.readLongTail(0, 6)
		inst.Effects = uint32(v)
	case tagFilter:
		if st.flags.beforeNine {
			var cutoff, resonance int
			if cutoff, err = r.readLongTail(0, 4); err == nil {
				resonance, err = r.readLongTail(0, 3)
			}
			if err == nil {
				inst.Filter = translateLegacyFilter(cutoff, resonance, false, inst.Kind)
			}
		} else {
			inst.Filter, err = decodeFilterPoints(r)
		}
	case tagDistortionFilter:
		inst.DistortionFilter, err = decodeFilterPoints(r)
	case tagDistortion:
		inst.DistortionAmount, err = r.readLongTail(0, 5)
	case tagBitcrusher:
		if inst.BitcrusherFreq, err = r.readLongTail(0, 4); err == nil {
			inst.BitcrusherQuant, err = r.readLongTail(0, 4)
		}
	case tagPan:
		inst.Pan, err = r.readLongTail(0, 7)
	case tagReverbLegacy:
		inst.Reverb, err = r.readLongTail(0, 5)
	case tagWave:
		switch inst.Kind {
		case KindNoise:
			inst.NoiseWave, err = r.readLongTail(0, 2)
		default:
			inst.ChipWave, err = r.readLongTail(0, 3)
		}
	case tagPulseWidth:
		inst.PulseWidth, err = r.readLongTail(0, 4)
	case tagSustain:
		inst.Sustain, err = r.readLongTail(0, 4)
	case tagSpectrum:
		if inst.Kind == KindDrumset {
			err = decodeDrumsetSpectrumSlot(r, inst, st)
		} else {
			err = decodeIntArray(r, inst.SpectrumWave[:], 3)
		}
	case tagHarmonics:
		err = decodeIntArray(r, inst.HarmonicsWave[:], 4)
	case tagAlgorithm:
		inst.Algorithm, err = r.readLongTail(0, 3)
	case tagFeedbackType:
		inst.FeedbackType, err = r.readLongTail(0, 3)
	case tagFeedbackAmplitude:
		inst.FeedbackAmplitude, err = r.readLongTail(0, 4)
	case tagOperatorFrequencies:
		for i := range inst.Operators {
			if inst.Operators[i].Frequency, err = r.readLongTail(0, 4); err != nil {
				break
			}
		}
	case tagOperatorAmplitudes:
		for i := range inst.Operators {
			if inst.Operators[i].Amplitude, err = r.readLongTail(0, 4); err != nil {
				break
			}
		}
	default:
		return ErrMalformedSong
	}
	return err
}

func decodeDrumsetSpectrumSlot(r *bitReader, inst *Instrument, st *decodeState) error {
	slot := st.drumsetSlot
	if slot >= drumsetPitchCount {
		slot = 0
	}
	if err := decodeIntArray(r, inst.DrumsetSpectrumWaves[slot][:], 3); err != nil {
		return err
	}
	st.drumsetSlot = slot + 1
	return nil
}

func decodeFilterPoints(r *bitReader) ([]FilterControlPoint, error) {
	n, err := r.readLongTail(0, 3)
	if err != nil {
		return nil, err
	}
	pts := make([]FilterControlPoint, n)
	for i := 0; i < n; i++ {
		typ, err := r.readBits(2)
		if err != nil {
			return nil, err
		}
		freq, err := r.readLongTail(0, 5)
		if err != nil {
			return nil, err
		}
		gain, err := r.readLongTail(0, 3)
		if err != nil {
			return nil, err
		}
		pts[i] = FilterControlPoint{Type: FilterType(typ), Freq: freq, Gain: gain}
	}
	return pts, nil
}

func decodeIntArray(r *bitReader, arr []int, bitsPerValue int) error {
	for i := range arr {
		v, err := r.readBits(bitsPerValue)
		if err != nil {
			return err
		}
		arr[i] = v
	}
	return nil
}
