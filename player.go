// Package chipsynth decodes and renders chiptune-style songs: a compact
// tick/part/beat/bar sequencer drives a per-channel set of tone voices,
// each running one of several small instrument synths through a shared
// effects chain and a master compressor.
package chipsynth

import (
	"math"

	clone "github.com/huandu/go-clone/generic"
)

// PlayerPosition describes where playback currently is, delivered on
// Player.PositionCh on every tick the clock advances (dropped when the
// channel's buffer is full).
type PlayerPosition struct {
	Bar     int
	Part    int
	Tick    int
	Playing bool
}

// ChannelNoteData describes what a channel is currently sounding, for
// driving a tracker-style UI.
type ChannelNoteData struct {
	Playing       bool
	Pitches       []int
	InstrumentIdx int
}

// effectKey identifies one (channel, instrument) pair's shared effect
// chain. Every tone belonging to that pair runs through the same chain,
// since chorus/reverb/pan are instrument-wide, not per-tone.
type effectKey struct {
	channel    int
	instrument int
}

// Player is the song orchestrator: it owns the tick/part/beat/bar clock,
// the tone pool, each channel's active and released tone queues, the
// per-instrument effect chains, and the master compressor. One Player is
// one fully independent engine instance; nothing here is process-global
// (spec §9).
type Player struct {
	Song *Song

	sampleRate float64
	caches     *engineCaches
	tones      *tonePool

	channelActive  [][]int // per-channel list of active tone indices
	released       map[effectKey][]int
	effects        map[effectKey]*effectChain
	touchedEffects map[effectKey]bool // keys fed a tone this tick, scratch space
	compressor     *compressor

	bar, part, tick int
	playing         bool

	pendingL, pendingR []float32 // rendered samples awaiting GenerateAudio

	timeSeconds float64 // running clock, feeds the chorus LFO

	Mute uint // bitmask of muted channels, channel 0 in LSB

	PositionCh chan PlayerPosition
}

// NewPlayer constructs a Player for song at sampleRate, seeded with seed
// for every source of randomness the engine touches (guitar pluck jitter,
// spectrum/drumset onset phase), so playback is fully reproducible.
func NewPlayer(song *Song, sampleRate float64, seed uint64) *Player {
	// Deep-copy the song so the engine's own state (recentPitches/
	// recentShapes MTF lists, future mutation) never aliases the caller's
	// copy, e.g. when the same decoded Song is handed to multiple Players.
	song = clone.Clone(song)

	p := &Player{
		Song:          song,
		sampleRate:    sampleRate,
		caches:        newEngineCaches(seed),
		tones:         newTonePool(maximumTonesPerChannel * 2 * len(song.Channels)),
		channelActive: make([][]int, len(song.Channels)),
		released:      make(map[effectKey][]int),
		effects:       make(map[effectKey]*effectChain),
		touchedEffects: make(map[effectKey]bool),
		compressor:    newCompressor(),
		bar:           song.LoopStart,
		playing:       true,
		PositionCh:    make(chan PlayerPosition, 16),
	}
	return p
}

// SetMasterVolume sets the output gain applied by the master compressor
// after limiting, per spec §4.8's `sample · volume / limit` formula.
func (p *Player) SetMasterVolume(v float64) { p.compressor.Volume = v }

// Start resumes playback from the current position.
func (p *Player) Start() { p.playing = true }

// Stop halts playback; GenerateAudio still hands out samples already
// rendered for the current tick, then returns 0 until Start is called.
func (p *Player) Stop() { p.playing = false }

// IsPlaying reports whether the player is currently advancing.
func (p *Player) IsPlaying() bool { return p.playing }

// Position returns the player's current tick/part/bar location.
func (p *Player) Position() PlayerPosition {
	return PlayerPosition{Bar: p.bar, Part: p.part, Tick: p.tick, Playing: p.playing}
}

// SeekTo jumps playback to the start of the given bar, clamped to
// 0..BarCount-1, first returning every active and released tone to the
// pool so no voice is stranded mid-note.
func (p *Player) SeekTo(bar int) {
	for ch := range p.channelActive {
		for _, idx := range p.channelActive[ch] {
			p.tones.release(idx)
		}
		p.channelActive[ch] = nil
	}
	for k, list := range p.released {
		for _, idx := range list {
			p.tones.release(idx)
		}
		delete(p.released, k)
	}
	p.bar = clampInt(bar, 0, p.Song.BarCount-1)
	p.part = 0
	p.tick = 0
}

// NoteDataFor reports the pitches and instrument currently active on a
// channel, for a tracker-style UI.
func (p *Player) NoteDataFor(channelIdx int) ChannelNoteData {
	if channelIdx < 0 || channelIdx >= len(p.channelActive) {
		return ChannelNoteData{}
	}
	active := p.channelActive[channelIdx]
	if len(active) == 0 {
		return ChannelNoteData{}
	}
	t := p.tones.get(active[0])
	return ChannelNoteData{
		Playing:       true,
		Pitches:       append([]int(nil), t.pitches[:t.pitchCount]...),
		InstrumentIdx: t.instrumentIdx,
	}
}

func (p *Player) beatsPerSecond() float64 {
	return float64(p.Song.Tempo) / 60.0
}

func (p *Player) secondsPerTick() float64 {
	return 1.0 / (p.beatsPerSecond() * partsPerBeat * ticksPerPart)
}

func (p *Player) samplesPerTick() int {
	n := int(math.Round(p.sampleRate * p.secondsPerTick()))
	if n < 1 {
		n = 1
	}
	return n
}

func (p *Player) partsPerBar() int {
	return p.Song.BeatsPerBar * partsPerBeat
}

// GenerateAudio fills the two channel arrays left and right (equal length
// N) and returns the number of frames written, per spec §6/§7's documented
// audio interface. It renders exactly one tick's worth of audio at a time
// internally and buffers any remainder for the next call, mirroring the
// teacher's tick-chunked mixing loop. Samples are left unclamped by the
// player itself (beyond whatever headroom the master compressor leaves);
// in practice they stay within ±1.
func (p *Player) GenerateAudio(left, right []float32) int {
	want := len(left)
	if len(right) < want {
		want = len(right)
	}
	produced := 0

	for produced < want {
		if len(p.pendingL) == 0 {
			if !p.playing {
				break
			}
			p.pendingL, p.pendingR = p.renderTick()
		}
		n := len(p.pendingL)
		if n > want-produced {
			n = want - produced
		}
		copy(left[produced:produced+n], p.pendingL[:n])
		copy(right[produced:produced+n], p.pendingR[:n])
		p.pendingL = p.pendingL[n:]
		p.pendingR = p.pendingR[n:]
		produced += n
	}
	return produced
}

// renderTick advances the sequencer clock by one tick (triggering and
// releasing notes as needed), synthesizes every active/released tone for
// that tick's sample span, and returns the mixed, compressed stereo
// output as two float32 channel arrays.
func (p *Player) renderTick() (left32, right32 []float32) {
	if p.tick == 0 {
		p.triggerNotes()
	}

	n := p.samplesPerTick()
	left := make([]float64, n)
	right := make([]float64, n)

	for k := range p.touchedEffects {
		delete(p.touchedEffects, k)
	}

	for ch := range p.Song.Channels {
		if p.Mute&(1<<uint(ch)) != 0 {
			continue
		}
		p.renderChannelActive(ch, left, right, n)
		p.renderChannelReleased(ch, left, right, n)
	}

	p.drainIdleEffectChains(n)

	left32 = make([]float32, n)
	right32 = make([]float32, n)
	sr := p.sampleRate
	for i := 0; i < n; i++ {
		l, r := p.compressor.process(left[i], right[i], sr)
		left32[i] = float32(l)
		right32[i] = float32(r)
	}

	p.timeSeconds += float64(n) / sr
	p.advanceClock()
	return left32, right32
}

// renderChannelActive synthesizes and mixes every currently active (not
// yet released) tone on a channel.
func (p *Player) renderChannelActive(ch int, left, right []float64, n int) {
	active := p.channelActive[ch]
	buf := make([]float64, n)
	for _, idx := range active {
		t := p.tones.get(idx)
		p.runTone(ch, t, buf, n)
		p.mixThroughEffects(ch, t.instrumentIdx, t, buf, left, right)
	}
}

// renderChannelReleased synthesizes every tone still ringing out after its
// note ended, removing it from the engine once its release envelope
// reaches zero.
func (p *Player) renderChannelReleased(ch int, left, right []float64, n int) {
	buf := make([]float64, n)
	for instIdx := 0; instIdx < len(p.Song.Channels[ch].Instruments); instIdx++ {
		key := effectKey{ch, instIdx}
		list := p.released[key]
		kept := list[:0]
		for _, idx := range list {
			t := p.tones.get(idx)
			for i := range buf {
				buf[i] = 0
			}
			p.runTone(ch, t, buf, n)
			p.mixThroughEffects(ch, instIdx, t, buf, left, right)
			if t.lastTick {
				p.tones.release(idx)
				continue
			}
			kept = append(kept, idx)
		}
		p.released[key] = kept
	}
}

// runTone computes this tick's ramp parameters for t and dispatches to the
// instrument-kind-specific synth loop, per spec §4.5/§4.6.
func (p *Player) runTone(ch int, t *tone, buf []float64, n int) {
	inst := &p.Song.Channels[ch].Instruments[t.instrumentIdx]

	var note *Note
	if !t.released {
		note = currentNote(p.Song, ch, p.bar, t)
	}

	computeTone(t, &toneComputeParams{
		song:           p.Song,
		channelIdx:     ch,
		instrumentIdx:  t.instrumentIdx,
		sampleRate:     p.sampleRate,
		samplesInRun:   n,
		startRatio:     0,
		endRatio:       1,
		secondsPerTick: p.secondsPerTick(),
		beatsPerSecond: p.beatsPerSecond(),
		note:           note,
	})

	for i := range buf {
		buf[i] = 0
	}

	switch inst.Kind {
	case KindChip:
		synthesizeChip(t, chipWaves[clampInt(inst.ChipWave, 0, len(chipWaves)-1)], buf, p.sampleRate)
	case KindHarmonics:
		synthesizeHarmonics(t, inst, p.caches, buf, p.sampleRate)
	case KindFM:
		env := envelopeForFilter(inst)
		envScalar := evaluateEnvelope(env, t.secondsSinceStart, 4.0, p.beatsPerSecond(), 1)
		synthesizeFM(t, inst, envScalar, buf, p.sampleRate)
	case KindPWM:
		pulseWidth := (float64(inst.PulseWidth) + 1) / 10.0
		synthesizePWM(t, pulseWidth, buf, p.sampleRate)
	case KindNoise:
		synthesizeNoise(t, p.caches, buf, p.sampleRate)
	case KindSpectrum:
		synthesizeSpectrum(t, inst, p.caches, buf, p.sampleRate, p.caches.rng)
	case KindDrumset:
		synthesizeDrumset(t, inst, p.caches, buf, p.sampleRate, p.caches.rng)
	case KindGuitar:
		synthesizeGuitar(t, inst, p.caches, buf, p.sampleRate, p.caches.rng)
	}

	t.ticksSinceStart++
	t.secondsSinceStart += p.secondsPerTick()
	if t.released {
		t.ticksSinceReleased++
	}
	if t.slideTicksRemaining > 0 {
		t.slideTicksRemaining--
	}
	sanitizeToneFilters(t)
}

// mixThroughEffects runs a tone's raw mono samples through its
// instrument's shared effect chain and mixes the stereo result into the
// tick's left/right buffers.
func (p *Player) mixThroughEffects(ch, instIdx int, t *tone, mono []float64, left, right []float64) {
	key := effectKey{ch, instIdx}
	chain, ok := p.effects[key]
	if !ok {
		chain = newEffectChain()
		p.effects[key] = chain
	}
	chain.active = true
	chain.idleSamples = 0
	p.touchedEffects[key] = true
	inst := &p.Song.Channels[ch].Instruments[instIdx]
	for i, x := range mono {
		l, r := chain.process(inst, t, x, p.sampleRate, p.timeSeconds+float64(i)/p.sampleRate)
		left[i] += l
		right[i] += r
	}
	chain.sanitize()
}

// drainIdleEffectChains advances every effect chain that received no tone
// input this tick by n samples of forced silence, so a pending reverb or
// chorus tail keeps decaying on its own clock. Once a chain's tail has
// flushed (deactivateAfterThisTick), its delay lines are zeroed and it is
// dropped, per spec property 6 "delay-line tail flushing".
func (p *Player) drainIdleEffectChains(n int) {
	for key, chain := range p.effects {
		if p.touchedEffects[key] {
			continue
		}
		inst := &p.Song.Channels[key.channel].Instruments[key.instrument]
		if chain.tickIdle(inst, p.sampleRate, n) {
			delete(p.effects, key)
		}
	}
}

// advanceClock steps the tick/part/bar counters, looping back to
// LoopStart once LoopStart+LoopLength bars have played.
func (p *Player) advanceClock() {
	p.tick++
	if p.tick >= ticksPerPart {
		p.tick = 0
		p.part++
		if p.part >= p.partsPerBar() {
			p.part = 0
			p.bar++
			loopEnd := p.Song.LoopStart + p.Song.LoopLength
			if loopEnd <= p.Song.LoopStart {
				loopEnd = p.Song.BarCount
			}
			if p.bar >= loopEnd || p.bar >= p.Song.BarCount {
				p.bar = p.Song.LoopStart
			}
			p.wrapVibratoPhasesAtBarBoundary()
		}
	}

	select {
	case p.PositionCh <- p.Position():
	default:
	}
}

// currentNote finds the Note sounding on channel ch at the player's
// current bar/part, if any, so runTone can interpolate its pin envelope.
func currentNote(song *Song, ch, bar int, t *tone) *Note {
	pattern := song.PatternAt(ch, bar)
	if pattern == nil {
		return nil
	}
	for i := range pattern.Notes {
		note := &pattern.Notes[i]
		if note.Start == t.noteStartPart && note.End == t.noteEndPart {
			return note
		}
	}
	return nil
}

// triggerNotes scans every channel's pattern for a note starting at the
// player's current part, releasing any prior tones (unless the instrument
// transition is seamless/continuing) and allocating new tones for it, per
// spec §4.9.
func (p *Player) triggerNotes() {
	for ch := range p.Song.Channels {
		pattern := p.Song.PatternAt(ch, p.bar)
		if pattern == nil {
			continue
		}
		for i := range pattern.Notes {
			note := &pattern.Notes[i]
			if note.Start != p.part {
				continue
			}
			p.triggerNote(ch, pattern.Instrument, note)
		}
	}
}

func (p *Player) triggerNote(ch, instIdx int, note *Note) {
	channel := &p.Song.Channels[ch]
	inst := &channel.Instruments[instIdx]
	transition := &transitions[clampInt(inst.Transition, 0, len(transitions)-1)]
	chord := &chords[clampInt(inst.Chord, 0, len(chords)-1)]

	// slideFrom holds the outgoing tones a slide transition blends out of;
	// captured before any release so triggerOne can read their pitch,
	// expression, and envelope clock.
	var slideFrom []*tone
	var slideWindowTicks float64
	if transition.Slides {
		for _, idx := range p.channelActive[ch] {
			slideFrom = append(slideFrom, p.tones.get(idx))
		}
		noteLengthTicks := float64(note.End-note.Start) * ticksPerPart
		slideWindowTicks = math.Min(float64(transition.SlideTicks), noteLengthTicks/2)
	}

	if !transition.IsSeamless || transition.Slides {
		// Slides replace the outgoing voice with a blended one rather than
		// layering on top of it; release it like any other retrigger, per
		// spec §4.5.
		p.releaseChannelTones(ch)
	}

	newActive := make([]int, 0, len(p.channelActive[ch]))
	if transition.IsSeamless && !transition.Slides {
		newActive = append(newActive, p.channelActive[ch]...)
	}

	slideSourceIdx := 0
	triggerOne := func(pitches []int) {
		idx := p.tones.alloc()
		if idx < 0 {
			return
		}
		t := p.tones.get(idx)
		t.channelIdx = ch
		t.instrumentIdx = instIdx
		t.pitchCount = len(pitches)
		for i, pch := range pitches {
			if i >= maxChordSize {
				break
			}
			t.pitches[i] = pch
		}
		t.noteStartPart = note.Start
		t.noteEndPart = note.End
		t.drumsetPitch = 0
		if len(pitches) > 0 {
			t.drumsetPitch = pitches[0] % drumsetPitchCount
		}
		if inst.Vibrato != 0 && inst.Vibrato < len(vibratos) {
			t.vibrato = newVibratoLFO(&vibratos[inst.Vibrato])
		}
		if slideWindowTicks > 0 && slideSourceIdx < len(slideFrom) {
			from := slideFrom[slideSourceIdx]
			newBase := 0
			if len(pitches) > 0 {
				newBase = pitches[0]
			}
			t.slideFromInterval = float64(from.lastPitch - newBase)
			t.slideFromExpression = from.lastExpression
			t.slideTicksRemaining = slideWindowTicks
			t.slideTotalTicks = slideWindowTicks
			// Continue the outgoing tone's envelope/decay clock instead of
			// restarting it, so decayTime blends across the slide too.
			t.ticksSinceStart = from.ticksSinceStart
			t.secondsSinceStart = from.secondsSinceStart
		}
		slideSourceIdx++
		newActive = append(newActive, idx)
	}

	if chord.SingleTone || inst.Kind == KindDrumset {
		triggerOne(note.Pitches)
	} else {
		for _, pch := range note.Pitches {
			triggerOne([]int{pch})
		}
	}

	for len(newActive) > maximumTonesPerChannel {
		oldest := newActive[0]
		newActive = newActive[1:]
		t := p.tones.get(oldest)
		t.fadeOutFast = true
		t.release()
		key := effectKey{ch, t.instrumentIdx}
		p.released[key] = append(p.released[key], oldest)
	}

	p.channelActive[ch] = newActive
}

// releaseChannelTones moves every active tone on a channel into its
// instrument's released queue, where it continues ringing out under its
// transition's release envelope until fully silent.
func (p *Player) releaseChannelTones(ch int) {
	for _, idx := range p.channelActive[ch] {
		t := p.tones.get(idx)
		t.release()
		key := effectKey{ch, t.instrumentIdx}
		p.released[key] = append(p.released[key], idx)
	}
	p.channelActive[ch] = nil
}

// wrapVibratoPhasesAtBarBoundary re-anchors every active tone's vibrato
// phase to the phase it would have if driven directly by the song's
// absolute elapsed time, rather than the phase accumulated tick-by-tick
// since the tone's own note start. Without this, long-held notes and notes
// that started earlier in the bar drift apart from floating-point
// accumulation error over a long song; re-anchoring at each bar line keeps
// every tone's vibrato locked to the same clock, per spec §4.5.
func (p *Player) wrapVibratoPhasesAtBarBoundary() {
	for ch := range p.channelActive {
		for _, idx := range p.channelActive[ch] {
			t := p.tones.get(idx)
			if t.vibrato == nil {
				continue
			}
			inst := &p.Song.Channels[ch].Instruments[t.instrumentIdx]
			if inst.Vibrato <= 0 || inst.Vibrato >= len(vibratos) {
				continue
			}
			v := &vibratos[inst.Vibrato]
			next := make([]float64, len(v.Periods))
			for i, period := range v.Periods {
				if period <= 0 {
					continue
				}
				phase := math.Mod(p.timeSeconds/period, 1)
				if phase < 0 {
					phase += 1
				}
				next[i] = phase
			}
			t.vibrato.wrapAtBarBoundary(next)
		}
	}
}
