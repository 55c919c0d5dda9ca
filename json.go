package chipsynth

import (
	"encoding/json"
	"fmt"
)

// jsonSong mirrors the BeepBox JSON export shape described in spec §6.
// Unknown fields are ignored by encoding/json by default; missing fields
// take Go zero values, which DecodeSongJSON then maps to the documented
// defaults.
type jsonSong struct {
	Format         string         `json:"format"`
	Version        int            `json:"version"`
	Scale          string         `json:"scale"`
	Key            string         `json:"key"`
	IntroBars      int            `json:"introBars"`
	LoopBars       int            `json:"loopBars"`
	BeatsPerBar    int            `json:"beatsPerBar"`
	TicksPerBeat   int            `json:"ticksPerBeat"`
	BeatsPerMinute int            `json:"beatsPerMinute"`
	Reverb         *int           `json:"reverb,omitempty"`
	Channels       []jsonChannel  `json:"channels"`
}

type jsonChannel struct {
	Type            string           `json:"type"`
	OctaveScrollBar int              `json:"octaveScrollBar"`
	Instruments     []jsonInstrument `json:"instruments"`
	Patterns        []jsonPattern    `json:"patterns"`
	Sequence        []int            `json:"sequence"`
}

type jsonInstrument struct {
	Type     string `json:"type"`
	Volume   int    `json:"volume"`
	Chord    string `json:"chord"`
	Pan      int    `json:"pan"`
}

type jsonPattern struct {
	Instrument int        `json:"instrument"` // 1-based
	Notes      []jsonNote `json:"notes"`
}

type jsonNote struct {
	Pitches []int       `json:"pitches"`
	Points  []jsonPoint `json:"points"`
}

type jsonPoint struct {
	Tick      int `json:"tick"`
	PitchBend int `json:"pitchBend"`
	Volume    int `json:"volume"` // 0..100
}

// scaleNameToIndex and keyNameToIndex would normally carry the full named
// table; legacyScaleAliases covers the historical renames spec §6 calls
// out (e.g. "romani :)" -> "dbl harmonic :)").
var legacyScaleAliases = map[string]string{
	"romani :)": "dbl harmonic :)",
	"romani :(": "dbl harmonic :(",
}

var legacyChordAliases = map[string]string{
	"together": "simultaneous",
}

// EncodeSongJSON renders song as a BeepBox-format JSON document.
func EncodeSongJSON(song *Song) ([]byte, error) {
	js := jsonSong{
		Format:         "BeepBox",
		Version:        currentCodecVersion,
		Scale:          fmt.Sprintf("scale %d", song.ScaleIndex),
		Key:            fmt.Sprintf("key %d", song.Key),
		LoopBars:       song.LoopLength,
		IntroBars:      song.LoopStart,
		BeatsPerBar:    song.BeatsPerBar,
		TicksPerBeat:   ticksPerPart,
		BeatsPerMinute: song.Tempo,
	}

	for _, ch := range song.Channels {
		jch := jsonChannel{
			Type:            "pitch",
			OctaveScrollBar: ch.OctaveOffset,
			Sequence:        append([]int(nil), ch.Bars...),
		}
		if ch.IsNoise {
			jch.Type = "drum"
		}
		for _, inst := range ch.Instruments {
			jch.Instruments = append(jch.Instruments, jsonInstrument{
				Type:   instrumentKindName(inst.Kind),
				Volume: inst.Volume,
				Chord:  chordName(inst.Chord),
				Pan:    inst.Pan,
			})
		}
		for _, pat := range ch.Patterns {
			jpat := jsonPattern{Instrument: pat.Instrument + 1}
			for _, note := range pat.Notes {
				jnote := jsonNote{Pitches: append([]int(nil), note.Pitches...)}
				for _, pin := range note.Pins {
					jnote.Points = append(jnote.Points, jsonPoint{
						Tick:      pin.Time,
						PitchBend: pin.Interval,
						Volume:    expressionToVolume(pin.Expression),
					})
				}
				jpat.Notes = append(jpat.Notes, jnote)
			}
			jch.Patterns = append(jch.Patterns, jpat)
		}
		js.Channels = append(js.Channels, jch)
	}

	return json.MarshalIndent(js, "", "  ")
}

// DecodeSongJSON parses a BeepBox-format JSON document into a Song,
// applying legacy scale/chord name aliases and mapping 0..100 volume
// points to internal 0..3 expression.
func DecodeSongJSON(data []byte) (*Song, error) {
	var js jsonSong
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("chipsynth: invalid song JSON: %w", err)
	}

	song := NewDefaultSong()
	song.Channels = nil

	if js.BeatsPerBar > 0 {
		song.BeatsPerBar = js.BeatsPerBar
	}
	if js.BeatsPerMinute > 0 {
		song.Tempo = js.BeatsPerMinute
	}
	song.LoopStart = js.IntroBars
	if js.LoopBars > 0 {
		song.LoopLength = js.LoopBars
	}
	song.ScaleIndex = parseScaleName(js.Scale)
	song.Key = parseKeyName(js.Key)

	for _, jch := range js.Channels {
		ch := Channel{IsNoise: jch.Type == "drum", OctaveOffset: jch.OctaveScrollBar}
		for _, ji := range jch.Instruments {
			inst := NewDefaultInstrument(ch.IsNoise)
			inst.Kind = instrumentKindFromName(ji.Type)
			inst.Volume = clampInt(ji.Volume, 0, volumeRange-1)
			inst.Chord = chordIndexFromName(ji.Chord)
			inst.Pan = clampInt(ji.Pan, 0, panRange-1)
			ch.Instruments = append(ch.Instruments, inst)
		}
		if len(ch.Instruments) == 0 {
			ch.Instruments = []Instrument{NewDefaultInstrument(ch.IsNoise)}
		}
		for _, jpat := range jch.Patterns {
			pat := Pattern{Instrument: jpat.Instrument - 1}
			if pat.Instrument < 0 {
				pat.Instrument = 0
			}
			for _, jn := range jpat.Notes {
				note := Note{Pitches: append([]int(nil), jn.Pitches...)}
				for _, jp := range jn.Points {
					note.Pins = append(note.Pins, Pin{
						Time:       jp.Tick,
						Interval:   jp.PitchBend,
						Expression: volumeToExpression(jp.Volume),
					})
				}
				if len(note.Pins) > 0 {
					note.Start = 0
					note.End = note.Pins[len(note.Pins)-1].Time
				}
				pat.Notes = append(pat.Notes, note)
			}
			ch.Patterns = append(ch.Patterns, pat)
		}
		ch.Bars = append([]int(nil), jch.Sequence...)
		song.Channels = append(song.Channels, ch)
	}

	if len(song.Channels) == 0 {
		return NewDefaultSong(), nil
	}

	return song, nil
}

// expressionToVolume maps internal 0..3 expression to the JSON form's
// 0..100 volume, per spec §6 ("volume*3/100 rounded" inverted).
func expressionToVolume(expr int) int {
	return int(float64(expr) * 100.0 / 3.0)
}

// volumeToExpression maps a 0..100 JSON volume to internal 0..3
// expression, rounded, per spec §6.
func volumeToExpression(volume int) int {
	return clampInt(int(float64(volume)*3.0/100.0+0.5), 0, 3)
}

func instrumentKindName(k InstrumentKind) string {
	names := map[InstrumentKind]string{
		KindChip: "chip", KindFM: "FM", KindNoise: "noise",
		KindSpectrum: "spectrum", KindDrumset: "drumset",
		KindHarmonics: "harmonics", KindPWM: "pulse width", KindGuitar: "guitar",
	}
	if n, ok := names[k]; ok {
		return n
	}
	return "chip"
}

func instrumentKindFromName(name string) InstrumentKind {
	switch name {
	case "FM":
		return KindFM
	case "noise":
		return KindNoise
	case "spectrum":
		return KindSpectrum
	case "drumset":
		return KindDrumset
	case "harmonics":
		return KindHarmonics
	case "pulse width":
		return KindPWM
	case "guitar":
		return KindGuitar
	default:
		return KindChip
	}
}

func chordName(idx int) string {
	if idx >= 0 && idx < len(chords) {
		return chords[idx].Name
	}
	return chords[0].Name
}

func chordIndexFromName(name string) int {
	if alias, ok := legacyChordAliases[name]; ok {
		name = alias
	}
	for i, c := range chords {
		if c.Name == name {
			return i
		}
	}
	return 0
}

func parseScaleName(name string) int {
	if alias, ok := legacyScaleAliases[name]; ok {
		name = alias
	}
	var idx int
	if _, err := fmt.Sscanf(name, "scale %d", &idx); err == nil {
		return idx
	}
	return 0
}

func parseKeyName(name string) int {
	var idx int
	if _, err := fmt.Sscanf(name, "key %d", &idx); err == nil {
		return idx
	}
	return 0
}
