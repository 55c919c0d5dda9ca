package chipsynth

import "testing"

func TestGenerateAudioSilentForEmptySong(t *testing.T) {
	song := NewDefaultSong() // no bars assigned to any pattern
	p := NewPlayer(song, 44100, 1)
	p.Start()

	left := make([]float32, 2048)
	right := make([]float32, 2048)
	n := p.GenerateAudio(left, right)
	if n == 0 {
		t.Fatal("GenerateAudio returned 0 frames for a playing, empty song")
	}
	for i := 0; i < n; i++ {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("frame %d = (%v, %v), want (0, 0) (empty song should render silence)", i, left[i], right[i])
		}
	}
}

func TestGenerateAudioRendersChipNote(t *testing.T) {
	song := NewDefaultSong()
	ch := &song.Channels[0] // default chip-square pitch channel
	ch.Patterns[0].Instrument = 0
	ch.Patterns[0].Notes = []Note{
		{
			Start:   0,
			End:     4,
			Pitches: []int{60},
			Pins: []Pin{
				{Time: 0, Interval: 0, Expression: 3},
				{Time: 4, Interval: 0, Expression: 3},
			},
		},
	}
	ch.Bars[0] = 1

	p := NewPlayer(song, 44100, 1)
	p.Start()

	left := make([]float32, 4096)
	right := make([]float32, 4096)
	var sawNonZero bool
	for i := 0; i < 8; i++ {
		n := p.GenerateAudio(left, right)
		for j := 0; j < n; j++ {
			if left[j] != 0 || right[j] != 0 {
				sawNonZero = true
			}
		}
		if sawNonZero {
			break
		}
	}
	if !sawNonZero {
		t.Fatal("expected nonzero samples while a chip note is sounding")
	}
}

func TestSeekToClampsAndMovesBar(t *testing.T) {
	song := NewDefaultSong()
	p := NewPlayer(song, 44100, 1)

	p.SeekTo(3)
	if pos := p.Position(); pos.Bar != 3 {
		t.Errorf("Position().Bar = %d, want 3", pos.Bar)
	}
}

func TestStartStopTogglesIsPlaying(t *testing.T) {
	song := NewDefaultSong()
	p := NewPlayer(song, 44100, 1)

	p.Stop()
	if p.IsPlaying() {
		t.Error("expected IsPlaying() == false after Stop()")
	}
	p.Start()
	if !p.IsPlaying() {
		t.Error("expected IsPlaying() == true after Start()")
	}
}

func TestMutedChannelProducesSilence(t *testing.T) {
	song := NewDefaultSong()
	ch := &song.Channels[0]
	ch.Patterns[0].Instrument = 0
	ch.Patterns[0].Notes = []Note{
		{
			Start:   0,
			End:     4,
			Pitches: []int{60},
			Pins: []Pin{
				{Time: 0, Interval: 0, Expression: 3},
				{Time: 4, Interval: 0, Expression: 3},
			},
		},
	}
	ch.Bars[0] = 1

	p := NewPlayer(song, 44100, 1)
	p.Start()
	p.Mute = 1 // mute channel 0, the only channel with a note

	left := make([]float32, 4096)
	right := make([]float32, 4096)
	for i := 0; i < 8; i++ {
		n := p.GenerateAudio(left, right)
		for j := 0; j < n; j++ {
			if left[j] != 0 || right[j] != 0 {
				t.Fatalf("frame %d = (%v, %v), want (0, 0) (channel 0 is muted)", j, left[j], right[j])
			}
		}
	}
}

func TestNewPlayerDoesNotAliasInputSong(t *testing.T) {
	song := NewDefaultSong()
	p := NewPlayer(song, 44100, 1)

	p.Song.Tempo = 999
	if song.Tempo == 999 {
		t.Error("NewPlayer should deep-copy the song, not alias the caller's copy")
	}
}
