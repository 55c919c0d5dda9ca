package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	chipsynth "github.com/gochip/chipsynth"
	"github.com/gochip/chipsynth/internal/config"
)

var (
	white   = color.New(color.FgWhite).SprintfFunc()
	cyan    = color.New(color.FgCyan).SprintfFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
	magenta = color.New(color.FgMagenta).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"

	audioBufferSize = 756 / 2
)

// AudioPlayer drives PortAudio playback of a chipsynth.Player and renders a
// per-channel status line that updates whenever the bar/part clock moves.
type AudioPlayer struct {
	player *chipsynth.Player
	stream *portaudio.Stream

	uiWriter        io.Writer
	selectedChannel int
	soloChannel     int
	lastPos         chipsynth.PlayerPosition

	cancelFn       func()
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates an AudioPlayer for player. If noUI is set, status
// output is discarded rather than written to stdout.
func NewAudioPlayer(player *chipsynth.Player, noUI bool) *AudioPlayer {
	var uiw io.Writer = os.Stdout
	if noUI {
		uiw = io.Discard
	}

	return &AudioPlayer{
		player:         player,
		uiWriter:       uiw,
		soloChannel:    -1,
		lastPos:        chipsynth.PlayerPosition{Bar: -1},
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run starts audio playback and blocks rendering the UI until the player
// stops or the process receives SIGINT.
func (ap *AudioPlayer) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, float64(*flagHz), audioBufferSize, ap.streamCallback)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	ap.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Fprint(ap.uiWriter, hideCursor)
	for ap.player.IsPlaying() {
		pos := ap.player.Position()
		if pos.Bar != ap.lastPos.Bar || pos.Part != ap.lastPos.Part {
			ap.renderUI(pos)
			ap.lastPos = pos
		}
	}
	fmt.Fprint(ap.uiWriter, showCursor)

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

// streamCallback receives one buffer per output channel (non-interleaved),
// per gordonklaus/portaudio's multichannel convention: out[0] is left,
// out[1] is right.
func (ap *AudioPlayer) streamCallback(out [][]float32) {
	if ap.player.IsPlaying() {
		ap.player.GenerateAudio(out[0], out[1])
	} else {
		clear(out[0])
		clear(out[1])
	}
	config.ApplyBoost(out[0], *flagBoost)
	config.ApplyBoost(out[1], *flagBoost)
}

func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		<-sigch
		ap.Stop()
	}()
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	nch := len(ap.player.Song.Channels)
	switch key.Code {
	case keys.Left:
		if ap.selectedChannel > 0 {
			ap.selectedChannel--
		}
	case keys.Right:
		if ap.selectedChannel < nch-1 {
			ap.selectedChannel++
		}
	case keys.Space:
		if ap.player.IsPlaying() {
			ap.player.Stop()
		} else {
			ap.player.Start()
		}
	case keys.RuneKey:
		if len(key.Runes) == 0 {
			return
		}
		switch key.Runes[0] {
		case 'q':
			ap.player.Mute ^= 1 << uint(ap.selectedChannel)
		case 's':
			if ap.soloChannel != ap.selectedChannel {
				ap.soloChannel = ap.selectedChannel
				ap.player.Mute = ^uint(0) ^ (1 << uint(ap.selectedChannel))
			} else {
				ap.soloChannel = -1
				ap.player.Mute = 0
			}
		}
	}
}

// Stop performs a clean shutdown of the audio stream and keyboard listener.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.player.Stop()
		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}
		fmt.Fprint(ap.uiWriter, showCursor)
	})
}

func (ap *AudioPlayer) renderUI(pos chipsynth.PlayerPosition) {
	fmt.Fprintf(ap.uiWriter, "%s %3d %s %2d %s %d\n", cyan("bar"), pos.Bar+1, cyan("part"), pos.Part, cyan("tick"), pos.Tick)

	for ci := range ap.player.Song.Channels {
		nd := ap.player.NoteDataFor(ci)
		marker := " "
		if ci == ap.selectedChannel {
			marker = ">"
		}
		if !nd.Playing {
			fmt.Fprintf(ap.uiWriter, "%s ch%-2d %s\n", marker, ci+1, white("--"))
			continue
		}
		fmt.Fprintf(ap.uiWriter, "%s ch%-2d %s inst=%s\n", marker, ci+1, green("%v", nd.Pitches), magenta("%d", nd.InstrumentIdx))
	}

	fmt.Fprintf(ap.uiWriter, escape+"%dF", len(ap.player.Song.Channels)+1)
}
