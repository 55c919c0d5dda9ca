// chipwav renders a chipsynth song to a WAV file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	chipsynth "github.com/gochip/chipsynth"
	"github.com/gochip/chipsynth/internal/config"
	"github.com/gochip/chipsynth/wav"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("chipwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	seedFlag := flag.String("seed", "", "RNG seed for deterministic rendering")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing song filename")
	}
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	seed, err := config.ResolveSeed(*seedFlag)
	if err != nil {
		log.Fatal(err)
	}

	songF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	song, err := loadSong(flag.Arg(0), songF)
	if err != nil {
		log.Fatal(err)
	}

	player := chipsynth.NewPlayer(song, outputHz, seed)
	player.Start()

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT)

	playing := true
	go func() {
		<-c
		playing = false
	}()

	left := make([]float32, 2048)
	right := make([]float32, 2048)
	var lastBar int = -1
	for playing && player.IsPlaying() {
		generated := player.GenerateAudio(left, right)
		if err = wavW.WriteFrame([][]float32{left[:generated], right[:generated]}); err != nil {
			log.Fatal(err)
		}

		pos := player.Position()
		if pos.Bar != lastBar {
			fmt.Printf("bar %d\n", pos.Bar+1)
			lastBar = pos.Bar
		}
	}
	player.Stop()
}

// loadSong decodes a song from its URL-form tag stream (.txt/.url) or its
// BeepBox JSON form (.json), dispatched by file extension.
func loadSong(name string, data []byte) (*chipsynth.Song, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return chipsynth.DecodeSongJSON(data)
	default:
		return chipsynth.DecodeSongURL(string(data))
	}
}
