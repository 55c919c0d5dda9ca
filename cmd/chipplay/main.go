// chipplay plays a chipsynth song live through the default audio device,
// with a small channel-status UI.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	chipsynth "github.com/gochip/chipsynth"
	"github.com/gochip/chipsynth/internal/config"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagBoost    = flag.Int("boost", 1, "volume boost, an integer between 1 and 4")
	flagStartBar = flag.Int("start", 0, "starting bar, clamped to song length")
	flagSeed     = flag.String("seed", "", "RNG seed for deterministic rendering")
	flagNoUI     = flag.Bool("noui", false, "disable the channel status UI")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chipplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing song filename")
	}

	songF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	seed, err := config.ResolveSeed(*flagSeed)
	if err != nil {
		log.Fatal(err)
	}

	song, err := loadSong(flag.Arg(0), songF)
	if err != nil {
		log.Fatal(err)
	}

	player := chipsynth.NewPlayer(song, float64(*flagHz), seed)
	player.SeekTo(*flagStartBar)
	player.Start()

	ap := NewAudioPlayer(player, *flagNoUI)
	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}

func loadSong(name string, data []byte) (*chipsynth.Song, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return chipsynth.DecodeSongJSON(data)
	default:
		return chipsynth.DecodeSongURL(string(data))
	}
}
