// chipdump decodes a song file and prints a summary of its structure,
// for inspecting songs without playing them.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	chipsynth "github.com/gochip/chipsynth"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("chipdump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing song filename")
	}

	songFName := os.Args[1]
	songF, err := os.ReadFile(songFName)
	if err != nil {
		log.Fatal(err)
	}

	var song *chipsynth.Song
	switch strings.ToLower(filepath.Ext(songFName)) {
	case ".json":
		song, err = chipsynth.DecodeSongJSON(songF)
	default:
		song, err = chipsynth.DecodeSongURL(string(songF))
	}
	if err != nil {
		log.Fatal(err)
	}

	dump(song)
}

func dump(song *chipsynth.Song) {
	fmt.Printf("tempo=%d beatsPerBar=%d bars=%d loop=[%d,%d)\n",
		song.Tempo, song.BeatsPerBar, song.BarCount, song.LoopStart, song.LoopStart+song.LoopLength)
	fmt.Printf("scale=%d key=%d rhythm=%d\n", song.ScaleIndex, song.Key, song.Rhythm)
	fmt.Printf("channels=%d (pitched=%d, noise=%d)\n",
		len(song.Channels), song.PitchChannelCount(), len(song.Channels)-song.PitchChannelCount())

	for ci, ch := range song.Channels {
		kind := "pitch"
		if ch.IsNoise {
			kind = "noise"
		}
		fmt.Printf("\nchannel %d (%s, octave=%d): %d instruments, %d patterns, %d bars\n",
			ci, kind, ch.OctaveOffset, len(ch.Instruments), len(ch.Patterns), len(ch.Bars))

		for ii, inst := range ch.Instruments {
			fmt.Printf("  instrument %d: kind=%d volume=%d pan=%d effects=%#x\n",
				ii, inst.Kind, inst.Volume, inst.Pan, inst.Effects)
		}

		for pi, pat := range ch.Patterns {
			fmt.Printf("  pattern %d: instrument=%d notes=%d\n", pi, pat.Instrument, len(pat.Notes))
		}

		fmt.Printf("  sequence: %v\n", ch.Bars)
	}
}
