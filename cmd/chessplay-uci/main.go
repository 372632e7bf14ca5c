package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/chessplay-core/chessplay-core/internal/engine"
	"github.com/chessplay-core/chessplay-core/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	ttSnapshot = flag.String("ttsnapshot", "", "directory to load/save a transposition table snapshot")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	coord := engine.NewCoordinator(*hashMB)

	if *ttSnapshot != "" {
		if err := coord.LoadSnapshot(*ttSnapshot); err != nil {
			log.Printf("no usable TT snapshot at %s: %v", *ttSnapshot, err)
		} else {
			log.Printf("loaded TT snapshot from %s", *ttSnapshot)
		}
		defer func() {
			if err := coord.SaveSnapshot(*ttSnapshot); err != nil {
				log.Printf("failed to save TT snapshot: %v", err)
			}
		}()
	}

	protocol := uci.New(coord)
	protocol.Run()
}
