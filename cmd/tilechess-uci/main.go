package main

import (
	"flag"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hailam/tilechess/internal/engine"
	"github.com/hailam/tilechess/internal/uci"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	difficulty = flag.String("difficulty", "medium", "strength used by a bare \"go\": easy, medium, hard")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
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

	eng := engine.NewEngine()
	eng.SetDifficulty(engine.ParseDifficulty(*difficulty))

	protocol := uci.New(eng, os.Stdin, os.Stdout)
	if err := protocol.Run(); err != nil {
		log.Printf("read commands: %v", err)
	}
}
