// Command perft counts move-generation trees for a position and can
// compare them against an independent generator.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/perft"
)

func main() {
	fen := flag.String("fen", board.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	verify := flag.Bool("verify", false, "Compare the root divide against the reference generator")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}

	b, err := board.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	if *divide {
		fmt.Print(perft.FormatDivide(perft.Divide(b, *depth)))
		return
	}

	if *verify {
		mismatches := perft.Verify(b, *depth)
		if len(mismatches) == 0 {
			fmt.Printf("depth %d: divide matches reference\n", *depth)
			return
		}
		for _, m := range mismatches {
			fmt.Println(m)
		}
		os.Exit(1)
	}

	start := time.Now()
	stats := perft.Run(b, *depth)
	elapsed := time.Since(start)

	fmt.Printf("depth=%d %s time=%s", *depth, stats, elapsed.Round(time.Millisecond))
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Printf(" nps=%.0f", float64(stats.Nodes)/secs)
	}
	fmt.Println()
}
