// Package uci speaks the Universal Chess Interface protocol over a pair of
// text streams.
package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/engine"
	"github.com/hailam/tilechess/internal/perft"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	position *board.Board

	in  io.Reader
	out io.Writer
	mu  sync.Mutex // guards out
	log *log.Logger

	// Fixed search depth set through "setoption name Depth"; 0 means the
	// engine difficulty decides.
	depth int

	// Search state
	searchDone chan struct{}
	cancel     context.CancelFunc
	infinite   bool
}

// New creates a UCI handler reading commands from in and answering on out.
func New(eng *engine.Engine, in io.Reader, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewBoard(),
		in:       in,
		out:      out,
		log:      log.New(os.Stderr, "uci: ", log.LstdFlags),
	}
}

// SetLogger replaces the diagnostics logger.
func (u *UCI) SetLogger(l *log.Logger) {
	u.log = l
}

// Run reads commands until "quit" or end of input. On "quit" a running
// search is stopped; at end of input it is allowed to finish unless it is
// infinite.
func (u *UCI) Run() error {
	scanner := bufio.NewScanner(u.in)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			u.println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleStop()
			return nil
		case "setoption":
			u.handleSetOption(args)
		// Debug commands
		case "d":
			u.handleDisplay()
		case "perft":
			u.handlePerft(args)
		default:
			u.printf("info string unknown command: %s\n", cmd)
		}
	}
	u.waitSearch()
	return scanner.Err()
}

func (u *UCI) printf(format string, a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, format, a...)
}

func (u *UCI) println(s string) {
	u.printf("%s\n", s)
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	u.println("id name TileChess")
	u.println("id author TileChess Team")
	u.println("")
	u.println("option name Depth type spin default 0 min 0 max 64")
	u.println("option name Difficulty type combo default " + u.engine.Difficulty().String() +
		" var casual var easy var medium var hard")
	u.println("uciok")
}

// handleNewGame resets the position.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.position = board.NewBoard()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}
	u.handleStop()

	// Find "moves" keyword
	specEnd, moveStart := len(args), len(args)
	for i, arg := range args {
		if arg == "moves" {
			specEnd, moveStart = i, i+1
			break
		}
	}

	var pos *board.Board
	switch args[0] {
	case "startpos":
		pos = board.NewBoard()
	case "fen":
		fen := strings.Join(args[1:specEnd], " ")
		b, err := board.ParseFEN(fen)
		if err != nil {
			u.printf("info string invalid fen: %v\n", err)
			return
		}
		pos = b
	default:
		u.printf("info string invalid position: %s\n", args[0])
		return
	}

	for _, s := range args[moveStart:] {
		m, err := pos.ParseMove(s)
		if err != nil {
			u.printf("info string invalid move: %v\n", err)
			return
		}
		if err := pos.ApplyFinalMove(m); err != nil {
			u.printf("info string invalid move: %v\n", err)
			return
		}
	}
	u.position = pos
}

// parseGoOptions parses "go" command arguments into search limits. found
// reports whether any limit was given.
func parseGoOptions(args []string) (limits engine.Limits, found bool) {
	ms := func(s string) time.Duration {
		n, _ := strconv.Atoi(s)
		return time.Duration(n) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		next := ""
		if i+1 < len(args) {
			next = args[i+1]
		}
		switch args[i] {
		case "depth":
			limits.Depth, _ = strconv.Atoi(next)
			i++
		case "nodes":
			limits.Nodes, _ = strconv.ParseUint(next, 10, 64)
			i++
		case "movetime":
			limits.MoveTime = ms(next)
			i++
		case "wtime":
			limits.Time[board.White] = ms(next)
			i++
		case "btime":
			limits.Time[board.Black] = ms(next)
			i++
		case "winc":
			limits.Inc[board.White] = ms(next)
			i++
		case "binc":
			limits.Inc[board.Black] = ms(next)
			i++
		case "movestogo":
			limits.MovesToGo, _ = strconv.Atoi(next)
			i++
		case "infinite":
			limits.Infinite = true
		default:
			continue
		}
		found = true
	}
	return limits, found
}

// handleGo starts a search with the given parameters. The answer is
// printed from a background goroutine so that "stop" can interrupt it.
func (u *UCI) handleGo(args []string) {
	u.handleStop()

	limits, found := parseGoOptions(args)
	if u.depth > 0 && limits.Depth == 0 && !limits.Infinite {
		limits.Depth = u.depth
	}
	// A bare "go" plays at the configured difficulty.
	useDifficulty := !found && u.depth == 0

	u.engine.OnInfo = u.sendInfo

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	u.infinite = limits.Infinite
	u.searchDone = make(chan struct{})

	// The engine works on its own copy; u.position stays untouched.
	pos := u.position.Clone()
	done := u.searchDone

	go func() {
		defer close(done)

		var best *board.Move
		if useDifficulty {
			best = u.engine.Best(ctx, pos)
		} else {
			best = u.engine.Search(ctx, pos, pos.SideToMove, limits)
		}

		// In infinite mode bestmove waits for "stop".
		if limits.Infinite {
			<-ctx.Done()
		}
		if best == nil {
			u.println("bestmove 0000")
			return
		}
		u.printf("bestmove %s\n", best)
	}()
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	// Score
	switch {
	case info.Score > engine.MateScore-engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate %d", (engine.MateScore-info.Score+1)/2))
	case info.Score < -engine.MateScore+engine.MaxPly:
		parts = append(parts, fmt.Sprintf("score mate -%d", (engine.MateScore+info.Score+1)/2))
	default:
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.Best != nil {
		parts = append(parts, "pv "+info.Best.String())
	}

	u.printf("info %s\n", strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.searchDone == nil {
		return
	}
	u.cancel()
	u.engine.Stop()
	<-u.searchDone
	u.searchDone = nil
	u.cancel = nil
}

// waitSearch lets a bounded search run to completion.
func (u *UCI) waitSearch() {
	if u.searchDone == nil {
		return
	}
	if u.infinite {
		u.handleStop()
		return
	}
	<-u.searchDone
	u.cancel()
	u.searchDone = nil
	u.cancel = nil
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	// Format: setoption name <name> value <value>
	var name, value []string
	var target *[]string

	for _, arg := range args {
		switch arg {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			if target != nil {
				*target = append(*target, arg)
			}
		}
	}

	val := strings.Join(value, " ")
	switch strings.ToLower(strings.Join(name, " ")) {
	case "depth":
		d, err := strconv.Atoi(val)
		if err != nil || d < 0 {
			u.printf("info string invalid depth: %q\n", val)
			return
		}
		u.depth = d
	case "difficulty":
		u.engine.SetDifficulty(engine.ParseDifficulty(strings.ToLower(val)))
	default:
		u.log.Printf("ignoring option %q", strings.Join(name, " "))
	}
}

// handleDisplay prints the board and its FEN.
func (u *UCI) handleDisplay() {
	u.printf("%s\nFen: %s\n", u.position, u.position.FEN())
}

// handlePerft runs a perft divide on the current position.
func (u *UCI) handlePerft(args []string) {
	depth := 1
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 1 {
			u.printf("info string invalid depth: %q\n", args[0])
			return
		}
		depth = d
	}

	start := time.Now()
	divide := perft.Divide(u.position.Clone(), depth)
	elapsed := time.Since(start)

	u.printf("%s", perft.FormatDivide(divide))
	u.log.Printf("perft %d took %v", depth, elapsed)
}
