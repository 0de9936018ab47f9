// Package game runs a chess session: the board, a countdown clock, move
// history and an optional engine opponent.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"github.com/hailam/tilechess/internal/board"
	"github.com/hailam/tilechess/internal/engine"
)

var log = slog.Default().With("package", "game")

var (
	ErrGameOver    = errors.New("game is over")
	ErrTimeExpired = errors.New("time expired")
	ErrNotAITurn   = errors.New("not the engine's turn")
)

// Mode selects who plays the two sides.
type Mode int

const (
	HumanVsAI Mode = iota
	HumanVsHuman
)

func (m Mode) String() string {
	if m == HumanVsHuman {
		return "human"
	}
	return "ai"
}

// ParseMode maps "human" to HumanVsHuman and anything else to HumanVsAI.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "human") {
		return HumanVsHuman
	}
	return HumanVsAI
}

// Options configures a new Game.
type Options struct {
	FEN         string // empty means the starting position
	Mode        Mode
	AIColor     board.Color
	TimeControl time.Duration // per side; 0 disables the clock
	Difficulty  engine.Difficulty
	Depth       int // fixed search depth, overrides Difficulty when > 0
	Now         func() time.Time
}

// DefaultOptions returns a human-vs-engine game with the engine on Black
// and ten minutes each.
func DefaultOptions() Options {
	return Options{
		Mode:        HumanVsAI,
		AIColor:     board.Black,
		TimeControl: DefaultTimeControl,
		Difficulty:  engine.Medium,
	}
}

// Played describes a move accepted by the game.
type Played struct {
	UCI     string        `json:"uci"`
	SAN     string        `json:"san"`
	Outcome board.Outcome `json:"-"`
}

// Game is safe for concurrent use.
type Game struct {
	mu sync.Mutex

	opts     Options
	board    *board.Board
	startFEN string
	moves    []string // UCI
	sans     []string
	clock    *Clock
	engine   *engine.Engine
	timeout  *board.Outcome
	started  time.Time
}

// New creates a game from opts.
func New(opts Options) (*Game, error) {
	fen := opts.FEN
	if fen == "" {
		fen = board.StartFEN
	}
	b, err := board.LoadPosition(fen)
	if err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("new game: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	eng := engine.NewEngine()
	eng.SetDifficulty(opts.Difficulty)

	g := &Game{
		opts:     opts,
		board:    b,
		startFEN: board.ExportPosition(b),
		clock:    NewClock(opts.TimeControl, opts.Now),
		engine:   eng,
		started:  opts.Now(),
	}
	if g.clock.Enabled() && !b.IsGameOver() {
		g.clock.Start(b.SideToMove)
	}
	log.Info("game created", "fen", g.startFEN, "mode", opts.Mode, "clock", opts.TimeControl)
	return g, nil
}

// Restore rebuilds a game by replaying UCI moves from startFEN.
func Restore(opts Options, startFEN string, moves []string) (*Game, error) {
	opts.FEN = startFEN
	g, err := New(opts)
	if err != nil {
		return nil, err
	}
	for i, mv := range moves {
		if _, err := g.play(mv); err != nil {
			return nil, fmt.Errorf("restore move %d: %w", i+1, err)
		}
	}
	return g, nil
}

// Play applies a move given in UCI notation for the side to move.
func (g *Game) Play(uci string) (Played, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.play(uci)
}

func (g *Game) play(uci string) (Played, error) {
	if g.outcome().IsOver() {
		return Played{}, ErrGameOver
	}
	if g.checkFlag() {
		return Played{}, ErrTimeExpired
	}

	b := g.board
	m, err := b.ParseMove(uci)
	if err != nil {
		return Played{}, err
	}
	san := m.SAN(b)
	if err := b.ApplyFinalMove(m); err != nil {
		return Played{}, err
	}

	g.moves = append(g.moves, m.String())
	g.sans = append(g.sans, san)

	out := g.outcome()
	if out.IsOver() {
		g.clock.Stop()
		log.Info("game over", "outcome", out.String(), "moves", len(g.moves))
	} else if g.clock.Enabled() {
		g.clock.Start(b.SideToMove)
	}
	return Played{UCI: m.String(), SAN: san, Outcome: out}, nil
}

// checkFlag records a timeout if the side to move has no time left.
func (g *Game) checkFlag() bool {
	side := g.board.SideToMove
	if !g.clock.Expired(side) {
		return false
	}
	g.clock.Stop()
	g.timeout = &board.Outcome{Result: board.Timeout, Winner: side.Other()}
	log.Info("flag fell", "side", side.String())
	return true
}

// PlayAI lets the engine move for the side to move. The engine always
// promotes to a queen.
func (g *Game) PlayAI(ctx context.Context) (Played, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.opts.Mode == HumanVsAI && g.board.SideToMove != g.opts.AIColor {
		return Played{}, ErrNotAITurn
	}
	if g.outcome().IsOver() {
		return Played{}, ErrGameOver
	}

	start := time.Now()
	var m *board.Move
	if g.opts.Depth > 0 {
		m = g.engine.Search(ctx, g.board, g.board.SideToMove, engine.Limits{Depth: g.opts.Depth})
	} else {
		m = g.engine.Best(ctx, g.board)
	}
	if m == nil {
		return Played{}, ErrGameOver
	}
	uci := m.String()
	if m.IsPromotion() {
		uci = uci[:4] + "q"
	}
	log.Info("engine move", "move", uci, "nodes", g.engine.Nodes(), "elapsed", time.Since(start))
	return g.play(uci)
}

// IsAITurn reports whether the engine should move next.
func (g *Game) IsAITurn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opts.Mode == HumanVsAI && g.board.SideToMove == g.opts.AIColor && !g.outcome().IsOver()
}

// LegalMoves lists the side to move's legal moves in UCI notation, sorted.
// A non-empty from restricts the list to the piece on that square.
func (g *Game) LegalMoves(from string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome().IsOver() {
		return nil, nil
	}

	b := g.board
	var moves []*board.Move
	if from == "" {
		moves = b.LegalMoves(b.SideToMove)
	} else {
		sq, err := board.ParseSquare(from)
		if err != nil {
			return nil, err
		}
		p := b.At(sq)
		if p == nil || p.Color != b.SideToMove {
			return nil, nil
		}
		moves = b.LegalMovesFor(p)
	}

	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	slices.Sort(out)
	return out, nil
}

// Outcome returns the game result, including a loss on time.
func (g *Game) Outcome() board.Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.outcome().IsOver() {
		g.checkFlag()
	}
	return g.outcome()
}

func (g *Game) outcome() board.Outcome {
	if g.timeout != nil {
		return *g.timeout
	}
	return g.board.Status()
}

// FEN returns the current position.
func (g *Game) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return board.ExportPosition(g.board)
}

// StartFEN returns the position the game began from.
func (g *Game) StartFEN() string {
	return g.startFEN
}

// Moves returns the UCI move history.
func (g *Game) Moves() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.moves...)
}

// Options returns the options the game was created with.
func (g *Game) Options() Options {
	return g.opts
}

// SetRemaining overrides both clocks.
func (g *Game) SetRemaining(white, black time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clock.Set(white, black)
}

// PGN exports the game with its current result.
func (g *Game) PGN() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return exportPGN(g.startFEN, g.sans, g.outcome(), g.started)
}

// State is a JSON-friendly snapshot of a game.
type State struct {
	FEN         string   `json:"fen"`
	SideToMove  string   `json:"sideToMove"`
	Moves       []string `json:"moves"`
	SAN         []string `json:"san"`
	Status      string   `json:"status"`
	Result      string   `json:"result"`
	InCheck     bool     `json:"inCheck"`
	HalfMoves   float64  `json:"halfMoveClock"`
	WhiteTimeMS int64    `json:"whiteTimeMs"`
	BlackTimeMS int64    `json:"blackTimeMs"`
	Captured    string   `json:"captured"`
	Material    int      `json:"material"` // White's material lead from captures
	Mode        string   `json:"mode"`
	AIColor     string   `json:"aiColor,omitempty"`
}

// Snapshot captures the game state.
func (g *Game) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.outcome().IsOver() {
		g.checkFlag()
	}
	b := g.board
	out := g.outcome()
	s := State{
		FEN:         board.ExportPosition(b),
		SideToMove:  b.SideToMove.String(),
		Moves:       append([]string{}, g.moves...),
		SAN:         append([]string{}, g.sans...),
		Status:      out.String(),
		Result:      out.PGNResult(),
		InCheck:     b.InCheck(b.SideToMove),
		HalfMoves:   b.HalfMoveClock(),
		WhiteTimeMS: g.clock.Remaining(board.White).Milliseconds(),
		BlackTimeMS: g.clock.Remaining(board.Black).Milliseconds(),
		Captured:    b.Captured.String(),
		Material:    b.Captured.Material(board.Black) - b.Captured.Material(board.White),
		Mode:        g.opts.Mode.String(),
	}
	if g.opts.Mode == HumanVsAI {
		s.AIColor = g.opts.AIColor.String()
	}
	return s
}
