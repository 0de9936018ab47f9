package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/hailam/tilechess/internal/board"
)

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth int
	Score int
	Nodes uint64
	Time  time.Duration
	Best  *board.Move
}

// Limits specifies constraints on the search. Zero values mean no limit.
type Limits struct {
	Depth     int           // Maximum depth
	Nodes     uint64        // Maximum nodes
	MoveTime  time.Duration // Time for this move
	Time      [2]time.Duration
	Inc       [2]time.Duration
	MovesToGo int
	Infinite  bool // Search until stopped
}

// Difficulty represents the AI difficulty level.
type Difficulty int

// Levels run weakest to strongest; Easy is the zero value.
const (
	Casual Difficulty = iota - 1 // random legal move, no search
	Easy                         // 2 ply
	Medium                       // 3 ply
	Hard                         // 4 ply, 5s
)

// DifficultySettings maps the searching difficulties to search limits.
var DifficultySettings = map[Difficulty]Limits{
	Easy:   {Depth: 2},
	Medium: {Depth: 3},
	Hard:   {Depth: 4, MoveTime: 5 * time.Second},
}

// ParseDifficulty maps a name to a Difficulty, defaulting to Medium.
func ParseDifficulty(s string) Difficulty {
	switch s {
	case "easy":
		return Easy
	case "hard":
		return Hard
	case "casual":
		return Casual
	}
	return Medium
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	case Casual:
		return "casual"
	}
	return "medium"
}

// Engine drives the searcher with iterative deepening under node, time and
// context limits.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty
	rng        *rand.Rand

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine at Medium difficulty.
func NewEngine() *Engine {
	return &Engine{
		searcher:   NewSearcher(),
		difficulty: Medium,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// SetSeed makes the Casual policy deterministic.
func (e *Engine) SetSeed(seed int64) {
	e.rng = rand.New(rand.NewSource(seed))
}

// Best finds a move for the side to move using the difficulty settings.
// Casual skips the search and plays a random legal move.
func (e *Engine) Best(ctx context.Context, b *board.Board) *board.Move {
	if e.difficulty == Casual {
		return RandomMove(b, b.SideToMove, e.rng)
	}
	return e.Search(ctx, b, b.SideToMove, DifficultySettings[e.difficulty])
}

// Search runs iterative deepening for c on b and returns the best move of
// the last completed iteration. If the first iteration is cut short, the
// best move found so far is returned, and failing that the first move in
// search order. b is restored before Search returns. It returns nil when c
// has no legal moves.
func (e *Engine) Search(ctx context.Context, b *board.Board, c board.Color, limits Limits) *board.Move {
	e.searcher.Reset()

	moves := b.LegalMoves(c)
	if len(moves) == 0 {
		return nil
	}
	orderMoves(b, moves)
	fallback := moves[0]

	startTime := time.Now()
	ply := 2*(b.FullMoveNumber-1) + int(c)
	deadline := deadlineFor(startTime, limits, int(c), ply)

	e.searcher.shouldStop = func(nodes uint64) bool {
		if limits.Nodes > 0 && nodes >= limits.Nodes {
			return true
		}
		if nodes&1023 != 0 {
			return false
		}
		if ctx.Err() != nil {
			return true
		}
		return !deadline.IsZero() && time.Now().After(deadline)
	}
	defer func() { e.searcher.shouldStop = nil }()

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var bestMove *board.Move
	for depth := 1; depth <= maxDepth; depth++ {
		if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
			break
		}

		move, score := e.searcher.Search(b, c, depth)

		if e.searcher.IsStopped() {
			if bestMove == nil {
				bestMove = move
			}
			break
		}
		bestMove = move

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth: depth,
				Score: score,
				Nodes: e.searcher.Nodes(),
				Time:  time.Since(startTime),
				Best:  move,
			})
		}

		// Early termination: found mate
		if score > MateScore-MaxPly || score < -MateScore+MaxPly {
			break
		}
	}

	if bestMove == nil {
		return fallback
	}
	return bestMove
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Nodes returns the node count of the last search.
func (e *Engine) Nodes() uint64 {
	return e.searcher.Nodes()
}

// ScoreToString converts a score to a human-readable string.
func ScoreToString(score int) string {
	if score > MateScore-MaxPly {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+MaxPly {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	// Convert centipawns to pawns
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100
	pad := ""
	if centipawns < 10 {
		pad = "0"
	}

	return sign + itoa(pawns) + "." + pad + itoa(centipawns)
}

// Simple integer to string (avoid fmt import)
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
