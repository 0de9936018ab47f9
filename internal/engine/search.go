package engine

import (
	"sync/atomic"

	"github.com/hailam/tilechess/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// Searcher performs a fail-hard negamax alpha-beta search with a
// capture-only quiescence extension.
type Searcher struct {
	nodes    uint64
	stopFlag atomic.Bool

	// shouldStop is polled once per node; nil means never.
	shouldStop func(nodes uint64) bool
}

// NewSearcher creates a new searcher.
func NewSearcher() *Searcher {
	return &Searcher{}
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes = 0
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// IsStopped returns true if the search has been stopped.
func (s *Searcher) IsStopped() bool {
	return s.stopFlag.Load()
}

func (s *Searcher) checkStop() bool {
	if s.stopFlag.Load() {
		return true
	}
	if s.shouldStop != nil && s.shouldStop(s.nodes) {
		s.stopFlag.Store(true)
		return true
	}
	return false
}

// Search returns the best move for c at the given depth and its score from
// c's point of view. Among equally scored moves the first in search order
// wins. It returns nil when c has no legal moves.
func (s *Searcher) Search(b *board.Board, c board.Color, depth int) (*board.Move, int) {
	moves := b.LegalMoves(c)
	if len(moves) == 0 {
		if b.InCheck(c) {
			return nil, -MateScore
		}
		return nil, 0
	}
	if depth < 1 {
		depth = 1
	}
	orderMoves(b, moves)

	var best *board.Move
	bestScore := -Infinity
	alpha, beta := -Infinity, Infinity
	for _, m := range moves {
		b.MakeMove(m)
		score := -s.negamax(b, c.Other(), depth-1, 1, -beta, -alpha)
		b.UnmakeMove(m)

		if s.IsStopped() {
			break
		}
		if score > bestScore {
			bestScore = score
			best = m
		}
		if score > alpha {
			alpha = score
		}
	}
	return best, bestScore
}

func (s *Searcher) negamax(b *board.Board, c board.Color, depth, ply, alpha, beta int) int {
	s.nodes++
	if s.checkStop() {
		return 0
	}
	if depth <= 0 {
		return s.quiescence(b, c, ply, alpha, beta)
	}

	moves := b.LegalMoves(c)
	if len(moves) == 0 {
		if b.InCheck(c) {
			return -(MateScore - ply)
		}
		return 0
	}
	orderMoves(b, moves)

	for _, m := range moves {
		b.MakeMove(m)
		score := -s.negamax(b, c.Other(), depth-1, ply+1, -beta, -alpha)
		b.UnmakeMove(m)

		if s.IsStopped() {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// quiescence extends the search through captures only, letting the side
// to move stand pat on the static evaluation.
func (s *Searcher) quiescence(b *board.Board, c board.Color, ply, alpha, beta int) int {
	s.nodes++
	if s.checkStop() {
		return 0
	}

	standPat := Evaluate(b, c)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if ply >= MaxPly {
		return alpha
	}

	captures := b.Captures(c)
	orderMoves(b, captures)

	for _, m := range captures {
		b.MakeMove(m)
		score := -s.quiescence(b, c.Other(), ply+1, -beta, -alpha)
		b.UnmakeMove(m)

		if s.IsStopped() {
			return 0
		}
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// ChooseMove searches depth plies for c and returns the chosen move, or nil
// when c has no legal moves. Promotions are searched for every piece; the
// queen is ordered first.
func ChooseMove(b *board.Board, c board.Color, depth int) *board.Move {
	m, _ := NewSearcher().Search(b, c, depth)
	return m
}
