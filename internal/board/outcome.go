package board

// Result classifies the state of a game.
type Result uint8

const (
	Ongoing Result = iota
	Checkmate
	Stalemate
	FiftyMoveDraw
	Timeout
)

func (r Result) String() string {
	switch r {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveDraw:
		return "fifty-move draw"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Outcome is a Result plus the winning color, NoColor for draws and
// unfinished games.
type Outcome struct {
	Result Result
	Winner Color
}

// IsDraw returns true for stalemate and the fifty-move rule.
func (o Outcome) IsDraw() bool {
	return o.Result == Stalemate || o.Result == FiftyMoveDraw
}

// IsOver returns true for any terminal result.
func (o Outcome) IsOver() bool {
	return o.Result != Ongoing
}

// PGNResult returns the PGN result token ("1-0", "0-1", "1/2-1/2", "*").
func (o Outcome) PGNResult() string {
	switch {
	case o.IsDraw():
		return "1/2-1/2"
	case o.Result == Ongoing:
		return "*"
	case o.Winner == White:
		return "1-0"
	default:
		return "0-1"
	}
}

func (o Outcome) String() string {
	if o.Winner == NoColor {
		return o.Result.String()
	}
	return o.Result.String() + ", " + o.Winner.String() + " wins"
}

// InCheck returns true if the king of color c is attacked.
func (b *Board) InCheck(c Color) bool {
	k := b.kings[c]
	return k != nil && b.IsAttackedBy(k.Square, c.Other())
}

// Status reports the outcome for the side to move. A side without legal
// moves is mated when in check and stalemated otherwise; the fifty-move
// draw is raised by FinalizeMove or by loading a position whose halfmove
// clock is already 50.
func (b *Board) Status() Outcome {
	us := b.SideToMove
	if !b.HasLegalMoves(us) {
		if b.InCheck(us) {
			return Outcome{Result: Checkmate, Winner: us.Other()}
		}
		return Outcome{Result: Stalemate, Winner: NoColor}
	}
	if b.fiftyMoveDraw {
		return Outcome{Result: FiftyMoveDraw, Winner: NoColor}
	}
	return Outcome{Result: Ongoing, Winner: NoColor}
}

// IsGameOver returns true if the game has ended on the board.
func (b *Board) IsGameOver() bool {
	return b.Status().IsOver()
}

// ApplyFinalMove validates m against the legal moves of the side to move
// and finalizes it. A move that was just made is reversed and checked
// again first; one whose piece has since moved on is rejected. On success m
// holds the move as applied.
func (b *Board) ApplyFinalMove(m *Move) error {
	if m == nil || m.Piece == nil {
		return &IllegalMoveError{Move: m.String(), Reason: "no piece"}
	}
	if m.Made() {
		if !b.lastMade(m) {
			return &IllegalMoveError{Move: m.String(), Reason: "stale move, piece is no longer on " + m.To.String()}
		}
		b.UnmakeMove(m)
	}
	if m.Piece.Color != b.SideToMove {
		return &IllegalMoveError{Move: m.String(), Reason: "not " + m.Piece.Color.String() + "'s turn"}
	}
	if b.squares[m.From] != m.Piece {
		return &IllegalMoveError{Move: m.String(), Reason: "piece is not on " + m.From.String()}
	}

	var legal *Move
	for _, cand := range b.LegalMovesFor(m.Piece) {
		if cand.Same(m) {
			legal = cand
			break
		}
	}
	if legal == nil {
		return &IllegalMoveError{Move: m.String(), Reason: "not in the legal move set"}
	}

	*m = *legal
	b.FinalizeMove(m)
	return nil
}

// lastMade reports whether m looks like the most recent move on b: its
// piece (or the promoted piece) stands on the destination and the other
// side is to move.
func (b *Board) lastMade(m *Move) bool {
	if m.Piece.Square != m.To || b.SideToMove != m.Piece.Color.Other() {
		return false
	}
	occupant := b.squares[m.To]
	return occupant == m.Piece || (m.Promotion != nil && occupant == m.Promotion)
}

// FinalizeMove is the authoritative move path outside search. It makes m
// if needed, tallies the capture and raises the fifty-move draw once the
// halfmove clock reaches 50. m must be legal.
func (b *Board) FinalizeMove(m *Move) {
	if !m.Made() {
		b.MakeMove(m)
	}
	if m.Captured != nil {
		b.Captured.Add(m.Captured)
	}
	if b.plies >= FiftyMovePlies {
		b.fiftyMoveDraw = true
	}
}
