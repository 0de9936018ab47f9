package board

import (
	"fmt"
	"strings"
)

// SAN converts an unmade move to Standard Algebraic Notation.
func (m *Move) SAN(b *Board) string {
	if m == nil {
		return "-"
	}

	// Castling
	if m.IsCastle() {
		if m.To > m.From {
			return "O-O" + m.checkSuffix(b)
		}
		return "O-O-O" + m.checkSuffix(b)
	}

	var sb strings.Builder
	pt := m.Piece.Type

	// Piece letter and disambiguation (not for pawns)
	if pt != Pawn {
		sb.WriteByte("PNBRQK"[pt])
		sb.WriteString(disambiguation(b, m))
	}

	// Capture marker
	if m.IsCapture() {
		if pt == Pawn {
			// Pawn captures include the file of origin
			sb.WriteByte('a' + byte(m.From.File()))
		}
		sb.WriteByte('x')
	}

	// Destination square
	sb.WriteString(m.To.String())

	// Promotion
	if m.IsPromotion() {
		sb.WriteByte('=')
		sb.WriteByte("PNBRQK"[m.Promotion.Type])
	}

	sb.WriteString(m.checkSuffix(b))
	return sb.String()
}

func (m *Move) checkSuffix(b *Board) string {
	switch {
	case m.IsCheckmate(b):
		return "#"
	case m.IsCheck(b):
		return "+"
	}
	return ""
}

// disambiguation returns the origin file, rank or square needed when
// another piece of the same type can reach the destination.
func disambiguation(b *Board, m *Move) string {
	var others []Square
	for _, p := range b.Pieces(m.Piece.Color) {
		if p == m.Piece || p.Type != m.Piece.Type {
			continue
		}
		if b.CheckMove(p, m.To) {
			others = append(others, p.Square)
		}
	}

	// No ambiguity
	if len(others) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range others {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN finds the legal move of the side to move matching a SAN string.
func (b *Board) ParseSAN(s string) (*Move, error) {
	san := strings.TrimRight(strings.TrimSpace(s), "+#!?")
	moves := b.LegalMoves(b.SideToMove)
	for _, m := range moves {
		if strings.TrimRight(m.SAN(b), "+#") == san {
			return m, nil
		}
	}
	// Accept zero-based castling notation.
	if alt := strings.ReplaceAll(san, "0", "O"); alt != san {
		return b.ParseSAN(alt)
	}
	return nil, &IllegalMoveError{Move: s, Reason: fmt.Sprintf("no legal move matches among %d", len(moves))}
}

// MovesToSAN converts a line of moves, starting from b, to SAN. The moves
// are made on a scratch copy, so they must belong to that line.
func MovesToSAN(b *Board, uci []string) ([]string, error) {
	scratch := b.Clone()
	out := make([]string, 0, len(uci))
	for _, s := range uci {
		m, err := scratch.ParseMove(s)
		if err != nil {
			return out, err
		}
		out = append(out, m.SAN(scratch))
		scratch.FinalizeMove(m)
	}
	return out, nil
}
