package board

import (
	"log/slog"
	"strconv"
	"strings"
)

var log = slog.Default().With("package", "board")

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type loadOptions struct {
	lenient bool
}

// LoadOption configures LoadPosition.
type LoadOption func(*loadOptions)

// Lenient makes LoadPosition log and skip malformed tokens instead of
// failing. Missing kings are still an error.
func Lenient() LoadOption {
	return func(o *loadOptions) {
		o.lenient = true
	}
}

// LoadPosition imports a FEN position. The halfmove field counts plies.
// Kings and rooks not named by the castling field are marked as moved;
// pawns count as unmoved only on their starting rank.
func LoadPosition(fen string, opts ...LoadOption) (*Board, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	parts := strings.Fields(fen)
	if len(parts) < 4 && !o.lenient {
		return nil, &InvalidPositionError{Field: len(parts), Token: fen, Reason: "need at least 4 fields"}
	}
	if len(parts) > 6 {
		if !o.lenient {
			return nil, &InvalidPositionError{Field: 6, Token: parts[6], Reason: "too many fields"}
		}
		log.Warn("ignoring extra position fields", "fields", parts[6:])
		parts = parts[:6]
	}
	if len(parts) == 0 {
		return nil, &InvalidPositionError{Field: 0, Token: fen, Reason: "empty position"}
	}

	b := NewEmptyBoard()
	fail := func(err *InvalidPositionError) error {
		if o.lenient {
			log.Warn("skipping position token", "field", err.Field, "token", err.Token, "reason", err.Reason)
			return nil
		}
		return err
	}

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(b, parts[0], fail); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	if len(parts) > 1 {
		switch parts[1] {
		case "w":
			b.SideToMove = White
		case "b":
			b.SideToMove = Black
		default:
			if err := fail(&InvalidPositionError{Field: 1, Token: parts[1], Reason: "side to move must be w or b"}); err != nil {
				return nil, err
			}
		}
	}

	// Parse castling rights (field 2)
	castling := "-"
	if len(parts) > 2 {
		castling = parts[2]
	}
	if err := applyCastlingRights(b, castling, fail); err != nil {
		return nil, err
	}

	// Parse en passant square (field 3)
	if len(parts) > 3 && parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil || (sq.Rank() != 2 && sq.Rank() != 5) {
			if err := fail(&InvalidPositionError{Field: 3, Token: parts[3], Reason: "bad en passant square"}); err != nil {
				return nil, err
			}
		} else {
			b.EnPassant = sq
		}
	}

	// Parse half-move clock (field 4, optional)
	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			if err := fail(&InvalidPositionError{Field: 4, Token: parts[4], Reason: "halfmove clock must be a non-negative integer"}); err != nil {
				return nil, err
			}
		} else {
			b.plies = n
		}
	}

	// Parse full-move number (field 5, optional)
	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			if err := fail(&InvalidPositionError{Field: 5, Token: parts[5], Reason: "fullmove number must be a positive integer"}); err != nil {
				return nil, err
			}
		} else {
			b.FullMoveNumber = n
		}
	}

	for c := White; c <= Black; c++ {
		if b.kings[c] == nil {
			return nil, &InvalidPositionError{Field: 0, Token: parts[0], Reason: "missing " + c.String() + " king"}
		}
	}

	// A clock already at the limit means the draw has happened.
	b.fiftyMoveDraw = b.plies >= FiftyMovePlies

	b.refresh()
	return b, nil
}

// ParseFEN is LoadPosition in strict mode.
func ParseFEN(fen string) (*Board, error) {
	return LoadPosition(fen)
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(b *Board, placement string, fail func(*InvalidPositionError) error) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		if err := fail(&InvalidPositionError{Field: 0, Token: placement, Reason: "need 8 ranks"}); err != nil {
			return err
		}
		if len(ranks) > 8 {
			ranks = ranks[:8]
		}
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			pt, color, ok := PieceFromChar(c)
			if !ok || file > 7 {
				if err := fail(&InvalidPositionError{Field: 0, Token: string(c), Reason: "bad placement character on rank " + strconv.Itoa(rank+1)}); err != nil {
					return err
				}
				continue
			}
			sq := MustSquare(file, rank)
			p := NewPiece(pt, color, sq)
			if pt == Pawn && sq.RelativeRank(color) != 1 {
				p.Moved = true
			}
			if pt == King {
				if b.kings[color] != nil {
					if err := fail(&InvalidPositionError{Field: 0, Token: string(c), Reason: "second " + color.String() + " king"}); err != nil {
						return err
					}
					file++
					continue
				}
				b.kings[color] = p
			}
			b.squares[sq] = p
			file++
		}

		if file != 8 {
			if err := fail(&InvalidPositionError{Field: 0, Token: rankStr, Reason: "rank " + strconv.Itoa(rank+1) + " does not span 8 files"}); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyCastlingRights marks kings and rooks as moved unless the castling
// field grants them a right.
func applyCastlingRights(b *Board, castling string, fail func(*InvalidPositionError) error) error {
	for _, p := range b.squares {
		if p != nil && (p.Type == King || p.Type == Rook) {
			p.Moved = true
		}
	}
	if castling == "-" {
		return nil
	}

	for i := 0; i < len(castling); i++ {
		var king, rook Square
		color := White
		switch castling[i] {
		case 'K':
			king, rook = E1, H1
		case 'Q':
			king, rook = E1, A1
		case 'k':
			king, rook, color = E8, H8, Black
		case 'q':
			king, rook, color = E8, A8, Black
		default:
			if err := fail(&InvalidPositionError{Field: 2, Token: string(castling[i]), Reason: "castling rights must be a subset of KQkq"}); err != nil {
				return err
			}
			continue
		}
		k, r := b.squares[king], b.squares[rook]
		if k == nil || k.Type != King || r == nil || r.Type != Rook || k.Color != color || r.Color != color {
			if err := fail(&InvalidPositionError{Field: 2, Token: string(castling[i]), Reason: "no king and rook on their home squares"}); err != nil {
				return err
			}
			continue
		}
		k.Moved = false
		r.Moved = false
	}
	return nil
}

// ExportPosition returns the FEN text of the position. Castling rights are
// derived from the moved flags of kings and rooks on their home squares.
func ExportPosition(b *Board) string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[rank*8+file]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(p.Char())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if b.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(b.castlingField())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(b.EnPassant.String())

	// Half-move clock and full-move number
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.plies))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.FullMoveNumber))

	return sb.String()
}

// FEN returns the FEN text of the position.
func (b *Board) FEN() string {
	return ExportPosition(b)
}

func (b *Board) castlingField() string {
	s := ""
	for _, r := range []struct {
		king, rook Square
		color      Color
		ch         byte
	}{{E1, H1, White, 'K'}, {E1, A1, White, 'Q'}, {E8, H8, Black, 'k'}, {E8, A8, Black, 'q'}} {
		k, rk := b.squares[r.king], b.squares[r.rook]
		if k != nil && k.Type == King && !k.Moved && k.Color == r.color &&
			rk != nil && rk.Type == Rook && !rk.Moved && rk.Color == r.color {
			s += string(r.ch)
		}
	}
	if s == "" {
		return "-"
	}
	return s
}
