package board

// Ray directions. Rook directions come first, bishop directions last.
const (
	north = iota
	south
	east
	west
	northEast
	northWest
	southEast
	southWest
)

var dirDelta = [8][2]int{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

var (
	rookDirs   = []int{north, south, east, west}
	bishopDirs = []int{northEast, northWest, southEast, southWest}
	queenDirs  = []int{north, south, east, west, northEast, northWest, southEast, southWest}
)

// Pre-computed target tables, nearest square first for rays.
var (
	rays          [8][64][]Square
	knightTargets [64][]Square
	kingTargets   [64][]Square
	pawnCaptures  [2][64][]Square // [Color][Square]
)

func init() {
	initRays()
	initKnightTargets()
	initKingTargets()
	initPawnCaptures()
}

func initRays() {
	for sq := A1; sq <= H8; sq++ {
		for d, delta := range dirDelta {
			f, r := sq.File()+delta[0], sq.Rank()+delta[1]
			for onBoard(f, r) {
				rays[d][sq] = append(rays[d][sq], MustSquare(f, r))
				f += delta[0]
				r += delta[1]
			}
		}
	}
}

func initKnightTargets() {
	jumps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	for sq := A1; sq <= H8; sq++ {
		for _, j := range jumps {
			if f, r := sq.File()+j[0], sq.Rank()+j[1]; onBoard(f, r) {
				knightTargets[sq] = append(knightTargets[sq], MustSquare(f, r))
			}
		}
	}
}

func initKingTargets() {
	for sq := A1; sq <= H8; sq++ {
		for _, delta := range dirDelta {
			if f, r := sq.File()+delta[0], sq.Rank()+delta[1]; onBoard(f, r) {
				kingTargets[sq] = append(kingTargets[sq], MustSquare(f, r))
			}
		}
	}
}

func initPawnCaptures() {
	for sq := A1; sq <= H8; sq++ {
		for _, df := range []int{-1, 1} {
			// White pawn attacks (diagonal captures going up)
			if f, r := sq.File()+df, sq.Rank()+1; onBoard(f, r) {
				pawnCaptures[White][sq] = append(pawnCaptures[White][sq], MustSquare(f, r))
			}
			// Black pawn attacks (diagonal captures going down)
			if f, r := sq.File()+df, sq.Rank()-1; onBoard(f, r) {
				pawnCaptures[Black][sq] = append(pawnCaptures[Black][sq], MustSquare(f, r))
			}
		}
	}
}

func sliderDirs(pt PieceType) []int {
	switch pt {
	case Bishop:
		return bishopDirs
	case Rook:
		return rookDirs
	case Queen:
		return queenDirs
	}
	return nil
}

// ProtectedSquares returns the squares the piece currently attacks.
// Sliders stop at the first occupied square, which is included whatever
// its color.
func (b *Board) ProtectedSquares(p *Piece) []Square {
	return b.appendProtected(nil, p)
}

func (b *Board) appendProtected(dst []Square, p *Piece) []Square {
	switch p.Type {
	case Pawn:
		return append(dst, pawnCaptures[p.Color][p.Square]...)
	case Knight:
		return append(dst, knightTargets[p.Square]...)
	case King:
		return append(dst, kingTargets[p.Square]...)
	case Bishop, Rook, Queen:
		for _, d := range sliderDirs(p.Type) {
			for _, sq := range rays[d][p.Square] {
				dst = append(dst, sq)
				if b.squares[sq] != nil {
					break
				}
			}
		}
	}
	return dst
}

// PotentialSquares returns the squares the piece would attack on an
// otherwise empty board. It equals ProtectedSquares for non-sliders.
func PotentialSquares(p *Piece) []Square {
	switch p.Type {
	case Pawn:
		return append([]Square(nil), pawnCaptures[p.Color][p.Square]...)
	case Knight:
		return append([]Square(nil), knightTargets[p.Square]...)
	case King:
		return append([]Square(nil), kingTargets[p.Square]...)
	}
	var out []Square
	for _, d := range sliderDirs(p.Type) {
		out = append(out, rays[d][p.Square]...)
	}
	return out
}

// AttackMap caches, per square, the pieces that attack it now and the
// pieces that would attack it on an empty board.
type AttackMap struct {
	protecting [64][]*Piece
	potential  [64][]*Piece
}

func newAttackMap() AttackMap {
	var am AttackMap
	for sq := range am.protecting {
		am.protecting[sq] = make([]*Piece, 0, 4)
		am.potential[sq] = make([]*Piece, 0, 4)
	}
	return am
}

// recompute rebuilds the map from scratch for the pieces on b.
func (am *AttackMap) recompute(b *Board) {
	for sq := range am.protecting {
		am.protecting[sq] = am.protecting[sq][:0]
		am.potential[sq] = am.potential[sq][:0]
	}

	for _, p := range b.squares {
		if p == nil {
			continue
		}
		switch p.Type {
		case Pawn:
			am.addBoth(pawnCaptures[p.Color][p.Square], p)
		case Knight:
			am.addBoth(knightTargets[p.Square], p)
		case King:
			am.addBoth(kingTargets[p.Square], p)
		default:
			for _, d := range sliderDirs(p.Type) {
				blocked := false
				for _, sq := range rays[d][p.Square] {
					if !blocked {
						am.protecting[sq] = append(am.protecting[sq], p)
					}
					am.potential[sq] = append(am.potential[sq], p)
					if b.squares[sq] != nil {
						blocked = true
					}
				}
			}
		}
	}
}

func (am *AttackMap) addBoth(targets []Square, p *Piece) {
	for _, sq := range targets {
		am.protecting[sq] = append(am.protecting[sq], p)
		am.potential[sq] = append(am.potential[sq], p)
	}
}

// Protectors returns every piece, of either color, attacking sq.
func (b *Board) Protectors(sq Square) []*Piece {
	return b.attacks.protecting[sq]
}

// AttackersOf returns the pieces of color c attacking sq.
func (b *Board) AttackersOf(sq Square, c Color) []*Piece {
	var out []*Piece
	for _, p := range b.attacks.protecting[sq] {
		if p.Color == c {
			out = append(out, p)
		}
	}
	return out
}

// IsAttackedBy returns true if sq is attacked by a piece of color c.
func (b *Board) IsAttackedBy(sq Square, c Color) bool {
	for _, p := range b.attacks.protecting[sq] {
		if p.Color == c {
			return true
		}
	}
	return false
}

// IsPotentiallyAttackedBy returns true if a piece of color c would attack
// sq with the board cleared of blockers.
func (b *Board) IsPotentiallyAttackedBy(sq Square, c Color) bool {
	for _, p := range b.attacks.potential[sq] {
		if p.Color == c {
			return true
		}
	}
	return false
}

// DefendedByPawn reports whether a pawn of color c guards sq.
func (b *Board) DefendedByPawn(sq Square, c Color) bool {
	for _, p := range b.attacks.protecting[sq] {
		if p.Color == c && p.Type == Pawn {
			return true
		}
	}
	return false
}

func (b *Board) protects(attacker *Piece, sq Square) bool {
	for _, p := range b.attacks.protecting[sq] {
		if p == attacker {
			return true
		}
	}
	return false
}
