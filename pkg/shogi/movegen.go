package shogi

import (
	"errors"
	"fmt"
)

var (
	errWrongColor    = errors.New("piece does not belong to the side to move")
	errNotInHand     = errors.New("piece not in hand")
	errOccupied      = errors.New("destination occupied")
	errDeadEnd       = errors.New("piece would have no further moves")
	errTwoPawns      = errors.New("two unpromoted pawns in one file")
	errDropPawnMate  = errors.New("pawn drop gives mate")
	errOwnCapture    = errors.New("capturing own piece")
	errKingCapture   = errors.New("capturing king")
	errUnreachable   = errors.New("destination not reachable")
	errCannotPromote = errors.New("piece cannot promote")
	errOutsideZone   = errors.New("promotion outside promotion zone")
	errKingInCheck   = errors.New("leaves king in check")
	errHandFull      = errors.New("hand is full")
	errNotDroppable  = errors.New("piece cannot be dropped")
	errPieceMismatch = errors.New("origin square does not hold the moving piece")
)

// Offsets are for Black; rank decreases toward White's camp.
type offset struct {
	df, dr int
}

var (
	goldSteps   = []offset{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}}
	silverSteps = []offset{{0, -1}, {-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
	kingSteps   = []offset{{0, -1}, {-1, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
	orthogonal  = []offset{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	diagonal    = []offset{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}
)

func steps(t PieceType) []offset {
	switch t {
	case FU:
		return []offset{{0, -1}}
	case KE:
		return []offset{{-1, -2}, {1, -2}}
	case GI:
		return silverSteps
	case KI, TO, NY, NK, NG:
		return goldSteps
	case OU:
		return kingSteps
	case UM:
		return orthogonal
	case RY:
		return diagonal
	default:
		return nil
	}
}

func slides(t PieceType) []offset {
	switch t {
	case KY:
		return []offset{{0, -1}}
	case KA, UM:
		return diagonal
	case HI, RY:
		return orthogonal
	default:
		return nil
	}
}

// targets lists the squares pc standing on from can move to, ignoring
// what occupies the final square and ignoring king safety.
func (p *Position) targets(from Square, pc Piece) []Square {
	sign := 1
	if pc.Color == White {
		sign = -1
	}
	f0, r0 := from.File(), from.Rank()
	var out []Square
	for _, o := range steps(pc.Type) {
		f, r := f0+o.df*sign, r0+o.dr*sign
		if onBoard(f, r) {
			out = append(out, NewSquare(f, r))
		}
	}
	for _, o := range slides(pc.Type) {
		f, r := f0+o.df*sign, r0+o.dr*sign
		for onBoard(f, r) {
			out = append(out, NewSquare(f, r))
			if !p.pieceAt(f, r).IsEmpty() {
				break
			}
			f, r = f+o.df*sign, r+o.dr*sign
		}
	}
	return out
}

func (p *Position) reaches(from, to Square, pc Piece) bool {
	for _, sq := range p.targets(from, pc) {
		if sq == to {
			return true
		}
	}
	return false
}

// Attacked reports whether any piece of color by attacks sq.
func (p *Position) Attacked(sq Square, by Color) bool {
	for from := Square(0); from < NumSquares; from++ {
		pc := p.PieceOn(from)
		if pc.IsEmpty() || pc.Color != by {
			continue
		}
		if p.reaches(from, sq, pc) {
			return true
		}
	}
	return false
}

func (p *Position) kingSquare(c Color) (Square, bool) {
	king := Piece{Color: c, Type: OU}
	for sq := Square(0); sq < NumSquares; sq++ {
		if p.PieceOn(sq) == king {
			return sq, true
		}
	}
	return 0, false
}

// InCheck reports whether c's king is attacked. A side without a king is
// never in check.
func (p *Position) InCheck(c Color) bool {
	sq, ok := p.kingSquare(c)
	if !ok {
		return false
	}
	return p.Attacked(sq, c.Flip())
}

func inPromotionZone(c Color, sq Square) bool {
	if c == Black {
		return sq.Rank() <= 3
	}
	return sq.Rank() >= 7
}

// deadEnd reports whether pc placed on sq could never move again.
func deadEnd(pc Piece, sq Square) bool {
	rank := sq.Rank()
	if pc.Color == White {
		rank = 10 - rank
	}
	switch pc.Type {
	case FU, KY:
		return rank == 1
	case KE:
		return rank <= 2
	default:
		return false
	}
}

func (p *Position) IsLegal(m Move) bool {
	return p.checkMove(m, true) == nil
}

// checkMove returns the reason m is illegal, or nil. dropMate enables the
// drop-pawn-mate test, which itself needs a legal move search for the
// opponent.
func (p *Position) checkMove(m Move, dropMate bool) error {
	c := p.turn
	pc := m.piece
	if pc.Color != c {
		return errWrongColor
	}
	if m.drop {
		if !isHandType(pc.Type) {
			return errNotDroppable
		}
		if p.hands[c][pc.Type] == 0 {
			return fmt.Errorf("%w: %s", errNotInHand, pc.Type)
		}
		if !p.PieceOn(m.to).IsEmpty() {
			return errOccupied
		}
		if deadEnd(pc, m.to) {
			return errDeadEnd
		}
		if pc.Type == FU && p.pawnOnFile(c, m.to.File()) {
			return errTwoPawns
		}
	} else {
		if p.PieceOn(m.from) != pc {
			return errPieceMismatch
		}
		target := p.PieceOn(m.to)
		if !target.IsEmpty() {
			if target.Color == c {
				return errOwnCapture
			}
			if target.Type == OU {
				return errKingCapture
			}
			if p.hands[c][target.Type.Demoted()] >= maxHandCount {
				return errHandFull
			}
		}
		if !p.reaches(m.from, m.to, pc) {
			return errUnreachable
		}
		if m.promote {
			if !pc.Type.CanPromote() {
				return errCannotPromote
			}
			if !inPromotionZone(c, m.from) && !inPromotionZone(c, m.to) {
				return errOutsideZone
			}
		} else if deadEnd(pc, m.to) {
			return errDeadEnd
		}
	}

	p.apply(m)
	defer p.unapply()
	if p.InCheck(c) {
		return errKingInCheck
	}
	if dropMate && m.drop && pc.Type == FU && p.InCheck(c.Flip()) && !p.hasLegalMove() {
		return errDropPawnMate
	}
	return nil
}

func (p *Position) pawnOnFile(c Color, file int) bool {
	pawn := Piece{Color: c, Type: FU}
	for rank := 1; rank <= 9; rank++ {
		if p.pieceAt(file, rank) == pawn {
			return true
		}
	}
	return false
}

// candidates lists every move shape for the side to move, legal or not.
func (p *Position) candidates(yield func(Move) bool) {
	c := p.turn
	for from := Square(0); from < NumSquares; from++ {
		pc := p.PieceOn(from)
		if pc.IsEmpty() || pc.Color != c {
			continue
		}
		for _, to := range p.targets(from, pc) {
			if !yield(NewNormalMove(from, to, false, pc)) {
				return
			}
			if pc.Type.CanPromote() && !yield(NewNormalMove(from, to, true, pc)) {
				return
			}
		}
	}
	for _, t := range handOrder {
		if p.hands[c][t] == 0 {
			continue
		}
		for to := Square(0); to < NumSquares; to++ {
			if !p.PieceOn(to).IsEmpty() {
				continue
			}
			if !yield(NewDropMove(to, Piece{Color: c, Type: t})) {
				return
			}
		}
	}
}

// hasLegalMove does not apply the drop-pawn-mate test, so the search stays
// one level deep.
func (p *Position) hasLegalMove() bool {
	found := false
	p.candidates(func(m Move) bool {
		if p.checkMove(m, false) == nil {
			found = true
			return false
		}
		return true
	})
	return found
}

// LegalMoves returns every legal move for the side to move.
func (p *Position) LegalMoves() []Move {
	var moves []Move
	p.candidates(func(m Move) bool {
		if p.checkMove(m, true) == nil {
			moves = append(moves, m)
		}
		return true
	})
	return moves
}
