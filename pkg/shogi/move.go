package shogi

// Move is either a board move or a drop. For a board move, piece is the
// piece as it stood before moving.
type Move struct {
	from    Square
	to      Square
	piece   Piece
	promote bool
	drop    bool
}

func NewNormalMove(from, to Square, promote bool, piece Piece) Move {
	return Move{from: from, to: to, piece: piece, promote: promote}
}

func NewDropMove(to Square, piece Piece) Move {
	return Move{to: to, piece: piece, drop: true}
}

// From returns the origin square. ok is false for drops.
func (m Move) From() (Square, bool) {
	if m.drop {
		return 0, false
	}
	return m.from, true
}

func (m Move) To() Square {
	return m.to
}

func (m Move) Piece() Piece {
	return m.piece
}

func (m Move) IsDrop() bool {
	return m.drop
}

func (m Move) IsPromotion() bool {
	return m.promote
}

// String renders the move in CSA notation, naming the piece after the move.
func (m Move) String() string {
	piece := m.piece
	if m.promote {
		piece = piece.Promoted()
	}
	from := "00"
	if !m.drop {
		from = m.from.String()
	}
	return piece.Color.Sign() + from + m.to.String() + piece.Type.String()
}
