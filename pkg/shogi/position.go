package shogi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrNothingToUndo = errors.New("no move to undo")
	ErrHandOverflow  = errors.New("hand count out of range")
)

// Position is a mutable game state. It is not safe for concurrent use.
type Position struct {
	board   [9][9]Piece // [rank-1][file-1]
	hands   [2][numHandTypes]int
	turn    Color
	key     uint64
	ply     int
	history []undoState
}

type undoState struct {
	move     Move
	captured Piece
	key      uint64
}

// NewEmptyPosition returns an empty board with Black to move.
func NewEmptyPosition() *Position {
	p := &Position{}
	p.key = p.ComputeZobrist()
	return p
}

// NewPosition returns the standard initial position (hirate).
func NewPosition() *Position {
	p := &Position{}
	back := []PieceType{KY, KE, GI, KI, OU, KI, GI, KE, KY}
	for i, t := range back {
		p.board[0][8-i] = Piece{Color: White, Type: t}
		p.board[8][8-i] = Piece{Color: Black, Type: t}
	}
	for file := 1; file <= 9; file++ {
		p.board[2][file-1] = Piece{Color: White, Type: FU}
		p.board[6][file-1] = Piece{Color: Black, Type: FU}
	}
	p.board[1][7] = Piece{Color: White, Type: HI}
	p.board[1][1] = Piece{Color: White, Type: KA}
	p.board[7][7] = Piece{Color: Black, Type: KA}
	p.board[7][1] = Piece{Color: Black, Type: HI}
	p.key = p.ComputeZobrist()
	return p
}

// Put places a piece on a square during setup. An empty piece clears it.
func (p *Position) Put(sq Square, pc Piece) {
	p.setPiece(sq, pc)
}

// SetHand sets a hand count during setup.
func (p *Position) SetHand(c Color, t PieceType, n int) error {
	if !isHandType(t) {
		return fmt.Errorf("%s cannot be held in hand", t)
	}
	if n < 0 || n > maxHandCount {
		return fmt.Errorf("%w: %s %d", ErrHandOverflow, t, n)
	}
	p.setHand(c, t, n)
	return nil
}

// SetSideToMove sets the side to move during setup.
func (p *Position) SetSideToMove(c Color) {
	if p.turn != c {
		p.toggleTurn()
	}
}

func (p *Position) Clone() *Position {
	clone := *p
	clone.history = make([]undoState, len(p.history))
	copy(clone.history, p.history)
	return &clone
}

func (p *Position) Key() uint64 {
	return p.key
}

func (p *Position) SideToMove() Color {
	return p.turn
}

// Ply returns the number of moves applied since setup.
func (p *Position) Ply() int {
	return p.ply
}

func (p *Position) PieceOn(sq Square) Piece {
	return p.board[sq.Rank()-1][sq.File()-1]
}

func (p *Position) Hand(c Color, t PieceType) int {
	if !isHandType(t) {
		return 0
	}
	return p.hands[c][t]
}

func (p *Position) pieceAt(file, rank int) Piece {
	if !onBoard(file, rank) {
		return Piece{}
	}
	return p.board[rank-1][file-1]
}

func (p *Position) setPiece(sq Square, pc Piece) {
	old := p.PieceOn(sq)
	if !old.IsEmpty() {
		p.key ^= zobristBoard[old.Color][old.Type][sq]
	}
	if !pc.IsEmpty() {
		p.key ^= zobristBoard[pc.Color][pc.Type][sq]
	}
	p.board[sq.Rank()-1][sq.File()-1] = pc
}

func (p *Position) setHand(c Color, t PieceType, n int) {
	p.key ^= zobristHand[c][t][p.hands[c][t]] ^ zobristHand[c][t][n]
	p.hands[c][t] = n
}

func (p *Position) toggleTurn() {
	p.key ^= zobristSide
	p.turn = p.turn.Flip()
}

// DoMove applies m, rejecting it with ErrIllegalMove if it is not legal.
func (p *Position) DoMove(m Move) error {
	if err := p.checkMove(m, true); err != nil {
		return fmt.Errorf("%w %s: %w", ErrIllegalMove, m, err)
	}
	p.apply(m)
	return nil
}

// UndoMove reverts m, which must be the most recently applied move.
func (p *Position) UndoMove(m Move) error {
	if len(p.history) == 0 {
		return ErrNothingToUndo
	}
	if last := p.history[len(p.history)-1].move; last != m {
		return fmt.Errorf("cannot undo %s: last move is %s", m, last)
	}
	p.unapply()
	return nil
}

func (p *Position) apply(m Move) {
	c := p.turn
	u := undoState{move: m, key: p.key}
	if m.drop {
		p.setHand(c, m.piece.Type, p.hands[c][m.piece.Type]-1)
		p.setPiece(m.to, m.piece)
	} else {
		if captured := p.PieceOn(m.to); !captured.IsEmpty() {
			u.captured = captured
			base := captured.Type.Demoted()
			p.setHand(c, base, p.hands[c][base]+1)
		}
		p.setPiece(m.from, Piece{})
		moved := m.piece
		if m.promote {
			moved = moved.Promoted()
		}
		p.setPiece(m.to, moved)
	}
	p.toggleTurn()
	p.ply++
	p.history = append(p.history, u)
}

func (p *Position) unapply() {
	u := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	p.toggleTurn()
	p.ply--
	c := p.turn
	m := u.move
	if m.drop {
		p.setPiece(m.to, Piece{})
		p.setHand(c, m.piece.Type, p.hands[c][m.piece.Type]+1)
	} else {
		p.setPiece(m.to, u.captured)
		p.setPiece(m.from, m.piece)
		if !u.captured.IsEmpty() {
			base := u.captured.Type.Demoted()
			p.setHand(c, base, p.hands[c][base]-1)
		}
	}
	p.key = u.key
}

// String renders the position in CSA form: nine board rows, the two hand
// lines and the side to move.
func (p *Position) String() string {
	var b strings.Builder
	for rank := 1; rank <= 9; rank++ {
		fmt.Fprintf(&b, "P%d", rank)
		for file := 9; file >= 1; file-- {
			b.WriteString(p.pieceAt(file, rank).String())
		}
		b.WriteByte('\n')
	}
	for c := Black; c <= White; c++ {
		b.WriteString("P" + c.Sign())
		for _, t := range handOrder {
			for i := 0; i < p.hands[c][t]; i++ {
				b.WriteString("00" + t.String())
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(p.turn.Sign())
	b.WriteByte('\n')
	return b.String()
}

var sfenLetters = [numPieceTypes]string{
	"", "P", "L", "N", "S", "G", "B", "R", "K", "+P", "+L", "+N", "+S", "+B", "+R",
}

// SFEN renders the position as an SFEN string with the given move number.
func (p *Position) SFEN(moveNumber int) string {
	var rows []string
	for rank := 1; rank <= 9; rank++ {
		rows = append(rows, p.rankToSFEN(rank))
	}
	board := strings.Join(rows, "/")
	turn := "b"
	if p.turn == White {
		turn = "w"
	}
	hand := p.handsToSFEN()
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", board, turn, hand, moveNumber)
}

func (p *Position) rankToSFEN(rank int) string {
	var b strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
			empty = 0
		}
	}
	for file := 9; file >= 1; file-- {
		pc := p.pieceAt(file, rank)
		if pc.IsEmpty() {
			empty++
			continue
		}
		flushEmpty()
		text := sfenLetters[pc.Type]
		if pc.Color == White {
			text = strings.ToLower(text)
		}
		b.WriteString(text)
	}
	flushEmpty()
	return b.String()
}

func (p *Position) handsToSFEN() string {
	var b strings.Builder
	for c := Black; c <= White; c++ {
		for _, t := range handOrder {
			count := p.hands[c][t]
			if count == 0 {
				continue
			}
			if count > 1 {
				fmt.Fprintf(&b, "%d", count)
			}
			letter := sfenLetters[t]
			if c == White {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
		}
	}
	return b.String()
}
