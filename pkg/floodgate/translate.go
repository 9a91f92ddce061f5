package floodgate

import (
	"floodcheck/pkg/csa"
	"floodcheck/pkg/shogi"
)

// TranslateAction converts a record action into an engine move. Only move
// actions translate; ok is false for everything else.
//
// Records name the piece as it stands after the move, so a board move
// promotes exactly when the piece on the origin square differs from that
// piece. The moving piece is then the recorded piece demoted once.
func TranslateAction(a csa.Action, pos *shogi.Position) (m shogi.Move, ok bool) {
	if a.Kind != csa.Move {
		return shogi.Move{}, false
	}
	to := shogi.NewSquare(a.To.File, a.To.Rank)
	piece := shogi.NewPiece(a.Color, a.Piece)
	if a.From.IsZero() {
		return shogi.NewDropMove(to, piece), true
	}
	from := shogi.NewSquare(a.From.File, a.From.Rank)
	promote := pos.PieceOn(from) != piece
	if promote {
		piece = piece.Demoted()
	}
	return shogi.NewNormalMove(from, to, promote, piece), true
}
