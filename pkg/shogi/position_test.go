package shogi_test

import (
	"errors"
	"testing"

	"floodcheck/pkg/shogi"
)

const hirateCSA = "P1-KY-KE-GI-KI-OU-KI-GI-KE-KY\n" +
	"P2 * -HI *  *  *  *  * -KA * \n" +
	"P3-FU-FU-FU-FU-FU-FU-FU-FU-FU\n" +
	"P4 *  *  *  *  *  *  *  *  * \n" +
	"P5 *  *  *  *  *  *  *  *  * \n" +
	"P6 *  *  *  *  *  *  *  *  * \n" +
	"P7+FU+FU+FU+FU+FU+FU+FU+FU+FU\n" +
	"P8 * +KA *  *  *  *  * +HI * \n" +
	"P9+KY+KE+GI+KI+OU+KI+GI+KE+KY\n" +
	"P+\n" +
	"P-\n" +
	"+\n"

func sq(file, rank int) shogi.Square {
	return shogi.NewSquare(file, rank)
}

func black(t shogi.PieceType) shogi.Piece {
	return shogi.NewPiece(shogi.Black, t)
}

func white(t shogi.PieceType) shogi.Piece {
	return shogi.NewPiece(shogi.White, t)
}

func mustDo(t *testing.T, pos *shogi.Position, m shogi.Move) {
	t.Helper()
	if err := pos.DoMove(m); err != nil {
		t.Fatalf("DoMove(%s): %v", m, err)
	}
}

func TestNewPositionString(t *testing.T) {
	pos := shogi.NewPosition()
	if got := pos.String(); got != hirateCSA {
		t.Fatalf("unexpected rendering:\n%s\nwant:\n%s", got, hirateCSA)
	}
}

func TestNewPositionSFEN(t *testing.T) {
	pos := shogi.NewPosition()
	want := "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"
	if got := pos.SFEN(1); got != want {
		t.Fatalf("unexpected sfen: got %s want %s", got, want)
	}
}

func TestSFENAfterBishopExchange(t *testing.T) {
	pos := shogi.NewPosition()
	mustDo(t, pos, shogi.NewNormalMove(sq(7, 7), sq(7, 6), false, black(shogi.FU)))
	mustDo(t, pos, shogi.NewNormalMove(sq(3, 3), sq(3, 4), false, white(shogi.FU)))
	mustDo(t, pos, shogi.NewNormalMove(sq(8, 8), sq(2, 2), true, black(shogi.KA)))
	want := "lnsgkgsnl/1r5+B1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/7R1/LNSGKGSNL w B 4"
	if got := pos.SFEN(4); got != want {
		t.Fatalf("unexpected sfen: got %s want %s", got, want)
	}
	if got := pos.Hand(shogi.Black, shogi.KA); got != 1 {
		t.Fatalf("black bishops in hand: got %d want 1", got)
	}
}

func TestInitialLegalMoves(t *testing.T) {
	pos := shogi.NewPosition()
	moves := pos.LegalMoves()
	if len(moves) != 30 {
		t.Fatalf("unexpected legal move count: got %d want 30", len(moves))
	}
	for _, m := range moves {
		if m.IsPromotion() || m.IsDrop() {
			t.Fatalf("unexpected move in initial position: %s", m)
		}
	}
}

func TestIncrementalKeyMatchesRecompute(t *testing.T) {
	pos := shogi.NewPosition()
	if pos.Key() != pos.ComputeZobrist() {
		t.Fatalf("initial key mismatch: got=%016x want=%016x", pos.Key(), pos.ComputeZobrist())
	}
	for ply := 0; ply < 60; ply++ {
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			return
		}
		m := moves[(ply*7)%len(moves)]
		mustDo(t, pos, m)
		if got, want := pos.Key(), pos.ComputeZobrist(); got != want {
			t.Fatalf("key mismatch at ply %d after %s: got=%016x want=%016x", ply, m, got, want)
		}
	}
}

func TestUndoRestoresPosition(t *testing.T) {
	pos := shogi.NewPosition()
	startKey := pos.Key()
	var played []shogi.Move
	for ply := 0; ply < 40; ply++ {
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			break
		}
		m := moves[(ply*11)%len(moves)]
		mustDo(t, pos, m)
		played = append(played, m)
	}
	for i := len(played) - 1; i >= 0; i-- {
		if err := pos.UndoMove(played[i]); err != nil {
			t.Fatalf("UndoMove(%s): %v", played[i], err)
		}
	}
	if pos.Key() != startKey {
		t.Fatalf("key not restored: got=%016x want=%016x", pos.Key(), startKey)
	}
	if pos.String() != hirateCSA {
		t.Fatalf("board not restored:\n%s", pos.String())
	}
	if pos.Ply() != 0 {
		t.Fatalf("ply not restored: %d", pos.Ply())
	}
	if err := pos.UndoMove(played[0]); !errors.Is(err, shogi.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoRejectsOtherMove(t *testing.T) {
	pos := shogi.NewPosition()
	mustDo(t, pos, shogi.NewNormalMove(sq(7, 7), sq(7, 6), false, black(shogi.FU)))
	other := shogi.NewNormalMove(sq(2, 7), sq(2, 6), false, black(shogi.FU))
	if err := pos.UndoMove(other); err == nil {
		t.Fatalf("expected error undoing a move that was not played")
	}
}

func TestSameKeyForSameSquares(t *testing.T) {
	a := shogi.NewPosition()
	b := shogi.NewPosition()
	mustDo(t, a, shogi.NewNormalMove(sq(2, 8), sq(1, 8), false, black(shogi.HI)))
	mustDo(t, a, shogi.NewNormalMove(sq(8, 2), sq(7, 2), false, white(shogi.HI)))
	mustDo(t, a, shogi.NewNormalMove(sq(1, 8), sq(2, 8), false, black(shogi.HI)))
	mustDo(t, a, shogi.NewNormalMove(sq(7, 2), sq(8, 2), false, white(shogi.HI)))
	if a.Key() != b.Key() {
		t.Fatalf("transposed position has different key: %016x vs %016x", a.Key(), b.Key())
	}
	mustDo(t, a, shogi.NewNormalMove(sq(2, 8), sq(1, 8), false, black(shogi.HI)))
	if a.Key() == b.Key() {
		t.Fatalf("different positions share a key")
	}
}

func TestMoveString(t *testing.T) {
	tests := []struct {
		move shogi.Move
		want string
	}{
		{shogi.NewNormalMove(sq(7, 7), sq(7, 6), false, black(shogi.FU)), "+7776FU"},
		{shogi.NewNormalMove(sq(2, 4), sq(2, 3), true, black(shogi.FU)), "+2423TO"},
		{shogi.NewNormalMove(sq(8, 2), sq(8, 8), true, white(shogi.HI)), "-8288RY"},
		{shogi.NewDropMove(sq(5, 5), black(shogi.KA)), "+0055KA"},
	}
	for _, tt := range tests {
		if got := tt.move.String(); got != tt.want {
			t.Fatalf("unexpected move string: got %s want %s", got, tt.want)
		}
	}
}

func TestPieceTypePromotion(t *testing.T) {
	for _, pt := range []shogi.PieceType{shogi.FU, shogi.KY, shogi.KE, shogi.GI, shogi.KA, shogi.HI} {
		if !pt.CanPromote() {
			t.Fatalf("%s should promote", pt)
		}
		if pt.Promoted().Demoted() != pt {
			t.Fatalf("%s promote/demote round trip: got %s", pt, pt.Promoted().Demoted())
		}
		if !pt.Promoted().IsPromoted() {
			t.Fatalf("%s promoted form %s not marked promoted", pt, pt.Promoted())
		}
	}
	for _, pt := range []shogi.PieceType{shogi.KI, shogi.OU} {
		if pt.CanPromote() || pt.Promoted() != pt {
			t.Fatalf("%s must not promote", pt)
		}
	}
	if got, ok := shogi.ParsePieceType("RY"); !ok || got != shogi.RY {
		t.Fatalf("ParsePieceType(RY) = %s, %v", got, ok)
	}
	if _, ok := shogi.ParsePieceType("XX"); ok {
		t.Fatalf("ParsePieceType(XX) should fail")
	}
}
