package floodgate_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"floodcheck/pkg/csa"
	"floodcheck/pkg/floodgate"
	"floodcheck/pkg/shogi"
)

func parseFixture(t *testing.T, name string) *csa.Record {
	t.Helper()
	rec, err := csa.Parse(readFixture(t, name))
	if err != nil {
		t.Fatalf("failed to parse %s: %v", name, err)
	}
	return rec
}

func TestReplayEmpty(t *testing.T) {
	pos := shogi.NewPosition()
	start := pos.Key()
	res, err := floodgate.Replay(pos, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if pos.Key() != start || pos.String() != shogi.NewPosition().String() {
		t.Fatal("empty replay changed the position")
	}
	if res.Applied != 0 || res.Repetition || res.StoppedAt != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Table.Len() != 1 || res.Table.Count(start) != 1 {
		t.Fatalf("unexpected table: len=%d count=%d", res.Table.Len(), res.Table.Count(start))
	}
}

func TestReplaySkipsSpecialActions(t *testing.T) {
	pos := shogi.NewPosition()
	actions := []csa.Action{
		action(shogi.Black, at(7, 7), at(7, 6), shogi.FU),
		{Kind: csa.Chudan},
		action(shogi.White, at(3, 3), at(3, 4), shogi.FU),
		{Kind: csa.Toryo},
	}
	res, err := floodgate.Replay(pos, actions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if res.Applied != 2 || pos.Ply() != 2 {
		t.Fatalf("unexpected applied count %d (ply %d)", res.Applied, pos.Ply())
	}
	if res.Table.Len() != 3 {
		t.Fatalf("unexpected table size %d", res.Table.Len())
	}
}

func TestReplayStopsOnFourfoldRepetition(t *testing.T) {
	rec := parseFixture(t, "repetition.csa")
	actions := rec.Actions()

	// The position after eleven moves, built by hand.
	want := shogi.NewPosition()
	for _, a := range actions[:11] {
		m, _ := floodgate.TranslateAction(a, want)
		if err := want.DoMove(m); err != nil {
			t.Fatalf("DoMove: %v", err)
		}
	}

	pos := shogi.NewPosition()
	start := pos.Key()
	res, err := floodgate.Replay(pos, actions)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !res.Repetition || res.StoppedAt != 12 || res.Applied != 11 {
		t.Fatalf("unexpected result: repetition=%v stopped=%d applied=%d", res.Repetition, res.StoppedAt, res.Applied)
	}
	if pos.Key() != want.Key() {
		t.Fatalf("unexpected final key: got=%016x want=%016x", pos.Key(), want.Key())
	}
	if res.Table.Count(start) != 4 {
		t.Fatalf("start position count: got %d want 4", res.Table.Count(start))
	}
	if pos.SideToMove() != shogi.White {
		t.Fatalf("unexpected side to move %s", pos.SideToMove())
	}
}

func TestReplayRepetitionLimit(t *testing.T) {
	rec := parseFixture(t, "repetition.csa")
	pos := shogi.NewPosition()
	res, err := floodgate.Replay(pos, rec.Actions(), floodgate.WithRepetitionLimit(3))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	// The start position occurs for the third time after move 8.
	if res.StoppedAt != 8 || res.Applied != 7 {
		t.Fatalf("unexpected result: stopped=%d applied=%d", res.StoppedAt, res.Applied)
	}
}

func TestReplayIllegalMove(t *testing.T) {
	rec := parseFixture(t, "illegal.csa")
	pos := shogi.NewPosition()
	res, err := floodgate.Replay(pos, rec.Actions())
	var illegal *floodgate.IllegalMoveError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected *IllegalMoveError, got %v", err)
	}
	if illegal.Index != 3 {
		t.Fatalf("unexpected index %d", illegal.Index)
	}
	if illegal.Key != pos.Key() {
		t.Fatalf("error key %016x does not match position %016x", illegal.Key, pos.Key())
	}
	if !errors.Is(err, shogi.ErrIllegalMove) {
		t.Fatalf("expected wrapped ErrIllegalMove, got %v", err)
	}
	if res.Applied != 2 {
		t.Fatalf("unexpected applied count %d", res.Applied)
	}
}

func TestReplayLogsMoves(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := parseFixture(t, "repetition.csa")
	pos := shogi.NewPosition()
	if _, err := floodgate.Replay(pos, rec.Actions(), floodgate.WithLogger(zap.New(core))); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	entries := logs.FilterMessage("move").All()
	// The twelfth move is logged before it is undone.
	if len(entries) != 12 {
		t.Fatalf("unexpected move log count %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["move"] != "+2818HI" || fields["index"] != int64(1) {
		t.Fatalf("unexpected first entry %v", fields)
	}
	if key, _ := fields["key"].(string); len(key) != 16 {
		t.Fatalf("key should be 16 hex digits, got %q", key)
	}
}
