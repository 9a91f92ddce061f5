package floodgate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"floodcheck/pkg/csa"
	"floodcheck/pkg/shogi"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusSkipped     Status = "skipped"
	StatusMalformed   Status = "malformed"
	StatusReadError   Status = "read_error"
	StatusParseError  Status = "parse_error"
	StatusIllegalMove Status = "illegal_move"
	StatusMismatch    Status = "mismatch"
)

// Result is the outcome of validating one record.
type Result struct {
	Path       string
	Status     Status
	Err        error
	Actions    int
	Applied    int
	Repetition bool
	StoppedAt  int
	FinalKey   uint64
	FinalSFEN  string
	// FinalPacked is the hex form of the packed final position, empty when
	// the position does not hold a full piece set.
	FinalPacked string
	Facets      []Facet
}

// Fatal reports whether the result should fail a validation run.
func (r Result) Fatal() bool {
	switch r.Status {
	case StatusReadError, StatusParseError, StatusIllegalMove, StatusMismatch:
		return true
	default:
		return false
	}
}

// StartPosition builds the engine position a record starts from.
func StartPosition(start csa.InitialPosition) (*shogi.Position, error) {
	pos := shogi.NewEmptyPosition()
	for rank := 1; rank <= 9; rank++ {
		for file := 1; file <= 9; file++ {
			cell := start.Board[rank-1][file-1]
			if cell.Piece == shogi.NoPieceType {
				continue
			}
			pos.Put(shogi.NewSquare(file, rank), shogi.NewPiece(cell.Color, cell.Piece))
		}
	}
	for c := shogi.Black; c <= shogi.White; c++ {
		for _, t := range start.Hands[c] {
			if err := pos.SetHand(c, t, pos.Hand(c, t)+1); err != nil {
				return nil, fmt.Errorf("start position: %w", err)
			}
		}
	}
	pos.SetSideToMove(start.Side)
	return pos, nil
}

// ValidateFile reads a record from disk and validates it.
func ValidateFile(path string, opts ...Option) Result {
	text, err := csa.ReadFile(path)
	if err != nil {
		return Result{Path: path, Status: StatusReadError, Err: err}
	}
	return ValidateRecord(path, text, opts...)
}

// ValidateRecord replays a record and checks the reached position against
// its final-position annotation. Records without an annotation are skipped.
func ValidateRecord(path, text string, opts ...Option) Result {
	o := buildOptions(opts)
	logger := o.logger.With(zap.String("path", path))
	replayOpts := append(append([]Option(nil), opts...), WithLogger(logger))
	res := Result{Path: path}

	expected, ok, err := ExtractExpected(text)
	if !ok {
		res.Status = StatusSkipped
		return res
	}
	if err != nil {
		res.Status, res.Err = StatusMalformed, err
		return res
	}

	rec, err := csa.Parse(text)
	if err != nil {
		res.Status, res.Err = StatusParseError, fmt.Errorf("failed to parse csa %s: %w", path, err)
		return res
	}
	res.Actions = len(rec.Moves)

	pos, err := StartPosition(rec.Start)
	if err != nil {
		res.Status, res.Err = StatusParseError, fmt.Errorf("%s: %w", path, err)
		return res
	}

	replay, err := Replay(pos, rec.Actions(), replayOpts...)
	res.Applied = replay.Applied
	res.Repetition = replay.Repetition
	res.StoppedAt = replay.StoppedAt
	res.FinalKey = pos.Key()
	if err != nil {
		res.Status, res.Err = StatusIllegalMove, fmt.Errorf("%s: %w", path, err)
		return res
	}
	res.FinalSFEN = pos.SFEN(pos.Ply() + 1)
	if packed, err := pos.Pack(); err == nil {
		res.FinalPacked = packed.String()
	}

	reached, err := ReachedState(pos)
	if err != nil {
		res.Status, res.Err = StatusMismatch, err
		return res
	}
	if err := Compare(expected, reached, text); err != nil {
		res.Status, res.Err = StatusMismatch, err
		var mismatch *MismatchError
		if errors.As(err, &mismatch) {
			res.Facets = mismatch.Facets
		}
		return res
	}
	res.Status = StatusOK
	return res
}
