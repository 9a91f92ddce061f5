package floodgate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordError is returned by a fail-fast run for the first fatal record.
type RecordError struct {
	Result Result
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Result.Path, e.Result.Status, e.Result.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Result.Err
}

// BatchError is returned by a run that kept going past fatal records.
type BatchError struct {
	Failed []Result
	Total  int
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("%d of %d records failed", len(e.Failed), e.Total)
	if len(e.Failed) > 0 {
		first := e.Failed[0]
		msg += fmt.Sprintf("; first: %s: %s", first.Path, first.Status)
	}
	return msg
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		errs = append(errs, r.Err)
	}
	return errs
}

// Runner validates every record file of a directory.
type Runner struct {
	Workers         int      // <= 0 means runtime.NumCPU()
	FailFast        bool     // stop at the first fatal record
	Extensions      []string // empty means every regular file
	RepetitionLimit int
	Logger          *zap.Logger
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

// Collect lists the record files directly inside dir, sorted by name.
func (r *Runner) Collect(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !r.matches(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) matches(name string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, want := range r.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Run validates the records of dir in parallel and hands each result to
// sink. sink is never called concurrently. The returned error is a
// *RecordError or *BatchError when a record failed.
func (r *Runner) Run(ctx context.Context, dir string, sink func(Result)) error {
	files, err := r.Collect(dir)
	if err != nil {
		return err
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := r.logger()
	opts := []Option{WithLogger(logger)}
	if r.RepetitionLimit > 0 {
		opts = append(opts, WithRepetitionLimit(r.RepetitionLimit))
	}
	logger.Info("validating records", zap.String("dir", dir), zap.Int("files", len(files)), zap.Int("workers", workers))

	var (
		mu     sync.Mutex
		failed []Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			logger.Info("record", zap.String("path", path))
			res := ValidateFile(path, opts...)
			logResult(logger, res)

			mu.Lock()
			if sink != nil {
				sink(res)
			}
			if res.Fatal() {
				failed = append(failed, res)
			}
			mu.Unlock()

			if res.Fatal() && r.FailFast {
				return &RecordError{Result: res}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Path < failed[j].Path })
		return &BatchError{Failed: failed, Total: len(files)}
	}
	return nil
}

func logResult(logger *zap.Logger, res Result) {
	fields := []zap.Field{
		zap.String("path", res.Path),
		zap.String("status", string(res.Status)),
		zap.Int("applied", res.Applied),
	}
	switch {
	case res.Fatal():
		logger.Error("record failed", append(fields, zap.Error(res.Err))...)
	case res.Status == StatusMalformed:
		logger.Warn("record skipped", append(fields, zap.Error(res.Err))...)
	case res.Repetition:
		logger.Info("record ok", append(fields, zap.Int("stopped_at", res.StoppedAt))...)
	default:
		logger.Debug("record done", fields...)
	}
}

// IsRecordFailure reports whether err came from a failed record rather than
// from listing the directory or cancellation.
func IsRecordFailure(err error) bool {
	var recErr *RecordError
	var batchErr *BatchError
	return errors.As(err, &recErr) || errors.As(err, &batchErr)
}
