// Command floodgate replays every CSA record of a directory and checks that
// each game ends on the position recorded in its final comment block.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"floodcheck/pkg/floodgate"
	"floodcheck/pkg/obslog"
)

const usage = "usage: floodgate [flags] <dir>"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("floodgate", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, usage)
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "path to "+floodgate.ConfigFileName+" (default: search upward from the working directory)")
	workers := flags.Int("workers", 0, "number of parallel workers (0=NumCPU)")
	failFast := flags.Bool("fail-fast", true, "stop at the first failing record")
	reportPath := flags.String("report", "", "write a parquet report to this file")
	logLevel := flags.String("log-level", "", "debug, info, warn or error")
	repetition := flags.Int("repetition-limit", 0, "position occurrences that end a replay")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	dir := flags.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = *workers
		case "fail-fast":
			cfg.FailFast = *failFast
		case "report":
			cfg.Report = *reportPath
		case "log-level":
			cfg.Log.Level = *logLevel
		case "repetition-limit":
			cfg.RepetitionLimit = *repetition
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := obslog.Init(obslog.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := validate(ctx, dir, cfg, logger); err != nil {
		if floodgate.IsRecordFailure(err) {
			logger.Error("validation failed", zap.Error(err))
		} else {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func loadConfig(path string) (floodgate.Config, error) {
	if path == "" {
		found, _, err := floodgate.FindConfigPath("")
		if errors.Is(err, floodgate.ErrConfigNotFound) {
			return floodgate.DefaultConfig(), nil
		}
		if err != nil {
			return floodgate.Config{}, err
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return floodgate.Config{}, err
	}
	return floodgate.LoadConfig(abs)
}

func validate(ctx context.Context, dir string, cfg floodgate.Config, logger *zap.Logger) error {
	runner := &floodgate.Runner{
		Workers:         cfg.Workers,
		FailFast:        cfg.FailFast,
		Extensions:      cfg.Extensions,
		RepetitionLimit: cfg.RepetitionLimit,
		Logger:          logger,
	}
	start := time.Now()
	counts := map[floodgate.Status]int{}

	var rows chan floodgate.ReportRow
	writeErr := make(chan error, 1)
	runID := floodgate.NewRunID()
	if cfg.Report != "" {
		if dir := filepath.Dir(cfg.Report); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		rows = make(chan floodgate.ReportRow, 64)
		go func() {
			writeErr <- floodgate.WriteReport(cfg.Report, rows, 4)
		}()
	}

	runErr := runner.Run(ctx, dir, func(res floodgate.Result) {
		counts[res.Status]++
		if rows != nil {
			rows <- floodgate.NewReportRow(runID, res)
		}
	})

	if rows != nil {
		close(rows)
		if err := <-writeErr; err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("wrote report", zap.String("path", cfg.Report), zap.String("run_id", runID))
	}

	fields := []zap.Field{zap.Duration("elapsed", time.Since(start).Round(time.Millisecond))}
	for _, s := range []floodgate.Status{
		floodgate.StatusOK, floodgate.StatusSkipped, floodgate.StatusMalformed,
		floodgate.StatusReadError, floodgate.StatusParseError, floodgate.StatusIllegalMove, floodgate.StatusMismatch,
	} {
		if counts[s] > 0 {
			fields = append(fields, zap.Int(string(s), counts[s]))
		}
	}
	logger.Info("done", fields...)
	return runErr
}
