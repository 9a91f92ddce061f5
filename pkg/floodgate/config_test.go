package floodgate_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"floodcheck/pkg/floodgate"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, floodgate.ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestFindConfigPathWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, "workers: 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, dir, err := floodgate.FindConfigPath(nested)
	if err != nil {
		t.Fatalf("FindConfigPath: %v", err)
	}
	if path != want || dir != root {
		t.Fatalf("unexpected result %s %s", path, dir)
	}
}

func TestFindConfigPathMissing(t *testing.T) {
	_, _, err := floodgate.FindConfigPath(t.TempDir())
	// A floodgate.yaml above the temp dir would be found; that is not
	// expected on a test machine.
	if !errors.Is(err, floodgate.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "workers: 8\nfail_fast: false\nreport: out/report.parquet\nlog:\n  level: debug\n")
	cfg, err := floodgate.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 8 || cfg.FailFast {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Report != filepath.Join(dir, "out", "report.parquet") {
		t.Fatalf("report path not resolved: %s", cfg.Report)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if len(cfg.Extensions) != 1 || cfg.Extensions[0] != ".csa" || cfg.RepetitionLimit != floodgate.DefaultRepetitionLimit {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	for _, body := range []string{
		"repetition_limit: 1\n",
		"log:\n  format: xml\n",
		"workers: [\n",
	} {
		path := writeConfig(t, t.TempDir(), body)
		if _, err := floodgate.LoadConfig(path); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}
