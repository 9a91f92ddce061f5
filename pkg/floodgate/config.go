package floodgate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "floodgate.yaml"

var ErrConfigNotFound = errors.New(ConfigFileName + " not found")

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Workers         int       `yaml:"workers"`
	FailFast        bool      `yaml:"fail_fast"`
	Extensions      []string  `yaml:"extensions"`
	RepetitionLimit int       `yaml:"repetition_limit"`
	Report          string    `yaml:"report"`
	Log             LogConfig `yaml:"log"`
}

func DefaultConfig() Config {
	return Config{
		FailFast:        true,
		Extensions:      []string{".csa"},
		RepetitionLimit: DefaultRepetitionLimit,
		Log:             LogConfig{Level: "info", Format: "console"},
	}
}

// FindConfigPath looks for floodgate.yaml in start and its parents. An
// empty start means the working directory. It returns the file and the
// directory holding it.
func FindConfigPath(start string) (string, string, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		start = cwd
	}
	dir := start
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("%w from %s", ErrConfigNotFound, start)
}

// LoadConfig reads a config file over the defaults. A relative report path
// is resolved against the file's directory.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Report != "" && !filepath.IsAbs(cfg.Report) {
		cfg.Report = filepath.Join(filepath.Dir(path), cfg.Report)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RepetitionLimit != 0 && c.RepetitionLimit < 2 {
		return fmt.Errorf("repetition_limit must be at least 2, got %d", c.RepetitionLimit)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
