package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	ReportDB   string `toml:"report_db"`
}

// Catalog selects and tunes the catalog source collaborator.
type Catalog struct {
	Source            string  `toml:"source"`
	IndexURL          string  `toml:"index_url"`
	LocalDir          string  `toml:"local_dir"`
	RequestTimeout    int     `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Bank describes the output layout and the fill policy.
type Bank struct {
	Banks        int     `toml:"banks"`
	Stations     int     `toml:"stations"`
	Minutes      int     `toml:"minutes"`
	Diversity    int     `toml:"diversity"`
	MinFillRatio float64 `toml:"min_fill_ratio"`
}

// Audio fixes the output format required by the target hardware.
type Audio struct {
	SampleRate       int    `toml:"sample_rate"`
	BitDepth         int    `toml:"bit_depth"`
	Channels         int    `toml:"channels"`
	CrossfadeSeconds int    `toml:"crossfade_seconds"`
	SoxBinary        string `toml:"sox_binary"`
}

// Run controls scheduling across stations.
type Run struct {
	Workers int   `toml:"workers"`
	Seed    int64 `toml:"seed"`
}

// Log contains logging configuration.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration document.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Catalog Catalog `toml:"catalog"`
	Bank    Bank    `toml:"bank"`
	Audio   Audio   `toml:"audio"`
	Run     Run     `toml:"run"`
	Log     Log     `toml:"log"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "radiobank", "config.toml"), nil
}

// Load reads the config file at path, or defaults when path is empty and the
// canonical file does not exist.
func Load(path string) (*Config, error) {
	resolved := strings.TrimSpace(path)
	explicit := resolved != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		resolved = defaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return nil, fmt.Errorf("read %s: %w", resolved, err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("RADIOBANK_SOX")); v != "" {
		c.Audio.SoxBinary = v
	}
	if v := strings.TrimSpace(os.Getenv("RADIOBANK_INDEX_URL")); v != "" {
		c.Catalog.IndexURL = v
	}
}

// EnsureDirectories creates the directories the application writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.ReportDB)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample config to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
