package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "hiyori"

const (
	DefaultEncoding     = "auto"
	DefaultPollInterval = 100 * time.Millisecond
	MinPollInterval     = 10 * time.Millisecond
	DefaultSMITail      = 5 * time.Second
	DefaultListen       = "127.0.0.1:8787"
	DefaultProvider     = "gemini"
	DefaultBatchSize    = 50
	DefaultConcurrency  = 3
)

type Config struct {
	Encoding     string        `koanf:"encoding"`      // charset label or "auto"
	OffsetMs     float64       `koanf:"offset_ms"`     // added to the playback clock
	PollInterval time.Duration `koanf:"poll_interval"` // periodic sync driver
	SMITail      time.Duration `koanf:"smi_tail"`      // duration of the last SAMI cue

	Server    ServerConfig    `koanf:"server"`
	Translate TranslateConfig `koanf:"translate"`
	FFmpeg    FFmpegConfig    `koanf:"ffmpeg"`
	History   HistoryConfig   `koanf:"history"`
}

type ServerConfig struct {
	Listen string `koanf:"listen"`
}

type TranslateConfig struct {
	Provider    string `koanf:"provider"` // "gemini", "openai" or "anthropic"
	Model       string `koanf:"model"`
	BatchSize   int    `koanf:"batch_size"`
	Concurrency int    `koanf:"concurrency"`
}

// FFmpegConfig pins the binaries; empty means look them up.
type FFmpegConfig struct {
	FFmpegPath  string `koanf:"ffmpeg_path"`
	FFprobePath string `koanf:"ffprobe_path"`
}

type HistoryConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Path    string `koanf:"path"`
}

// Load reads the config files and returns the merged result. An explicit
// path replaces the search list and must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	paths := configPaths()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		paths = []string{path}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := k.Load(file.Provider(p), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", p)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	cfg.Encoding = strings.TrimSpace(cfg.Encoding)
	cfg.Server.Listen = strings.TrimSpace(cfg.Server.Listen)
	cfg.Translate.Provider = strings.ToLower(strings.TrimSpace(cfg.Translate.Provider))
	cfg.FFmpeg.FFmpegPath = expandPath(cfg.FFmpeg.FFmpegPath)
	cfg.FFmpeg.FFprobePath = expandPath(cfg.FFmpeg.FFprobePath)
	cfg.History.Path = expandPath(cfg.History.Path)

	return cfg, nil
}

// Default is the configuration used when no file exists.
func Default() *Config {
	return &Config{}
}

// lowest priority first
func configPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		appName + ".toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetEncoding returns the declared charset, "auto" when unset.
func (c *Config) GetEncoding() string {
	if c.Encoding == "" {
		return DefaultEncoding
	}
	return c.Encoding
}

// GetPollInterval returns the sync poll period, never below MinPollInterval.
func (c *Config) GetPollInterval() time.Duration {
	switch {
	case c.PollInterval <= 0:
		return DefaultPollInterval
	case c.PollInterval < MinPollInterval:
		return MinPollInterval
	default:
		return c.PollInterval
	}
}

func (c *Config) GetSMITail() time.Duration {
	if c.SMITail <= 0 {
		return DefaultSMITail
	}
	return c.SMITail
}

func (c *Config) GetListen() string {
	if c.Server.Listen == "" {
		return DefaultListen
	}
	return c.Server.Listen
}

// GetTranslateConfig returns the translation settings with defaults applied.
func (c *Config) GetTranslateConfig() TranslateConfig {
	cfg := c.Translate
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return cfg
}

func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// HistoryPath returns the database location, creating its directory under
// the XDG data home when no path is configured.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	p, err := xdg.DataFile(filepath.Join(appName, "history.db"))
	if err != nil {
		return "", errors.Wrap(err, "resolve history path")
	}
	return p, nil
}
