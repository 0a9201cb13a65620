// Package config loads service configuration from a TOML file with
// environment overrides. A .env file is honoured when present, so API keys
// can live next to the service instead of in the shell profile.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/cybercache/internal/logger"
)

// Config is the full service configuration.
type Config struct {
	// DataDir holds the SQLite database. Defaults to ~/.cybercache/data.
	DataDir string `toml:"data_dir"`

	// ListenAddr is the HTTP bind address. Defaults to ":3000".
	ListenAddr string `toml:"listen_addr"`

	// UploadsDir receives disk copies of uploaded files.
	// Defaults to ~/.cybercache/uploads.
	UploadsDir string `toml:"uploads_dir"`

	// WatchedDirs are the directory trees the watcher auto-imports from.
	WatchedDirs []string `toml:"watched_dirs"`

	// MaxUploadBytes caps upload payloads. Defaults to 100 MB.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`

	Classifier ClassifierConfig `toml:"classifier"`
	Export     ExportConfig     `toml:"export"`

	// API keys come from the environment only, never from the TOML file.
	OpenAIKey    string `toml:"-"`
	AnthropicKey string `toml:"-"`
}

// ClassifierConfig tunes the AI classifier tiers.
type ClassifierConfig struct {
	// TimeoutSeconds bounds each remote classification call. Defaults to 30.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a duration, falling back to 30s.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExportConfig tunes bookmark export.
type ExportConfig struct {
	// FileBaseURL is the service address file-resource bookmarks point at.
	FileBaseURL string `toml:"file_base_url"`
}

// Load reads configuration: defaults, then the TOML file (path, or
// ~/.cybercache/config.toml when path is empty; a missing file is fine),
// then CYBERCACHE_* environment overrides. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Missing .env is the common case, not an error.
	if err := godotenv.Load(); err == nil {
		logger.Debug().Msg("Loaded environment from .env")
	}

	cfg := defaults()

	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".cybercache", "config.toml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
			logger.Debug().Str("path", path).Msg("Loaded config file")
		case os.IsNotExist(err):
			// Defaults apply.
		default:
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".cybercache")

	return &Config{
		DataDir:        filepath.Join(base, "data"),
		ListenAddr:     ":3000",
		UploadsDir:     filepath.Join(base, "uploads"),
		MaxUploadBytes: 100 << 20,
		Classifier:     ClassifierConfig{TimeoutSeconds: 30},
		Export:         ExportConfig{FileBaseURL: "http://localhost:3000"},
	}
}

// applyEnv layers CYBERCACHE_* variables over the file values, and picks up
// the AI provider keys.
func (c *Config) applyEnv() {
	setString := func(key string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}

	setString("CYBERCACHE_DATA_DIR", &c.DataDir)
	setString("CYBERCACHE_LISTEN_ADDR", &c.ListenAddr)
	setString("CYBERCACHE_UPLOADS_DIR", &c.UploadsDir)
	setString("CYBERCACHE_FILE_BASE_URL", &c.Export.FileBaseURL)

	if v := os.Getenv("CYBERCACHE_WATCHED_DIRS"); v != "" {
		var dirs []string
		for _, dir := range strings.Split(v, string(os.PathListSeparator)) {
			if dir = strings.TrimSpace(dir); dir != "" {
				dirs = append(dirs, dir)
			}
		}
		c.WatchedDirs = dirs
	}

	if v := os.Getenv("CYBERCACHE_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxUploadBytes = n
		} else {
			logger.Warn().Str("value", v).Msg("Ignoring invalid CYBERCACHE_MAX_UPLOAD_BYTES")
		}
	}

	if v := os.Getenv("CYBERCACHE_CLASSIFIER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Classifier.TimeoutSeconds = n
		} else {
			logger.Warn().Str("value", v).Msg("Ignoring invalid CYBERCACHE_CLASSIFIER_TIMEOUT_SECONDS")
		}
	}

	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
}
