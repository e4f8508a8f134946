package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tailscale/hujson"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLUENOTE_"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config")
)

// Config holds all configuration options.
type Config struct {
	DataDir    string `env:"DATA_DIR"`
	LogLevel   int    `env:"LOG_LEVEL"`
	Passphrase string `env:"PASSPHRASE"`
	Notes      Notes  `envPrefix:"NOTES_"`
	Auth       Auth   `envPrefix:"AUTH_"`

	// Source is the config file that was loaded, empty when none was.
	Source string
}

// Notes holds the note editing limits.
type Notes struct {
	MaxTitleLength       int           `env:"MAX_TITLE_LENGTH"`
	MaxDescriptionLength int           `env:"MAX_DESCRIPTION_LENGTH"`
	SearchDebounce       time.Duration `env:"SEARCH_DEBOUNCE"`
}

// Auth holds the demo credential and the simulated login latency.
type Auth struct {
	Username   string        `env:"USERNAME"`
	Password   string        `env:"PASSWORD"`
	LoginDelay time.Duration `env:"LOGIN_DELAY"`
}

// Default returns the default configuration.
func Default() Config {
	dataDir := ".bluenote"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".bluenote")
	}

	return Config{
		DataDir: dataDir,
		Notes: Notes{
			MaxTitleLength:       100,
			MaxDescriptionLength: 500,
			SearchDebounce:       300 * time.Millisecond,
		},
		Auth: Auth{
			Username:   "test",
			Password:   "password123",
			LoginDelay: time.Second,
		},
	}
}

// GlobalPath returns $XDG_CONFIG_HOME/bluenote/config.json, falling back to
// ~/.config/bluenote/config.json. Empty when no home directory is known.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bluenote", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bluenote", "config.json")
}

// Load builds the configuration with the following precedence (highest wins):
// defaults, the config file, environment variables.
// An explicit path must exist; the global file is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	mustExist := path != ""
	if !mustExist {
		path = GlobalPath()
	}

	if path != "" {
		loaded, err := loadFile(&cfg, path, mustExist)
		if err != nil {
			return nil, err
		}
		if loaded {
			cfg.Source = path
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data dir is empty", errConfigInvalid)
	case c.Notes.MaxTitleLength <= 0:
		return fmt.Errorf("%w: max title length must be positive", errConfigInvalid)
	case c.Notes.MaxDescriptionLength <= 0:
		return fmt.Errorf("%w: max description length must be positive", errConfigInvalid)
	case c.Notes.SearchDebounce < 0:
		return fmt.Errorf("%w: search debounce is negative", errConfigInvalid)
	case c.Auth.LoginDelay < 0:
		return fmt.Errorf("%w: login delay is negative", errConfigInvalid)
	case c.Auth.Username == "" || c.Auth.Password == "":
		return fmt.Errorf("%w: demo credential is incomplete", errConfigInvalid)
	}
	return nil
}

type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"300ms\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

type fileConfig struct {
	DataDir    *string `json:"data_dir"`
	LogLevel   *int    `json:"log_level"`
	Passphrase *string `json:"passphrase"`
	Notes      struct {
		MaxTitleLength       *int      `json:"max_title_length"`
		MaxDescriptionLength *int      `json:"max_description_length"`
		SearchDebounce       *duration `json:"search_debounce"`
	} `json:"notes"`
	Auth struct {
		Username   *string   `json:"username"`
		Password   *string   `json:"password"`
		LoginDelay *duration `json:"login_delay"`
	} `json:"auth"`
}

func loadFile(cfg *Config, path string, mustExist bool) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-controlled on purpose
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %s", errConfigFileNotFound, path)
		}
		return false, fmt.Errorf("read config %s: %w", path, err)
	}

	fc, err := parseFile(data)
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	fc.apply(cfg)
	return true, nil
}

func parseFile(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fileConfig{}, err
	}
	return fc, nil
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.DataDir != nil {
		cfg.DataDir = *fc.DataDir
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.Passphrase != nil {
		cfg.Passphrase = *fc.Passphrase
	}
	if fc.Notes.MaxTitleLength != nil {
		cfg.Notes.MaxTitleLength = *fc.Notes.MaxTitleLength
	}
	if fc.Notes.MaxDescriptionLength != nil {
		cfg.Notes.MaxDescriptionLength = *fc.Notes.MaxDescriptionLength
	}
	if fc.Notes.SearchDebounce != nil {
		cfg.Notes.SearchDebounce = time.Duration(*fc.Notes.SearchDebounce)
	}
	if fc.Auth.Username != nil {
		cfg.Auth.Username = *fc.Auth.Username
	}
	if fc.Auth.Password != nil {
		cfg.Auth.Password = *fc.Auth.Password
	}
	if fc.Auth.LoginDelay != nil {
		cfg.Auth.LoginDelay = time.Duration(*fc.Auth.LoginDelay)
	}
}
