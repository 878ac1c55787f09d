package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// HTTPConfig holds the defaults every outgoing request carries.
type HTTPConfig struct {
	UserAgent        string            `yaml:"user_agent"`
	Accept           string            `yaml:"accept"`
	GetTimeout       time.Duration     `yaml:"get_timeout"`
	PostTimeout      time.Duration     `yaml:"post_timeout"`
	Headers          map[string]string `yaml:"headers"`
	CloudflareBypass bool              `yaml:"cloudflare_bypass"`
}

// CardmarketConfig holds settings specific to the marketplace.
type CardmarketConfig struct {
	// LoadMoreURL overrides the endpoint derived from the product URL.
	LoadMoreURL    string `yaml:"load_more_url"`
	FilterSettings string `yaml:"filter_settings"`
	MaxPages       int    `yaml:"max_pages"`
}

// BrowserConfig controls the optional headless browser warm-up.
type BrowserConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Headless bool          `yaml:"headless"`
	Timeout  time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

type OutputConfig struct {
	Format string `yaml:"format"` // plain or table
}

// Config is the complete structure for the config.yml file.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Cardmarket CardmarketConfig `yaml:"cardmarket"`
	Browser    BrowserConfig    `yaml:"browser"`
	Log        LogConfig        `yaml:"log"`
	Output     OutputConfig     `yaml:"output"`
}

const (
	DefaultUserAgent      = "card-market-finder/1.0 (+https://localhost) go-resty"
	DefaultFilterSettings = "[]"
	DefaultMaxPages       = 500
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:   DefaultUserAgent,
			Accept:      "*/*",
			GetTimeout:  30 * time.Second,
			PostTimeout: 60 * time.Second,
		},
		Cardmarket: CardmarketConfig{
			FilterSettings: DefaultFilterSettings,
			MaxPages:       DefaultMaxPages,
		},
		Browser: BrowserConfig{
			Headless: true,
			Timeout:  60 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
		Output: OutputConfig{
			Format: "plain",
		},
	}
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func readYAML(path string, out *Config) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshalling config YAML %s: %w", path, err)
	}
	return true, nil
}

// Load reads path on top of the defaults, then decodes <name>.local.<ext>
// over it, then applies CARDFINDER_* environment overrides (a .env file in
// the working directory is loaded first). Missing files are not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		found, err := readYAML(path, cfg)
		if err != nil {
			return nil, err
		}
		if !found {
			slog.Debug("Config: file not found, using defaults", "path", path)
		}

		// keys absent from the local file keep their current values,
		// so a present false or zero still overrides
		local := localPath(path)
		found, err = readYAML(local, cfg)
		if err != nil {
			return nil, err
		}
		if found {
			slog.Debug("Config: applied local overrides", "local", local)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would disable a safety bound.
func (c *Config) Validate() error {
	if c.Cardmarket.MaxPages < 1 {
		return fmt.Errorf("cardmarket.max_pages must be at least 1, got %d", c.Cardmarket.MaxPages)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CARDFINDER_USER_AGENT"); v != "" {
		cfg.HTTP.UserAgent = v
	}
	if v := os.Getenv("CARDFINDER_LOAD_MORE_URL"); v != "" {
		cfg.Cardmarket.LoadMoreURL = v
	}
	if v := os.Getenv("CARDFINDER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CARDFINDER_OUTPUT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("CARDFINDER_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("CARDFINDER_MAX_PAGES must be a positive integer, got %q", v)
		}
		cfg.Cardmarket.MaxPages = n
	}
	for name, dst := range map[string]*bool{
		"CARDFINDER_CLOUDFLARE_BYPASS": &cfg.HTTP.CloudflareBypass,
		"CARDFINDER_BROWSER":           &cfg.Browser.Enabled,
		"CARDFINDER_BROWSER_HEADLESS":  &cfg.Browser.Headless,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", name, v)
		}
		*dst = b
	}
	return nil
}
