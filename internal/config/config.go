package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Provider struct {
	Name              string `json:"name" yaml:"name"`
	RequestTimeoutSec int    `json:"request_timeout_sec" yaml:"request_timeout_sec"`
	CacheTTLSeconds   int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheMaxItems     int    `json:"cache_max_items" yaml:"cache_max_items"`
}

type Yahoo struct {
	BaseURL   string `json:"base_url" yaml:"base_url"`
	CookieURL string `json:"cookie_url" yaml:"cookie_url"`
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

type Polygon struct {
	APIKey string `json:"api_key" yaml:"api_key"`
}

type CSV struct {
	Path string `json:"path" yaml:"path"`
}

type Cleaning struct {
	MinImpliedVolatility float64 `json:"min_implied_volatility" yaml:"min_implied_volatility"`
	MaxRelativeSpread    float64 `json:"max_relative_spread" yaml:"max_relative_spread"`
}

type Skew struct {
	MaxStrikeRatio float64 `json:"max_strike_ratio" yaml:"max_strike_ratio"`
}

type Display struct {
	// Mode is "window" (Chrome app window) or "serve" (log the URL only).
	Mode       string `json:"mode" yaml:"mode"`
	Addr       string `json:"addr" yaml:"addr"`
	ChromePath string `json:"chrome_path" yaml:"chrome_path"`
}

type Log struct {
	Level string `json:"level" yaml:"level"`
}

type Config struct {
	Provider Provider `json:"provider" yaml:"provider"`
	Yahoo    Yahoo    `json:"yahoo" yaml:"yahoo"`
	Polygon  Polygon  `json:"polygon" yaml:"polygon"`
	CSV      CSV      `json:"csv" yaml:"csv"`
	Cleaning Cleaning `json:"cleaning" yaml:"cleaning"`
	Skew     Skew     `json:"skew" yaml:"skew"`
	Display  Display  `json:"display" yaml:"display"`
	Log      Log      `json:"log" yaml:"log"`
}

const DefaultFile = "volskew.json"

func Default() Config {
	return Config{
		Provider: Provider{
			Name:              "yahoo",
			RequestTimeoutSec: 30,
			CacheTTLSeconds:   300,
			CacheMaxItems:     512,
		},
		Yahoo: Yahoo{
			BaseURL:   "https://query2.finance.yahoo.com",
			CookieURL: "https://fc.yahoo.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		},
		Cleaning: Cleaning{MinImpliedVolatility: 0.001, MaxRelativeSpread: 0.1},
		Skew:     Skew{MaxStrikeRatio: 2.0},
		Display:  Display{Mode: "window", Addr: "127.0.0.1:0"},
		Log:      Log{Level: "info"},
	}
}

// Load reads JSON (or YAML, by extension) config from path. If path is empty
// it falls back to volskew.json in the working directory; a missing file
// yields defaults. A .env file, when present, is loaded into the environment
// first, and environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(path string, b []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, cfg)
	default:
		return json.Unmarshal(b, cfg)
	}
}

// Validate rejects settings the run cannot work with.
func (c Config) Validate() error {
	switch c.Provider.Name {
	case "yahoo":
	case "polygon":
		if c.Polygon.APIKey == "" {
			return errors.New("provider polygon requires polygon.api_key or POLYGON_API_KEY")
		}
	case "csv":
		if c.CSV.Path == "" {
			return errors.New("provider csv requires csv.path or VOLSKEW_CSV_PATH")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}
	switch c.Display.Mode {
	case "window", "serve":
	default:
		return fmt.Errorf("unknown display mode %q", c.Display.Mode)
	}
	if c.Cleaning.MaxRelativeSpread < 0 {
		return fmt.Errorf("cleaning.max_relative_spread must not be negative, got %v", c.Cleaning.MaxRelativeSpread)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("VOLSKEW_PROVIDER"); v != "" {
		cfg.Provider.Name = strings.ToLower(v)
	}
	if x, ok := envInt("REQUEST_TIMEOUT_SEC"); ok && x > 0 {
		cfg.Provider.RequestTimeoutSec = x
	}
	if x, ok := envInt("VOLSKEW_CACHE_TTL_SEC"); ok && x >= 0 {
		cfg.Provider.CacheTTLSeconds = x
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.Yahoo.BaseURL = v
	}
	if v := os.Getenv("YAHOO_USER_AGENT"); v != "" {
		cfg.Yahoo.UserAgent = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Polygon.APIKey = v
	}
	if v := os.Getenv("VOLSKEW_CSV_PATH"); v != "" {
		cfg.CSV.Path = v
	}
	if x, ok := envFloat("VOLSKEW_MIN_IV"); ok {
		cfg.Cleaning.MinImpliedVolatility = x
	}
	if x, ok := envFloat("VOLSKEW_MAX_SPREAD"); ok {
		cfg.Cleaning.MaxRelativeSpread = x
	}
	if x, ok := envFloat("VOLSKEW_MAX_STRIKE_RATIO"); ok && x > 0 {
		cfg.Skew.MaxStrikeRatio = x
	}
	if v := os.Getenv("VOLSKEW_DISPLAY"); v != "" {
		cfg.Display.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("VOLSKEW_DISPLAY_ADDR"); v != "" {
		cfg.Display.Addr = v
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.Display.ChromePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// envInt and envFloat report ok only for a set, parsable variable.
func envInt(key string) (int, bool) {
	x, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	return x, err == nil
}

func envFloat(key string) (float64, bool) {
	x, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	return x, err == nil
}
