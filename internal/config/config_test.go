package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	require.Equal(t, Default(), cfg)
	require.Equal(t, 0.001, cfg.Cleaning.MinImpliedVolatility)
	require.Equal(t, 0.1, cfg.Cleaning.MaxRelativeSpread)
	require.Equal(t, 2.0, cfg.Skew.MaxStrikeRatio)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "volskew.json", `{
		"provider": {"name": "csv"},
		"csv": {"path": "chain.csv"},
		"skew": {"max_strike_ratio": 1.5}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "csv", cfg.Provider.Name)
	require.Equal(t, "chain.csv", cfg.CSV.Path)
	require.Equal(t, 1.5, cfg.Skew.MaxStrikeRatio)
	require.Equal(t, 30, cfg.Provider.RequestTimeoutSec)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "volskew.yaml", `
cleaning:
  min_implied_volatility: 0.01
  max_relative_spread: 0.25
display:
  mode: serve
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 0.01, cfg.Cleaning.MinImpliedVolatility)
	require.Equal(t, 0.25, cfg.Cleaning.MaxRelativeSpread)
	require.Equal(t, "serve", cfg.Display.Mode)
}

func TestLoad_ParseError(t *testing.T) {
	path := writeFile(t, "volskew.json", `{"provider":`)

	_, err := Load(path)
	require.ErrorContains(t, err, "parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VOLSKEW_PROVIDER", "Polygon")
	t.Setenv("POLYGON_API_KEY", "secret")
	t.Setenv("VOLSKEW_MAX_STRIKE_RATIO", "1.25")
	t.Setenv("VOLSKEW_DISPLAY", "serve")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	require.Equal(t, "polygon", cfg.Provider.Name)
	require.Equal(t, "secret", cfg.Polygon.APIKey)
	require.Equal(t, 1.25, cfg.Skew.MaxStrikeRatio)
	require.Equal(t, "serve", cfg.Display.Mode)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvUnparsableIgnored(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT_SEC", "soon")
	t.Setenv("VOLSKEW_CACHE_TTL_SEC", " 0 ")
	t.Setenv("VOLSKEW_MAX_SPREAD", "wide")
	t.Setenv("VOLSKEW_MIN_IV", "0.02")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	require.Equal(t, 30, cfg.Provider.RequestTimeoutSec)
	require.Equal(t, 0, cfg.Provider.CacheTTLSeconds)
	require.Equal(t, 0.1, cfg.Cleaning.MaxRelativeSpread)
	require.Equal(t, 0.02, cfg.Cleaning.MinImpliedVolatility)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Provider.Name = "polygon"
	require.Error(t, cfg.Validate())
	cfg.Polygon.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Provider.Name = "csv"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Provider.Name = "bloomberg"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Display.Mode = "popup"
	require.Error(t, cfg.Validate())
}
