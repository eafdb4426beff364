package main

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"volskew/internal/config"
	"volskew/internal/provider/cache"
	"volskew/internal/provider/csvfile"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		mutate   func(*config.Config)
		wantName string
	}{
		{"yahoo", func(*config.Config) {}, "Yahoo"},
		{"polygon", func(c *config.Config) { c.Provider.Name = "polygon"; c.Polygon.APIKey = "k" }, "Polygon"},
		{"csv", func(c *config.Config) { c.Provider.Name = "csv"; c.CSV.Path = "chain.csv" }, "CSV"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tc.mutate(&cfg)

			p, err := newProvider(cfg)

			require.NoError(t, err)
			require.Equal(t, tc.wantName, p.Name())
			require.IsType(t, &cache.Provider{}, p)
		})
	}
}

func TestNewProvider_NoCache(t *testing.T) {
	t.Parallel()

	// Arrange
	cfg := config.Default()
	cfg.Provider.Name = "csv"
	cfg.CSV.Path = "chain.csv"
	cfg.Provider.CacheTTLSeconds = 0

	// Act
	p, err := newProvider(cfg)

	// Assert
	require.NoError(t, err)
	require.IsType(t, &csvfile.Provider{}, p)
}

func TestNewProvider_Unknown(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Provider.Name = "bloomberg"

	_, err := newProvider(cfg)
	require.ErrorContains(t, err, "unknown provider")
}

func TestRunIDHook(t *testing.T) {
	t.Parallel()

	e := log.NewEntry(log.New())
	require.NoError(t, runIDHook{id: "abc"}.Fire(e))
	require.Equal(t, "abc", e.Data["run_id"])
}

func TestFilter(t *testing.T) {
	t.Parallel()

	f := filter(config.Default())
	require.Equal(t, 0.001, f.MinImpliedVolatility)
	require.Equal(t, 0.1, f.MaxRelativeSpread)
}
