package main

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"volskew/internal/config"
	"volskew/internal/httpx"
	"volskew/internal/provider"
	"volskew/internal/provider/cache"
	"volskew/internal/provider/csvfile"
	"volskew/internal/provider/polygon"
	"volskew/internal/provider/yahoo"
	"volskew/internal/provider/yahooadapter"
)

// newProvider builds the configured provider wrapped in the per-run cache.
func newProvider(cfg config.Config) (provider.Provider, error) {
	httpClient := httpx.New(time.Duration(cfg.Provider.RequestTimeoutSec) * time.Second)

	var p provider.Provider
	switch cfg.Provider.Name {
	case "yahoo":
		httpClient.UserAgent = cfg.Yahoo.UserAgent
		client, err := yahoo.NewYahooAPIClient(
			yahoo.WithHTTPClient(httpClient),
			yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
			yahoo.WithCookieURL(cfg.Yahoo.CookieURL),
			yahoo.WithHeader(http.Header{
				"Accept": []string{"application/json"},
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("yahoo client: %w", err)
		}
		p = yahooadapter.New(yahooadapter.Config{}, client)
	case "polygon":
		p = polygon.New(polygon.Config{APIKey: cfg.Polygon.APIKey}, httpClient)
	case "csv":
		p = csvfile.New(csvfile.Config{Path: cfg.CSV.Path})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}

	if cfg.Provider.CacheTTLSeconds > 0 {
		p = &cache.Provider{P: p, TTL: time.Duration(cfg.Provider.CacheTTLSeconds) * time.Second, MaxItems: cfg.Provider.CacheMaxItems}
	}
	log.WithFields(log.Fields{"provider": p.Name(), "cache_ttl_sec": cfg.Provider.CacheTTLSeconds}).Debug("provider ready")
	return p, nil
}
