// Package marketdata fetches spot prices and option chains from a provider
// and filters them down to quotes usable for a volatility skew.
package marketdata

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"volskew/internal/provider"
)

// Source is an initialized view of one ticker: its spot price and the
// maturities the provider lists for it.
type Source struct {
	Ticker     string
	Spot       float64
	Maturities []string

	p provider.Provider
}

// New resolves ticker against p, takes the last daily close as spot and
// enumerates the available maturities.
func New(ctx context.Context, p provider.Provider, ticker string) (*Source, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	bars, err := p.History(ctx, ticker)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: "history", Ticker: ticker, Err: err}
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrEmptyHistory)
	}
	spot := bars[len(bars)-1].Close

	maturities, err := p.Maturities(ctx, ticker)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Op: "maturities", Ticker: ticker, Err: err}
	}

	log.WithFields(log.Fields{
		"ticker":     ticker,
		"provider":   p.Name(),
		"spot":       spot,
		"maturities": len(maturities),
	}).Debug("market data source initialized")

	return &Source{Ticker: ticker, Spot: spot, Maturities: maturities, p: p}, nil
}

// FetchChain requests every maturity in turn and keeps only the requested
// side. A maturity without quotes on that side maps to an empty slice.
func (s *Source) FetchChain(ctx context.Context, side provider.Side) (Chains, error) {
	out := make(Chains, len(s.Maturities))
	for _, m := range s.Maturities {
		chain, err := s.p.Chain(ctx, s.Ticker, m)
		if err != nil {
			return nil, &ProviderError{Provider: s.p.Name(), Op: "chain " + m, Ticker: s.Ticker, Err: err}
		}
		quotes := chain.Side(side)
		log.Debugf("fetched %d %s for %s %s", len(quotes), side, s.Ticker, m)
		out[m] = quotes
	}
	return out, nil
}
