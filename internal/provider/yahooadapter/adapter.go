package yahooadapter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"volskew/internal/provider"
	"volskew/internal/provider/yahoo"
)

type Config struct {
	Name string // display name, default: Yahoo
	// Range and Interval select the history window, default: 1d / 1d
	Range    string
	Interval string
}

// Adapter exposes the Yahoo finance API as a provider.Provider.
type Adapter struct {
	cfg    Config
	client *yahoo.YahooAPIClient
}

func New(cfg Config, client *yahoo.YahooAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "Yahoo"
	}
	if cfg.Range == "" {
		cfg.Range = "1d"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) History(ctx context.Context, ticker string) ([]provider.Bar, error) {
	chart, err := a.client.GetChartV8(ctx, ticker, a.cfg.Range, a.cfg.Interval)
	if err != nil {
		return nil, translate(err)
	}
	bars := chart.Bars()
	out := make([]provider.Bar, 0, len(bars))
	for _, b := range bars {
		out = append(out, provider.Bar{Date: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume})
	}
	return out, nil
}

// Maturities lists the expirations Yahoo reports, in Yahoo's (ascending) order.
func (a *Adapter) Maturities(ctx context.Context, ticker string) ([]string, error) {
	chain, err := a.client.GetOptionsV7(ctx, ticker, 0)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]string, 0, len(chain.ExpirationDates))
	for _, ts := range chain.ExpirationDates {
		out = append(out, time.Unix(ts, 0).UTC().Format(provider.MaturityLayout))
	}
	return out, nil
}

func (a *Adapter) Chain(ctx context.Context, ticker, maturity string) (provider.Chain, error) {
	day, err := time.Parse(provider.MaturityLayout, maturity)
	if err != nil {
		return provider.Chain{}, fmt.Errorf("maturity %q: %w", maturity, err)
	}
	chain, err := a.client.GetOptionsV7(ctx, ticker, day.Unix())
	if err != nil {
		return provider.Chain{}, translate(err)
	}

	out := provider.Chain{Maturity: maturity}
	for _, set := range chain.Options {
		// Yahoo falls back to the nearest expiration for unknown dates
		if time.Unix(set.ExpirationDate, 0).UTC().Format(provider.MaturityLayout) != maturity {
			continue
		}
		out.Calls = append(out.Calls, quotes(set.Calls)...)
		out.Puts = append(out.Puts, quotes(set.Puts)...)
	}
	return out, nil
}

func quotes(cs []yahoo.Contract) []provider.Quote {
	out := make([]provider.Quote, 0, len(cs))
	for _, c := range cs {
		q := provider.Quote{
			Strike:            c.Strike,
			Bid:               deref(c.Bid),
			Ask:               deref(c.Ask),
			ImpliedVolatility: math.NaN(),
			LastPrice:         deref(c.LastPrice),
			Change:            deref(c.Change),
			PercentChange:     deref(c.PercentChange),
			Volume:            deref(c.Volume),
			InTheMoney:        c.InTheMoney,
			Contract: provider.Contract{
				Symbol:       c.ContractSymbol,
				OpenInterest: deref(c.OpenInterest),
				Size:         c.ContractSize,
				Currency:     c.Currency,
			},
		}
		if c.ImpliedVolatility != nil {
			q.ImpliedVolatility = *c.ImpliedVolatility
		}
		if c.LastTradeDate > 0 {
			q.LastTradeDate = time.Unix(c.LastTradeDate, 0).UTC()
		}
		out = append(out, q)
	}
	return out
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func translate(err error) error {
	if errors.Is(err, yahoo.ErrNotFound) {
		return fmt.Errorf("%w: %w", provider.ErrUnknownTicker, err)
	}
	return err
}
