// Package polygon serves spot history and option chains from the Polygon.io
// REST API.
package polygon

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"volskew/internal/httpx"
	"volskew/internal/provider"
)

type Config struct {
	Name   string
	APIKey string
	// HistoryDays is how far back daily aggregates are requested; weekends
	// and holidays make a few days necessary to get at least one bar.
	HistoryDays int
}

// Provider reads from Polygon. The options snapshot of a ticker is fetched
// once and then sliced per maturity.
type Provider struct {
	cfg    Config
	client *polygonrest.Client
	now    func() time.Time

	mu        sync.Mutex
	snapshots map[string]map[string]provider.Chain // ticker -> maturity -> chain
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "Polygon"
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 7
	}
	var client *polygonrest.Client
	if hc != nil {
		client = polygonrest.NewWithClient(cfg.APIKey, hc.HTTP)
	} else {
		client = polygonrest.New(cfg.APIKey)
	}
	return &Provider{cfg: cfg, client: client, now: time.Now, snapshots: map[string]map[string]provider.Chain{}}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) History(ctx context.Context, ticker string) ([]provider.Bar, error) {
	to := p.now().UTC()
	from := to.AddDate(0, 0, -p.cfg.HistoryDays)
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Asc).WithAdjusted(true)

	it := p.client.ListAggs(ctx, params)
	var out []provider.Bar
	for it.Next() {
		out = append(out, barFromAgg(it.Item()))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("list aggs %s: %w", ticker, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, provider.ErrUnknownTicker)
	}
	return out, nil
}

func (p *Provider) Maturities(ctx context.Context, ticker string) ([]string, error) {
	byMaturity, err := p.snapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(byMaturity))
	for m := range byMaturity {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (p *Provider) Chain(ctx context.Context, ticker, maturity string) (provider.Chain, error) {
	byMaturity, err := p.snapshot(ctx, ticker)
	if err != nil {
		return provider.Chain{}, err
	}
	chain, ok := byMaturity[maturity]
	if !ok {
		return provider.Chain{Maturity: maturity}, nil
	}
	return chain, nil
}

func (p *Provider) snapshot(ctx context.Context, ticker string) (map[string]provider.Chain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.snapshots[ticker]; ok {
		return s, nil
	}

	it := p.client.ListOptionsChainSnapshot(ctx, &models.ListOptionsChainParams{UnderlyingAsset: ticker})
	var contracts []models.OptionContractSnapshot
	for it.Next() {
		contracts = append(contracts, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("options snapshot %s: %w", ticker, err)
	}
	log.WithFields(log.Fields{"ticker": ticker, "contracts": len(contracts)}).Debug("polygon options snapshot")

	s := groupByMaturity(contracts)
	p.snapshots[ticker] = s
	return s, nil
}

func barFromAgg(a models.Agg) provider.Bar {
	return provider.Bar{
		Date:   time.Time(a.Timestamp).UTC(),
		Open:   a.Open,
		High:   a.High,
		Low:    a.Low,
		Close:  a.Close,
		Volume: int64(a.Volume),
	}
}

// groupByMaturity splits a snapshot into per-maturity chains sorted by strike.
// Contracts of unknown type are dropped.
func groupByMaturity(contracts []models.OptionContractSnapshot) map[string]provider.Chain {
	out := map[string]provider.Chain{}
	for _, c := range contracts {
		m := time.Time(c.Details.ExpirationDate).Format(provider.MaturityLayout)
		chain := out[m]
		chain.Maturity = m
		switch c.Details.ContractType {
		case "call":
			chain.Calls = append(chain.Calls, quoteFromSnapshot(c))
		case "put":
			chain.Puts = append(chain.Puts, quoteFromSnapshot(c))
		default:
			continue
		}
		out[m] = chain
	}
	for m, chain := range out {
		sort.Slice(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
		sort.Slice(chain.Puts, func(i, j int) bool { return chain.Puts[i].Strike < chain.Puts[j].Strike })
		out[m] = chain
	}
	return out
}

// quoteFromSnapshot maps a contract snapshot. Polygon reports a zero implied
// volatility when it could not compute one.
func quoteFromSnapshot(c models.OptionContractSnapshot) provider.Quote {
	iv := c.ImpliedVolatility
	if iv == 0 {
		iv = math.NaN()
	}
	return provider.Quote{
		Strike:            c.Details.StrikePrice,
		Bid:               c.LastQuote.Bid,
		Ask:               c.LastQuote.Ask,
		ImpliedVolatility: iv,
		Contract: provider.Contract{
			Symbol:       c.Details.Ticker,
			OpenInterest: int64(c.OpenInterest),
		},
	}
}
