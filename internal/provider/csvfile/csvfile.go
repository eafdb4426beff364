// Package csvfile serves option chains from a snapshot file, one row per
// contract:
//
//	ticker,maturity,side,contract_symbol,strike,bid,ask,implied_volatility,underlying_close
//
// A blank implied_volatility means the source had none. The spot price of a
// ticker is the last non-blank underlying_close in file order.
package csvfile

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"volskew/internal/provider"
)

type Config struct {
	Name string
	Path string
}

type record struct {
	Ticker            string  `csv:"ticker"`
	Maturity          string  `csv:"maturity"`
	Side              string  `csv:"side"`
	ContractSymbol    string  `csv:"contract_symbol"`
	Strike            float64 `csv:"strike"`
	Bid               float64 `csv:"bid"`
	Ask               float64 `csv:"ask"`
	ImpliedVolatility string  `csv:"implied_volatility"`
	UnderlyingClose   string  `csv:"underlying_close"`
}

type ticker struct {
	close  float64
	hasBar bool
	chains map[string]*provider.Chain
}

// Provider reads the snapshot lazily on first use and keeps it in memory.
type Provider struct {
	cfg  Config
	open func() (io.ReadCloser, error)

	once    sync.Once
	loadErr error
	tickers map[string]*ticker
}

func New(cfg Config) *Provider {
	if cfg.Name == "" {
		cfg.Name = "CSV"
	}
	return &Provider{cfg: cfg, open: func() (io.ReadCloser, error) { return os.Open(cfg.Path) }}
}

// NewFromReader serves the snapshot in r; used by tests and piped input.
func NewFromReader(name string, r io.Reader) *Provider {
	return &Provider{cfg: Config{Name: name}, open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil }}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) History(ctx context.Context, symbol string) ([]provider.Bar, error) {
	t, err := p.lookup(symbol)
	if err != nil {
		return nil, err
	}
	if !t.hasBar {
		return nil, nil
	}
	return []provider.Bar{{Close: t.close}}, nil
}

func (p *Provider) Maturities(ctx context.Context, symbol string) ([]string, error) {
	t, err := p.lookup(symbol)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(t.chains))
	for m := range t.chains {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (p *Provider) Chain(ctx context.Context, symbol, maturity string) (provider.Chain, error) {
	t, err := p.lookup(symbol)
	if err != nil {
		return provider.Chain{}, err
	}
	c, ok := t.chains[maturity]
	if !ok {
		return provider.Chain{Maturity: maturity}, nil
	}
	return *c, nil
}

func (p *Provider) lookup(symbol string) (*ticker, error) {
	p.once.Do(func() { p.loadErr = p.load() })
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	t, ok := p.tickers[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, provider.ErrUnknownTicker)
	}
	return t, nil
}

func (p *Provider) load() error {
	f, err := p.open()
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var rows []*record
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", p.cfg.Path, err)
	}

	p.tickers = make(map[string]*ticker)
	for i, r := range rows {
		line := i + 2 // header is line 1
		sym := strings.ToUpper(strings.TrimSpace(r.Ticker))
		if sym == "" {
			return fmt.Errorf("line %d: missing ticker", line)
		}
		t := p.tickers[sym]
		if t == nil {
			t = &ticker{chains: map[string]*provider.Chain{}}
			p.tickers[sym] = t
		}
		if v := strings.TrimSpace(r.UnderlyingClose); v != "" {
			spot, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("line %d: underlying_close: %w", line, err)
			}
			t.close, t.hasBar = spot, true
		}
		if r.Maturity == "" {
			continue
		}
		if _, err := time.Parse(provider.MaturityLayout, r.Maturity); err != nil {
			return fmt.Errorf("line %d: maturity: %w", line, err)
		}
		side, ok := provider.ParseSide(strings.ToLower(strings.TrimSpace(r.Side)))
		if !ok {
			return fmt.Errorf("line %d: side %q is neither calls nor puts", line, r.Side)
		}
		iv := math.NaN()
		if v := strings.TrimSpace(r.ImpliedVolatility); v != "" {
			if iv, err = strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("line %d: implied_volatility: %w", line, err)
			}
		}

		c := t.chains[r.Maturity]
		if c == nil {
			c = &provider.Chain{Maturity: r.Maturity}
			t.chains[r.Maturity] = c
		}
		q := provider.Quote{
			Strike:            r.Strike,
			Bid:               r.Bid,
			Ask:               r.Ask,
			ImpliedVolatility: iv,
			Contract:          provider.Contract{Symbol: r.ContractSymbol},
		}
		if side == provider.Calls {
			c.Calls = append(c.Calls, q)
		} else {
			c.Puts = append(c.Puts, q)
		}
	}
	return nil
}
