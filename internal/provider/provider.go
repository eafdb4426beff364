package provider

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrUnknownTicker is returned by providers when a symbol cannot be resolved.
var ErrUnknownTicker = errors.New("unknown ticker")

// Side selects one half of an option chain.
type Side string

const (
	Calls Side = "calls"
	Puts  Side = "puts"
)

// Singular returns "call" or "put".
func (s Side) Singular() string {
	switch s {
	case Calls:
		return "call"
	case Puts:
		return "put"
	}
	return string(s)
}

// ParseSide accepts exactly "calls" or "puts".
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case Calls, Puts:
		return Side(s), true
	}
	return "", false
}

// Contract carries provider bookkeeping that has no bearing on the skew.
// Cleaning discards it.
type Contract struct {
	Symbol       string `json:"contract_symbol,omitempty"`
	OpenInterest int64  `json:"open_interest,omitempty"`
	Size         string `json:"contract_size,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

// Quote is one strike of an option chain, normalized across providers.
// ImpliedVolatility is NaN when the provider did not report one.
type Quote struct {
	Strike            float64   `json:"strike"`
	Bid               float64   `json:"bid"`
	Ask               float64   `json:"ask"`
	ImpliedVolatility float64   `json:"implied_volatility"`
	LastPrice         float64   `json:"last_price,omitempty"`
	Change            float64   `json:"change,omitempty"`
	PercentChange     float64   `json:"percent_change,omitempty"`
	Volume            int64     `json:"volume,omitempty"`
	InTheMoney        bool      `json:"in_the_money,omitempty"`
	LastTradeDate     time.Time `json:"last_trade_date,omitempty"`

	// Spread is the relative bid-ask spread (ask-bid)/ask, filled in by cleaning.
	Spread float64 `json:"spread,omitempty"`

	Contract Contract `json:"contract,omitempty"`
}

// HasImpliedVolatility reports whether the provider supplied an implied volatility.
func (q Quote) HasImpliedVolatility() bool {
	return !math.IsNaN(q.ImpliedVolatility)
}

// Chain is the option chain of one underlying for one maturity.
type Chain struct {
	Maturity string
	Calls    []Quote
	Puts     []Quote
}

// Side returns the quotes of the requested side.
func (c Chain) Side(s Side) []Quote {
	switch s {
	case Calls:
		return c.Calls
	case Puts:
		return c.Puts
	}
	return nil
}

// Bar is a daily OHLCV bar of the underlying.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Provider is the read-only market data capability the skew tool depends on.
// Maturities are calendar dates formatted as 2006-01-02.
//
//go:generate mockgen -package=mock -destination=mock/mock_provider.go -source=provider.go Provider
type Provider interface {
	Name() string
	// History returns the most recent daily bars, oldest first.
	History(ctx context.Context, ticker string) ([]Bar, error)
	Maturities(ctx context.Context, ticker string) ([]string, error)
	Chain(ctx context.Context, ticker, maturity string) (Chain, error)
}

// MaturityLayout is the date layout used for maturity keys.
const MaturityLayout = "2006-01-02"
