package marketdata

import (
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"volskew/internal/provider"
)

// Chains maps a maturity to the quotes of one side of its option chain.
type Chains map[string][]provider.Quote

// Maturities returns the keys in chronological order.
func (c Chains) Maturities() []string {
	out := make([]string, 0, len(c))
	for m := range c {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Filter holds the data quality thresholds applied by Clean.
type Filter struct {
	// MinImpliedVolatility is exclusive: quotes at or below it are dropped.
	MinImpliedVolatility float64
	// MaxRelativeSpread is inclusive: (ask-bid)/ask above it is dropped.
	MaxRelativeSpread float64
}

func DefaultFilter() Filter {
	return Filter{MinImpliedVolatility: 0.001, MaxRelativeSpread: 0.1}
}

// Clean drops provider metadata, quotes without a usable implied volatility
// or a finite strike, and quotes with a wide relative spread. Maturities left without quotes are
// removed from the result. Clean(Clean(c)) equals Clean(c).
func Clean(raw Chains, f Filter) Chains {
	out := make(Chains, len(raw))
	for maturity, quotes := range raw {
		kept := make([]provider.Quote, 0, len(quotes))
		for _, q := range quotes {
			q.Contract = provider.Contract{}
			if !usable(q, f) {
				continue
			}
			spread, ok := relativeSpread(q.Bid, q.Ask)
			if !ok || spread > f.MaxRelativeSpread {
				continue
			}
			q.Spread = spread
			kept = append(kept, q)
		}
		if len(kept) == 0 {
			log.Debugf("dropping maturity %s: no quote survived cleaning", maturity)
			continue
		}
		out[maturity] = kept
	}
	return out
}

// usable reports whether the strike and implied volatility are finite and
// the implied volatility exceeds the filter minimum.
func usable(q provider.Quote, f Filter) bool {
	if !q.HasImpliedVolatility() || math.IsInf(q.ImpliedVolatility, 0) {
		return false
	}
	if math.IsNaN(q.Strike) || math.IsInf(q.Strike, 0) {
		return false
	}
	return q.ImpliedVolatility > f.MinImpliedVolatility
}

// relativeSpread returns (ask-bid)/ask. A non-positive ask or a non-finite
// result cannot pass the spread filter.
func relativeSpread(bid, ask float64) (float64, bool) {
	if !(ask > 0) {
		return 0, false
	}
	s := (ask - bid) / ask
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, true
}

// CommonMaturities returns the maturities present in both a and b, sorted.
func CommonMaturities(a, b Chains) []string {
	out := make([]string, 0, len(a))
	for _, m := range a.Maturities() {
		if _, ok := b[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
