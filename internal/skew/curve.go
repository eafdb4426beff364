// Package skew turns a cleaned option chain into an implied volatility
// versus moneyness curve.
package skew

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"volskew/internal/marketdata"
	"volskew/internal/plotting"
	"volskew/internal/provider"
)

const (
	DefaultMaxStrikeRatio = 2.0

	XLabel = "K/S ratio"
	YLabel = "Implied Volatility"
)

// Point is one strike on the skew curve.
type Point struct {
	Strike            float64
	Moneyness         float64
	ImpliedVolatility float64
}

// Curve is the skew of one side of one maturity.
type Curve struct {
	Ticker         string
	Side           provider.Side
	Maturity       string
	Spot           float64
	MaxStrikeRatio float64

	points []Point
}

// NewCurve computes strike/spot for every quote of the maturity and keeps the
// quotes whose ratio is finite and does not exceed maxStrikeRatio. Only the
// far OTM wing is trimmed; there is no lower bound. maxStrikeRatio <= 0
// selects the default.
func NewCurve(chains marketdata.Chains, side provider.Side, maturity string, spot float64, ticker string, maxStrikeRatio float64) (*Curve, error) {
	quotes, ok := chains[maturity]
	if !ok {
		return nil, fmt.Errorf("%s %s: maturity %s not in chain", ticker, side, maturity)
	}
	if !(spot > 0) {
		return nil, fmt.Errorf("%s: spot price must be positive, got %v", ticker, spot)
	}
	if maxStrikeRatio <= 0 {
		maxStrikeRatio = DefaultMaxStrikeRatio
	}

	c := &Curve{
		Ticker:         ticker,
		Side:           side,
		Maturity:       maturity,
		Spot:           spot,
		MaxStrikeRatio: maxStrikeRatio,
		points:         make([]Point, 0, len(quotes)),
	}
	for _, q := range quotes {
		ratio := q.Strike / spot
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio > maxStrikeRatio {
			continue
		}
		c.points = append(c.points, Point{Strike: q.Strike, Moneyness: ratio, ImpliedVolatility: q.ImpliedVolatility})
	}
	if trimmed := len(quotes) - len(c.points); trimmed > 0 {
		log.Debugf("%s %s %s: trimmed %d strikes above K/S %.2f", ticker, side, maturity, trimmed, maxStrikeRatio)
	}
	return c, nil
}

func (c *Curve) Points() []Point { return c.points }

// X returns the moneyness axis.
func (c *Curve) X() []float64 {
	xs := make([]float64, len(c.points))
	for i, p := range c.points {
		xs[i] = p.Moneyness
	}
	return xs
}

// Y returns the implied volatility axis.
func (c *Curve) Y() []float64 {
	ys := make([]float64, len(c.points))
	for i, p := range c.points {
		ys[i] = p.ImpliedVolatility
	}
	return ys
}

// Render labels the axes and adds the curve to s as a series named after
// the side. Rendering several curves onto one surface overlays them.
func (c *Curve) Render(s *plotting.Surface) error {
	s.SetAxisLabels(XLabel, YLabel)
	if err := s.AddSeries(string(c.Side), c.X(), c.Y()); err != nil {
		return fmt.Errorf("render %s %s: %w", c.Ticker, c.Side, err)
	}
	return nil
}
