package skew

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
)

// ErrNoPoints is returned when summarizing an empty curve.
var ErrNoPoints = errors.New("curve has no points")

// Summary describes the implied volatility levels along a curve.
type Summary struct {
	Count    int
	MinIV    float64
	MaxIV    float64
	MeanIV   float64
	MedianIV float64
	// NearestATM is the point whose moneyness is closest to 1.
	NearestATM Point
}

func Summarize(points []Point) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrNoPoints
	}

	ivs := make(stats.Float64Data, len(points))
	atm := points[0]
	for i, p := range points {
		ivs[i] = p.ImpliedVolatility
		if math.Abs(p.Moneyness-1) < math.Abs(atm.Moneyness-1) {
			atm = p
		}
	}

	s := Summary{Count: len(points), NearestATM: atm}
	var err error
	if s.MinIV, err = stats.Min(ivs); err != nil {
		return Summary{}, err
	}
	if s.MaxIV, err = stats.Max(ivs); err != nil {
		return Summary{}, err
	}
	if s.MeanIV, err = stats.Mean(ivs); err != nil {
		return Summary{}, err
	}
	if s.MedianIV, err = stats.Median(ivs); err != nil {
		return Summary{}, err
	}
	return s, nil
}
