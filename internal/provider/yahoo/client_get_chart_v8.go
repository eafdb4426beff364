package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Chart is a single result of the chart endpoint.
type Chart struct {
	Meta struct {
		Symbol               string  `json:"symbol"`
		Currency             string  `json:"currency"`
		RegularMarketPrice   float64 `json:"regularMarketPrice"`
		ExchangeTimezoneName string  `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// ChartBar is one OHLCV bar of a chart.
type ChartBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Bars zips the chart columns into bars, oldest first. Bars without a close
// are skipped.
func (c *Chart) Bars() []ChartBar {
	if len(c.Indicators.Quote) == 0 {
		return nil
	}
	q := c.Indicators.Quote[0]
	out := make([]ChartBar, 0, len(c.Timestamp))
	for i, ts := range c.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		out = append(out, ChartBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   valueAt(q.Open, i),
			High:   valueAt(q.High, i),
			Low:    valueAt(q.Low, i),
			Close:  *q.Close[i],
			Volume: valueAt(q.Volume, i),
		})
	}
	return out
}

func valueAt[T any](vs []*T, i int) T {
	var zero T
	if i >= len(vs) || vs[i] == nil {
		return zero
	}
	return *vs[i]
}

type chartResponse struct {
	Chart struct {
		Result []Chart   `json:"result"`
		Error  *APIError `json:"error"`
	} `json:"chart"`
}

// GetChartV8 retrieves price history of symbol, e.g. rng "1d" and interval "1d".
func (c *YahooAPIClient) GetChartV8(ctx context.Context, symbol, rng, interval string, opts ...YahooAPIClientOption) (*Chart, error) {
	query := url.Values{}
	query.Set("range", rng)
	query.Set("interval", interval)

	res, err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), query, opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var body chartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}
	if body.Chart.Error != nil {
		if body.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
		}
		return nil, body.Chart.Error
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return &body.Chart.Result[0], nil
}
