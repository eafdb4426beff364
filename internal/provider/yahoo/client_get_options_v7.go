package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Contract is one option contract as reported by Yahoo. Nullable fields are
// pointers; Yahoo omits them for contracts that never traded or were not quoted.
type Contract struct {
	ContractSymbol    string   `json:"contractSymbol"`
	Strike            float64  `json:"strike"`
	Currency          string   `json:"currency"`
	LastPrice         *float64 `json:"lastPrice"`
	Change            *float64 `json:"change"`
	PercentChange     *float64 `json:"percentChange"`
	Volume            *int64   `json:"volume"`
	OpenInterest      *int64   `json:"openInterest"`
	Bid               *float64 `json:"bid"`
	Ask               *float64 `json:"ask"`
	ContractSize      string   `json:"contractSize"`
	Expiration        int64    `json:"expiration"`
	LastTradeDate     int64    `json:"lastTradeDate"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
	InTheMoney        bool     `json:"inTheMoney"`
}

// Options holds the calls and puts of one expiration.
type Options struct {
	ExpirationDate int64      `json:"expirationDate"`
	HasMiniOptions bool       `json:"hasMiniOptions"`
	Calls          []Contract `json:"calls"`
	Puts           []Contract `json:"puts"`
}

// OptionChain is a single result of the options endpoint.
type OptionChain struct {
	UnderlyingSymbol string    `json:"underlyingSymbol"`
	ExpirationDates  []int64   `json:"expirationDates"`
	Strikes          []float64 `json:"strikes"`
	HasMiniOptions   bool      `json:"hasMiniOptions"`
	Quote            struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		Currency           string  `json:"currency"`
	} `json:"quote"`
	Options []Options `json:"options"`
}

type optionsResponse struct {
	OptionChain struct {
		Result []OptionChain `json:"result"`
		Error  *APIError     `json:"error"`
	} `json:"optionChain"`
}

// GetOptionsV7 retrieves the option chain of symbol. When expiration is a
// unix timestamp the chain of that expiration is returned, otherwise the
// nearest one. ExpirationDates always lists every expiration.
func (c *YahooAPIClient) GetOptionsV7(ctx context.Context, symbol string, expiration int64, opts ...YahooAPIClientOption) (*OptionChain, error) {
	query := url.Values{}
	if expiration > 0 {
		query.Set("date", strconv.FormatInt(expiration, 10))
	}

	res, err := c.get(ctx, "/v7/finance/options/"+url.PathEscape(symbol), query, opts...)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var body optionsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding options response: %w", err)
	}
	if body.OptionChain.Error != nil {
		if body.OptionChain.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
		}
		return nil, body.OptionChain.Error
	}
	if len(body.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	return &body.OptionChain.Result[0], nil
}
