package marketdata

import (
	"errors"
	"fmt"
)

var (
	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("market data provider error")
	// ErrEmptyHistory means the provider returned no daily bar, so no spot price exists.
	ErrEmptyHistory = errors.New("no daily bar returned")
	// ErrNoMaturities means no maturity survived cleaning (or none is shared by calls and puts).
	ErrNoMaturities = errors.New("no maturities available after cleaning")
)

// ProviderError wraps a failed provider call.
type ProviderError struct {
	Provider string
	Op       string
	Ticker   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Provider, e.Op, e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
