package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"volskew/internal/provider"
)

// entry stores one cached provider answer with expiry.
type entry struct {
	expiresAt time.Time
	value     any
}

// Provider caches History, Maturities and Chain answers of P for a TTL.
// Concurrent misses on the same key share a single upstream call. Errors are
// never cached.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry // key: op|ticker|maturity
	sf    singleflight.Group
	now   func() time.Time
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) History(ctx context.Context, ticker string) ([]provider.Bar, error) {
	v, err := c.get("history|"+ticker, func() (any, error) { return c.P.History(ctx, ticker) })
	if err != nil {
		return nil, err
	}
	return v.([]provider.Bar), nil
}

func (c *Provider) Maturities(ctx context.Context, ticker string) ([]string, error) {
	v, err := c.get("maturities|"+ticker, func() (any, error) { return c.P.Maturities(ctx, ticker) })
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *Provider) Chain(ctx context.Context, ticker, maturity string) (provider.Chain, error) {
	v, err := c.get("chain|"+ticker+"|"+maturity, func() (any, error) { return c.P.Chain(ctx, ticker, maturity) })
	if err != nil {
		return provider.Chain{}, err
	}
	return v.(provider.Chain), nil
}

func (c *Provider) get(key string, fetch func() (any, error)) (any, error) {
	if c.TTL <= 0 {
		return fetch()
	}

	now := c.clock()
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.value, nil
	}

	v, err, _ := c.sf.Do(key, fetch)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{expiresAt: c.clock().Add(c.TTL), value: v}
	// best-effort cap cache size
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		// remove expired first, then arbitrary
		for k, v := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if !now.Before(v.expiresAt) {
				delete(c.items, k)
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != key {
				delete(c.items, k)
			}
		}
	}
	c.mu.Unlock()
	return v, nil
}

func (c *Provider) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Len reports how many answers are currently held, expired ones included.
func (c *Provider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
