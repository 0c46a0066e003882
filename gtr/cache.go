package gtr

import (
	"sync"

	"bitbucket.org/Davydov/gtr/nt"
)

type cacheKey [nt.NBase + nt.NPair]float64

// DefaultCacheLimit is the default maximum number of cached models.
const DefaultCacheLimit = 1024

// Cache memoizes rate models by (π, ρ). It is meant for a small set of
// parameter values which are evaluated repeatedly (e.g. likelihoods of
// many alignments or branch lengths under the same model); an
// optimization visits a new (π, ρ) at every step and keeps its own
// model in PairModel instead. When the limit is reached the cache is
// emptied. Cache is safe for concurrent use; models are immutable so
// they can be shared freely.
type Cache struct {
	mu     sync.RWMutex
	opts   []Option
	limit  int
	models map[cacheKey]*RateModel
}

// NewCache creates an empty cache, opts are applied to every model it
// builds.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:   opts,
		limit:  DefaultCacheLimit,
		models: make(map[cacheKey]*RateModel),
	}
}

// SetLimit sets the maximum number of cached models.
func (c *Cache) SetLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
}

func newCacheKey(pi nt.Frequency, rho nt.Exchangeability) (k cacheKey) {
	copy(k[:], pi[:])
	copy(k[nt.NBase:], rho[:])
	return
}

// Get returns the rate model for (π, ρ), building it if needed.
// Construction errors are not cached.
func (c *Cache) Get(pi nt.Frequency, rho nt.Exchangeability) (*RateModel, error) {
	key := newCacheKey(pi, rho)
	c.mu.RLock()
	m, ok := c.models[key]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	m, err := NewRateModel(pi, rho, c.opts...)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	// another goroutine could have stored it in the meantime
	if old, ok := c.models[key]; ok {
		return old, nil
	}
	if len(c.models) >= c.limit {
		log.Debugf("Rate model cache is full (%d), emptying", len(c.models))
		c.models = make(map[cacheKey]*RateModel)
	}
	c.models[key] = m
	return m, nil
}

// Len returns the number of cached models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}
