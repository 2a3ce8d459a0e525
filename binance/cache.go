package binance

import (
	"sync"
	"time"

	"github.com/etnz/cryptotax"
)

// quoteKey buckets lookups at minute resolution: transactions falling in the
// same 60-second window share one quote.
type quoteKey struct {
	symbol string
	minute int64 // unix minutes
}

func newQuoteKey(symbol string, at time.Time) quoteKey {
	return quoteKey{symbol: symbol, minute: at.Unix() / 60}
}

// QuoteCache memoizes price lookups for the lifetime of one enrichment run,
// misses included. It is never persisted and must not be shared across runs.
type QuoteCache struct {
	mu     sync.Mutex
	quotes map[quoteKey]cryptotax.Quote
}

// NewQuoteCache creates an empty cache.
func NewQuoteCache() *QuoteCache {
	return &QuoteCache{quotes: make(map[quoteKey]cryptotax.Quote)}
}

// Get returns the memoized quote for (symbol, minute bucket of at).
func (c *QuoteCache) Get(symbol string, at time.Time) (cryptotax.Quote, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.quotes[newQuoteKey(symbol, at)]
	return q, ok
}

// Put memoizes a quote, misses included.
func (c *QuoteCache) Put(symbol string, at time.Time, q cryptotax.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[newQuoteKey(symbol, at)] = q
}

// Len returns the number of memoized (symbol, minute) pairs.
func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.quotes)
}
