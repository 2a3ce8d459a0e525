// Package binance resolves EUR unit prices for crypto assets from the
// Binance public klines API, at minute resolution.
package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/etnz/cryptotax"
)

// DefaultBaseURL is the public Binance klines endpoint.
const DefaultBaseURL = "https://api.binance.com/api/v3/klines"

// Resolver implements cryptotax.PriceResolver against the Binance klines
// API. The market symbol is the asset ticker concatenated with "EUR"
// (asset "BTC" queries "BTCEUR"); EUR itself resolves to exactly 1.0 without
// a network call.
//
// A lookup asks for the first 1-minute bar at-or-after the requested instant
// and consumes its close price. Every outcome, misses included, is memoized
// in the run's cache: the resolver performs no retries, a single absent
// result is final for that (symbol, minute) pair within the run.
type Resolver struct {
	// BaseURL of the klines endpoint; defaults to DefaultBaseURL.
	BaseURL string
	// Client used for lookups; defaults to a 10s-timeout client.
	Client *http.Client

	cache *QuoteCache
}

// NewResolver creates a resolver backed by the given cache. The cache is
// owned by one enrichment run; passing nil creates a fresh one.
func NewResolver(cache *QuoteCache) *Resolver {
	if cache == nil {
		cache = NewQuoteCache()
	}
	return &Resolver{
		BaseURL: DefaultBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

// Resolve returns the EUR unit price of asset at the given instant. It never
// returns an error: any transport problem, malformed payload or empty result
// degrades to a not-OK quote.
func (r *Resolver) Resolve(ctx context.Context, asset string, at time.Time) cryptotax.Quote {
	if asset == "EUR" {
		return cryptotax.Quote{Price: 1.0, OK: true}
	}
	symbol := asset + "EUR"
	if q, ok := r.cache.Get(symbol, at); ok {
		q.Cached = true
		return q
	}

	var q cryptotax.Quote
	if close, err := r.fetchClose(ctx, symbol, at); err == nil {
		q = cryptotax.Quote{Price: close, OK: true}
	}
	r.cache.Put(symbol, at, q)
	return q
}

// fetchClose queries the first 1m kline at-or-after the instant and returns
// its close price.
func (r *Resolver) fetchClose(ctx context.Context, symbol string, at time.Time) (float64, error) {
	// https://api.binance.com/api/v3/klines?symbol=BTCEUR&interval=1m&startTime=...&limit=1
	// [
	//   [ 1499040000000, "0.01634790", "0.80000000", "0.01575800",
	//     "0.01577100", "148976.11427815", 1499644799999, ... ]
	// ]
	addr := fmt.Sprintf("%s?symbol=%s&interval=1m&startTime=%d&limit=1", r.baseURL(), symbol, at.UnixMilli())

	var jobj any
	if err := r.jwget(ctx, addr, &jobj); err != nil {
		return 0, err
	}

	path := "$[0][4]" // close of the first returned bar
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %q %w", symbol, path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1
	// answer, or a single answer: keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	sval, ok := jval.(string)
	if !ok {
		return 0, fmt.Errorf("close price of %q is not a string: %v", symbol, jval)
	}
	d, err := decimal.NewFromString(sval)
	if err != nil {
		return 0, fmt.Errorf("invalid close price %q for %q: %w", sval, symbol, err)
	}
	return d.InexactFloat64(), nil
}

func (r *Resolver) baseURL() string {
	if r.BaseURL == "" {
		return DefaultBaseURL
	}
	return r.BaseURL
}

// jwget performs an HTTP GET request to the given address and unmarshals the
// JSON response body into the provided data structure.
func (r *Resolver) jwget(ctx context.Context, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
