package cryptotax

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Quote is the immutable result of one price lookup.
type Quote struct {
	Price  float64
	OK     bool // false when the lookup failed; final for this run
	Cached bool // served from the run's cache instead of the remote service
}

// PriceResolver resolves the EUR unit price of an asset at an instant.
// Implementations must degrade to a not-OK quote on any failure instead of
// returning an error: a missing price is a null valuation, not an abort.
type PriceResolver interface {
	Resolve(ctx context.Context, asset string, at time.Time) Quote
}

// EnrichResult reports the outcome of one enrichment run.
type EnrichResult struct {
	OutputPath  string
	Total       int  // rows processed or pending after the sort
	Done        int  // rows whose columns were filled
	Dropped     int  // rows removed for unparseable timestamps
	Interrupted bool // cancelled before the last row
}

// Enricher walks a ledger chronologically and backfills the EUR unit price
// and value of both legs of every row, persisting the enriched copy as it
// goes. It owns no shared state: independent runs over different files may
// execute concurrently as long as they do not share a resolver cache.
type Enricher struct {
	Resolver PriceResolver
	// RequestsPerMinute caps the lookup cadence. Must be positive.
	RequestsPerMinute int
	// Progress, when set, is called after every row with (row, total).
	// It runs on the enrichment goroutine; the caller marshals as needed.
	Progress func(row, total int)
	// Logf, when set, receives one human-readable line per row describing
	// both legs' outcome. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (e *Enricher) progress(row, total int) {
	if e.Progress != nil {
		e.Progress(row, total)
	}
}

func (e *Enricher) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run enriches the ledger at path and persists the result next to it, at
// EnrichedPath(path). Cancelling ctx stops the run after the current row;
// the on-disk file then holds every column filled up to the interruption
// point. Re-running always restarts from row 0.
func (e *Enricher) Run(ctx context.Context, path string) (*EnrichResult, error) {
	if e.Resolver == nil {
		return nil, fmt.Errorf("no price resolver configured")
	}
	if e.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("invalid request rate: %d requests per minute", e.RequestsPerMinute)
	}

	ledger, err := DecodeLedger(path)
	if err != nil {
		return nil, err
	}
	dropped := ledger.SortByTime()
	if dropped > 0 {
		e.logf("dropped %d row(s) with unparseable timestamps", dropped)
	}
	ledger.EnsureQuoteColumns()

	out := EnrichedPath(path)
	if err := ledger.WriteFile(out); err != nil {
		return nil, err
	}

	result := &EnrichResult{
		OutputPath: out,
		Total:      len(ledger.Transactions),
		Dropped:    dropped,
	}

	// Burst 1 keeps the historical uniform 60/rpm cadence while making the
	// wait cancellable.
	limiter := rate.NewLimiter(rate.Limit(float64(e.RequestsPerMinute)/60.0), 1)

	for i, t := range ledger.Transactions {
		if ctx.Err() != nil {
			result.Interrupted = true
			e.logf("enrichment interrupted at row %d", i+1)
			break
		}

		sentMsg := e.resolveSent(ctx, ledger, t)
		recvMsg := e.resolveReceived(ctx, ledger, t)

		result.Done = i + 1
		e.logf("row %d/%d: %s | sent %s | received %s",
			i+1, result.Total, t.Time.Format("2006-01-02 15:04"), sentMsg, recvMsg)
		e.progress(i+1, result.Total)

		if err := ledger.WriteFile(out); err != nil {
			return result, err
		}
		if err := limiter.Wait(ctx); err != nil {
			result.Interrupted = true
			e.logf("enrichment interrupted at row %d", i+1)
			break
		}
	}

	// One final persist so the file always reflects the in-memory state,
	// interrupted or not.
	if err := ledger.WriteFile(out); err != nil {
		return result, err
	}
	if result.Interrupted {
		e.logf("enriched file is up to date until row %d: %s", result.Done, out)
	} else {
		e.logf("enriched file saved: %s", out)
	}
	return result, nil
}

func (e *Enricher) resolveSent(ctx context.Context, l *Ledger, t *Transaction) string {
	if !t.HasSent() {
		return "-"
	}
	if t.SentAsset == "EUR" {
		l.SetSentQuote(t, 1.0, t.SentAmount)
		return "EUR=1.0"
	}
	msg, price := e.lookup(ctx, t.SentAsset, t.Time)
	if math.IsNaN(price) {
		l.SetSentQuote(t, math.NaN(), math.NaN())
	} else {
		l.SetSentQuote(t, price, t.SentAmount*price)
	}
	return msg
}

func (e *Enricher) resolveReceived(ctx context.Context, l *Ledger, t *Transaction) string {
	if !t.HasReceived() {
		return "-"
	}
	if t.ReceivedAsset == "EUR" {
		l.SetReceivedQuote(t, 1.0, t.ReceivedAmount)
		return "EUR=1.0"
	}
	msg, price := e.lookup(ctx, t.ReceivedAsset, t.Time)
	if math.IsNaN(price) {
		l.SetReceivedQuote(t, math.NaN(), math.NaN())
	} else {
		l.SetReceivedQuote(t, price, t.ReceivedAmount*price)
	}
	return msg
}

// lookup resolves one leg and returns the log message and the price (NaN on
// a miss).
func (e *Enricher) lookup(ctx context.Context, asset string, at time.Time) (string, float64) {
	symbol := asset + "EUR"
	q := e.Resolver.Resolve(ctx, asset, at)
	switch {
	case !q.OK:
		return fmt.Sprintf("FAIL %s (no price found)", symbol), math.NaN()
	case q.Cached:
		return fmt.Sprintf("CACHE %s=%s", symbol, formatNumber(q.Price)), q.Price
	default:
		return fmt.Sprintf("OK %s=%s", symbol, formatNumber(q.Price)), q.Price
	}
}
