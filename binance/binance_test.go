package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/etnz/cryptotax"
)

const klineBody = `[[1704103200000,"42000.1","42100.0","41900.0","42050.5","12.3",1704103259999,"517221.15",100,"6.1","256489.30","0"]]`

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	r := NewResolver(nil)
	r.BaseURL = server.URL
	r.Client = server.Client()
	return r, server
}

func TestResolver_ClosePrice(t *testing.T) {
	var gotQuery map[string]string
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		gotQuery = map[string]string{
			"symbol":   req.URL.Query().Get("symbol"),
			"interval": req.URL.Query().Get("interval"),
			"limit":    req.URL.Query().Get("limit"),
		}
		w.Write([]byte(klineBody))
	})

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q := r.Resolve(context.Background(), "BTC", at)

	require.True(t, q.OK)
	assert.InDelta(t, 42050.5, q.Price, 1e-9)
	assert.False(t, q.Cached)

	assert.Equal(t, "BTCEUR", gotQuery["symbol"])
	assert.Equal(t, "1m", gotQuery["interval"])
	assert.Equal(t, "1", gotQuery["limit"])
}

func TestResolver_EURWithoutNetwork(t *testing.T) {
	calls := 0
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte(klineBody))
	})

	q := r.Resolve(context.Background(), "EUR", time.Now())
	require.True(t, q.OK)
	assert.InDelta(t, 1.0, q.Price, 1e-12)
	assert.Equal(t, 0, calls)
}

func TestResolver_CachesHits(t *testing.T) {
	calls := 0
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Write([]byte(klineBody))
	})

	at := time.Date(2024, 1, 1, 10, 0, 12, 0, time.UTC)
	first := r.Resolve(context.Background(), "BTC", at)
	// 30s later, same minute bucket
	second := r.Resolve(context.Background(), "BTC", at.Add(30*time.Second))

	assert.Equal(t, 1, calls, "same (symbol, minute) must hit the network once")
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.InDelta(t, first.Price, second.Price, 1e-12)

	// the next minute is a distinct key
	r.Resolve(context.Background(), "BTC", at.Add(time.Minute))
	assert.Equal(t, 2, calls)
}

func TestResolver_CachesMisses(t *testing.T) {
	calls := 0
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		http.Error(w, "teapot", http.StatusTeapot)
	})

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	first := r.Resolve(context.Background(), "DOGE", at)
	second := r.Resolve(context.Background(), "DOGE", at)

	assert.False(t, first.OK)
	assert.False(t, second.OK)
	assert.True(t, second.Cached, "a miss is final for the run")
	assert.Equal(t, 1, calls, "no retry on a cached miss")
}

func TestResolver_MalformedPayloads(t *testing.T) {
	for name, body := range map[string]string{
		"empty list":       `[]`,
		"not json":         `oops`,
		"numeric close":    `[[1704103200000,"1","2","3",42050.5,"12.3"]]`,
		"unparsable close": `[[1704103200000,"1","2","3","not-a-number","12.3"]]`,
	} {
		r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
			w.Write([]byte(body))
		})
		q := r.Resolve(context.Background(), "BTC", time.Now())
		assert.Falsef(t, q.OK, "%s should degrade to a miss", name)
	}
}

func TestQuoteCache_MinuteBuckets(t *testing.T) {
	c := NewQuoteCache()
	at := time.Date(2024, 1, 1, 10, 0, 12, 0, time.UTC)

	_, ok := c.Get("BTCEUR", at)
	require.False(t, ok)

	c.Put("BTCEUR", at, cryptotax.Quote{Price: 100, OK: true})
	got, ok := c.Get("BTCEUR", at.Add(40*time.Second))
	require.True(t, ok, "same minute bucket")
	assert.InDelta(t, 100.0, got.Price, 1e-12)

	_, ok = c.Get("BTCEUR", at.Add(time.Minute))
	assert.False(t, ok, "next minute is a distinct key")
	_, ok = c.Get("ETHEUR", at)
	assert.False(t, ok, "distinct symbol is a distinct key")

	assert.Equal(t, 1, c.Len())
}
