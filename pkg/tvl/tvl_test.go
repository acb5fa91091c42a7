package tvl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/upstream"
)

func newResolverServer(t *testing.T, handler http.HandlerFunc) (*Resolver, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	client := upstream.New(upstream.Opts{RPS: 1000, Burst: 1000, Logger: logger})
	return NewResolver(client, srv.URL+"/api/tvl", 200*time.Millisecond, logger), &hits
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestResolve_EmptyProjectIDMakesNoCall(t *testing.T) {
	r, hits := newResolverServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"tvlData":[[0,1,2,3]]}`)
	})

	assert.Equal(t, metric.Missing, r.Resolve(context.Background(), ""))
	assert.Equal(t, metric.Missing, r.Resolve(context.Background(), "   "))
	assert.Equal(t, int32(0), hits.Load())
}

func TestResolve_SumsLastEntry(t *testing.T) {
	r, hits := newResolverServer(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/tvl", req.URL.Path)
		assert.Equal(t, "base", req.URL.Query().Get("projectId"))
		writeJSON(w, `{"tvlData":[[1700000000,9e8,9e8,9e8],[1700086400,100000000,200000000,300000000]]}`)
	})

	v := r.Resolve(context.Background(), "base")
	got, ok := v.Get()
	require.True(t, ok)
	assert.InDelta(t, 6.0, got, 1e-9)
	assert.Equal(t, int32(1), hits.Load())
}

func TestResolve_FailuresBecomeMissing(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"short last entry": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, `{"tvlData":[[0,1e8,2e8,3e8],[1,2]]}`)
		},
		"empty series": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, `{"tvlData":[]}`)
		},
		"absent series": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, `{"somethingElse":true}`)
		},
		"non numeric field": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, `{"tvlData":[[0,"a",2,3]]}`)
		},
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"not json": func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, `<html>`)
		},
		"too slow": func(w http.ResponseWriter, req *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-req.Context().Done():
			}
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			r, _ := newResolverServer(t, handler)
			assert.Equal(t, metric.Missing, r.Resolve(context.Background(), "proj"))
		})
	}
}

func TestLatestTVL(t *testing.T) {
	raw := func(s string) []json.RawMessage {
		var out []json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(s), &out))
		return out
	}

	v, err := LatestTVL(raw(`[[0,100000000,200000000,300000000]]`))
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v.Float(), 1e-9)

	v, err = LatestTVL(raw(`[[0,1,2,3,4,5]]`))
	require.NoError(t, err)
	assert.InDelta(t, 6e-8, v.Float(), 1e-15)

	v, err = LatestTVL(nil)
	assert.ErrorIs(t, err, ErrNoSeries)
	assert.Equal(t, metric.Missing, v)

	_, err = LatestTVL(raw(`[[0,1]]`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = LatestTVL(raw(`[{"t":0}]`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = LatestTVL(raw(`[[0,1,null,3]]`))
	assert.ErrorIs(t, err, ErrMalformed)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  time.Duration
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func TestBuildUpstreamURL(t *testing.T) {
	raw, err := BuildUpstreamURL(DefaultUpstreamURL, "arbitrum")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "l2beat.com", u.Host)
	assert.Equal(t, "1", u.Query().Get("batch"))
	assert.JSONEq(t,
		`{"0":{"json":{"filter":{"type":"projects","projectIds":["arbitrum"]},"range":"max","excludeAssociatedTokens":false}}}`,
		u.Query().Get("input"))
}

func TestProxyFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("batch"))
		writeJSON(w, `{"tvlData":[[0,1,2,3]]}`)
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	cache := &memoryCache{}
	p := NewProxy(upstream.New(upstream.Opts{Logger: logger}), srv.URL+"/api/trpc/tvl.chart", time.Second, logger, WithCache(cache, time.Minute))

	body, err := p.Fetch(context.Background(), "base")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tvlData":[[0,1,2,3]]}`, string(body))

	body, err = p.Fetch(context.Background(), "base")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tvlData":[[0,1,2,3]]}`, string(body))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, time.Minute, cache.ttl)
}

func TestProxyFetch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t)
	client := upstream.New(upstream.Opts{Logger: logger})

	_, err := NewProxy(client, srv.URL, time.Second, logger).Fetch(context.Background(), " ")
	assert.ErrorIs(t, err, ErrProjectIDRequired)

	_, err = NewProxy(client, srv.URL+"/bad", time.Second, logger).Fetch(context.Background(), "x")
	var se *upstream.StatusError
	assert.ErrorAs(t, err, &se)

	_, err = NewProxy(client, srv.URL+"/text", time.Second, logger).Fetch(context.Background(), "x")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
