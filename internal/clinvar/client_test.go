package clinvar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-triage/internal/cache"
	"github.com/inodb/vibe-triage/internal/ratelimit"
)

const brca1 = "NC_000017.11:43093267:G:A"

// countingLimiter never blocks and counts Wait calls.
type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(ctx context.Context) error { l.waits++; return ctx.Err() }
func (l *countingLimiter) Allow() bool                    { return true }
func (l *countingLimiter) Reserve() time.Duration         { return 0 }
func (l *countingLimiter) Reset()                         {}

// fakeAPI serves canned responses keyed by SPDI id and records hits.
type fakeAPI struct {
	mu   sync.Mutex
	hits map[string]int
}

func newFakeAPI(t *testing.T, handler func(id string, w http.ResponseWriter)) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(r.URL.Path, "/")
		api.mu.Lock()
		api.hits[id]++
		api.mu.Unlock()
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		handler(id, w)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) count(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[id]
}

func (a *fakeAPI) total() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.hits {
		n += c
	}
	return n
}

func newTestClient(t *testing.T, srv *httptest.Server, lim ratelimit.Limiter) (*Client, *cache.Cache) {
	t.Helper()
	c := cache.Open(cache.NewFileStore(filepath.Join(t.TempDir(), "cache.json")), nil)
	client := NewClient(c, lim)
	client.SetBaseURL(srv.URL + "/")
	return client, c
}

func TestResolve_Found(t *testing.T) {
	api, srv := newFakeAPI(t, func(id string, w http.ResponseWriter) {
		w.Write([]byte(`{"clinical_significance":{"description":"Pathogenic"}}`))
	})
	client, c := newTestClient(t, srv, &countingLimiter{})

	assert.Equal(t, "Pathogenic", client.Resolve(context.Background(), brca1))
	assert.Equal(t, 1, api.count(brca1))

	label, ok := c.Lookup(brca1)
	require.True(t, ok)
	assert.Equal(t, "Pathogenic", label)
}

func TestResolve_FoundWithoutSignificance(t *testing.T) {
	_, srv := newFakeAPI(t, func(id string, w http.ResponseWriter) {
		w.Write([]byte(`{"data":{"spdis":[]}}`))
	})
	client, c := newTestClient(t, srv, &countingLimiter{})

	assert.Equal(t, LabelUnknown, client.Resolve(context.Background(), brca1))
	label, ok := c.Lookup(brca1)
	require.True(t, ok)
	assert.Equal(t, LabelUnknown, label)
}

func TestResolve_NotFoundIsCached(t *testing.T) {
	api, srv := newFakeAPI(t, func(id string, w http.ResponseWriter) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, c := newTestClient(t, srv, &countingLimiter{})

	assert.Equal(t, LabelNotFound, client.Resolve(context.Background(), brca1))
	assert.Equal(t, LabelNotFound, client.Resolve(context.Background(), brca1))
	assert.Equal(t, 1, api.total(), "negative answer served from cache")

	label, ok := c.Lookup(brca1)
	require.True(t, ok)
	assert.Equal(t, LabelNotFound, label)
}

func TestResolve_TransientFailuresNotCached(t *testing.T) {
	tests := []struct {
		name    string
		handler func(id string, w http.ResponseWriter)
		want    string
	}{
		{"server error", func(_ string, w http.ResponseWriter) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream down"))
		}, LabelAPIError},
		{"rate limited", func(_ string, w http.ResponseWriter) {
			w.WriteHeader(http.StatusTooManyRequests)
		}, LabelAPIError},
		{"malformed body", func(_ string, w http.ResponseWriter) {
			w.Write([]byte(`{"clinical_significance":`))
		}, LabelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t, tt.handler)
			client, c := newTestClient(t, srv, &countingLimiter{})

			assert.Equal(t, tt.want, client.Resolve(context.Background(), brca1))
			_, ok := c.Lookup(brca1)
			assert.False(t, ok, "transient failure must not be cached")

			// Still retryable.
			client.Resolve(context.Background(), brca1)
			assert.Equal(t, 2, api.total())
		})
	}
}

func TestResolve_TransportError(t *testing.T) {
	_, srv := newFakeAPI(t, func(string, http.ResponseWriter) {})
	client, c := newTestClient(t, srv, &countingLimiter{})
	srv.Close()

	assert.Equal(t, LabelError, client.Resolve(context.Background(), brca1))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, client.Stats().Errors)
}

func TestResolve_CacheHitSkipsLimiterAndRemote(t *testing.T) {
	api, srv := newFakeAPI(t, func(string, http.ResponseWriter) {})
	lim := &countingLimiter{}
	client, c := newTestClient(t, srv, lim)

	require.NoError(t, c.Store(brca1, "Benign"))

	assert.Equal(t, "Benign", client.Resolve(context.Background(), brca1))
	assert.Zero(t, api.total())
	assert.Zero(t, lim.waits)
	assert.Equal(t, 1, client.Stats().CacheHits)
}

// stampingTransport records when each request leaves the client.
type stampingTransport struct {
	mu    sync.Mutex
	times []time.Time
}

func (s *stampingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	s.mu.Lock()
	s.times = append(s.times, time.Now())
	s.mu.Unlock()
	return http.DefaultTransport.RoundTrip(r)
}

func TestResolve_ConsecutiveMissesAreSpaced(t *testing.T) {
	interval := 100 * time.Millisecond
	_, srv := newFakeAPI(t, func(string, http.ResponseWriter) {})
	client, _ := newTestClient(t, srv, ratelimit.NewFixedDelay(ratelimit.Config{MinInterval: interval}))
	tr := &stampingTransport{}
	client.SetHTTPClient(&http.Client{Transport: tr})

	client.Resolve(context.Background(), "NC_000001.11:99:A:G")
	client.Resolve(context.Background(), "NC_000001.11:199:A:G")

	require.Len(t, tr.times, 2)
	assert.GreaterOrEqual(t, tr.times[1].Sub(tr.times[0]), interval)
}

func TestResolve_CanceledContext(t *testing.T) {
	api, srv := newFakeAPI(t, func(string, http.ResponseWriter) {})
	client, c := newTestClient(t, srv, &countingLimiter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, LabelError, client.Resolve(ctx, brca1))
	assert.Zero(t, api.total())
	assert.Zero(t, c.Len())
}

func TestResolve_Stats(t *testing.T) {
	_, srv := newFakeAPI(t, func(id string, w http.ResponseWriter) {
		switch {
		case strings.HasPrefix(id, "found"):
			w.Write([]byte(`{"clinical_significance":{"description":"Benign"}}`))
		case strings.HasPrefix(id, "missing"):
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	client, _ := newTestClient(t, srv, &countingLimiter{})

	ctx := context.Background()
	for _, id := range []string{"found1", "found1", "missing1", "broken1"} {
		client.Resolve(ctx, id)
	}

	assert.Equal(t, Stats{CacheHits: 1, RemoteCalls: 3, Found: 1, NotFound: 1, APIErrors: 1}, client.Stats())
}
