package transport

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestRoundTripChain(t *testing.T) {
	var order []string

	tag := func(name string) RoundTripDecorator {
		return func(base http.RoundTripper) http.RoundTripper {
			return roundTripFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return base.RoundTrip(req)
			})
		}
	}

	base := roundTripFunc(func(*http.Request) (*http.Response, error) {
		order = append(order, "base")
		return okResponse(""), nil
	})

	chain := RoundTripChain{tag("first"), tag("second")}
	req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)

	_, err := chain.Apply(base).RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "base"}, order)
}

func TestHookRoundTripper(t *testing.T) {
	t.Run("hooks run in order around the request", func(t *testing.T) {
		var calls []string

		rt := &HookRoundTripper{
			Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				calls = append(calls, "transport")
				return okResponse(""), nil
			}),
			RequestHook: []RequestHook{
				func(*http.Request) error { calls = append(calls, "req1"); return nil },
				func(*http.Request) error { calls = append(calls, "req2"); return nil },
			},
			ResponseHook: []ResponseHook{
				func(*http.Request, *http.Response, error) { calls = append(calls, "res") },
			},
		}

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, []string{"req1", "req2", "transport", "res"}, calls)
	})

	t.Run("request hook error short-circuits", func(t *testing.T) {
		hookErr := errors.New("rejected")
		transportCalled := false

		rt := &HookRoundTripper{
			Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				transportCalled = true
				return okResponse(""), nil
			}),
			RequestHook: []RequestHook{func(*http.Request) error { return hookErr }},
		}

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		assert.ErrorIs(t, err, hookErr)
		assert.False(t, transportCalled)
	})

	t.Run("response hooks see transport errors", func(t *testing.T) {
		transportErr := errors.New("connection reset")
		var seen error

		rt := &HookRoundTripper{
			Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return nil, transportErr
			}),
			ResponseHook: []ResponseHook{
				func(_ *http.Request, _ *http.Response, err error) { seen = err },
			},
		}

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		assert.ErrorIs(t, err, transportErr)
		assert.ErrorIs(t, seen, transportErr)
	})
}

func TestRequestIDHook(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
	require.NoError(t, RequestIDHook(req))

	first := req.Header.Get("X-Request-Id")
	assert.NotEmpty(t, first)

	// An id already present is kept.
	require.NoError(t, RequestIDHook(req))
	assert.Equal(t, first, req.Header.Get("X-Request-Id"))
}

func TestUserAgentRoundTripper(t *testing.T) {
	var got string
	rt := UserAgentDecorator()(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		got = req.UserAgent()
		return okResponse(""), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "go-jira/"))

	req.Header.Set("User-Agent", "custom/1.0")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, "custom/1.0", got)
}

// fakeBreaker is a CircuitBreaker double that records outcome signals.
type fakeBreaker struct {
	allowed   bool
	buckets   []string
	successes int
	failures  int
}

func (b *fakeBreaker) Allow(bucket string) (bool, func(), func()) {
	b.buckets = append(b.buckets, bucket)
	return b.allowed, func() { b.successes++ }, func() { b.failures++ }
}

func TestCircuitBreakerRoundTripper(t *testing.T) {
	bucketFunc := func(*http.Request) string { return "jira-local" }

	t.Run("open circuit rejects the request", func(t *testing.T) {
		breaker := &fakeBreaker{allowed: false}
		transportCalled := false

		rt := CircuitBreakerDecorator(breaker, DefaultCircuitBreakerCheckFunc(), bucketFunc)(
			roundTripFunc(func(*http.Request) (*http.Response, error) {
				transportCalled = true
				return okResponse(""), nil
			}))

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.False(t, transportCalled)
		assert.Equal(t, []string{"jira-local"}, breaker.buckets)
	})

	t.Run("server errors signal failure", func(t *testing.T) {
		breaker := &fakeBreaker{allowed: true}

		rt := CircuitBreakerDecorator(breaker, DefaultCircuitBreakerCheckFunc(), bucketFunc)(
			roundTripFunc(func(*http.Request) (*http.Response, error) {
				res := okResponse("")
				res.StatusCode = http.StatusBadGateway
				return res, nil
			}))

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, 1, breaker.failures)
		assert.Zero(t, breaker.successes)
	})

	t.Run("served responses signal success", func(t *testing.T) {
		breaker := &fakeBreaker{allowed: true}

		rt := CircuitBreakerDecorator(breaker, DefaultCircuitBreakerCheckFunc(), bucketFunc)(
			roundTripFunc(func(*http.Request) (*http.Response, error) {
				return okResponse(""), nil
			}))

		req := httptest.NewRequest(http.MethodGet, "http://jira.local/", nil)
		_, err := rt.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, 1, breaker.successes)
		assert.Zero(t, breaker.failures)
	})
}

// mapCache is a trivial in-memory Cache for tests.
type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok
}

func (c *mapCache) Set(key string, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = b
}

func (c *mapCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func TestCacheRoundTripper(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"name":"cached"}`))
	}))
	t.Cleanup(server.Close)

	client := &http.Client{
		Transport: CacheDecorator(newMapCache())(http.DefaultTransport),
	}

	readBody := func(res *http.Response) string {
		t.Helper()
		defer res.Body.Close()
		b, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return string(b)
	}

	res, err := client.Get(server.URL)
	require.NoError(t, err)
	assert.Empty(t, res.Header.Get(XFromCache))
	assert.Equal(t, `{"name":"cached"}`, readBody(res))
	assert.Equal(t, 1, hits)

	// Second GET is served from the cache.
	res, err = client.Get(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "1", res.Header.Get(XFromCache))
	assert.Equal(t, `{"name":"cached"}`, readBody(res))
	assert.Equal(t, 1, hits)

	// A write through the same URL invalidates the entry.
	req, err := http.NewRequest(http.MethodPut, server.URL, strings.NewReader(`{}`))
	require.NoError(t, err)
	res, err = client.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, 2, hits)

	res, err = client.Get(server.URL)
	require.NoError(t, err)
	assert.Empty(t, res.Header.Get(XFromCache))
	readBody(res)
	assert.Equal(t, 3, hits)
}
