package transport

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httputil"
)

// A Cache interface is used by the cache round tripper to store and
// retrieve serialized responses.
type Cache interface {
	// Get returns the []byte representation of a cached response and a bool
	// set to true if the value isn't empty.
	Get(key string) (responseBytes []byte, ok bool)
	// Set stores the []byte representation of a response against a key.
	Set(key string, responseBytes []byte)
	// Delete removes the value associated with the key.
	Delete(key string)
}

// XFromCache is the header added to responses that are served from the
// cache.
const XFromCache = "X-From-Cache"

// CacheDecorator returns a RoundTripDecorator that serves repeated GET
// requests from the given cache instead of hitting the remote server.
//
// Only 200 responses to GET requests are stored. Any non-GET request to a
// cached URL invalidates that entry, so reads issued after a write through
// the same client observe the remote state.
func CacheDecorator(cache Cache) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &CacheRoundTripper{Transport: base, Cache: cache}
	}
}

// CacheRoundTripper is an http.RoundTripper that memoizes GET responses
// keyed by URL. Responses served from the cache carry the XFromCache header.
type CacheRoundTripper struct {
	Transport http.RoundTripper
	Cache     Cache
}

// RoundTrip executes a single HTTP transaction, returning a Response for
// the provided Request.
func (t *CacheRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	if req.Method != http.MethodGet {
		t.Cache.Delete(key)
		return t.Transport.RoundTrip(req)
	}

	if cached, ok := t.Cache.Get(key); ok {
		res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(cached)), req)
		if err == nil {
			res.Header.Set(XFromCache, "1")
			return res, nil
		}

		// Unreadable entry, drop it and fall through to the network.
		t.Cache.Delete(key)
	}

	res, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode == http.StatusOK {
		// DumpResponse reads and restores the body.
		if dump, dumpErr := httputil.DumpResponse(res, true); dumpErr == nil {
			t.Cache.Set(key, dump)
		}
	}

	return res, nil
}
