package transport

import (
	"net/http"

	"github.com/luizaranda/go-jira/pkg/internal"
)

// UserAgentDecorator returns a RoundTripDecorator that sets a default
// User-Agent on the http.Request.
func UserAgentDecorator() RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &UserAgentRoundTripper{Transport: base}
	}
}

// UserAgentRoundTripper is an http.RoundTripper that sets a default
// User-Agent header only if the caller does not provide one.
// The format is go-jira/x.y.z where x.y.z is the module build version.
type UserAgentRoundTripper struct {
	Transport http.RoundTripper
}

// RoundTrip executes a single HTTP transaction, returning a Response for the
// provided Request.
func (ua *UserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.UserAgent() == "" {
		req.Header.Set("User-Agent", "go-jira/"+internal.Version)
	}

	return ua.Transport.RoundTrip(req)
}
