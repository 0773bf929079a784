package transport

import (
	"net/http"

	"github.com/gofrs/uuid"
)

// RequestHook allows a function to run before each request.
//
// When modifying the request, consider that it is only safe to mutate the
// given request context and headers. All other modifications might result
// in undefined or unwanted behavior.
type RequestHook func(*http.Request) error

// ResponseHook allows running a function after each HTTP response. This
// function will be invoked at the end of every HTTP request executed.
//
// Beware that if the response Body is read and/or closed from this method,
// it will affect the response returned to the caller.
type ResponseHook func(*http.Request, *http.Response, error)

// HookDecorator returns a RoundTripDecorator that provides hooking
// capabilities to the given http.RoundTripper.
func HookDecorator(req []RequestHook, res []ResponseHook) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &HookRoundTripper{
			Transport:    base,
			RequestHook:  req,
			ResponseHook: res,
		}
	}
}

// A HookRoundTripper is an implementation of http.RoundTripper that provides
// a way to set up hooks to be called before executing an HTTP request and
// after the response is received.
type HookRoundTripper struct {
	// The underlying transport actually used to make requests.
	Transport http.RoundTripper

	// RequestHook allows user-supplied functions to be called before each
	// request.
	RequestHook []RequestHook

	// ResponseHook allows user-supplied functions to be called with the
	// response from each HTTP request executed.
	ResponseHook []ResponseHook
}

// RoundTrip executes a single HTTP transaction, returning a Response for the
// provided Request.
//
// It calls the RequestHooks before performing each request in the order they
// were hooked. If a hook returns an error the request flow stops and the
// error is returned to the caller. ResponseHooks run for every executed
// request, error or not.
func (t *HookRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, hook := range t.RequestHook {
		if err := hook(req); err != nil {
			return nil, err
		}
	}

	res, err := t.Transport.RoundTrip(req)

	for _, hook := range t.ResponseHook {
		hook(req, res, err)
	}

	return res, err
}

// RequestIDHook sets an X-Request-Id header with a fresh UUID on every
// outgoing request that does not already carry one, so individual calls can
// be correlated with remote server logs.
func RequestIDHook(req *http.Request) error {
	if req.Header.Get("X-Request-Id") != "" {
		return nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}

	req.Header.Set("X-Request-Id", id.String())
	return nil
}
