package httpclient

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// CheckRedirectFunc is the function signature of http.Client.CheckRedirect.
type CheckRedirectFunc func(req *http.Request, via []*http.Request) error

// NoRedirect is a CheckRedirectFunc that stops the client from following
// any redirect, returning the redirect response itself to the caller.
func NoRedirect(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

// BackoffFunc returns how long to wait before the given retry attempt.
// attempt is 1 for the first retry.
type BackoffFunc func(attempt int) time.Duration

// ConstantBackoff waits the same duration between every retry.
func ConstantBackoff(wait time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return wait
	}
}

// ExponentialBackoff doubles the wait on every retry, starting at base and
// capped at max, with full jitter applied so synchronized callers do not
// retry in lockstep.
func ExponentialBackoff(base, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		wait := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
		if wait > max {
			wait = max
		}
		return time.Duration(rand.Int63n(int64(wait) + 1))
	}
}

// CheckRetryFunc decides whether the request that produced the given
// response (or error) should be retried.
type CheckRetryFunc func(res *http.Response, err error) bool

// ServerErrorsRetryPolicy returns a CheckRetryFunc which retries on
// connection errors and 5xx responses only.
func ServerErrorsRetryPolicy() CheckRetryFunc {
	return func(res *http.Response, err error) bool {
		if err != nil {
			return true
		}

		return res.StatusCode >= 500
	}
}

// RetryableClient is a Requester that executes a request and retries it
// according to its retry policy, waiting in between attempts per its
// backoff strategy.
//
// Request bodies must be rewindable for retries to work; requests created
// with NewRequest always are.
type RetryableClient struct {
	*http.Client

	// RetryMax is the maximum number of retries after the original request.
	RetryMax int

	// BackoffStrategy returns the wait time before each retry.
	BackoffStrategy BackoffFunc

	// CheckRetry decides whether an attempt's outcome warrants a retry.
	CheckRetry CheckRetryFunc
}

type retryCountCtxKey struct{}

// RetryCount returns the retry attempt number of the given request, zero if
// the request is the original attempt.
func RetryCount(req *http.Request) int {
	count, _ := req.Context().Value(retryCountCtxKey{}).(int)
	return count
}

// Do executes the request, retrying it up to RetryMax times. The response
// body of every discarded attempt is drained and closed so the underlying
// connection can be reused.
func (c *RetryableClient) Do(req *http.Request) (*http.Response, error) {
	var (
		res *http.Response
		err error
	)

	for attempt := 0; ; attempt++ {
		attemptReq := req
		if attempt > 0 {
			attemptReq, err = rewind(req, attempt)
			if err != nil {
				return res, err
			}
		}

		res, err = c.Client.Do(attemptReq)

		if attempt >= c.RetryMax || !c.CheckRetry(res, err) {
			return res, err
		}

		if res != nil {
			drain(res)
		}

		wait := c.BackoffStrategy(attempt + 1)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// rewind produces a fresh copy of req with its body reset and the retry
// attempt number stored in its context.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	ctx := context.WithValue(req.Context(), retryCountCtxKey{}, attempt)
	next := req.Clone(ctx)

	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		next.Body = body
	}

	return next, nil
}

func drain(res *http.Response) {
	const drainLimit = 16 * 1024

	buf := make([]byte, drainLimit)
	for {
		n, err := res.Body.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	_ = res.Body.Close()
}
