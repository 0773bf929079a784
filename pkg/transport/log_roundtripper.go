package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/luizaranda/go-jira/pkg/telemetry/tracing"
)

// LogDecorator returns a RoundTripDecorator that logs every executed
// request at debug level with its method, endpoint, status and duration.
//
// The endpoint template from the request context is logged alongside the
// expanded URL so log lines can be grouped per operation.
func LogDecorator(logger *zap.Logger) RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &LogRoundTripper{Transport: base, Logger: logger}
	}
}

// LogRoundTripper is an http.RoundTripper that logs request outcomes
// through a zap logger.
type LogRoundTripper struct {
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// RoundTrip executes a single HTTP transaction, returning a Response for the
// provided Request.
func (t *LogRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := t.Transport.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Duration("duration", time.Since(start)),
	}

	if endpoint := tracing.EndpointTemplate(req.Context()); endpoint != "" {
		fields = append(fields, zap.String("endpoint", endpoint))
	}

	if err != nil {
		t.Logger.Debug("http request failed", append(fields, zap.Error(err))...)
		return res, err
	}

	t.Logger.Debug("http request", append(fields, zap.Int("status", res.StatusCode))...)
	return res, nil
}
