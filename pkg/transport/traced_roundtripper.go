package transport

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/luizaranda/go-jira/pkg/telemetry"
	"github.com/luizaranda/go-jira/pkg/telemetry/tracing"
)

const (
	_httpRequestMetric = "jira.client.request.time"
)

// TraceDecorator returns a RoundTripDecorator that provides HTTP tracing
// capabilities to the given http.RoundTripper.
//
// For more information check the TracedRoundTripper struct.
func TraceDecorator() RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &TracedRoundTripper{Transport: base}
	}
}

// TracedRoundTripper is an http.RoundTripper that instruments external
// requests adding NewRelic distributed tracing headers, and recording a
// single metric on request/response behavior.
//
// The metric is recorded using pkg/telemetry, so in order to have working
// metrics the request context must contain a valid telemetry.Client. Metrics
// can be made more granular by making the request context carry a target_id,
// use pkg/telemetry/tracing for that.
//
// NewRelic's integration works only if the request context contains a
// NewRelic transaction.
type TracedRoundTripper struct {
	Transport http.RoundTripper
}

// RoundTrip executes a single HTTP transaction, returning a Response for the
// provided Request.
func (t *TracedRoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	// Start the NewRelic external segment manually instead of using their
	// round tripper as we want to configure additional segment fields.
	// Note: this call mutates the request.
	segment := newrelic.StartExternalSegment(nil, request)
	segment.Procedure = segmentProcedure(request)

	commonTags := tracedCommonTags(request)
	startTime := time.Now()

	response, err := t.Transport.RoundTrip(request)
	if err != nil {
		segment.AddAttribute("error", err.Error())
	}
	segment.Response = response
	segment.End()

	// When Transport.RoundTrip returns we have finished making the request,
	// either successfully or with error. Record a request metric with
	// information about the response status, which is either the response
	// status code, a timeout or an unknown error.
	recordResponse(request.Context(), commonTags, startTime, _httpRequestMetric, response, err)

	return response, err
}

func tracedCommonTags(req *http.Request) []string {
	targetID := tracing.TargetID(req.Context())

	if targetID == "" {
		return []string{
			"technology:go",
			"method:" + strings.ToLower(req.Method),
		}
	}

	return []string{
		"technology:go",
		"target_id:" + telemetry.SanitizeMetricTagValue(targetID),
		"method:" + strings.ToLower(req.Method),
	}
}

func segmentProcedure(request *http.Request) string {
	ctx := request.Context()

	endpointTemplate := tracing.EndpointTemplate(ctx)
	if endpointTemplate != "" {
		return request.Method + " " + endpointTemplate
	}

	targetID := tracing.TargetID(ctx)
	if targetID != "" {
		return request.Method + " " + targetID
	}

	return ""
}

func recordResponse(ctx context.Context, tags []string, startTime time.Time, metric string, response *http.Response, err error) {
	status, statusClass := "error", "error"
	if err == nil {
		status = strconv.Itoa(response.StatusCode)
		statusClass = strconv.Itoa(response.StatusCode/100) + "xx" // 2xx, 3xx, 4xx, 5xx, etc
	} else if os.IsTimeout(err) {
		status = "timeout"
	}

	telemetry.Timing(ctx, metric, time.Since(startTime), append(tags, "status:"+status, "status_class:"+statusClass))
}
