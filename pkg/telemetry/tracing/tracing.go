// Package tracing carries low-cardinality request identity through a
// context so that transport instrumentation can tag what it records.
package tracing

import (
	"context"
)

type targetIDCtxKey struct{}

// WithTargetID sets the given targetID in the context for telemetry purposes.
func WithTargetID(ctx context.Context, targetID string) context.Context {
	return context.WithValue(ctx, targetIDCtxKey{}, targetID)
}

// TargetID returns the targetID associated with the given context or empty
// if none is found.
func TargetID(ctx context.Context) string {
	value, _ := ctx.Value(targetIDCtxKey{}).(string)
	return value
}

type endpointTemplateKey struct{}

// WithEndpointTemplate sets the unexpanded endpoint path (for example
// /workflowscheme/{schemeID}/draft) in the context for tracing purposes.
// Instrumentation prefers the template over the expanded path to keep
// metric and span cardinality bounded.
func WithEndpointTemplate(ctx context.Context, endpointTemplate string) context.Context {
	return context.WithValue(ctx, endpointTemplateKey{}, endpointTemplate)
}

// EndpointTemplate returns the endpoint template associated with the given
// context or empty if none is found.
func EndpointTemplate(ctx context.Context) string {
	value, _ := ctx.Value(endpointTemplateKey{}).(string)
	return value
}
