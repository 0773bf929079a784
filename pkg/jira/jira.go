package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/luizaranda/go-jira/pkg/internal"
	"github.com/luizaranda/go-jira/pkg/telemetry/tracing"
	"github.com/luizaranda/go-jira/pkg/transport/httpclient"
)

var (
	// ErrUnsupportedBodyType body type passed to the client is unsupported.
	ErrUnsupportedBodyType = errors.New("unsupported body type")

	// ErrEmptyURLParam empty param value for replacing in a request URL.
	ErrEmptyURLParam = errors.New("empty param value for a request URL")

	// ErrMissingURLParam missing param for replacing in a request URL.
	ErrMissingURLParam = errors.New("missing param value for a request URL")
)

// Requester is responsible for making HTTP requests. It is usually an
// implementation provided by the transport package (e.g. httpclient).
// It can also be an http.Client or even a mock implementation for testing.
type Requester interface {
	// Do makes an HTTP request and returns an HTTP response.
	Do(*http.Request) (*http.Response, error)
}

// Request describes a single API call relative to the client's base URL.
// It is a transient value, built fresh per call and consumed immediately by
// Do; the zero value of every optional field means "absent".
type Request struct {
	// Path is the API path relative to the configured base, for example
	// /workflowscheme/{schemeID}/draft. Placeholders in braces are replaced
	// with values from Params.
	Path string

	// Method is the HTTP verb of the call.
	Method string

	// Body, when non-nil, is the request body. A []byte or io.Reader is
	// sent as-is; any other value is marshaled to JSON.
	Body any

	// Query holds the query string values of the call.
	Query url.Values

	// Params holds the values replacing the {name} placeholders in Path.
	Params map[string]string

	// Header holds call-specific headers, merged over the client defaults.
	Header http.Header
}

// Response represents the response from an API call that succeeded.
type Response struct {
	// Body is the complete response body.
	Body []byte
	// StatusCode is the response status code.
	StatusCode int
	// Header is the response header map.
	Header http.Header
}

// JSON unmarshals the response body into v. It is a convenience for callers
// that know the shape of the payload; the client itself never interprets
// response bodies.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// ErrorPolicyFunc for specifying an error policy function that will be used
// to determine if a response should be returned as an error.
// It is called only if the HTTP request was successful regardless of the
// status code. It won't be called if the HTTP request failed due to a
// network error or a timeout; in that case the error returned by the HTTP
// client is returned.
type ErrorPolicyFunc func(*Response) error

// DefaultErrorPolicy policy will return an error when the status code of
// the response is greater than 399.
var DefaultErrorPolicy ErrorPolicyFunc = func(r *Response) error {
	if r.StatusCode < 400 {
		return nil
	}

	return &Error{r}
}

// Config contains the attributes required to build a Client.
type Config struct {
	// BaseURL is the root URL of the Jira instance, without the REST API
	// prefix, e.g. https://jira.example.com.
	BaseURL string `validate:"required,url"`

	// APIVersion selects the REST API version segment. Defaults to "2".
	APIVersion string
}

const _defaultAPIVersion = "2"

var _validate = validator.New()

// Client executes API calls against a single Jira instance. It is safe for
// concurrent use by multiple goroutines.
type Client struct {
	requester      Requester
	baseURL        *url.URL
	defaultHeaders http.Header
	errorPolicy    ErrorPolicyFunc
	targetID       string
}

// NewClient creates a Client for the Jira instance described by cfg.
// It returns an error if the config does not validate.
//
// If no Requester is given the client uses an httpclient.New requester that
// follows redirects, matching the behavior the remote API expects from
// workflow scheme calls.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := _validate.Struct(cfg); err != nil {
		return nil, err
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = _defaultAPIVersion
	}

	options := defaultClientOptions()
	for _, option := range opts {
		option.applyClient(&options)
	}

	u, err := url.ParseRequestURI(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		requester:      options.Requester,
		baseURL:        u.JoinPath("rest", "api", cfg.APIVersion),
		defaultHeaders: options.Header,
		errorPolicy:    options.ErrorPolicyFn,
		targetID:       options.TargetID,
	}, nil
}

// BuildURL resolves an API path relative to the client's configured base,
// leaving any {name} placeholders untouched.
func (c *Client) BuildURL(path string) string {
	return URL(c.baseURL.String(), path)
}

// Do executes the given request and returns the response, applying the
// client's error policy to decide whether a served response is an error.
//
// Exactly one request is issued per call; the client performs no retries
// and keeps no state across calls.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.targetID != "" {
		ctx = tracing.WithTargetID(ctx, c.targetID)
	}
	ctx = tracing.WithEndpointTemplate(ctx, req.Path)

	targetURL, err := expandRequestURL(c.baseURL, req.Path, req.Params, req.Query)
	if err != nil {
		return nil, err
	}

	requestHeaders := make(http.Header, len(c.defaultHeaders)+len(req.Header)+2)
	copyHeader(requestHeaders, c.defaultHeaders)
	copyHeader(requestHeaders, req.Header)

	// The API is JSON on both sides of every call.
	if requestHeaders.Get("Content-Type") == "" {
		requestHeaders.Set("Content-Type", "application/json")
	}
	if requestHeaders.Get("Accept") == "" {
		requestHeaders.Set("Accept", "application/json")
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	request, err := httpclient.NewRequest(ctx, req.Method, targetURL.String(), body)
	if err != nil {
		return nil, err
	}

	request.Header = requestHeaders

	if request.Header.Get("User-Agent") == "" {
		request.Header.Set("User-Agent", "go-jira/"+internal.Version)
	}

	ctx, span := newSpan(request)
	defer span.End()

	request = request.WithContext(ctx)
	response, err := c.requester.Do(request)
	recordResponseAttributes(span, response, err)

	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	b, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	r := Response{
		Body:       b,
		StatusCode: response.StatusCode,
		Header:     response.Header,
	}

	return &r, c.errorPolicy(&r)
}

func encodeBody(body any) (any, error) {
	switch t := body.(type) {
	case io.Reader, nil, []byte:
		return t, nil

	default:
		content, err := json.Marshal(body)
		if err != nil {
			return nil, ErrUnsupportedBodyType
		}

		return content, nil
	}
}

func copyHeader(dst, src http.Header) {
	for k := range src {
		dst.Set(k, src.Get(k))
	}
}
