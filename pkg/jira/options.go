package jira

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/luizaranda/go-jira/pkg/transport/httpclient"
)

type clientOptions struct {
	Requester     Requester
	Header        http.Header
	ErrorPolicyFn ErrorPolicyFunc
	TargetID      string
}

// Option interface is implemented by option functions available when
// creating a Client.
type Option interface {
	applyClient(opt *clientOptions)
}

type optionFunc func(opt *clientOptions)

func (f optionFunc) applyClient(o *clientOptions) { f(o) }

// WithRequester sets the Requester used to execute HTTP requests, replacing
// the default redirect-following httpclient requester. Useful for injecting
// a retryable client or a test double.
func WithRequester(r Requester) Option {
	return optionFunc(func(options *clientOptions) {
		options.Requester = r
	})
}

// WithHeader will set a default header with a value sent on every request.
// The value type can be string, bool, time.Time, the integer types or
// Stringer; any other type will panic.
func WithHeader(name string, value any) Option {
	return optionFunc(func(options *clientOptions) {
		options.Header.Add(name, toString(value))
	})
}

// WithBasicAuth makes every request carry a basic Authorization header with
// the given username and API token.
func WithBasicAuth(username, token string) Option {
	return optionFunc(func(options *clientOptions) {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + token))
		options.Header.Set("Authorization", "Basic "+credentials)
	})
}

// WithBearerToken makes every request carry a bearer Authorization header
// with the given token (personal access token auth).
func WithBearerToken(token string) Option {
	return optionFunc(func(options *clientOptions) {
		options.Header.Set("Authorization", "Bearer "+token)
	})
}

// WithErrorPolicy controls whether a served response should be treated as
// an error or not in your application.
// Default is to treat all transport errors and any response status >=400 as
// an error.
func WithErrorPolicy(fn ErrorPolicyFunc) Option {
	return optionFunc(func(options *clientOptions) {
		options.ErrorPolicyFn = fn
	})
}

// WithTargetID sets the telemetry target id attribute to use in all the
// requests made by this client. It should have the lowest cardinality
// possible, e.g. the name of the Jira instance being targeted.
func WithTargetID(targetID string) Option {
	return optionFunc(func(options *clientOptions) {
		options.TargetID = targetID
	})
}

func toString(value any) string {
	switch t := value.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%v", value)
	default:
		panic(fmt.Sprintf("type %T is unsupported", value))
	}
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		Requester:     httpclient.New(httpclient.FollowRedirects(true)),
		Header:        make(http.Header),
		ErrorPolicyFn: DefaultErrorPolicy,
	}
}
