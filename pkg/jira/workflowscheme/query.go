package workflowscheme

import (
	"net/url"
	"strconv"
	"strings"
)

// Selectors restrict what the server returns: Fields names the response
// fields to include and Expand names the nested entities to expand.
//
// Nil-ness is significant: a nil slice omits its query key entirely, while
// a non-nil empty slice sends the key with an empty value. The remote
// server treats the two differently, so callers control which one they get.
type Selectors struct {
	Fields []string
	Expand []string
}

// flag is a named boolean query parameter.
type flag struct {
	name  string
	value bool
}

// queryValues returns a fresh url.Values for an operation's query string:
// the given flags rendered as true/false plus the comma-joined selector
// lists. Selector names are joined verbatim, order-preserving, with no
// trailing comma and no escaping.
func queryValues(sel Selectors, flags ...flag) url.Values {
	q := url.Values{}

	for _, f := range flags {
		q.Set(f.name, strconv.FormatBool(f.value))
	}

	if sel.Fields != nil {
		q.Set("fields", strings.Join(sel.Fields, ","))
	}

	if sel.Expand != nil {
		q.Set("expand", strings.Join(sel.Expand, ","))
	}

	return q
}
