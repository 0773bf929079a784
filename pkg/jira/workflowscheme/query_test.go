package workflowscheme

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValuesSelectors(t *testing.T) {
	cases := []struct {
		name string
		sel  Selectors
		want url.Values
	}{
		{
			name: "nil selectors omit both keys",
			sel:  Selectors{},
			want: url.Values{},
		},
		{
			name: "fields are comma joined preserving order",
			sel:  Selectors{Fields: []string{"a", "b", "c"}},
			want: url.Values{"fields": {"a,b,c"}},
		},
		{
			name: "single field has no trailing comma",
			sel:  Selectors{Fields: []string{"name"}},
			want: url.Values{"fields": {"name"}},
		},
		{
			name: "empty but non-nil expand sends an empty value",
			sel:  Selectors{Expand: []string{}},
			want: url.Values{"expand": {""}},
		},
		{
			name: "both selectors",
			sel:  Selectors{Fields: []string{"name", "description"}, Expand: []string{"workflows"}},
			want: url.Values{"fields": {"name,description"}, "expand": {"workflows"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, queryValues(tc.sel))
		})
	}
}

func TestQueryValuesFlags(t *testing.T) {
	q := queryValues(Selectors{}, flag{"returnDraftIfExists", true})
	assert.Equal(t, url.Values{"returnDraftIfExists": {"true"}}, q)

	q = queryValues(Selectors{}, flag{"updateDraftIfNeeded", false})
	assert.Equal(t, url.Values{"updateDraftIfNeeded": {"false"}}, q)
}

func TestQueryValuesReturnsFreshValues(t *testing.T) {
	sel := Selectors{Fields: []string{"name"}}

	first := queryValues(sel)
	first.Set("fields", "mutated")

	second := queryValues(sel)
	require.Equal(t, "name", second.Get("fields"))
}
