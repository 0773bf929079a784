package jira

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	cases := []struct {
		name string
		base string
		elem string
		want string
	}{
		{
			name: "joins a path to a bare host",
			base: "https://jira.example.com",
			elem: "/workflowscheme",
			want: "https://jira.example.com/workflowscheme",
		},
		{
			name: "joins a path to an existing base path",
			base: "https://jira.example.com/rest/api/2",
			elem: "/workflowscheme/{schemeID}",
			want: "https://jira.example.com/rest/api/2/workflowscheme/{schemeID}",
		},
		{
			name: "keeps the query string of elem",
			base: "https://jira.example.com",
			elem: "/workflowscheme/5?returnDraftIfExists=true",
			want: "https://jira.example.com/workflowscheme/5?returnDraftIfExists=true",
		},
		{
			name: "accepts a query-only elem",
			base: "https://jira.example.com/workflowscheme",
			elem: "?fields=name",
			want: "https://jira.example.com/workflowscheme?fields=name",
		},
		{
			name: "empty elem returns the base",
			base: "https://jira.example.com/rest",
			elem: "",
			want: "https://jira.example.com/rest",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, URL(tc.base, tc.elem))
		})
	}
}

func TestExpandRequestURL(t *testing.T) {
	base, err := url.Parse("https://jira.example.com/rest/api/2")
	require.NoError(t, err)

	t.Run("replaces placeholders with params", func(t *testing.T) {
		u, err := expandRequestURL(base, "/workflowscheme/{schemeID}/draft", map[string]string{"schemeID": "5"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://jira.example.com/rest/api/2/workflowscheme/5/draft", u.String())
	})

	t.Run("encodes the query", func(t *testing.T) {
		q := url.Values{"fields": {"name,description"}, "returnDraftIfExists": {"true"}}
		u, err := expandRequestURL(base, "/workflowscheme/{schemeID}", map[string]string{"schemeID": "5"}, q)
		require.NoError(t, err)
		assert.Equal(t, "https://jira.example.com/rest/api/2/workflowscheme/5?fields=name%2Cdescription&returnDraftIfExists=true", u.String())
	})

	t.Run("escapes param values in the raw path", func(t *testing.T) {
		u, err := expandRequestURL(base, "/workflowscheme/{schemeID}/issuetype/{issueType}", map[string]string{"schemeID": "5", "issueType": "a/b"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "/rest/api/2/workflowscheme/5/issuetype/a/b", u.Path)
		assert.Equal(t, "https://jira.example.com/rest/api/2/workflowscheme/5/issuetype/a%2Fb", u.String())
	})

	t.Run("does not mutate the base", func(t *testing.T) {
		before := *base
		_, err := expandRequestURL(base, "/workflowscheme/{schemeID}", map[string]string{"schemeID": "5"}, nil)
		require.NoError(t, err)
		assert.Equal(t, before, *base)
	})

	t.Run("missing param fails", func(t *testing.T) {
		_, err := expandRequestURL(base, "/workflowscheme/{schemeID}", nil, nil)
		assert.ErrorIs(t, err, ErrMissingURLParam)
	})

	t.Run("empty param fails", func(t *testing.T) {
		_, err := expandRequestURL(base, "/workflowscheme/{schemeID}", map[string]string{"schemeID": ""}, nil)
		assert.ErrorIs(t, err, ErrEmptyURLParam)
	})
}
