package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestNewRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("nil body", func(t *testing.T) {
		req, err := NewRequest(ctx, http.MethodGet, "http://jira.local/", nil)
		require.NoError(t, err)
		assert.Nil(t, req.Body)
		assert.Nil(t, req.GetBody)
	})

	t.Run("byte slice", func(t *testing.T) {
		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", []byte("payload"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ContentLength)
		assert.Equal(t, "payload", readBody(t, req.Body))

		// The body can be replayed.
		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
	})

	t.Run("bytes buffer", func(t *testing.T) {
		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", bytes.NewBufferString("payload"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ContentLength)

		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
	})

	t.Run("bytes reader is snapshotted", func(t *testing.T) {
		reader := bytes.NewReader([]byte("payload"))
		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", reader)
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ContentLength)

		// Draining the caller's reader does not affect replays.
		_, _ = io.ReadAll(reader)

		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
	})

	t.Run("read seeker rewinds", func(t *testing.T) {
		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", strings.NewReader("payload"))
		require.NoError(t, err)

		assert.Equal(t, "payload", readBody(t, req.Body))

		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
	})

	t.Run("plain reader is buffered up front", func(t *testing.T) {
		plain := io.LimitReader(strings.NewReader("payload and more"), 7)
		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", plain)
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ContentLength)

		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
	})

	t.Run("reader func", func(t *testing.T) {
		calls := 0
		fn := ReaderFunc(func() (io.Reader, error) {
			calls++
			return strings.NewReader("payload"), nil
		})

		req, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", fn)
		require.NoError(t, err)
		assert.Equal(t, int64(7), req.ContentLength)
		assert.Equal(t, "payload", readBody(t, req.Body))

		body, err := req.GetBody()
		require.NoError(t, err)
		assert.Equal(t, "payload", readBody(t, body))
		assert.GreaterOrEqual(t, calls, 2)
	})

	t.Run("unsupported body type", func(t *testing.T) {
		_, err := NewRequest(ctx, http.MethodPost, "http://jira.local/", 42)
		assert.Error(t, err)
	})
}

func TestLocalCache(t *testing.T) {
	c := NewLocalCache(1)
	t.Cleanup(func() { _ = c.Close() })

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", []byte("value"))
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	c.Delete("key")
	_, ok = c.Get("key")
	assert.False(t, ok)
}
