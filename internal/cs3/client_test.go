package cs3

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTokenFile creates a token file in a test temp dir and returns
// its path.
func writeTokenFile(t *testing.T, token string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(token+"\n"), 0o600))

	return path
}

// newTestClient creates a Client pointing at the given httptest
// server, authenticated from a token file containing token.
func newTestClient(t *testing.T, url, tokenPath string) *Client {
	t.Helper()

	credential, err := LoadCredential(tokenPath, slog.Default())
	require.NoError(t, err)

	return NewClient(url, http.DefaultClient, credential, slog.Default())
}

// nonSeekableReader wraps a string in a Reader with no Seek method.
type nonSeekableReader struct {
	r io.Reader
}

func (n *nonSeekableReader) Read(p []byte) (int, error) {
	return n.r.Read(p)
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeTokenFile(t, "test-token"))

	resp, err := client.Do(context.Background(), http.MethodGet, "/test", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"value":"ok"}`, string(body))
}

func TestDo_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"locked", http.StatusLocked, ErrLocked},
		{"already exists", http.StatusConflict, ErrAlreadyExists},
		{"not implemented", http.StatusNotImplemented, ErrNotImplemented},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"permission denied", http.StatusForbidden, ErrPermissionDenied},
		{"invalid input", http.StatusBadRequest, ErrInvalidInput},
		{"server error", http.StatusInternalServerError, ErrUnknown},
		{"teapot", http.StatusTeapot, ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"something"}`))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL, writeTokenFile(t, "test-token"))

			_, err := client.Do(context.Background(), http.MethodGet, "/test", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.Status)
			assert.NotEmpty(t, statusErr.RequestID)
		})
	}
}

func TestDo_AuthRetryAfterRefresh(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	tokenPath := writeTokenFile(t, "stale")
	client := newTestClient(t, srv.URL, tokenPath)

	// The side channel rotates the token after the client loaded it.
	require.NoError(t, os.WriteFile(tokenPath, []byte("fresh\n"), 0o600))

	resp, err := client.Do(context.Background(), http.MethodGet, "/test", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(2), calls.Load(), "exactly one retry after refresh")
}

func TestDo_AuthRetryBothFail(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeTokenFile(t, "stale"))

	_, err := client.Do(context.Background(), http.MethodGet, "/test", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, int32(2), calls.Load(), "no retry beyond the first")
}

func TestDo_NoRetryForOtherCategories(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeTokenFile(t, "test-token"))

	_, err := client.Do(context.Background(), http.MethodGet, "/test", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_AuthRetrySeekableBodyIsRewound(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(body))

		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeTokenFile(t, "test-token"))

	resp, err := client.Do(context.Background(), http.MethodPost, "/test", strings.NewReader("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_AuthFailureWithNonSeekableBodyNotRetried(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, writeTokenFile(t, "test-token"))

	body := &nonSeekableReader{r: strings.NewReader("stream")}

	_, err := client.Do(context.Background(), http.MethodPost, "/test", body)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, int32(1), calls.Load(), "live streams cannot be replayed")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrLocked, http.StatusLocked},
		{ErrAlreadyExists, http.StatusConflict},
		{ErrNotImplemented, http.StatusNotImplemented},
		{ErrNotFound, http.StatusNotFound},
		{ErrAuthFailed, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnknown, http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err))
	}
}

func TestHTTPStatus_WrappedError(t *testing.T) {
	err := &StatusError{Status: http.StatusLocked, Message: "busy", Err: ErrLocked}
	assert.Equal(t, http.StatusLocked, HTTPStatus(err))
}
