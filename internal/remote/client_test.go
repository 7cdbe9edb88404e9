package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finquery-engine/internal/common/config"
	stderrors "finquery-engine/internal/common/errors"
	"finquery-engine/internal/common/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.RemoteConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    2000,
		MaxRetries: 2,
		RetryDelay: 1,
	}, logger.NewNoOpLogger())
	require.NoError(t, err)
	return client
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Your balance is $500.00."}`))
	}))
	defer srv.Close()

	answer, err := newTestClient(t, srv.URL).Generate(context.Background(), "What's my balance?", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "Your balance is $500.00.", answer)
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"response":"recovered"}`))
	}))
	defer srv.Close()

	answer, err := newTestClient(t, srv.URL).Generate(context.Background(), "q", "user-1")

	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "q", "user-1")

	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeRemoteUnavailable, stdErr.Code)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateDoesNotRetryMalformedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"unexpected":"shape"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "q", "user-1")

	require.Error(t, err)
	stdErr, ok := err.(*stderrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, stderrors.ErrCodeRemoteBadResponse, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), "q", "user-1")

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).Generate(ctx, "q", "user-1")
	require.Error(t, err)
}
