package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/pkg/config"
)

func newExtractionService(baseURL string, maxRetries int) *ExtractionService {
	svc := NewExtractionService(&config.AnthropicConfig{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		Model:      "claude-3-5-sonnet-20241022",
		MaxTokens:  4000,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	}, zap.NewNop())
	svc.backoffBase = time.Millisecond
	return svc
}

func modelReply(text string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"content":     []map[string]string{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	})
	return body
}

func testPages() [][]byte {
	return [][]byte{[]byte("fake png bytes")}
}

func TestExtractSuccess(t *testing.T) {
	var gotVersion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-sonnet-20241022", req["model"])

		w.Write(modelReply("2024-01-05,Coffee Shop,-4.50\nEND"))
	}))
	defer srv.Close()

	text, err := newExtractionService(srv.URL, 3).Extract(context.Background(), testPages())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05,Coffee Shop,-4.50\nEND", text)
	assert.Equal(t, anthropicVersion, gotVersion)
	assert.Equal(t, "test-key", gotKey)
}

func TestExtractRetriesRateLimitThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
			return
		}
		w.Write(modelReply("2024-01-05,Coffee Shop,-4.50\nEND"))
	}))
	defer srv.Close()

	text, err := newExtractionService(srv.URL, 3).Extract(context.Background(), testPages())
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(3), hits.Load(), "two rate-limited attempts plus the success")
}

func TestExtractRateLimitExhaustsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newExtractionService(srv.URL, 2).Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Equal(t, int32(3), hits.Load(), "initial attempt plus two retries")
}

func TestExtractAuthenticationErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	_, err := newExtractionService(srv.URL, 3).Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrAuthentication)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExtractMissingAPIKey(t *testing.T) {
	svc := NewExtractionService(&config.AnthropicConfig{
		BaseURL:    "http://localhost:0",
		MaxRetries: 3,
	}, zap.NewNop())

	_, err := svc.Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrAuthentication)
}

func TestExtractServerErrorsAreTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newExtractionService(srv.URL, 1).Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrTransientNetwork)
}

func TestExtractRefusalIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(modelReply("I'm unable to help with reading this document."))
	}))
	defer srv.Close()

	_, err := newExtractionService(srv.URL, 3).Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrUpstreamRefusal)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExtractEmptyReplyIsRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(modelReply(""))
	}))
	defer srv.Close()

	_, err := newExtractionService(srv.URL, 0).Extract(context.Background(), testPages())
	assert.ErrorIs(t, err, models.ErrUpstreamRefusal)
}

func TestExtractHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := newExtractionService(srv.URL, 5)
	svc.backoffBase = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Extract(ctx, testPages())
	assert.ErrorIs(t, err, models.ErrTransientNetwork)
}
