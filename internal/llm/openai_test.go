package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClient(DefaultOpenAIConfig(), "test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return client
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(nil, "")
	assert.Error(t, err)
}

func TestOpenAIClient_Complete_SendsRequest(t *testing.T) {
	var got chatRequest
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	})

	text, err := client.Complete(context.Background(), Request{
		System:    "You are a coach.",
		User:      "Plan my week.",
		Tier:      TierStandard,
		MaxTokens: 4000,
		JSON:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 4000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClient_Complete_HTTPError(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	})

	_, err := client.Complete(context.Background(), Request{User: "x"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.True(t, IsRetryable(err))
}

func TestOpenAIClient_Complete_Refusal(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"I can't help with that."}}]}`))
	})

	_, err := client.Complete(context.Background(), Request{User: "x"})
	var refusal *RefusalError
	require.True(t, errors.As(err, &refusal))
	assert.False(t, IsRetryable(err))
}

func TestOpenAIClient_Complete_ContentFilter(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"partial"},"finish_reason":"content_filter"}]}`))
	})

	_, err := client.Complete(context.Background(), Request{User: "x"})
	var refusal *RefusalError
	assert.True(t, errors.As(err, &refusal))
}

func TestOpenAIClient_Complete_Empty(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"choices":[{"message":{"content":"   "}}]}`} {
		client := newTestOpenAI(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := client.Complete(context.Background(), Request{User: "x"})
		assert.ErrorIs(t, err, ErrEmptyResponse, body)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&HTTPError{StatusCode: 503}))
	assert.True(t, IsRetryable(&HTTPError{StatusCode: 408}))
	assert.False(t, IsRetryable(&HTTPError{StatusCode: 401}))
	assert.False(t, IsRetryable(&RefusalError{Reason: "safety"}))
	assert.True(t, IsRetryable(errors.New("connection reset")))
}
