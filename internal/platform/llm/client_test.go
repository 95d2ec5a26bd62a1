package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "launder/pkg/domain-errors"
)

func TestComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Strategy: moderate \n"}}]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/v1/", "sk-test", "gpt-4o-mini")
	require.NoError(t, err)

	content, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "Strategy: moderate", content)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Len(t, got.Messages, 1)
}

func TestComplete_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "", "m")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), nil, 0)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRemoteCallFailed))
	assert.Contains(t, err.Error(), "rate limited")

	_, err = New("", "", "m")
	assert.Error(t, err)
}
