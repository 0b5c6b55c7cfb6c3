package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prime3679/bishop-bench/internal/provider"
)

func TestNormalizeAnthropic(t *testing.T) {
	tests := []struct {
		name string
		body string
		want provider.Completion
	}{
		{
			name: "joins text blocks",
			body: `{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"Hello "},{"type":"tool_use","id":"t1","name":"calc","input":{}},{"type":"text","text":"world"}],"usage":{"input_tokens":9,"output_tokens":4}}`,
			want: provider.Completion{Text: "Hello world", InputTokens: 9, OutputTokens: 4},
		},
		{
			name: "null content",
			body: `{"id":"msg_2","type":"message","content":null,"usage":{"input_tokens":3,"output_tokens":0}}`,
			want: provider.Completion{InputTokens: 3},
		},
		{
			name: "missing usage",
			body: `{"id":"msg_3","type":"message","content":[{"type":"text","text":"ok"}]}`,
			want: provider.Completion{Text: "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg anthropic.Message
			require.NoError(t, json.Unmarshal([]byte(tt.body), &msg))
			assert.Equal(t, tt.want, provider.NormalizeAnthropic(&msg))
		})
	}
}

func TestNormalizeAnthropicNil(t *testing.T) {
	assert.Equal(t, provider.Completion{}, provider.NormalizeAnthropic(nil))
}

func TestAnthropicComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest","content":[{"type":"text","text":"pong"}],"stop_reason":"end_turn","usage":{"input_tokens":11,"output_tokens":1}}`))
	}))
	defer srv.Close()

	p := provider.NewAnthropic("sk-ant-test", srv.URL)
	c, err := p.Complete(context.Background(), "claude-3-5-haiku-latest", "ping")
	require.NoError(t, err)
	assert.Equal(t, provider.Completion{Text: "pong", InputTokens: 11, OutputTokens: 1}, c)

	assert.Equal(t, "claude-3-5-haiku-latest", got["model"])
	assert.EqualValues(t, 1024, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestAnthropicRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"too many requests"}}`))
	}))
	defer srv.Close()

	p := provider.NewAnthropic("sk-ant-test", srv.URL)
	_, err := p.Complete(context.Background(), "claude-3-5-haiku-latest", "ping")
	require.Error(t, err)
	code, ok := provider.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestAnthropicMissingKey(t *testing.T) {
	p := provider.NewAnthropic("", "")
	assert.False(t, p.Ready())
	_, err := p.Complete(context.Background(), "m", "p")
	assert.True(t, errors.Is(err, provider.ErrMissingCredential))
	assert.Contains(t, err.Error(), "Missing ANTHROPIC_API_KEY")
}
