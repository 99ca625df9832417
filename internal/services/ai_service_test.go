package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAICompletionClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAICompletionClient("test-key", srv.URL+"/v1", "gpt-4", CompletionOptions{Temperature: 0.7, MaxTokens: 500})
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func TestOpenAICompleteSendsRoleMessages(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeCompletion(w, "Hello there")
	})

	text, err := client.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "hi"},
	}, CompletionOptions{Temperature: 0.1})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", text)
	assert.Equal(t, "gpt-4", got.Model)
	assert.InDelta(t, 0.1, got.Temperature, 1e-6)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAICompleteClassifiesFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		kind      apperrors.UpstreamKind
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, apperrors.UpstreamRateLimited, true},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, apperrors.UpstreamUnknown, true},
		{"bad gateway html", http.StatusBadGateway, `<html>bad gateway</html>`, apperrors.UpstreamUnknown, true},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"invalid model"}}`, apperrors.UpstreamUnknown, false},
		{"gateway timeout", http.StatusGatewayTimeout, `{"error":{"message":"timeout"}}`, apperrors.UpstreamTimeout, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, CompletionOptions{})
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrorTypeUpstream, appErr.Type)
			assert.Equal(t, tt.kind, appErr.Upstream)
			assert.Equal(t, tt.retryable, appErr.Retryable)
		})
	}
}

func TestOpenAICompleteTimeout(t *testing.T) {
	client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, CompletionOptions{Timeout: 20 * time.Millisecond})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.UpstreamTimeout, appErr.Upstream)
	assert.True(t, appErr.Retryable)
}

func TestOpenAICompleteMalformed(t *testing.T) {
	client := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, "   ")
	})

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, CompletionOptions{})
	kind, ok := apperrors.UpstreamKindOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.UpstreamMalformed, kind)

	_, err = client.Complete(context.Background(), nil, CompletionOptions{})
	kind, _ = apperrors.UpstreamKindOf(err)
	assert.Equal(t, apperrors.UpstreamMalformed, kind)
}

func TestToGeminiRequest(t *testing.T) {
	tests := []struct {
		name        string
		messages    []Message
		system      string
		historyLen  int
		historyRole []string
		prompt      string
		wantErr     bool
	}{
		{
			name:     "system and user",
			messages: []Message{{Role: RoleSystem, Content: "be brief"}, {Role: RoleUser, Content: "hi"}},
			system:   "be brief",
			prompt:   "hi",
		},
		{
			name: "conversation keeps earlier turns as history",
			messages: []Message{
				{Role: RoleSystem, Content: "a"},
				{Role: RoleUser, Content: "q1"},
				{Role: RoleAssistant, Content: "a1"},
				{Role: RoleSystem, Content: "b"},
				{Role: RoleUser, Content: "q2"},
			},
			system:      "a\n\nb",
			historyLen:  2,
			historyRole: []string{"user", "model"},
			prompt:      "q2",
		},
		{
			name:     "unknown role is sent as user",
			messages: []Message{{Role: "tool", Content: "data"}},
			prompt:   "data",
		},
		{
			name:     "trailing assistant turn",
			messages: []Message{{Role: RoleUser, Content: "q"}, {Role: RoleAssistant, Content: "a"}},
			wantErr:  true,
		},
		{
			name:     "system only",
			messages: []Message{{Role: RoleSystem, Content: "rules"}},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := toGeminiRequest(tt.messages)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.system == "" {
				assert.Nil(t, req.system)
			} else {
				require.NotNil(t, req.system)
				assert.Equal(t, []genai.Part{genai.Text(tt.system)}, req.system.Parts)
			}
			require.Len(t, req.history, tt.historyLen)
			for i, role := range tt.historyRole {
				assert.Equal(t, role, req.history[i].Role)
			}
			assert.Equal(t, []genai.Part{genai.Text(tt.prompt)}, req.prompt)
		})
	}
}

func TestClassifyUpstreamError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      apperrors.UpstreamKind
		retryable bool
	}{
		{"googleapi rate limit", &googleapi.Error{Code: http.StatusTooManyRequests}, apperrors.UpstreamRateLimited, true},
		{"googleapi server error", &googleapi.Error{Code: http.StatusServiceUnavailable}, apperrors.UpstreamUnknown, true},
		{"googleapi bad request", &googleapi.Error{Code: http.StatusBadRequest}, apperrors.UpstreamUnknown, false},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), apperrors.UpstreamRateLimited, true},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), apperrors.UpstreamTimeout, true},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), apperrors.UpstreamUnknown, true},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), apperrors.UpstreamUnknown, false},
		{"context deadline", context.DeadlineExceeded, apperrors.UpstreamTimeout, true},
		{"context canceled", context.Canceled, apperrors.UpstreamUnknown, false},
		{"anything else", errors.New("connection reset"), apperrors.UpstreamUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyUpstreamError(context.Background(), tt.err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.kind, appErr.Upstream)
			assert.Equal(t, tt.retryable, appErr.Retryable)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```", '{', '}'))
	assert.Equal(t, `["x","y"]`, extractJSON(`Symptoms: ["x","y"].`, '[', ']'))
	assert.Empty(t, extractJSON("nothing here", '{', '}'))
	assert.Empty(t, extractJSON("} backwards {", '{', '}'))
}

func TestParseStringArray(t *testing.T) {
	got, err := parseStringArray(`["a", 1, " b ", ""]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = parseStringArray(`{"a": 1}`)
	assert.Error(t, err)
}
