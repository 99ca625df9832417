package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladimiradmaev/health-dialogue/internal/config"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// Message roles understood by every completion backend
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a completion request
type Message struct {
	Role    string
	Content string
}

// CompletionOptions tune a single completion call. Zero values fall back
// to the client defaults.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// CompletionClient sends role-tagged messages to a text completion service.
// Failures are always *apperrors.AppError of type upstream. No retries.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// NewCompletionClient builds the client for the configured provider
func NewCompletionClient(ctx context.Context, cfg config.AIConfig) (CompletionClient, error) {
	defaults := CompletionOptions{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompletionClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, defaults), nil
	case config.ProviderGemini:
		return NewGeminiCompletionClient(ctx, cfg.GeminiAPIKey, cfg.Model, defaults)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

func (o CompletionOptions) merge(defaults CompletionOptions) CompletionOptions {
	if o.Temperature == 0 {
		o.Temperature = defaults.Temperature
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = defaults.MaxTokens
	}
	if o.Timeout == 0 {
		o.Timeout = defaults.Timeout
	}
	return o
}

func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// OpenAICompletionClient calls the OpenAI chat completion API
type OpenAICompletionClient struct {
	client   *openai.Client
	model    string
	defaults CompletionOptions
}

func NewOpenAICompletionClient(apiKey, baseURL, model string, defaults CompletionOptions) *OpenAICompletionClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAICompletionClient{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		defaults: defaults,
	}
}

func (c *OpenAICompletionClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	if len(messages) == 0 {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("empty completion request"))
	}
	opts = opts.merge(c.defaults)

	callCtx, cancel := withCallTimeout(ctx, opts.Timeout)
	defer cancel()

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role != openai.ChatMessageRoleSystem && role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", classifyUpstreamError(callCtx, err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("completion returned no choices"))
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("completion returned empty content"))
	}
	return content, nil
}

// GeminiCompletionClient calls the Gemini generative API
type GeminiCompletionClient struct {
	client   *genai.Client
	model    string
	defaults CompletionOptions
}

func NewGeminiCompletionClient(ctx context.Context, apiKey, model string, defaults CompletionOptions) (*GeminiCompletionClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiCompletionClient{client: client, model: model, defaults: defaults}, nil
}

func (c *GeminiCompletionClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	if len(messages) == 0 {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("empty completion request"))
	}
	opts = opts.merge(c.defaults)

	callCtx, cancel := withCallTimeout(ctx, opts.Timeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxTokens))
	}

	req, err := toGeminiRequest(messages)
	if err != nil {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, err)
	}
	model.SystemInstruction = req.system

	session := model.StartChat()
	session.History = req.history
	resp, err := session.SendMessage(callCtx, req.prompt...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, err)
		}
		return "", classifyUpstreamError(callCtx, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("completion returned no candidates"))
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, errors.New("completion returned empty content"))
	}
	return sb.String(), nil
}

// geminiRequest is a message list split the way a Gemini chat session takes it
type geminiRequest struct {
	system  *genai.Content
	history []*genai.Content
	prompt  []genai.Part
}

// toGeminiRequest joins system messages into the system instruction and
// sends the final user turn as the prompt. Earlier turns become history.
func toGeminiRequest(messages []Message) (geminiRequest, error) {
	var req geminiRequest
	var system []string
	var turns []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(system) > 0 {
		req.system = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	if len(turns) == 0 {
		return req, errors.New("completion request has no user turn")
	}
	last := turns[len(turns)-1]
	if last.Role != "user" {
		return req, fmt.Errorf("completion request must end with a user turn, got %s", last.Role)
	}
	req.history = turns[:len(turns)-1]
	req.prompt = last.Parts
	return req, nil
}

// Close releases the underlying Gemini connection
func (c *GeminiCompletionClient) Close() error {
	return c.client.Close()
}

// classifyUpstreamError maps provider-specific failures onto UpstreamKind
func classifyUpstreamError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewUpstreamError(apperrors.UpstreamTimeout, true, err)
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, false, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code, err)
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.ResourceExhausted:
			return apperrors.NewUpstreamError(apperrors.UpstreamRateLimited, true, err)
		case codes.DeadlineExceeded:
			return apperrors.NewUpstreamError(apperrors.UpstreamTimeout, true, err)
		case codes.Unavailable, codes.Internal, codes.Aborted:
			return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, true, err)
		default:
			return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, false, err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewUpstreamError(apperrors.UpstreamTimeout, true, err)
	}
	return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, true, err)
}

func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests:
		return apperrors.NewUpstreamError(apperrors.UpstreamRateLimited, true, err)
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return apperrors.NewUpstreamError(apperrors.UpstreamTimeout, true, err)
	case code >= 500:
		return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, true, err)
	default:
		return apperrors.NewUpstreamError(apperrors.UpstreamUnknown, false, err)
	}
}

// extractJSON attempts to extract a JSON value delimited by open/close from s.
// It handles cases where the JSON is wrapped in code blocks (```json ... ```) or other text.
func extractJSON(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}
	end := strings.LastIndexByte(s, close)
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// errorKind names a failure for log attributes
func errorKind(err error) string {
	if kind, ok := apperrors.UpstreamKindOf(err); ok {
		return string(kind)
	}
	return string(apperrors.TypeOf(err))
}
