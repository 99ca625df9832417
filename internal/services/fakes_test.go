package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/repository"
)

// scriptedClient answers completions through respond and records every call
type scriptedClient struct {
	mu      sync.Mutex
	calls   [][]Message
	respond func(messages []Message) (string, error)
}

func (c *scriptedClient) Complete(_ context.Context, messages []Message, _ CompletionOptions) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, messages)
	c.mu.Unlock()
	return c.respond(messages)
}

// callsMatching counts calls whose system prompt contains fragment
func (c *scriptedClient) callsMatching(fragment string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, msgs := range c.calls {
		if len(msgs) > 0 && strings.Contains(msgs[0].Content, fragment) {
			n++
		}
	}
	return n
}

func isDetection(msgs []Message) bool {
	return strings.Contains(msgs[0].Content, "profile update detector")
}

func userText(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser {
			return m.Content
		}
	}
	return ""
}

var errRateLimited = apperrors.NewUpstreamError(apperrors.UpstreamRateLimited, true, errors.New("429"))

func newTestUser(t *testing.T, stores *repository.MemoryStores, profile domain.HealthProfile) uint {
	t.Helper()
	if profile.Name == "" {
		profile.Name = "Test User"
	}
	p, err := stores.Users.Create(context.Background(), profile)
	require.NoError(t, err)
	return p.UserID
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

var testLogger = logger.Discard()
