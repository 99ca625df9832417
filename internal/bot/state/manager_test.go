package state

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

func exerciseStateManager(t *testing.T, m StateManager) {
	t.Helper()
	const user = int64(1001)

	assert.Equal(t, None, m.GetUserState(user))
	assert.Equal(t, domain.CategoryGeneral, m.GetCategory(user))

	m.SetUserState(user, ChoosingCategory)
	m.SetCategory(user, domain.CategoryDietRecommendation)
	assert.Equal(t, ChoosingCategory, m.GetUserState(user))
	assert.Equal(t, domain.CategoryDietRecommendation, m.GetCategory(user))

	m.ClearUserState(user)
	assert.Equal(t, None, m.GetUserState(user))
	assert.Equal(t, domain.CategoryDietRecommendation, m.GetCategory(user), "category outlives the state")

	m.SetCategory(user, "astrology")
	assert.Equal(t, domain.CategoryGeneral, m.GetCategory(user))

	assert.Equal(t, None, m.GetUserState(user+1))
}

func TestManager(t *testing.T) {
	exerciseStateManager(t, NewManager())
}

func TestRedisManager(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	m, err := NewRedisManager(addr)
	require.NoError(t, err)
	t.Cleanup(func() {
		m.ClearUserState(1001)
		m.SetCategory(1001, domain.CategoryGeneral)
		_ = m.Close()
	})

	exerciseStateManager(t, m)
}

func TestNewRedisManagerUnreachable(t *testing.T) {
	_, err := NewRedisManager("127.0.0.1:1")
	assert.Error(t, err)
}
