package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

type echoClient struct{}

func (echoClient) Complete(_ context.Context, msgs []services.Message, _ services.CompletionOptions) (string, error) {
	if strings.Contains(msgs[0].Content, "profile update detector") {
		return `{"shouldUpdate": false}`, nil
	}
	return "echo: " + msgs[len(msgs)-1].Content, nil
}

func TestMemoryWiring(t *testing.T) {
	stores, closeStores, err := OpenStores(&config.Config{Storage: config.StorageMemory})
	require.NoError(t, err)
	defer func() { assert.NoError(t, closeStores()) }()

	svc := NewServices(stores, echoClient{}, config.AIConfig{}, logger.Discard())
	ctx := context.Background()

	profile, err := svc.Users.CreateUser(ctx, domain.HealthProfile{Name: "Kim"})
	require.NoError(t, err)

	turn, err := svc.Chats.ProcessTurn(ctx, profile.UserID, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", turn.Response)

	stats, err := svc.Users.GetUserStats(ctx, profile.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ChatStats[domain.CategoryGeneral])
	assert.Len(t, stats.RecentActivity, 1)

	assert.NotNil(t, svc.API().Trends)
	assert.NotNil(t, svc.BotDependencies().NotificationService)
}

func TestOpenStoresUnknown(t *testing.T) {
	_, _, err := OpenStores(&config.Config{Storage: "sqlite"})
	assert.Error(t, err)
}

func TestNewStateManagerDefaultsToMemory(t *testing.T) {
	m, closeState, err := NewStateManager(config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &state.Manager{}, m)
	assert.NoError(t, closeState())
}
