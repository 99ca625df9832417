// Package app wires stores, the completion client and services from configuration.
package app

import (
	"fmt"
	"log/slog"

	"github.com/vladimiradmaev/health-dialogue/internal/api"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/handlers"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/config"
	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/repository"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

// Stores are the persistence ports every service is built from
type Stores struct {
	Users         domain.UserStore
	Profiles      domain.ProfileStore
	Chats         domain.ChatStore
	Notifications domain.NotificationStore
}

func noopClose() error { return nil }

// OpenStores connects the configured storage backend. The returned func releases it.
func OpenStores(cfg *config.Config) (*Stores, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return MemoryStores(repository.NewMemoryStores()), noopClose, nil
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		users := repository.NewUserRepository(db)
		return &Stores{
			Users:         users,
			Profiles:      users,
			Chats:         repository.NewChatRepository(db),
			Notifications: repository.NewNotificationRepository(db),
		}, sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

// MemoryStores adapts the in-memory repositories to Stores
func MemoryStores(m *repository.MemoryStores) *Stores {
	return &Stores{
		Users:         m.Users,
		Profiles:      m.Users,
		Chats:         m.Chats,
		Notifications: m.Notifications,
	}
}

// Services holds one instance of every application service
type Services struct {
	Users         *services.UserService
	Chats         *services.ChatService
	Health        *services.HealthMonitorService
	Trends        *services.TrendAnalyzer
	Notifications *services.NotificationService
}

func NewServices(stores *Stores, client services.CompletionClient, cfg config.AIConfig, log *slog.Logger) *Services {
	concurrency := cfg.ExtractionConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Services{
		Users: services.NewUserService(stores.Users, stores.Profiles, stores.Chats, stores.Notifications, log),
		Chats: services.NewChatService(
			stores.Profiles,
			stores.Chats,
			services.NewProfileUpdateDetector(client, log),
			services.NewResponseSynthesizer(client),
			log,
		),
		Health: services.NewHealthMonitorService(
			stores.Profiles,
			stores.Chats,
			services.NewSymptomExtractor(client, concurrency, log),
			services.NewRiskAssessor(client, log),
			client,
			log,
		),
		Trends:        services.NewTrendAnalyzer(stores.Profiles, stores.Chats),
		Notifications: services.NewNotificationService(stores.Profiles, stores.Notifications, log),
	}
}

// API returns the services exposed over HTTP
func (s *Services) API() api.Services {
	return api.Services{
		Users:         s.Users,
		Chats:         s.Chats,
		Health:        s.Health,
		Trends:        s.Trends,
		Notifications: s.Notifications,
	}
}

// BotDependencies returns the services used by the Telegram handlers
func (s *Services) BotDependencies() handlers.Dependencies {
	return handlers.Dependencies{
		UserService:         s.Users,
		ChatService:         s.Chats,
		HealthService:       s.Health,
		NotificationService: s.Notifications,
	}
}

// NewStateManager returns the Redis-backed manager when enabled, the in-memory one otherwise
func NewStateManager(cfg config.RedisConfig) (state.StateManager, func() error, error) {
	if !cfg.Enabled {
		return state.NewManager(), noopClose, nil
	}
	m, err := state.NewRedisManager(cfg.Addr())
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis for bot state", "addr", cfg.Addr())
	return m, m.Close, nil
}
