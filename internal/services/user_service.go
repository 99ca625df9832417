package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const recentActivityLimit = 5

// UserStats summarizes a user's activity
type UserStats struct {
	ChatStats         map[domain.Category]int64         `json:"chat_stats"`
	NotificationStats map[domain.NotificationType]int64 `json:"notification_stats"`
	RecentActivity    []domain.ChatTurn                 `json:"recent_activity"`
}

type UserService struct {
	users         domain.UserStore
	profiles      domain.ProfileStore
	chats         domain.ChatStore
	notifications domain.NotificationStore
	logger        *slog.Logger
}

func NewUserService(
	users domain.UserStore,
	profiles domain.ProfileStore,
	chats domain.ChatStore,
	notifications domain.NotificationStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:         users,
		profiles:      profiles,
		chats:         chats,
		notifications: notifications,
		logger:        logger,
	}
}

// RegisterTelegramUser returns the profile bound to telegramID, creating it on first contact
func (s *UserService) RegisterTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.HealthProfile, error) {
	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		name = username
	}

	profile, err := s.users.GetOrCreateByTelegramID(ctx, telegramID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return profile, nil
}

// CreateUser registers a profile owner outside Telegram
func (s *UserService) CreateUser(ctx context.Context, profile domain.HealthProfile) (*domain.HealthProfile, error) {
	if strings.TrimSpace(profile.Name) == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if profile.Gender != "" {
		if _, err := domain.ParseGender(string(profile.Gender)); err != nil {
			return nil, err
		}
	}
	created, err := s.users.Create(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User created", "user_id", created.UserID)
	return created, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*domain.HealthProfile, error) {
	return s.profiles.Get(ctx, userID)
}

// UpdateProfile applies the same partial merge as the chat update path
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update domain.ProfileUpdate) (*domain.HealthProfile, error) {
	if len(update) == 0 {
		return nil, apperrors.NewValidationError("no profile fields to update")
	}
	profile, err := s.profiles.ApplyPartialUpdate(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Profile updated", "user_id", userID, "fields", update.FieldNames())
	return profile, nil
}

// GetUserStats counts chats per category and notifications per type
func (s *UserService) GetUserStats(ctx context.Context, userID uint) (*UserStats, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	chatStats, err := s.chats.CountByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}
	notifStats, err := s.notifications.CountByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.chats.Query(ctx, userID, domain.ChatQuery{Limit: recentActivityLimit, Order: domain.NewestFirst})
	if err != nil {
		return nil, err
	}

	return &UserStats{
		ChatStats:         chatStats,
		NotificationStats: notifStats,
		RecentActivity:    recent.Items,
	}, nil
}

// GetHealthSummary returns BMI, basic info and the latest symptom and
// medication turns. BMI stays nil when height or weight is missing.
func (s *UserService) GetHealthSummary(ctx context.Context, userID uint) (*domain.HealthSummary, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.chats.Query(ctx, userID, domain.ChatQuery{
		Categories: trendCategories,
		Limit:      recentActivityLimit,
		Order:      domain.NewestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load health chats: %w", err)
	}

	summary := &domain.HealthSummary{
		BasicInfo:         profile.BasicInfo(),
		MedicalConditions: profile.MedicalConditions,
		Allergies:         profile.Allergies,
		RecentHealthChats: recent.Items,
	}
	if bmi, err := CalculateBMI(*profile); err == nil {
		rounded := roundTo(bmi, 2)
		summary.BMI = &rounded
		summary.BMICategory = BMICategory(bmi)
	}
	return summary, nil
}

// DeleteAccount removes the user with all chats and notifications
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("Account deleted", "user_id", userID)
	return nil
}
