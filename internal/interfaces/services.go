package interfaces

import (
	"context"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

// UserServiceInterface defines the contract for profile owners
type UserServiceInterface interface {
	RegisterTelegramUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*domain.HealthProfile, error)
	CreateUser(ctx context.Context, profile domain.HealthProfile) (*domain.HealthProfile, error)
	GetProfile(ctx context.Context, userID uint) (*domain.HealthProfile, error)
	UpdateProfile(ctx context.Context, userID uint, update domain.ProfileUpdate) (*domain.HealthProfile, error)
	GetUserStats(ctx context.Context, userID uint) (*services.UserStats, error)
	GetHealthSummary(ctx context.Context, userID uint) (*domain.HealthSummary, error)
	DeleteAccount(ctx context.Context, userID uint) error
}

// ChatServiceInterface defines the contract for the dialogue pipeline and its history
type ChatServiceInterface interface {
	ProcessTurn(ctx context.Context, userID uint, message string, category *domain.Category) (*domain.ChatTurn, error)
	GetChatHistory(ctx context.Context, userID uint, opts services.ChatHistoryOptions) (*services.ChatHistory, error)
	SearchChats(ctx context.Context, userID uint, term string, opts services.ChatHistoryOptions) (*services.ChatHistory, error)
	GetChatThread(ctx context.Context, userID uint, turnID string) (*domain.ChatTurn, error)
	DeleteChatHistory(ctx context.Context, userID uint, filter domain.ChatDeleteFilter) (int64, error)
}

// HealthMonitorServiceInterface defines the contract for health summaries
type HealthMonitorServiceInterface interface {
	GetHealthTrends(ctx context.Context, userID uint) (*domain.HealthTrends, error)
	GetHealthMetrics(ctx context.Context, userID uint) (*domain.HealthMetrics, error)
	CreateHealthReport(ctx context.Context, userID uint) (*domain.HealthReport, error)
	GetRecentSymptoms(ctx context.Context, userID uint, days int) (*domain.SymptomReport, error)
	GetRiskAssessment(ctx context.Context, userID uint) (*domain.RiskAssessment, error)
	GetHealthDashboard(ctx context.Context, userID uint) (*domain.HealthDashboard, error)
}

// TrendServiceInterface defines the contract for metric series
type TrendServiceInterface interface {
	AnalyzeTrend(points []domain.TrendPoint) domain.TrendAnalysis
	GetMetricHistory(ctx context.Context, userID uint, metric string, since time.Time) ([]domain.TrendPoint, error)
}

// NotificationServiceInterface defines the contract for notifications
type NotificationServiceInterface interface {
	CreateNotification(ctx context.Context, userID uint, req services.CreateNotificationRequest) (*domain.Notification, error)
	GetUserNotifications(ctx context.Context, userID uint, opts services.NotificationListOptions) (*domain.NotificationPage, error)
	MarkAsRead(ctx context.Context, userID uint, notificationID string) (*domain.Notification, error)
	MarkAllAsRead(ctx context.Context, userID uint) (int64, error)
	DeleteNotification(ctx context.Context, userID uint, notificationID string) error
	ScheduleDefaultReminders(ctx context.Context, userID uint) ([]domain.Notification, error)
	GetNotificationStats(ctx context.Context, userID uint) (*services.NotificationStats, error)
}
