package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

// CreateNotificationRequest is the input of CreateNotification.
// A nil ScheduledFor means "now".
type CreateNotificationRequest struct {
	Type         domain.NotificationType
	Title        string
	Message      string
	ScheduledFor *time.Time
}

// NotificationListOptions filters and paginates GetUserNotifications
type NotificationListOptions struct {
	Page   int
	Limit  int
	Type   *domain.NotificationType
	IsRead *bool
}

// NotificationStats summarizes a user's notifications
type NotificationStats struct {
	UnreadCount int64                             `json:"unread_count"`
	ByType      map[domain.NotificationType]int64 `json:"by_type"`
}

type defaultReminder struct {
	Type    domain.NotificationType
	Title   string
	Message string
	Delay   time.Duration
}

var defaultReminders = []defaultReminder{
	{
		Type:    domain.NotificationExerciseTip,
		Title:   "Daily Exercise Reminder",
		Message: "Time for your daily exercise routine!",
		Delay:   24 * time.Hour,
	},
	{
		Type:    domain.NotificationHealthTip,
		Title:   "Health Tip",
		Message: "Remember to stay hydrated throughout the day.",
		Delay:   12 * time.Hour,
	},
}

// NotificationService schedules reminders and serves the notification inbox.
// Notifications become visible once their scheduled time has passed.
type NotificationService struct {
	profiles      domain.ProfileStore
	notifications domain.NotificationStore
	logger        *slog.Logger
	now           func() time.Time
}

func NewNotificationService(profiles domain.ProfileStore, notifications domain.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		profiles:      profiles,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the time source, mainly for tests and batch tools
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

func (s *NotificationService) CreateNotification(ctx context.Context, userID uint, req CreateNotificationRequest) (*domain.Notification, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	scheduledFor := s.now()
	if req.ScheduledFor != nil {
		scheduledFor = *req.ScheduledFor
	}
	in := domain.NotificationInput{
		UserID:       userID,
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		ScheduledFor: scheduledFor,
	}
	if err := domain.ValidateNotificationInput(in); err != nil {
		return nil, err
	}

	n, err := s.notifications.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Notification created", "user_id", userID, "notification_id", n.ID, "type", n.Type, "scheduled_for", n.ScheduledFor)
	return n, nil
}

// GetUserNotifications lists visible notifications, newest scheduled first
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uint, opts NotificationListOptions) (*domain.NotificationPage, error) {
	page, limit := domain.NormalizePage(opts.Page, opts.Limit)
	return s.notifications.QueryVisible(ctx, userID, domain.NotificationFilter{
		Type:   opts.Type,
		IsRead: opts.IsRead,
	}, s.now(), page, limit)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uint, notificationID string) (*domain.Notification, error) {
	return s.notifications.MarkRead(ctx, notificationID, userID)
}

// MarkAllAsRead flips only visible unread notifications and returns how many changed
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	updated, err := s.notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.Info("Notifications marked as read", "user_id", userID, "updated", updated)
	return updated, nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, userID uint, notificationID string) error {
	return s.notifications.Delete(ctx, notificationID, userID)
}

// ScheduleDefaultReminders creates the exercise and hydration reminders
func (s *NotificationService) ScheduleDefaultReminders(ctx context.Context, userID uint) ([]domain.Notification, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	created := make([]domain.Notification, 0, len(defaultReminders))
	for _, r := range defaultReminders {
		at := now.Add(r.Delay)
		n, err := s.CreateNotification(ctx, userID, CreateNotificationRequest{
			Type:         r.Type,
			Title:        r.Title,
			Message:      r.Message,
			ScheduledFor: &at,
		})
		if err != nil {
			return created, err
		}
		created = append(created, *n)
	}
	return created, nil
}

func (s *NotificationService) GetNotificationStats(ctx context.Context, userID uint) (*NotificationStats, error) {
	unread, err := s.notifications.CountUnreadVisible(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	byType, err := s.notifications.CountByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NotificationStats{UnreadCount: unread, ByType: byType}, nil
}
