package domain

import (
	"context"
	"time"
)

// ProfileStore owns health profiles. ApplyPartialUpdate must be an atomic
// read-modify-write that only touches the supplied fields.
type ProfileStore interface {
	Get(ctx context.Context, userID uint) (*HealthProfile, error)
	ApplyPartialUpdate(ctx context.Context, userID uint, update ProfileUpdate) (*HealthProfile, error)
}

// UserStore registers profile owners. Delete removes the owner together
// with its chats and notifications.
type UserStore interface {
	Create(ctx context.Context, profile HealthProfile) (*HealthProfile, error)
	GetOrCreateByTelegramID(ctx context.Context, telegramID int64, name string) (*HealthProfile, error)
	Delete(ctx context.Context, userID uint) error
}

// SortOrder of chat queries by created_at
type SortOrder int

const (
	NewestFirst SortOrder = iota
	OldestFirst
)

// ChatQuery filters a user's chat history. Limit <= 0 means no limit.
type ChatQuery struct {
	Categories []Category
	Since      *time.Time
	Before     *time.Time
	Search     string
	Limit      int
	Offset     int
	Order      SortOrder
}

// ChatPage is one page of chat history
type ChatPage struct {
	Items      []ChatTurn
	TotalCount int64
}

// ChatDeleteFilter narrows DeleteChatHistory
type ChatDeleteFilter struct {
	Category *Category
	Before   *time.Time
}

// ChatStore persists chat turns. Append assigns the id and a created_at
// that never goes backwards for the same user.
type ChatStore interface {
	Append(ctx context.Context, in ChatTurnInput) (*ChatTurn, error)
	Query(ctx context.Context, userID uint, q ChatQuery) (*ChatPage, error)
	Get(ctx context.Context, userID uint, id string) (*ChatTurn, error)
	Delete(ctx context.Context, userID uint, filter ChatDeleteFilter) (int64, error)
	CountByCategory(ctx context.Context, userID uint) (map[Category]int64, error)
}

// NotificationFilter narrows QueryVisible
type NotificationFilter struct {
	Type   *NotificationType
	IsRead *bool
}

// NotificationPage is one page of visible notifications
type NotificationPage struct {
	Items      []Notification `json:"items"`
	TotalCount int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// NotificationStore persists notifications. "Visible" means scheduled_for <= now.
type NotificationStore interface {
	Create(ctx context.Context, in NotificationInput) (*Notification, error)
	QueryVisible(ctx context.Context, userID uint, filter NotificationFilter, now time.Time, page, limit int) (*NotificationPage, error)
	MarkRead(ctx context.Context, id string, userID uint) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uint, now time.Time) (int64, error)
	Delete(ctx context.Context, id string, userID uint) error
	CountByType(ctx context.Context, userID uint) (map[NotificationType]int64, error)
	CountUnreadVisible(ctx context.Context, userID uint, now time.Time) (int64, error)
}
