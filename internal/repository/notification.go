package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// NotificationRepository stores notifications in the notifications table
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, in domain.NotificationInput) (*domain.Notification, error) {
	row := database.Notification{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Type:         string(in.Type),
		Title:        in.Title,
		Message:      in.Message,
		ScheduledFor: in.ScheduledFor.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateError(err, apperrors.ErrUserNotFound)
	}
	n := toNotification(row)
	return &n, nil
}

// notificationOrder is newest first; id breaks ties so pages stay stable
const notificationOrder = "scheduled_for DESC, created_at DESC, id DESC"

func visibleNotifications(db *gorm.DB, userID uint, filter domain.NotificationFilter, now time.Time) *gorm.DB {
	db = db.Model(&database.Notification{}).
		Where("user_id = ? AND scheduled_for <= ?", userID, now)
	if filter.Type != nil {
		db = db.Where("type = ?", string(*filter.Type))
	}
	if filter.IsRead != nil {
		db = db.Where("is_read = ?", *filter.IsRead)
	}
	return db
}

func notificationPage(db *gorm.DB, userID uint, filter domain.NotificationFilter, now time.Time, page, limit int) *gorm.DB {
	return visibleNotifications(db, userID, filter, now).
		Order(notificationOrder).
		Limit(limit).
		Offset((page - 1) * limit)
}

func (r *NotificationRepository) QueryVisible(ctx context.Context, userID uint, filter domain.NotificationFilter, now time.Time, page, limit int) (*domain.NotificationPage, error) {
	var total int64
	if err := visibleNotifications(r.db.WithContext(ctx), userID, filter, now).Count(&total).Error; err != nil {
		return nil, translateError(err, apperrors.ErrNotifNotFound)
	}

	var rows []database.Notification
	if err := notificationPage(r.db.WithContext(ctx), userID, filter, now, page, limit).Find(&rows).Error; err != nil {
		return nil, translateError(err, apperrors.ErrNotifNotFound)
	}

	items := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, toNotification(row))
	}
	return &domain.NotificationPage{Items: items, TotalCount: total, Page: page, Limit: limit}, nil
}

func (r *NotificationRepository) find(ctx context.Context, id string, userID uint) (*database.Notification, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrNotifNotFound
	}
	var row database.Notification
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, translateError(err, apperrors.ErrNotifNotFound)
	}
	return &row, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, userID uint) (*domain.Notification, error) {
	row, err := r.find(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(row).Update("is_read", true).Error; err != nil {
		return nil, translateError(err, apperrors.ErrNotifNotFound)
	}
	row.IsRead = true
	n := toNotification(*row)
	return &n, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&database.Notification{}).
		Where("user_id = ? AND is_read = ? AND scheduled_for <= ?", userID, false, now).
		Update("is_read", true)
	if result.Error != nil {
		return 0, translateError(result.Error, apperrors.ErrNotifNotFound)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string, userID uint) error {
	row, err := r.find(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(row).Error; err != nil {
		return translateError(err, apperrors.ErrNotifNotFound)
	}
	return nil
}

func (r *NotificationRepository) CountByType(ctx context.Context, userID uint) (map[domain.NotificationType]int64, error) {
	var rows []struct {
		Type  string
		Count int64
	}
	if err := r.db.WithContext(ctx).Model(&database.Notification{}).
		Select("type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, apperrors.ErrNotifNotFound)
	}

	out := make(map[domain.NotificationType]int64, len(rows))
	for _, row := range rows {
		out[domain.NotificationType(row.Type)] = row.Count
	}
	return out, nil
}

func (r *NotificationRepository) CountUnreadVisible(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.Notification{}).
		Where("user_id = ? AND is_read = ? AND scheduled_for <= ?", userID, false, now).
		Count(&count).Error; err != nil {
		return 0, translateError(err, apperrors.ErrNotifNotFound)
	}
	return count, nil
}
