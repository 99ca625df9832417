package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// ChatRepository stores chat turns in the chats table
type ChatRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db, now: time.Now}
}

// Append serializes writes per user through the owner row lock, so created_at
// never goes below the user's latest turn.
func (r *ChatRepository) Append(ctx context.Context, in domain.ChatTurnInput) (*domain.ChatTurn, error) {
	row := database.Chat{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Message:  in.Message,
		Response: in.Response,
		Category: string(domain.OrDefault(&in.Category)),
		Metadata: datatypes.JSONMap(in.Metadata),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner database.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, in.UserID).Error; err != nil {
			return err
		}

		var last sql.NullTime
		if err := tx.Model(&database.Chat{}).
			Select("MAX(created_at)").
			Where("user_id = ?", in.UserID).
			Row().Scan(&last); err != nil {
			return err
		}

		row.CreatedAt = r.now().UTC()
		if last.Valid && last.Time.After(row.CreatedAt) {
			row.CreatedAt = last.Time
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, translateError(err, apperrors.ErrUserNotFound)
	}

	turn := toChatTurn(row)
	return &turn, nil
}

func (r *ChatRepository) scoped(ctx context.Context, userID uint, q domain.ChatQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&database.Chat{}).Where("user_id = ?", userID)
	if len(q.Categories) > 0 {
		cats := make([]string, 0, len(q.Categories))
		for _, c := range q.Categories {
			cats = append(cats, string(c))
		}
		db = db.Where("category IN ?", cats)
	}
	if q.Since != nil {
		db = db.Where("created_at >= ?", *q.Since)
	}
	if q.Before != nil {
		db = db.Where("created_at < ?", *q.Before)
	}
	if q.Search != "" {
		pattern := likePattern(q.Search)
		db = db.Where("(LOWER(message) LIKE ? OR LOWER(response) LIKE ?)", pattern, pattern)
	}
	return db
}

func (r *ChatRepository) Query(ctx context.Context, userID uint, q domain.ChatQuery) (*domain.ChatPage, error) {
	var total int64
	if err := r.scoped(ctx, userID, q).Count(&total).Error; err != nil {
		return nil, translateError(err, apperrors.ErrChatNotFound)
	}

	order := "created_at DESC, id DESC"
	if q.Order == domain.OldestFirst {
		order = "created_at ASC, id ASC"
	}
	db := r.scoped(ctx, userID, q).Order(order)
	if q.Limit > 0 {
		db = db.Limit(q.Limit).Offset(q.Offset)
	}

	var rows []database.Chat
	if err := db.Find(&rows).Error; err != nil {
		return nil, translateError(err, apperrors.ErrChatNotFound)
	}

	items := make([]domain.ChatTurn, 0, len(rows))
	for _, row := range rows {
		items = append(items, toChatTurn(row))
	}
	return &domain.ChatPage{Items: items, TotalCount: total}, nil
}

func (r *ChatRepository) Get(ctx context.Context, userID uint, id string) (*domain.ChatTurn, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.ErrChatNotFound
	}
	var row database.Chat
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, translateError(err, apperrors.ErrChatNotFound)
	}
	turn := toChatTurn(row)
	return &turn, nil
}

func (r *ChatRepository) Delete(ctx context.Context, userID uint, filter domain.ChatDeleteFilter) (int64, error) {
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Category != nil {
		db = db.Where("category = ?", string(*filter.Category))
	}
	if filter.Before != nil {
		db = db.Where("created_at < ?", *filter.Before)
	}
	result := db.Delete(&database.Chat{})
	if result.Error != nil {
		return 0, translateError(result.Error, apperrors.ErrChatNotFound)
	}
	return result.RowsAffected, nil
}

func (r *ChatRepository) CountByCategory(ctx context.Context, userID uint) (map[domain.Category]int64, error) {
	var rows []struct {
		Category string
		Count    int64
	}
	if err := r.db.WithContext(ctx).Model(&database.Chat{}).
		Select("category, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, translateError(err, apperrors.ErrChatNotFound)
	}

	out := make(map[domain.Category]int64, len(rows))
	for _, row := range rows {
		out[domain.Category(row.Category)] = row.Count
	}
	return out, nil
}
