package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// UserRepository handles user and profile data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, profile domain.HealthProfile) (*domain.HealthProfile, error) {
	user := fromProfile(profile)
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translateError(err, apperrors.ErrUserNotFound)
	}
	p := toProfile(user)
	return &p, nil
}

// GetOrCreateByTelegramID gets an existing user or creates a new one
func (r *UserRepository) GetOrCreateByTelegramID(ctx context.Context, telegramID int64, name string) (*domain.HealthProfile, error) {
	var user database.User
	err := r.db.WithContext(ctx).
		Where(database.User{TelegramID: &telegramID}).
		Attrs(database.User{Name: name}).
		FirstOrCreate(&user).Error
	if err != nil {
		// A concurrent first contact may have inserted the row already.
		if apperrors.IsConflict(translateError(err, apperrors.ErrUserNotFound)) {
			if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
				return nil, translateError(err, apperrors.ErrUserNotFound)
			}
		} else {
			return nil, translateError(err, apperrors.ErrUserNotFound)
		}
	}
	p := toProfile(user)
	return &p, nil
}

func (r *UserRepository) Get(ctx context.Context, userID uint) (*domain.HealthProfile, error) {
	var user database.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, translateError(err, apperrors.ErrUserNotFound)
	}
	p := toProfile(user)
	return &p, nil
}

// ApplyPartialUpdate locks the user row and writes only the supplied columns,
// so concurrent updates of different fields are all kept.
func (r *UserRepository) ApplyPartialUpdate(ctx context.Context, userID uint, update domain.ProfileUpdate) (*domain.HealthProfile, error) {
	var result domain.HealthProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user database.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Updates(updateColumns(update)).Error; err != nil {
			return err
		}
		result = update.Apply(toProfile(user))
		return nil
	})
	if err != nil {
		return nil, translateError(err, apperrors.ErrUserNotFound)
	}
	return &result, nil
}

// Delete hard-deletes the user row; chats and notifications go with it via ON DELETE CASCADE
func (r *UserRepository) Delete(ctx context.Context, userID uint) error {
	result := r.db.WithContext(ctx).Unscoped().Delete(&database.User{}, userID)
	if result.Error != nil {
		return translateError(result.Error, apperrors.ErrUserNotFound)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
