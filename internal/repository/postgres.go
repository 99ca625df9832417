package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// Postgres error codes the stores react to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgInvalidTextRepr      = "22P02"
)

// translateError maps gorm and Postgres failures onto the AppError taxonomy.
// notFound is returned for missing rows and malformed ids.
func translateError(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgUniqueViolation:
			return apperrors.NewConflictError(err)
		case pgForeignKeyViolation:
			return apperrors.ErrUserNotFound
		case pgInvalidTextRepr:
			return notFound
		case pgCheckViolation:
			return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "CHECK_VIOLATION", "Value rejected by the database")
		}
	}
	return apperrors.NewDatabaseError(err)
}

func toProfile(u database.User) domain.HealthProfile {
	return domain.HealthProfile{
		UserID:            u.ID,
		Name:              u.Name,
		Age:               u.Age,
		Gender:            domain.Gender(u.Gender),
		HeightCM:          u.HeightCM,
		WeightKG:          u.WeightKG,
		MedicalConditions: u.MedicalConditions,
		Allergies:         u.Allergies,
	}.Clone()
}

func fromProfile(p domain.HealthProfile) database.User {
	c := p.Clone()
	return database.User{
		Name:              c.Name,
		Age:               c.Age,
		Gender:            string(c.Gender),
		HeightCM:          c.HeightCM,
		WeightKG:          c.WeightKG,
		MedicalConditions: c.MedicalConditions,
		Allergies:         c.Allergies,
	}
}

// updateColumns lists only the columns the update touches
func updateColumns(update domain.ProfileUpdate) map[string]any {
	cols := make(map[string]any, len(update))
	for _, fu := range update {
		switch v := fu.Value.(type) {
		case domain.Gender:
			cols[string(fu.Field)] = string(v)
		default:
			cols[string(fu.Field)] = v
		}
	}
	return cols
}

func toChatTurn(c database.Chat) domain.ChatTurn {
	metadata := map[string]any(c.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return domain.ChatTurn{
		ID:        c.ID,
		UserID:    c.UserID,
		Message:   c.Message,
		Response:  c.Response,
		Category:  domain.Category(c.Category),
		Metadata:  metadata,
		CreatedAt: c.CreatedAt,
	}
}

func toNotification(n database.Notification) domain.Notification {
	return domain.Notification{
		ID:           n.ID,
		UserID:       n.UserID,
		Type:         domain.NotificationType(n.Type),
		Title:        n.Title,
		Message:      n.Message,
		ScheduledFor: n.ScheduledFor,
		IsRead:       n.IsRead,
		CreatedAt:    n.CreatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
