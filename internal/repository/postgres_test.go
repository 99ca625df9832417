package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/health-dialogue/internal/database"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.ErrorType
	}{
		{"record not found", gorm.ErrRecordNotFound, apperrors.ErrorTypeNotFound},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperrors.ErrorTypeConflict},
		{"deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), apperrors.ErrorTypeConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperrors.ErrorTypeConflict},
		{"missing owner", &pgconn.PgError{Code: "23503"}, apperrors.ErrorTypeNotFound},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, apperrors.ErrorTypeNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, apperrors.ErrorTypeValidation},
		{"anything else", errors.New("connection reset"), apperrors.ErrorTypeDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, apperrors.ErrChatNotFound)
			assert.Equal(t, tt.want, apperrors.TypeOf(got))
			if tt.want == apperrors.ErrorTypeConflict {
				assert.ErrorIs(t, got, apperrors.ErrConflict)
			}
		})
	}
	assert.NoError(t, translateError(nil, apperrors.ErrChatNotFound))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\%\_off%`, likePattern("50%_OFF"))
}

func TestUpdateColumnsOnlyListsSuppliedFields(t *testing.T) {
	cols := updateColumns(domain.ProfileUpdate{
		{Field: domain.FieldAge, Value: 31},
		{Field: domain.FieldGender, Value: domain.GenderFemale},
	})
	assert.Equal(t, map[string]any{"age": 31, "gender": "female"}, cols)
}

func TestToChatTurnDefaultsMetadata(t *testing.T) {
	turn := toChatTurn(database.Chat{ID: "x", Category: "general"})
	assert.NotNil(t, turn.Metadata)

	turn = toChatTurn(database.Chat{Metadata: datatypes.JSONMap{"appliedUpdates": map[string]any{"age": 31.0}}})
	assert.Contains(t, turn.Metadata, domain.MetadataAppliedUpdates)
}

// dryRunDB renders SQL without a server
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func TestNotificationPageOrderIsTotal(t *testing.T) {
	db := dryRunDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []database.Notification
		return notificationPage(tx, 7, domain.NotificationFilter{}, now, 2, 10).Find(&rows)
	})

	assert.Contains(t, sql, "ORDER BY scheduled_for DESC, created_at DESC, id DESC")
	assert.Contains(t, sql, "LIMIT 10 OFFSET 10")
}
