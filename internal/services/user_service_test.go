package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/repository"
)

func newUserService(stores *repository.MemoryStores) *UserService {
	return NewUserService(stores.Users, stores.Users, stores.Chats, stores.Notifications, testLogger)
}

func TestRegisterTelegramUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(repository.NewMemoryStores())

	first, err := svc.RegisterTelegramUser(ctx, 4242, "jdoe", "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", first.Name)

	again, err := svc.RegisterTelegramUser(ctx, 4242, "jdoe", "Janet", "")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, again.UserID)
	assert.Equal(t, "Jane Doe", again.Name)

	other, err := svc.RegisterTelegramUser(ctx, 7, "anon", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.UserID, other.UserID)
	assert.Equal(t, "anon", other.Name)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(repository.NewMemoryStores())

	_, err := svc.CreateUser(ctx, domain.HealthProfile{Name: "  "})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.CreateUser(ctx, domain.HealthProfile{Name: "Sam", Gender: "robot"})
	assert.True(t, apperrors.IsValidation(err))

	created, err := svc.CreateUser(ctx, domain.HealthProfile{Name: "Sam", Gender: domain.GenderOther, Age: intPtr(30)})
	require.NoError(t, err)
	assert.NotZero(t, created.UserID)

	got, err := svc.GetProfile(ctx, created.UserID)
	require.NoError(t, err)
	assert.Equal(t, 30, *got.Age)
}

func TestUpdateProfileMergesFields(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{Age: intPtr(30), Allergies: "nuts"})
	svc := newUserService(stores)

	_, err := svc.UpdateProfile(ctx, userID, nil)
	assert.True(t, apperrors.IsValidation(err))

	weight, err := domain.NewFieldUpdate("weight", 72.5)
	require.NoError(t, err)
	updated, err := svc.UpdateProfile(ctx, userID, domain.ProfileUpdate{weight})
	require.NoError(t, err)
	assert.Equal(t, 72.5, *updated.WeightKG)
	assert.Equal(t, 30, *updated.Age)
	assert.Equal(t, "nuts", updated.Allergies)

	_, err = svc.UpdateProfile(ctx, 999, domain.ProfileUpdate{weight})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateProfileLogsFieldNamesOnly(t *testing.T) {
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})
	var buf bytes.Buffer
	svc := NewUserService(stores.Users, stores.Users, stores.Chats, stores.Notifications, slog.New(slog.NewJSONHandler(&buf, nil)))

	conditions, err := domain.NewFieldUpdate("conditions", "hepatitis C")
	require.NoError(t, err)
	_, err = svc.UpdateProfile(context.Background(), userID, domain.ProfileUpdate{conditions})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"fields":["medical_conditions"]`)
	assert.NotContains(t, buf.String(), "hepatitis")
}

func TestGetUserStats(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})
	svc := newUserService(stores)

	for i, cat := range []domain.Category{
		domain.CategoryGeneral,
		domain.CategorySymptomCheck,
		domain.CategorySymptomCheck,
		domain.CategoryDietRecommendation,
		domain.CategoryGeneral,
		domain.CategoryGeneral,
	} {
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: string(rune('a' + i)), Category: cat})
		require.NoError(t, err)
	}
	_, err := stores.Notifications.Create(ctx, domain.NotificationInput{UserID: userID, Type: domain.NotificationHealthTip, Title: "t"})
	require.NoError(t, err)

	stats, err := svc.GetUserStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.ChatStats[domain.CategoryGeneral])
	assert.Equal(t, int64(2), stats.ChatStats[domain.CategorySymptomCheck])
	assert.Equal(t, int64(1), stats.NotificationStats[domain.NotificationHealthTip])
	require.Len(t, stats.RecentActivity, recentActivityLimit)
	assert.Equal(t, "f", stats.RecentActivity[0].Message)

	_, err = svc.GetUserStats(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetHealthSummary(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{
		Age:               intPtr(41),
		HeightCM:          floatPtr(180),
		WeightKG:          floatPtr(90),
		MedicalConditions: "gout",
	})
	svc := newUserService(stores)

	cats := []domain.Category{
		domain.CategorySymptomCheck,
		domain.CategoryGeneral,
		domain.CategoryMedicationAdvice,
		domain.CategorySymptomCheck,
		domain.CategorySymptomCheck,
		domain.CategoryMedicationAdvice,
		domain.CategorySymptomCheck,
	}
	for i, cat := range cats {
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: string(rune('a' + i)), Category: cat})
		require.NoError(t, err)
	}

	summary, err := svc.GetHealthSummary(ctx, userID)
	require.NoError(t, err)

	require.NotNil(t, summary.BMI)
	assert.Equal(t, 27.78, *summary.BMI)
	assert.Equal(t, "Overweight", summary.BMICategory)
	assert.Equal(t, 41, *summary.BasicInfo.Age)
	assert.Equal(t, "gout", summary.MedicalConditions)
	require.Len(t, summary.RecentHealthChats, recentActivityLimit)
	assert.Equal(t, "g", summary.RecentHealthChats[0].Message)
	for _, turn := range summary.RecentHealthChats {
		assert.NotEqual(t, domain.CategoryGeneral, turn.Category)
	}
}

func TestGetHealthSummaryWithoutMeasurements(t *testing.T) {
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{HeightCM: floatPtr(170)})

	summary, err := newUserService(stores).GetHealthSummary(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, summary.BMI)
	assert.Empty(t, summary.BMICategory)
	assert.Empty(t, summary.RecentHealthChats)

	_, err = newUserService(stores).GetHealthSummary(context.Background(), 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	svc := newUserService(stores)

	user, err := svc.RegisterTelegramUser(ctx, 555, "sam", "Sam", "")
	require.NoError(t, err)
	other := newTestUser(t, stores, domain.HealthProfile{})
	for _, id := range []uint{user.UserID, other} {
		_, err = stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: id, Message: "hi", Category: domain.CategoryGeneral})
		require.NoError(t, err)
		_, err = stores.Notifications.Create(ctx, domain.NotificationInput{UserID: id, Type: domain.NotificationHealthTip, Title: "t"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteAccount(ctx, user.UserID))

	_, err = svc.GetProfile(ctx, user.UserID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, svc.DeleteAccount(ctx, user.UserID), apperrors.ErrUserNotFound)

	counts, err := stores.Chats.CountByCategory(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, counts)
	byType, err := stores.Notifications.CountByType(ctx, user.UserID)
	require.NoError(t, err)
	assert.Empty(t, byType)

	stats, err := svc.GetUserStats(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ChatStats[domain.CategoryGeneral], "other users keep their data")

	again, err := svc.RegisterTelegramUser(ctx, 555, "sam", "Sam", "")
	require.NoError(t, err)
	assert.NotEqual(t, user.UserID, again.UserID, "the telegram binding was released")
}
