package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/repository"
)

func newHealthMonitor(stores *repository.MemoryStores, client CompletionClient, now time.Time) *HealthMonitorService {
	s := NewHealthMonitorService(
		stores.Users,
		stores.Chats,
		NewSymptomExtractor(client, 2, testLogger),
		NewRiskAssessor(client, testLogger),
		client,
		testLogger,
	)
	s.now = func() time.Time { return now }
	return s
}

func TestGetHealthTrendsWithoutInteractions(t *testing.T) {
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})
	client := &scriptedClient{respond: func([]Message) (string, error) { return "", errRateLimited }}

	trends, err := newHealthMonitor(stores, client, time.Now()).GetHealthTrends(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 30, trends.TimeframeDays)
	assert.Zero(t, trends.TotalInteractions)
	assert.Equal(t, "No recent health-related interactions to analyze.", trends.AnalysisText)
	assert.Empty(t, trends.RecentSymptoms)
	assert.Equal(t, []string{"Unable to generate personalized recommendations at this time."}, trends.RecommendedActions)
}

func TestGetHealthTrendsWindowAndCategories(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{Age: intPtr(50)})

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	add := func(age time.Duration, cat domain.Category, msg string) {
		at := now.Add(-age)
		stores.SetClock(func() time.Time { return at })
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: msg, Category: cat})
		require.NoError(t, err)
	}
	add(40*24*time.Hour, domain.CategorySymptomCheck, "old fever")
	add(10*24*time.Hour, domain.CategorySymptomCheck, "fever and cough")
	add(5*24*time.Hour, domain.CategoryMedicationAdvice, "can I take ibuprofen")
	add(24*time.Hour, domain.CategoryDietRecommendation, "keto?")

	client := &scriptedClient{respond: func(msgs []Message) (string, error) {
		system := msgs[0].Content
		switch {
		case strings.HasPrefix(system, "Extract mentioned symptoms"):
			return `["fever", "cough"]`, nil
		case strings.HasPrefix(system, "Analyze health patterns"):
			return "Recurring respiratory symptoms.", nil
		case strings.HasPrefix(system, "Based on the health analysis"):
			return "1. Rest well\n2) Drink fluids\n- See a doctor if fever persists\n", nil
		}
		return "", errRateLimited
	}}

	trends, err := newHealthMonitor(stores, client, now).GetHealthTrends(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 2, trends.TotalInteractions)
	assert.Equal(t, "Recurring respiratory symptoms.", trends.AnalysisText)
	assert.Equal(t, []string{"cough", "fever"}, trends.RecentSymptoms)
	assert.Equal(t, []string{"Rest well", "Drink fluids", "See a doctor if fever persists"}, trends.RecommendedActions)
	assert.Equal(t, 1, client.callsMatching("Extract mentioned symptoms"))
}

func TestGetHealthTrendsAnalysisFailure(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})
	_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: "dizzy", Category: domain.CategorySymptomCheck})
	require.NoError(t, err)

	client := &scriptedClient{respond: func([]Message) (string, error) { return "", errRateLimited }}
	trends, err := newHealthMonitor(stores, client, time.Now().Add(time.Minute)).GetHealthTrends(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Unable to analyze health patterns at this time.", trends.AnalysisText)
	assert.Empty(t, trends.RecentSymptoms)
}

func TestCreateHealthReport(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{HeightCM: floatPtr(160), WeightKG: floatPtr(80)})

	client := &scriptedClient{respond: func(msgs []Message) (string, error) {
		if strings.HasPrefix(msgs[0].Content, "Identify potential health risk factors") {
			return `["low activity"]`, nil
		}
		return "", errRateLimited
	}}
	now := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	report, err := newHealthMonitor(stores, client, now).CreateHealthReport(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, userID, report.UserID)
	assert.Equal(t, now, report.GeneratedAt)
	require.NotNil(t, report.HealthMetrics.BMI)
	assert.Equal(t, 31.25, *report.HealthMetrics.BMI)
	assert.Equal(t, "Obese", report.HealthMetrics.BMICategory)
	assert.Equal(t, []string{"BMI indicates increased health risks", "low activity"}, report.HealthMetrics.RiskFactors)
	assert.Equal(t, report.Trends.RecommendedActions, report.Recommendations)

	_, err = newHealthMonitor(stores, client, now).CreateHealthReport(ctx, 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSplitRecommendations(t *testing.T) {
	assert.Equal(t, []string{"Walk daily", "Sleep 8h", "3 meals a day"}, splitRecommendations("* Walk daily\n\n10. Sleep 8h\n3 meals a day"))
}

func TestGetRecentSymptomsWindow(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	add := func(age time.Duration, cat domain.Category, msg string) {
		at := now.Add(-age)
		stores.SetClock(func() time.Time { return at })
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: msg, Category: cat})
		require.NoError(t, err)
	}
	add(20*24*time.Hour, domain.CategorySymptomCheck, "migraine")
	add(3*24*time.Hour, domain.CategorySymptomCheck, "sore throat")
	add(2*24*time.Hour, domain.CategoryMedicationAdvice, "aspirin dose")

	client := &scriptedClient{respond: func(msgs []Message) (string, error) {
		return `["` + userText(msgs) + `"]`, nil
	}}
	svc := newHealthMonitor(stores, client, now)

	week, err := svc.GetRecentSymptoms(ctx, userID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, week.TimeframeDays)
	assert.Equal(t, 1, week.TotalInteractions)
	assert.Equal(t, []string{"sore throat"}, week.Symptoms)

	month, err := svc.GetRecentSymptoms(ctx, userID, DefaultSymptomWindowDays)
	require.NoError(t, err)
	assert.Equal(t, 2, month.TotalInteractions)
	assert.Equal(t, []string{"migraine", "sore throat"}, month.Symptoms)
}

func TestGetRecentSymptomsRejectsBadInput(t *testing.T) {
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{})
	svc := newHealthMonitor(stores, &scriptedClient{respond: func([]Message) (string, error) { return "[]", nil }}, time.Now())

	for _, days := range []int{0, -3, 366} {
		_, err := svc.GetRecentSymptoms(context.Background(), userID, days)
		assert.True(t, apperrors.IsValidation(err), "days=%d", days)
	}
	_, err := svc.GetRecentSymptoms(context.Background(), 999, 7)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetRiskAssessment(t *testing.T) {
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{Age: intPtr(70)})
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	var recommendInput string
	client := &scriptedClient{respond: func(msgs []Message) (string, error) {
		switch {
		case strings.HasPrefix(msgs[0].Content, "Identify potential health risk factors"):
			return "[]", nil
		case strings.HasPrefix(msgs[0].Content, "Based on the health analysis"):
			recommendInput = userText(msgs)
			return "- Annual check-up\n- Balance exercises", nil
		}
		return "", errRateLimited
	}}

	got, err := newHealthMonitor(stores, client, now).GetRiskAssessment(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, []string{"age-related health considerations"}, got.RiskFactors)
	assert.Equal(t, []string{"Annual check-up", "Balance exercises"}, got.Recommendations)
	assert.Equal(t, now, got.LastUpdated)
	assert.Equal(t, "Identified risk factors: age-related health considerations", recommendInput)

	_, err = newHealthMonitor(stores, client, now).GetRiskAssessment(context.Background(), 999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetHealthDashboard(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{
		Age:               intPtr(35),
		Gender:            domain.GenderFemale,
		HeightCM:          floatPtr(200),
		WeightKG:          floatPtr(100),
		MedicalConditions: "asthma",
		Allergies:         "dust",
	})

	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	for i, age := range []time.Duration{10 * 24 * time.Hour, 6 * 24 * time.Hour, time.Hour} {
		at := now.Add(-age)
		stores.SetClock(func() time.Time { return at })
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: fmt.Sprintf("m%d", i), Category: domain.CategoryGeneral})
		require.NoError(t, err)
	}

	client := &scriptedClient{respond: func([]Message) (string, error) { return "", errRateLimited }}
	dash, err := newHealthMonitor(stores, client, now).GetHealthDashboard(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, 35, *dash.BasicInfo.Age)
	assert.Equal(t, domain.GenderFemale, dash.BasicInfo.Gender)
	require.NotNil(t, dash.HealthMetrics.BMI)
	assert.Equal(t, 25.0, *dash.HealthMetrics.BMI)
	assert.Equal(t, "Overweight", dash.HealthMetrics.BMICategory)
	assert.Equal(t, []string{"existing medical conditions require attention"}, dash.RiskFactors)
	require.Len(t, dash.RecentActivity, 2, "only the last week")
	assert.Equal(t, "m2", dash.RecentActivity[0].Message)
	assert.Equal(t, "asthma", dash.MedicalConditions)
	assert.Equal(t, "dust", dash.Allergies)
	assert.Equal(t, now, dash.LastUpdated)
}
