package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/repository"
)

func series(values ...float64) []domain.TrendPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.TrendPoint, 0, len(values))
	for i, v := range values {
		points = append(points, domain.TrendPoint{Timestamp: base.Add(time.Duration(i) * time.Hour), Value: v})
	}
	return points
}

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name       string
		points     []domain.TrendPoint
		direction  domain.TrendDirection
		magnitude  float64
		volatility float64
	}{
		{"rising with dip", series(10, 12, 11), domain.TrendIncreasing, 1, 1.5},
		{"single sample", series(5), domain.TrendStable, 0, 0},
		{"empty", nil, domain.TrendStable, 0, 0},
		{"two samples", series(80, 78), domain.TrendDecreasing, 2, 0},
		{"flat", series(3, 3, 3), domain.TrendStable, 0, 0},
		{"round trip", series(1, 3, 1), domain.TrendStable, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeTrend(tt.points)
			assert.Equal(t, tt.direction, got.Direction)
			assert.InDelta(t, tt.magnitude, got.Magnitude, 1e-9)
			assert.InDelta(t, tt.volatility, got.Volatility, 1e-9)
		})
	}
}

func TestAnalyzeTrendSortsByTimestamp(t *testing.T) {
	points := series(10, 12, 11)
	shuffled := []domain.TrendPoint{points[2], points[0], points[1]}

	assert.Equal(t, AnalyzeTrend(points), AnalyzeTrend(shuffled))
	assert.Equal(t, 11.0, shuffled[0].Value, "input must not be reordered")
}

func TestGetMetricHistory(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewMemoryStores()
	userID := newTestUser(t, stores, domain.HealthProfile{HeightCM: floatPtr(180)})

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	appendAt := func(offset time.Duration, applied map[string]any) {
		at := base.Add(offset)
		stores.SetClock(func() time.Time { return at })
		metadata := map[string]any{}
		if applied != nil {
			metadata[domain.MetadataAppliedUpdates] = applied
		}
		_, err := stores.Chats.Append(ctx, domain.ChatTurnInput{UserID: userID, Message: "m", Metadata: metadata})
		require.NoError(t, err)
	}

	appendAt(0, map[string]any{"weight_kg": 90.0})
	appendAt(time.Hour, nil)
	appendAt(2*time.Hour, map[string]any{"weight_kg": 81.0, "age": 40})
	appendAt(3*time.Hour, map[string]any{"height_cm": 190.0})

	analyzer := NewTrendAnalyzer(stores.Users, stores.Chats)

	weights, err := analyzer.GetMetricHistory(ctx, userID, "weight", time.Time{})
	require.NoError(t, err)
	require.Len(t, weights, 2)
	assert.Equal(t, 90.0, weights[0].Value)
	assert.Equal(t, 81.0, weights[1].Value)
	assert.Equal(t, domain.TrendDecreasing, analyzer.AnalyzeTrend(weights).Direction)

	bmi, err := analyzer.GetMetricHistory(ctx, userID, "bmi", time.Time{})
	require.NoError(t, err)
	require.Len(t, bmi, 3)
	assert.Equal(t, 27.78, bmi[0].Value)
	assert.Equal(t, 25.0, bmi[1].Value)
	assert.Equal(t, 22.44, bmi[2].Value)

	recent, err := analyzer.GetMetricHistory(ctx, userID, "bmi", base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	_, err = analyzer.GetMetricHistory(ctx, userID, "cholesterol", time.Time{})
	assert.True(t, apperrors.IsValidation(err))

	_, err = analyzer.GetMetricHistory(ctx, 999, "age", time.Time{})
	assert.True(t, apperrors.IsNotFound(err))
}
