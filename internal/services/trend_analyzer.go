package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

// MetricBMI is the derived metric name accepted by GetMetricHistory
const MetricBMI = "bmi"

// AnalyzeTrend summarizes a metric series. Points are ordered by timestamp
// first; fewer than two points yield a stable trend.
func AnalyzeTrend(points []domain.TrendPoint) domain.TrendAnalysis {
	result := domain.TrendAnalysis{Direction: domain.TrendStable}
	if len(points) < 2 {
		return result
	}

	sorted := make([]domain.TrendPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	diffs := make([]float64, 0, len(sorted)-1)
	var total float64
	for i := 1; i < len(sorted); i++ {
		d := sorted[i].Value - sorted[i-1].Value
		diffs = append(diffs, d)
		total += d
	}

	switch {
	case total > 0:
		result.Direction = domain.TrendIncreasing
	case total < 0:
		result.Direction = domain.TrendDecreasing
	}
	result.Magnitude = math.Abs(total)
	result.Volatility = populationStdDev(diffs)
	return result
}

func populationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// TrendAnalyzer rebuilds metric series from the profile updates recorded on chat turns
type TrendAnalyzer struct {
	profiles domain.ProfileStore
	chats    domain.ChatStore
}

func NewTrendAnalyzer(profiles domain.ProfileStore, chats domain.ChatStore) *TrendAnalyzer {
	return &TrendAnalyzer{profiles: profiles, chats: chats}
}

// AnalyzeTrend is the method form of the package-level AnalyzeTrend
func (a *TrendAnalyzer) AnalyzeTrend(points []domain.TrendPoint) domain.TrendAnalysis {
	return AnalyzeTrend(points)
}

// GetMetricHistory returns samples of metric recorded at or after since, oldest first.
// metric is age, height_cm, weight_kg (or their aliases) or bmi.
func (a *TrendAnalyzer) GetMetricHistory(ctx context.Context, userID uint, metric string, since time.Time) ([]domain.TrendPoint, error) {
	metric = strings.ToLower(strings.TrimSpace(metric))
	var field domain.ProfileField
	if metric != MetricBMI {
		f, ok := domain.CanonicalField(metric)
		if !ok || (f != domain.FieldAge && f != domain.FieldHeightCM && f != domain.FieldWeightKG) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown metric %q", metric))
		}
		field = f
	}

	profile, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Earlier turns are needed to know height and weight at the time of each bmi sample.
	page, err := a.chats.Query(ctx, userID, domain.ChatQuery{Order: domain.OldestFirst})
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	var height, weight *float64
	points := make([]domain.TrendPoint, 0)
	for _, turn := range page.Items {
		applied, ok := appliedUpdates(turn)
		if !ok {
			continue
		}
		if v, ok := numericField(applied, domain.FieldHeightCM); ok {
			height = &v
		}
		if v, ok := numericField(applied, domain.FieldWeightKG); ok {
			weight = &v
		}
		if turn.CreatedAt.Before(since) {
			continue
		}

		if metric == MetricBMI {
			_, hasHeight := applied[string(domain.FieldHeightCM)]
			_, hasWeight := applied[string(domain.FieldWeightKG)]
			if !hasHeight && !hasWeight {
				continue
			}
			snapshot := domain.HealthProfile{HeightCM: orFallback(height, profile.HeightCM), WeightKG: orFallback(weight, profile.WeightKG)}
			if bmi, err := CalculateBMI(snapshot); err == nil {
				points = append(points, domain.TrendPoint{Timestamp: turn.CreatedAt, Value: roundTo(bmi, 2)})
			}
			continue
		}

		if v, ok := numericField(applied, field); ok {
			points = append(points, domain.TrendPoint{Timestamp: turn.CreatedAt, Value: v})
		}
	}
	return points, nil
}

func appliedUpdates(turn domain.ChatTurn) (map[string]any, bool) {
	if turn.Metadata == nil {
		return nil, false
	}
	applied, ok := turn.Metadata[domain.MetadataAppliedUpdates].(map[string]any)
	return applied, ok
}

func numericField(applied map[string]any, field domain.ProfileField) (float64, bool) {
	raw, ok := applied[string(field)]
	if !ok {
		return 0, false
	}
	return domain.NumericValue(raw)
}

func orFallback(v, fallback *float64) *float64 {
	if v != nil {
		return v
	}
	return fallback
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
