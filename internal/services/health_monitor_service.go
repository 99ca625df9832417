package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const (
	trendWindowDays = 30

	// DefaultSymptomWindowDays is the symptom window when the caller names none
	DefaultSymptomWindowDays = 30
	maxSymptomWindowDays     = 365
	recentActivityDays       = 7

	noInteractionsText     = "No recent health-related interactions to analyze."
	analysisFailedText     = "Unable to analyze health patterns at this time."
	recommendationFallback = "Unable to generate personalized recommendations at this time."
)

var trendCategories = []domain.Category{domain.CategorySymptomCheck, domain.CategoryMedicationAdvice}

const healthPatternsPrompt = `Analyze health patterns from chat history for a user with the following profile:
Age: {age}
Gender: {gender}
Medical Conditions: {conditions}
Provide insights on patterns, concerns, and improvements.`

const recommendationsPrompt = `Based on the health analysis and user profile below, provide specific recommendations.
Profile:
Age: {age}
Gender: {gender}
Medical Conditions: {conditions}
Allergies: {allergies}
Put each recommendation on its own line.`

// HealthMonitorService builds the 30-day trend overview and full health reports
type HealthMonitorService struct {
	profiles domain.ProfileStore
	chats    domain.ChatStore
	symptoms *SymptomExtractor
	risk     *RiskAssessor
	client   CompletionClient
	logger   *slog.Logger
	now      func() time.Time
}

func NewHealthMonitorService(
	profiles domain.ProfileStore,
	chats domain.ChatStore,
	symptoms *SymptomExtractor,
	risk *RiskAssessor,
	client CompletionClient,
	logger *slog.Logger,
) *HealthMonitorService {
	return &HealthMonitorService{
		profiles: profiles,
		chats:    chats,
		symptoms: symptoms,
		risk:     risk,
		client:   client,
		logger:   logger,
		now:      time.Now,
	}
}

// GetHealthTrends analyzes the last 30 days of symptom and medication turns.
// Only store failures are returned; AI failures degrade to fallback texts.
func (s *HealthMonitorService) GetHealthTrends(ctx context.Context, userID uint) (*domain.HealthTrends, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := s.now().Add(-trendWindowDays * 24 * time.Hour)
	page, err := s.chats.Query(ctx, userID, domain.ChatQuery{
		Categories: trendCategories,
		Since:      &since,
		Order:      domain.OldestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load health chats: %w", err)
	}

	analysis := s.analyzePatterns(ctx, page.Items, *profile)
	return &domain.HealthTrends{
		TimeframeDays:      trendWindowDays,
		TotalInteractions:  len(page.Items),
		AnalysisText:       analysis,
		RecentSymptoms:     s.symptoms.ExtractSymptoms(ctx, page.Items),
		RecommendedActions: s.recommend(ctx, analysis, *profile),
	}, nil
}

type historyEntry struct {
	Date    time.Time       `json:"date"`
	Message string          `json:"message"`
	Type    domain.Category `json:"type"`
}

func (s *HealthMonitorService) analyzePatterns(ctx context.Context, turns []domain.ChatTurn, profile domain.HealthProfile) string {
	if len(turns) == 0 {
		return noInteractionsText
	}

	history := make([]historyEntry, 0, len(turns))
	for _, t := range turns {
		history = append(history, historyEntry{Date: t.CreatedAt, Message: t.Message, Type: t.Category})
	}
	payload, err := json.Marshal(history)
	if err != nil {
		s.logger.Warn("Failed to encode chat history", "user_id", profile.UserID, "error", err)
		return analysisFailedText
	}

	resp, err := s.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: profileReplacer(profile).Replace(healthPatternsPrompt)},
		{Role: RoleUser, Content: string(payload)},
	}, CompletionOptions{})
	if err != nil {
		s.logger.Warn("Health pattern analysis failed", "user_id", profile.UserID, "kind", errorKind(err), "error", err)
		return analysisFailedText
	}
	return resp
}

func (s *HealthMonitorService) recommend(ctx context.Context, analysis string, profile domain.HealthProfile) []string {
	resp, err := s.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: profileReplacer(profile).Replace(recommendationsPrompt)},
		{Role: RoleUser, Content: analysis},
	}, CompletionOptions{})
	if err != nil {
		s.logger.Warn("Recommendation generation failed", "user_id", profile.UserID, "kind", errorKind(err), "error", err)
		return []string{recommendationFallback}
	}

	actions := splitRecommendations(resp)
	if len(actions) == 0 {
		return []string{recommendationFallback}
	}
	return actions
}

// splitRecommendations turns a list-shaped answer into one entry per line,
// dropping bullets and numbering
func splitRecommendations(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• ")
		if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// GetHealthMetrics loads the profile and computes its metric bundle
func (s *HealthMonitorService) GetHealthMetrics(ctx context.Context, userID uint) (*domain.HealthMetrics, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics := s.risk.GetHealthMetrics(ctx, *profile)
	return &metrics, nil
}

// CreateHealthReport combines trends and metrics into one report
func (s *HealthMonitorService) CreateHealthReport(ctx context.Context, userID uint) (*domain.HealthReport, error) {
	trends, err := s.GetHealthTrends(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.GetHealthMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Health report generated", "user_id", userID, "interactions", trends.TotalInteractions)
	return &domain.HealthReport{
		UserID:          userID,
		GeneratedAt:     s.now(),
		HealthMetrics:   *metrics,
		Trends:          *trends,
		Recommendations: trends.RecommendedActions,
	}, nil
}

// GetRecentSymptoms extracts the symptoms of symptom_check turns from the last days
func (s *HealthMonitorService) GetRecentSymptoms(ctx context.Context, userID uint, days int) (*domain.SymptomReport, error) {
	if days < 1 || days > maxSymptomWindowDays {
		return nil, apperrors.NewValidationError(fmt.Sprintf("days must be between 1 and %d", maxSymptomWindowDays))
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	since := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	page, err := s.chats.Query(ctx, userID, domain.ChatQuery{
		Categories: []domain.Category{domain.CategorySymptomCheck},
		Since:      &since,
		Order:      domain.NewestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load symptom chats: %w", err)
	}

	return &domain.SymptomReport{
		TimeframeDays:     days,
		TotalInteractions: len(page.Items),
		Symptoms:          s.symptoms.ExtractSymptoms(ctx, page.Items),
	}, nil
}

// GetRiskAssessment lists risk factors and recommendations addressing them
func (s *HealthMonitorService) GetRiskAssessment(ctx context.Context, userID uint) (*domain.RiskAssessment, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	factors := s.risk.IdentifyRiskFactors(ctx, *profile)
	return &domain.RiskAssessment{
		RiskFactors:     factors,
		Recommendations: s.recommend(ctx, riskSummary(factors), *profile),
		LastUpdated:     s.now(),
	}, nil
}

func riskSummary(factors []string) string {
	if len(factors) == 0 {
		return "No specific risk factors identified."
	}
	return "Identified risk factors: " + strings.Join(factors, "; ")
}

// GetHealthDashboard loads metrics and the last week of activity in parallel
func (s *HealthMonitorService) GetHealthDashboard(ctx context.Context, userID uint) (*domain.HealthDashboard, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		metrics domain.HealthMetrics
		recent  *domain.ChatPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metrics = s.risk.GetHealthMetrics(gctx, *profile)
		return nil
	})
	g.Go(func() error {
		since := s.now().Add(-recentActivityDays * 24 * time.Hour)
		page, err := s.chats.Query(gctx, userID, domain.ChatQuery{
			Since: &since,
			Limit: recentActivityLimit,
			Order: domain.NewestFirst,
		})
		if err != nil {
			return fmt.Errorf("failed to load recent chats: %w", err)
		}
		recent = page
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.HealthDashboard{
		BasicInfo:         profile.BasicInfo(),
		HealthMetrics:     metrics,
		RiskFactors:       metrics.RiskFactors,
		RecentActivity:    recent.Items,
		MedicalConditions: profile.MedicalConditions,
		Allergies:         profile.Allergies,
		LastUpdated:       s.now(),
	}, nil
}
