package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const (
	riskAge        = "age-related health considerations"
	riskBMI        = "BMI indicates increased health risks"
	riskConditions = "existing medical conditions require attention"
)

const riskFactorsPrompt = `Identify potential health risk factors for the user profile you are given.
Return a JSON array of short risk factor descriptions and nothing else.`

const generalHealthPrompt = `Assess general health status for the user profile you are given.
Provide a brief status and key recommendations.`

const riskProfileBlock = `Age: {age}
Gender: {gender}
Height: {height}
Weight: {weight}
Medical Conditions: {conditions}
Allergies: {allergies}`

// Fallback assessment used when the completion service cannot produce one
var defaultHealthNotes = []string{"Regular check-ups recommended", "Maintain healthy lifestyle"}

// CalculateBMI returns weight_kg / (height_cm/100)^2
func CalculateBMI(profile domain.HealthProfile) (float64, error) {
	if profile.HeightCM == nil || profile.WeightKG == nil || *profile.HeightCM <= 0 || *profile.WeightKG <= 0 {
		return 0, apperrors.ErrBMINotComputed
	}
	heightM := *profile.HeightCM / 100
	return *profile.WeightKG / (heightM * heightM), nil
}

// BMICategory buckets a BMI value
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// RiskAssessor merges deterministic risk rules with a best-effort AI list
type RiskAssessor struct {
	client CompletionClient
	logger *slog.Logger
	now    func() time.Time
}

func NewRiskAssessor(client CompletionClient, logger *slog.Logger) *RiskAssessor {
	return &RiskAssessor{client: client, logger: logger, now: time.Now}
}

// IdentifyRiskFactors never fails; the AI part only adds findings
func (r *RiskAssessor) IdentifyRiskFactors(ctx context.Context, profile domain.HealthProfile) []string {
	var factors []string
	if profile.Age != nil && *profile.Age > 60 {
		factors = append(factors, riskAge)
	}
	if bmi, err := CalculateBMI(profile); err == nil && bmi > 30 {
		factors = append(factors, riskBMI)
	}
	if strings.TrimSpace(profile.MedicalConditions) != "" {
		factors = append(factors, riskConditions)
	}

	resp, err := r.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: riskFactorsPrompt},
		{Role: RoleUser, Content: profileReplacer(profile).Replace(riskProfileBlock)},
	}, CompletionOptions{Temperature: 0.2})
	if err != nil {
		r.logger.Warn("AI risk factor analysis failed", "user_id", profile.UserID, "kind", errorKind(err), "error", err)
		return uniqueStrings(factors)
	}
	extra, err := parseStringArray(resp)
	if err != nil {
		r.logger.Warn("Unparseable AI risk factors", "user_id", profile.UserID, "kind", apperrors.UpstreamMalformed, "error", err)
		return uniqueStrings(factors)
	}
	return uniqueStrings(append(factors, extra...))
}

// AssessGeneralHealth asks for a narrative assessment, falling back to default notes
func (r *RiskAssessor) AssessGeneralHealth(ctx context.Context, profile domain.HealthProfile) domain.GeneralHealth {
	resp, err := r.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: generalHealthPrompt},
		{Role: RoleUser, Content: profileReplacer(profile).Replace(riskProfileBlock)},
	}, CompletionOptions{})
	if err != nil {
		r.logger.Warn("General health assessment failed", "user_id", profile.UserID, "kind", errorKind(err), "error", err)
		notes := make([]string, len(defaultHealthNotes))
		copy(notes, defaultHealthNotes)
		return domain.GeneralHealth{Status: "Default", Notes: notes}
	}
	return domain.GeneralHealth{Status: "Generated", Assessment: resp, GeneratedAt: r.now()}
}

// GetHealthMetrics computes BMI, risk factors and the general assessment.
// BMI stays nil when the profile lacks height or weight.
func (r *RiskAssessor) GetHealthMetrics(ctx context.Context, profile domain.HealthProfile) domain.HealthMetrics {
	metrics := domain.HealthMetrics{}

	bmi, err := CalculateBMI(profile)
	if err == nil {
		rounded := roundTo(bmi, 2)
		metrics.BMI = &rounded
		metrics.BMICategory = BMICategory(bmi)
	} else {
		r.logger.Debug("BMI not computable", "user_id", profile.UserID)
	}

	general := r.AssessGeneralHealth(ctx, profile)
	metrics.GeneralHealth = &general
	metrics.RiskFactors = r.IdentifyRiskFactors(ctx, profile)
	return metrics
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
