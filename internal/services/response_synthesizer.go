package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

const (
	markerUnspecified = "unspecified"
	markerNone        = "none"
)

var synthesisTemplates = map[domain.Category]string{
	domain.CategorySymptomCheck: `As a medical advisor, analyze these symptoms for a {age}-year-old {gender}
with medical conditions: {conditions}.
Provide a preliminary assessment and recommend next steps.`,

	domain.CategoryMedicationAdvice: `Consider this medication query for a person with:
Age: {age}
Allergies: {allergies}
Medical Conditions: {conditions}
Provide medication-related guidance while emphasizing the importance of consulting healthcare providers.`,

	domain.CategoryDietRecommendation: `Provide dietary advice considering:
Weight: {weight}
Height: {height}
Medical Conditions: {conditions}
Allergies: {allergies}`,

	domain.CategoryGeneral: `Provide health guidance while considering the user's profile:
Age: {age}
Gender: {gender}
Medical History: {conditions}`,
}

// ResponseSynthesizer answers a message with a category-specific prompt
type ResponseSynthesizer struct {
	client CompletionClient
}

func NewResponseSynthesizer(client CompletionClient) *ResponseSynthesizer {
	return &ResponseSynthesizer{client: client}
}

// Synthesize returns the raw completion text. Upstream errors are returned unchanged.
func (s *ResponseSynthesizer) Synthesize(ctx context.Context, message string, profile domain.HealthProfile, category domain.Category) (string, error) {
	return s.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: SystemPrompt(category, profile)},
		{Role: RoleUser, Content: message},
	}, CompletionOptions{})
}

// SystemPrompt renders the template for category, falling back to general
func SystemPrompt(category domain.Category, profile domain.HealthProfile) string {
	tmpl, ok := synthesisTemplates[category]
	if !ok {
		tmpl = synthesisTemplates[domain.CategoryGeneral]
	}
	return profileReplacer(profile).Replace(tmpl)
}

func profileReplacer(p domain.HealthProfile) *strings.Replacer {
	return strings.NewReplacer(
		"{age}", intOrMarker(p.Age),
		"{gender}", textOrMarker(string(p.Gender), markerUnspecified),
		"{height}", floatOrMarker(p.HeightCM, " cm"),
		"{weight}", floatOrMarker(p.WeightKG, " kg"),
		"{conditions}", textOrMarker(p.MedicalConditions, markerNone),
		"{allergies}", textOrMarker(p.Allergies, markerNone),
	)
}

func intOrMarker(v *int) string {
	if v == nil {
		return markerUnspecified
	}
	return strconv.Itoa(*v)
}

func floatOrMarker(v *float64, unit string) string {
	if v == nil || *v == 0 {
		return markerUnspecified
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + unit
}

func textOrMarker(v, marker string) string {
	if strings.TrimSpace(v) == "" {
		return marker
	}
	return v
}
