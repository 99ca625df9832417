package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const profileDetectorPrompt = `You are a profile update detector. Current profile:
%s
If the message contains a request to update profile information, return a JSON object
{"shouldUpdate": true, "updates": {...}} where "updates" contains only the fields to update.
Allowed fields: age (integer), gender ("male", "female" or "other"), height_cm (number),
weight_kg (number), medical_conditions (text), allergies (text).
Otherwise return {"shouldUpdate": false}. Respond with JSON only.`

// ProfileUpdateDecision is the detector verdict for one message
type ProfileUpdateDecision struct {
	ShouldUpdate bool
	Updates      domain.ProfileUpdate
}

// ProfileUpdateDetector asks the completion service whether a message
// changes the user's profile. It never fails: any problem means "no update".
type ProfileUpdateDetector struct {
	client CompletionClient
	logger *slog.Logger
}

func NewProfileUpdateDetector(client CompletionClient, logger *slog.Logger) *ProfileUpdateDetector {
	return &ProfileUpdateDetector{client: client, logger: logger}
}

func (d *ProfileUpdateDetector) Detect(ctx context.Context, message string, profile domain.HealthProfile) ProfileUpdateDecision {
	noUpdate := ProfileUpdateDecision{}

	serialized, err := json.Marshal(profile)
	if err != nil {
		d.logger.Warn("Failed to serialize profile for detection", "user_id", profile.UserID, "error", err)
		return noUpdate
	}

	resp, err := d.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: fmt.Sprintf(profileDetectorPrompt, serialized)},
		{Role: RoleUser, Content: message},
	}, CompletionOptions{Temperature: 0.1})
	if err != nil {
		d.logger.Warn("Profile update detection failed",
			"user_id", profile.UserID,
			"kind", errorKind(err),
			"error", err)
		return noUpdate
	}

	decision, err := parseProfileDecision(resp)
	if err != nil {
		d.logger.Warn("Unparseable profile update decision",
			"user_id", profile.UserID,
			"kind", apperrors.UpstreamMalformed,
			"error", err)
		return noUpdate
	}
	if decision.rejected != nil {
		d.logger.Warn("Dropped invalid profile update fields",
			"user_id", profile.UserID,
			"rejected", errors.Join(decision.rejected...).Error())
	}
	if decision.ShouldUpdate && len(decision.Updates) == 0 {
		d.logger.Warn("Profile update decision carried no usable fields", "user_id", profile.UserID)
		return noUpdate
	}
	return decision.ProfileUpdateDecision
}

type parsedDecision struct {
	ProfileUpdateDecision
	rejected []error
}

func parseProfileDecision(resp string) (parsedDecision, error) {
	raw := extractJSON(resp, '{', '}')
	if raw == "" {
		return parsedDecision{}, errors.New("no JSON object in response")
	}

	var envelope struct {
		ShouldUpdate *bool           `json:"shouldUpdate"`
		Updates      json.RawMessage `json:"updates"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return parsedDecision{}, fmt.Errorf("decode decision: %w", err)
	}
	if envelope.ShouldUpdate == nil {
		return parsedDecision{}, errors.New("decision is missing shouldUpdate")
	}
	if !*envelope.ShouldUpdate {
		return parsedDecision{}, nil
	}
	if len(envelope.Updates) == 0 || string(envelope.Updates) == "null" {
		return parsedDecision{}, errors.New("shouldUpdate without updates")
	}

	updates, rejected, err := domain.DecodeProfileUpdate(envelope.Updates)
	if err != nil {
		return parsedDecision{}, err
	}
	return parsedDecision{
		ProfileUpdateDecision: ProfileUpdateDecision{ShouldUpdate: true, Updates: updates},
		rejected:              rejected,
	}, nil
}
