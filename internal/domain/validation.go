package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const (
	MaxMessageLength             = 1000
	MaxNotificationTitleLength   = 255
	MaxNotificationMessageLength = 10000
	DefaultPageLimit             = 10
	MaxPageLimit                 = 100
)

// ParseGender validates a gender value
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllGenders {
		if g == valid {
			return g, nil
		}
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("invalid gender %q", s))
}

// ParseCategory validates a chat category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("invalid category %q", s))
}

// Valid reports whether c is one of AllCategories
func (c Category) Valid() bool {
	for _, valid := range AllCategories {
		if c == valid {
			return true
		}
	}
	return false
}

// OrDefault returns the category or general when nil
func OrDefault(c *Category) Category {
	if c == nil || *c == "" {
		return CategoryGeneral
	}
	return *c
}

// ParseNotificationType validates a notification type
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(strings.ToLower(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("invalid notification type %q", s))
}

// Valid reports whether t is one of AllNotificationTypes
func (t NotificationType) Valid() bool {
	for _, valid := range AllNotificationTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ValidateMessage checks a chat message before it reaches the pipeline
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return apperrors.NewValidationError("message is required")
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return apperrors.NewValidationError(fmt.Sprintf("message exceeds %d characters", MaxMessageLength))
	}
	return nil
}

// ValidateNotificationInput checks title/message bounds and the type enum
func ValidateNotificationInput(in NotificationInput) error {
	if !in.Type.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid notification type %q", in.Type))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return apperrors.NewValidationError("notification title is required")
	}
	if utf8.RuneCountInString(title) > MaxNotificationTitleLength {
		return apperrors.NewValidationError(fmt.Sprintf("notification title exceeds %d characters", MaxNotificationTitleLength))
	}
	if utf8.RuneCountInString(in.Message) > MaxNotificationMessageLength {
		return apperrors.NewValidationError(fmt.Sprintf("notification message exceeds %d characters", MaxNotificationMessageLength))
	}
	return nil
}

// NormalizePage clamps 1-based page and limit to their bounds
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
