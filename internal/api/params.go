package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		validationError(c, "user id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		validationError(c, "Invalid request payload")
		return false
	}
	return true
}

// pageQuery reads page and limit. Out-of-range values are clamped later by
// domain.NormalizePage; only non-numeric input is rejected.
func pageQuery(c *gin.Context) (page, limit int, ok bool) {
	if page, ok = intQuery(c, "page"); !ok {
		return 0, 0, false
	}
	if limit, ok = intQuery(c, "limit"); !ok {
		return 0, 0, false
	}
	return page, limit, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		validationError(c, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	return n, true
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		validationError(c, fmt.Sprintf("%s must be an RFC3339 timestamp", name))
		return nil, false
	}
	return &t, true
}

func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		validationError(c, fmt.Sprintf("%s must be true or false", name))
		return nil, false
	}
	return &b, true
}

func categoryValue(c *gin.Context, raw string) (*domain.Category, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	cat, err := domain.ParseCategory(raw)
	if err != nil {
		validationError(c, publicMessage(err))
		return nil, false
	}
	return &cat, true
}

func notificationTypeValue(c *gin.Context, raw string) (*domain.NotificationType, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	t, err := domain.ParseNotificationType(raw)
	if err != nil {
		validationError(c, publicMessage(err))
		return nil, false
	}
	return &t, true
}
