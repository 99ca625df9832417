package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

func writeError(c *gin.Context, status int, code, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "detail": detail})
}

// respondError logs err and writes the status for its type. Internal
// details never reach the response body.
func (s *Server) respondError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	apperrors.NewHandler(s.logger.With("path", c.FullPath())).Handle(ctx, err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		writeError(c, http.StatusInternalServerError, "INTERNAL", "Internal server error")
		return
	}

	status := statusFor(appErr)
	detail := appErr.PublicMessage()
	switch appErr.Type {
	case apperrors.ErrorTypeDatabase, apperrors.ErrorTypeInternal:
		detail = "Internal server error"
	case apperrors.ErrorTypeUpstream:
		detail = "The assistant is unavailable, please try again later"
		if appErr.Retryable {
			c.Header("Retry-After", "5")
		}
	}
	writeError(c, status, appErr.Code, detail)
}

func statusFor(err *apperrors.AppError) int {
	switch err.Type {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeNotComputable:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypePermission:
		return http.StatusForbidden
	case apperrors.ErrorTypeUpstream:
		switch err.Upstream {
		case apperrors.UpstreamTimeout:
			return http.StatusGatewayTimeout
		case apperrors.UpstreamRateLimited:
			return http.StatusServiceUnavailable
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

func validationError(c *gin.Context, detail string) {
	writeError(c, http.StatusBadRequest, "VALIDATION", detail)
}

func publicMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.PublicMessage()
	}
	return err.Error()
}
