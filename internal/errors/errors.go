package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUpstream      ErrorType = "upstream"
	ErrorTypeConflict      ErrorType = "conflict"
	ErrorTypeNotComputable ErrorType = "not_computable"
	ErrorTypeDatabase      ErrorType = "database"
	ErrorTypeInternal      ErrorType = "internal"
	ErrorTypePermission    ErrorType = "permission"
)

// UpstreamKind classifies completion-service failures
type UpstreamKind string

const (
	UpstreamTimeout     UpstreamKind = "timeout"
	UpstreamRateLimited UpstreamKind = "rate_limited"
	UpstreamMalformed   UpstreamKind = "malformed"
	UpstreamUnknown     UpstreamKind = "unknown"
)

// AppError represents an application error with additional context
type AppError struct {
	Type      ErrorType
	Message   string
	Code      string
	Internal  error
	Context   map[string]interface{}
	Source    string
	Upstream  UpstreamKind
	Retryable bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the internal error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return errors.Is(e.Internal, target)
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields returns structured logging fields
func (e *AppError) LogFields() []interface{} {
	fields := []interface{}{
		"error_type", e.Type,
		"error_code", e.Code,
		"error_message", e.Message,
		"source", e.Source,
	}

	if e.Type == ErrorTypeUpstream {
		fields = append(fields, "upstream_kind", e.Upstream, "retryable", e.Retryable)
	}

	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// PublicMessage is the text safe to show to end users
func (e *AppError) PublicMessage() string {
	return e.Message
}

// New creates a new AppError
func New(errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Source:  source,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error into AppError
func Wrap(err error, errorType ErrorType, code, message string) *AppError {
	_, file, line, _ := runtime.Caller(1)
	source := fmt.Sprintf("%s:%d", file, line)

	return &AppError{
		Type:     errorType,
		Code:     code,
		Message:  message,
		Internal: err,
		Source:   source,
		Context:  make(map[string]interface{}),
	}
}

// Handler provides error handling strategies
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a new error handler
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle logs err at the level for its type, tagged with the request id in ctx
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	log := logger.WithContext(ctx, h.logger)
	var appErr *AppError
	if errors.As(err, &appErr) {
		handleAppError(ctx, log, appErr)
	} else {
		log.ErrorContext(ctx, "Unhandled error", "error", err.Error())
	}
}

func handleAppError(ctx context.Context, log *slog.Logger, err *AppError) {
	switch err.Type {
	case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeNotComputable:
		log.InfoContext(ctx, "Request rejected", err.LogFields()...)
	case ErrorTypePermission, ErrorTypeConflict:
		log.WarnContext(ctx, "Request refused", err.LogFields()...)
	case ErrorTypeUpstream:
		log.WarnContext(ctx, "Upstream error", err.LogFields()...)
	case ErrorTypeDatabase, ErrorTypeInternal:
		log.ErrorContext(ctx, "Critical error", err.LogFields()...)
	default:
		log.ErrorContext(ctx, "Unknown error type", err.LogFields()...)
	}
}

// Predefined errors
var (
	ErrUserNotFound   = New(ErrorTypeNotFound, "USER_NOT_FOUND", "User not found")
	ErrChatNotFound   = New(ErrorTypeNotFound, "CHAT_NOT_FOUND", "Chat not found")
	ErrNotifNotFound  = New(ErrorTypeNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
	ErrBMINotComputed = New(ErrorTypeNotComputable, "BMI_NOT_COMPUTABLE", "BMI requires height and weight")
	ErrConflict       = New(ErrorTypeConflict, "CONFLICT", "Concurrent update conflict")
)

// Convenience functions for common errors
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, "VALIDATION", message)
}

func NewNotFoundError(code, message string) *AppError {
	return New(ErrorTypeNotFound, code, message)
}

func NewDatabaseError(err error) *AppError {
	return Wrap(err, ErrorTypeDatabase, "DB_ERROR", "Database operation failed")
}

// NewConflictError wraps a lost lock or serialization race; it matches ErrConflict
func NewConflictError(err error) *AppError {
	return Wrap(err, ErrConflict.Type, ErrConflict.Code, ErrConflict.Message)
}

// NewUpstreamError classifies a completion-service failure
func NewUpstreamError(kind UpstreamKind, retryable bool, err error) *AppError {
	_, file, line, _ := runtime.Caller(1)
	return &AppError{
		Type:      ErrorTypeUpstream,
		Code:      "UPSTREAM_" + string(kind),
		Message:   "Completion service unavailable",
		Internal:  err,
		Source:    fmt.Sprintf("%s:%d", file, line),
		Context:   make(map[string]interface{}),
		Upstream:  kind,
		Retryable: retryable,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// UpstreamKindOf returns the upstream classification of err, if any
func UpstreamKindOf(err error) (UpstreamKind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Type == ErrorTypeUpstream {
		return appErr.Upstream, true
	}
	return "", false
}

func IsNotFound(err error) bool      { return err != nil && TypeOf(err) == ErrorTypeNotFound }
func IsValidation(err error) bool    { return err != nil && TypeOf(err) == ErrorTypeValidation }
func IsUpstream(err error) bool      { return err != nil && TypeOf(err) == ErrorTypeUpstream }
func IsConflict(err error) bool      { return err != nil && TypeOf(err) == ErrorTypeConflict }
func IsNotComputable(err error) bool { return err != nil && TypeOf(err) == ErrorTypeNotComputable }
