package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// Turn pipeline stages, logged as the "stage" attribute
const (
	stageContextLoaded = "context_loaded"
	stageDetectionRun  = "detection_run"
	stageUpdatePath    = "update_path"
	stageAnswerPath    = "answer_path"
	stagePersisted     = "persisted"
)

// ChatService runs the turn pipeline and serves chat history
type ChatService struct {
	profiles    domain.ProfileStore
	chats       domain.ChatStore
	detector    *ProfileUpdateDetector
	synthesizer *ResponseSynthesizer
	logger      *slog.Logger
}

func NewChatService(
	profiles domain.ProfileStore,
	chats domain.ChatStore,
	detector *ProfileUpdateDetector,
	synthesizer *ResponseSynthesizer,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		profiles:    profiles,
		chats:       chats,
		detector:    detector,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// ProcessTurn handles one inbound message. The returned turn is always persisted;
// on error nothing is written to the chat store.
func (s *ChatService) ProcessTurn(ctx context.Context, userID uint, message string, category *domain.Category) (*domain.ChatTurn, error) {
	cat := domain.OrDefault(category)
	log := logger.WithContext(ctx, s.logger).With("user_id", userID, "category", cat)

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Debug("Turn stage", "stage", stageContextLoaded)

	decision := s.detector.Detect(ctx, message, *profile)
	log.Debug("Turn stage", "stage", stageDetectionRun, "should_update", decision.ShouldUpdate)

	input := domain.ChatTurnInput{
		UserID:   userID,
		Message:  message,
		Category: cat,
		Metadata: map[string]any{},
	}

	if decision.ShouldUpdate {
		log.Debug("Turn stage", "stage", stageUpdatePath, "fields", len(decision.Updates))
		if _, err := s.profiles.ApplyPartialUpdate(ctx, userID, decision.Updates); err != nil {
			return nil, err
		}
		input.Response = decision.Updates.Confirmation()
		input.Metadata[domain.MetadataAppliedUpdates] = decision.Updates.AsMap()
	} else {
		log.Debug("Turn stage", "stage", stageAnswerPath)
		answer, err := s.synthesizer.Synthesize(ctx, message, *profile, cat)
		if err != nil {
			log.Warn("Response synthesis failed", "kind", errorKind(err), "error", err)
			return nil, err
		}
		input.Response = answer
	}

	turn, err := s.chats.Append(ctx, input)
	if err != nil {
		return nil, err
	}
	log.Info("Turn processed", "stage", stagePersisted, "turn_id", turn.ID, "profile_updated", decision.ShouldUpdate)
	return turn, nil
}

// ChatHistoryOptions narrows and paginates history listings
type ChatHistoryOptions struct {
	Page     int
	Limit    int
	Category *domain.Category
	Since    *time.Time
	Before   *time.Time
}

// ChatHistory is one page of chat turns, newest first
type ChatHistory struct {
	Items       []domain.ChatTurn `json:"items"`
	Total       int64             `json:"total"`
	CurrentPage int               `json:"current_page"`
	TotalPages  int               `json:"total_pages"`
	HasMore     bool              `json:"has_more"`
}

func (s *ChatService) GetChatHistory(ctx context.Context, userID uint, opts ChatHistoryOptions) (*ChatHistory, error) {
	return s.queryHistory(ctx, userID, "", opts)
}

// SearchChats matches term case-insensitively against message or response
func (s *ChatService) SearchChats(ctx context.Context, userID uint, term string, opts ChatHistoryOptions) (*ChatHistory, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperrors.NewValidationError("search term is required")
	}
	return s.queryHistory(ctx, userID, term, opts)
}

func (s *ChatService) queryHistory(ctx context.Context, userID uint, term string, opts ChatHistoryOptions) (*ChatHistory, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	page, limit := domain.NormalizePage(opts.Page, opts.Limit)
	q := domain.ChatQuery{
		Since:  opts.Since,
		Before: opts.Before,
		Search: term,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Order:  domain.NewestFirst,
	}
	if opts.Category != nil {
		q.Categories = []domain.Category{*opts.Category}
	}

	result, err := s.chats.Query(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}

	totalPages := int((result.TotalCount + int64(limit) - 1) / int64(limit))
	return &ChatHistory{
		Items:       result.Items,
		Total:       result.TotalCount,
		CurrentPage: page,
		TotalPages:  totalPages,
		HasMore:     page < totalPages,
	}, nil
}

// GetChatThread returns a single turn owned by userID
func (s *ChatService) GetChatThread(ctx context.Context, userID uint, turnID string) (*domain.ChatTurn, error) {
	return s.chats.Get(ctx, userID, turnID)
}

// DeleteChatHistory removes matching turns and returns how many were deleted
func (s *ChatService) DeleteChatHistory(ctx context.Context, userID uint, filter domain.ChatDeleteFilter) (int64, error) {
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return 0, err
	}
	deleted, err := s.chats.Delete(ctx, userID, filter)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Chat history deleted", "user_id", userID, "deleted", deleted)
	return deleted, nil
}
