package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
)

const symptomExtractionPrompt = "Extract mentioned symptoms from the following health-related message. " +
	"Return a JSON array of short symptom names and nothing else."

// SymptomExtractor collects the distinct symptoms mentioned across symptom_check turns
type SymptomExtractor struct {
	client      CompletionClient
	concurrency int
	logger      *slog.Logger
}

func NewSymptomExtractor(client CompletionClient, concurrency int, logger *slog.Logger) *SymptomExtractor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SymptomExtractor{client: client, concurrency: concurrency, logger: logger}
}

// ExtractSymptoms returns the sorted set of symptoms. Turns whose extraction
// fails contribute nothing.
func (e *SymptomExtractor) ExtractSymptoms(ctx context.Context, turns []domain.ChatTurn) []string {
	var (
		mu  sync.Mutex
		set = make(map[string]struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, turn := range turns {
		if turn.Category != domain.CategorySymptomCheck {
			continue
		}
		turn := turn
		g.Go(func() error {
			symptoms, err := e.extract(gctx, turn.Message)
			if err != nil {
				e.logger.Warn("Symptom extraction failed",
					"user_id", turn.UserID,
					"turn_id", turn.ID,
					"kind", errorKind(err),
					"error", err)
				return nil
			}
			mu.Lock()
			for _, s := range symptoms {
				set[s] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (e *SymptomExtractor) extract(ctx context.Context, message string) ([]string, error) {
	resp, err := e.client.Complete(ctx, []Message{
		{Role: RoleSystem, Content: symptomExtractionPrompt},
		{Role: RoleUser, Content: message},
	}, CompletionOptions{Temperature: 0.1})
	if err != nil {
		return nil, err
	}
	items, err := parseStringArray(resp)
	if err != nil {
		return nil, apperrors.NewUpstreamError(apperrors.UpstreamMalformed, false, err)
	}
	return items, nil
}

// parseStringArray decodes a JSON array out of a completion, keeping only
// non-empty string entries
func parseStringArray(resp string) ([]string, error) {
	raw := extractJSON(resp, '[', ']')
	if raw == "" {
		return nil, errors.New("no JSON array in response")
	}
	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
