package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

func symptomTurns(messages ...string) []domain.ChatTurn {
	turns := make([]domain.ChatTurn, 0, len(messages))
	for i, m := range messages {
		turns = append(turns, domain.ChatTurn{ID: string(rune('a' + i)), UserID: 1, Message: m, Category: domain.CategorySymptomCheck})
	}
	return turns
}

var symptomAnswers = map[string]string{
	"fever, cough":    `["fever", "cough"]`,
	"cough, headache": "```json\n[\"cough\", \"headache\"]\n```",
	"tired":           `["fatigue", 42, "", "  "]`,
	"broken":          `not json at all`,
}

func jitteryExtractionClient() *scriptedClient {
	return &scriptedClient{respond: func(msgs []Message) (string, error) {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		text := userText(msgs)
		if text == "rate limited" {
			return "", errRateLimited
		}
		return symptomAnswers[text], nil
	}}
}

func TestExtractSymptomsIsOrderIndependent(t *testing.T) {
	turns := symptomTurns("fever, cough", "cough, headache")
	reversed := symptomTurns("cough, headache", "fever, cough")

	for _, concurrency := range []int{1, 2, 8} {
		e := NewSymptomExtractor(jitteryExtractionClient(), concurrency, testLogger)
		assert.Equal(t, []string{"cough", "fever", "headache"}, e.ExtractSymptoms(context.Background(), turns))
		assert.Equal(t, []string{"cough", "fever", "headache"}, e.ExtractSymptoms(context.Background(), reversed))
	}
}

func TestExtractSymptomsSkipsFailures(t *testing.T) {
	e := NewSymptomExtractor(jitteryExtractionClient(), 4, testLogger)
	turns := symptomTurns("rate limited", "broken", "tired", "fever, cough")

	assert.Equal(t, []string{"cough", "fatigue", "fever"}, e.ExtractSymptoms(context.Background(), turns))
}

func TestExtractSymptomsIgnoresOtherCategories(t *testing.T) {
	client := jitteryExtractionClient()
	e := NewSymptomExtractor(client, 2, testLogger)

	turns := symptomTurns("fever, cough")
	turns[0].Category = domain.CategoryMedicationAdvice

	assert.Empty(t, e.ExtractSymptoms(context.Background(), turns))
	assert.Empty(t, client.calls)
}

func TestExtractSymptomsIsCaseSensitive(t *testing.T) {
	client := &scriptedClient{respond: func(msgs []Message) (string, error) {
		if userText(msgs) == "a" {
			return `["Fever"]`, nil
		}
		return `["fever"]`, nil
	}}
	e := NewSymptomExtractor(client, 2, testLogger)
	assert.Equal(t, []string{"Fever", "fever"}, e.ExtractSymptoms(context.Background(), symptomTurns("a", "b")))
}
