package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

func TestDetectDegradesToNoUpdate(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "upstream failure", err: errRateLimited},
		{name: "prose", response: "I can help with that."},
		{name: "truncated json", response: `{"shouldUpdate": true, "updates": {"age": 3`},
		{name: "missing shouldUpdate", response: `{"updates": {"age": 31}}`},
		{name: "shouldUpdate without updates", response: `{"shouldUpdate": true}`},
		{name: "updates not an object", response: `{"shouldUpdate": true, "updates": [31]}`},
		{name: "only invalid fields", response: `{"shouldUpdate": true, "updates": {"age": -3, "eye_color": "blue"}}`},
		{name: "wrong type", response: `{"shouldUpdate": "yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{respond: func([]Message) (string, error) { return tt.response, tt.err }}
			d := NewProfileUpdateDetector(client, testLogger)

			decision := d.Detect(context.Background(), "msg", domain.HealthProfile{UserID: 1})
			assert.False(t, decision.ShouldUpdate)
			assert.Empty(t, decision.Updates)
		})
	}
}

func TestDetectKeepsValidFieldsOnly(t *testing.T) {
	client := &scriptedClient{respond: func([]Message) (string, error) {
		return `Here you go: {"shouldUpdate": true, "updates": {"height": "182", "gender": "alien", "medical_conditions": ["asthma", "diabetes"]}}`, nil
	}}
	d := NewProfileUpdateDetector(client, testLogger)

	decision := d.Detect(context.Background(), "I'm 182cm, I have asthma and diabetes", domain.HealthProfile{})
	require.True(t, decision.ShouldUpdate)
	assert.Equal(t, "height_cm: 182, medical_conditions: asthma, diabetes", decision.Updates.Confirmation())
}

func TestDetectEmbedsCurrentProfile(t *testing.T) {
	client := &scriptedClient{respond: func([]Message) (string, error) { return `{"shouldUpdate": false}`, nil }}
	d := NewProfileUpdateDetector(client, testLogger)

	d.Detect(context.Background(), "hello", domain.HealthProfile{UserID: 7, Age: intPtr(52), Allergies: "latex"})

	require.Len(t, client.calls, 1)
	msgs := client.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, `"age":52`)
	assert.Contains(t, msgs[0].Content, `"allergies":"latex"`)
	assert.Equal(t, "hello", msgs[1].Content)
}
