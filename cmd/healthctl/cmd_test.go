package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

func init() {
	color.NoColor = true
}

func TestParsePoints(t *testing.T) {
	end := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	points, err := parsePoints([]string{"80", "79.5", "78"}, end, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, end.Add(-48*time.Hour), points[0].Timestamp)
	assert.Equal(t, end, points[2].Timestamp)
	assert.Equal(t, 79.5, points[1].Value)

	_, err = parsePoints([]string{"80", "abc"}, end, time.Hour)
	assert.EqualError(t, err, `invalid value "abc"`)

	_, err = parsePoints([]string{"80"}, end, 0)
	assert.Error(t, err)
}

func TestTrendCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"increasing", []string{"trend", "1", "2", "4"}, "increasing magnitude=3.00 volatility=0.50\n"},
		{"decreasing", []string{"trend", "10", "7"}, "decreasing magnitude=3.00 volatility=0.00\n"},
		{"single value", []string{"trend", "5"}, "stable magnitude=0.00 volatility=0.00\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tt.args)
			require.NoError(t, rootCmd.Execute())
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestParseUserID(t *testing.T) {
	id, err := parseUserID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"0", "-1", "abc", ""} {
		_, err := parseUserID(bad)
		assert.Error(t, err, bad)
	}
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	printStats(&out, &services.UserStats{
		ChatStats: map[domain.Category]int64{
			domain.CategorySymptomCheck: 2,
			domain.CategoryGeneral:      1,
		},
		NotificationStats: map[domain.NotificationType]int64{},
	})

	assert.Equal(t, "Chats\n"+
		"  general                1\n"+
		"  symptom_check          2\n"+
		"Notifications\n"+
		"  none\n", out.String())
}

func TestPrintReportJSON(t *testing.T) {
	var out bytes.Buffer
	report := &domain.HealthReport{UserID: 7, Recommendations: []string{"Walk daily"}}
	require.NoError(t, printReport(&out, report, true))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.EqualValues(t, 7, decoded["user_id"])
	assert.Equal(t, []any{"Walk daily"}, decoded["recommendations"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
