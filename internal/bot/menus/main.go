package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/keyboards"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

// Sender is the part of the Telegram API the menus need
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SendMainMenu sends the main menu to a chat
func SendMainMenu(api Sender, chatID int64, current domain.Category) error {
	text := fmt.Sprintf(`🩺 *Health assistant*

Ask me anything about your health and I will answer using your profile.
Tell me about changes ("I'm 35 now", "I weigh 72 kg") and I will update your profile.

Current topic: %s

⚠️ *Important:* this is general information, always consult a doctor!`, keyboards.CategoryLabel(current))

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboards.MainMenu()
	_, err := api.Send(msg)
	return err
}

// SendCategoryMenu asks the user to pick a topic
func SendCategoryMenu(api Sender, chatID int64, current domain.Category) error {
	msg := tgbotapi.NewMessage(chatID, "Choose a topic for your next questions:")
	msg.ReplyMarkup = keyboards.CategoryMenu(current)
	_, err := api.Send(msg)
	return err
}

// SendText sends plain text with a "main menu" button
func SendText(api Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboards.BackToMenu()
	_, err := api.Send(msg)
	return err
}

// FormatTrends renders a 30-day health summary
func FormatTrends(t *domain.HealthTrends) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📈 Last %d days: %d health-related conversations\n\n", t.TimeframeDays, t.TotalInteractions)
	sb.WriteString(t.AnalysisText)
	sb.WriteString("\n")

	if len(t.RecentSymptoms) > 0 {
		sb.WriteString("\nMentioned symptoms: ")
		sb.WriteString(strings.Join(t.RecentSymptoms, ", "))
		sb.WriteString("\n")
	}
	if len(t.RecommendedActions) > 0 {
		sb.WriteString("\nRecommendations:\n")
		for _, action := range t.RecommendedActions {
			fmt.Fprintf(&sb, "• %s\n", action)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatMetrics renders BMI, risk factors and the general assessment
func FormatMetrics(m *domain.HealthMetrics) string {
	var sb strings.Builder
	if m.BMI != nil {
		fmt.Fprintf(&sb, "⚖️ BMI: %.2f (%s)\n", *m.BMI, m.BMICategory)
	} else {
		sb.WriteString("⚖️ BMI: add your height and weight to calculate it\n")
	}

	if len(m.RiskFactors) > 0 {
		sb.WriteString("\nRisk factors:\n")
		for _, f := range m.RiskFactors {
			fmt.Fprintf(&sb, "• %s\n", f)
		}
	}

	if gh := m.GeneralHealth; gh != nil {
		sb.WriteString("\n")
		if gh.Assessment != "" {
			sb.WriteString(gh.Assessment)
			sb.WriteString("\n")
		}
		for _, note := range gh.Notes {
			fmt.Fprintf(&sb, "• %s\n", note)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatNotifications renders visible notifications, newest first
func FormatNotifications(items []domain.Notification, unread int64) string {
	if len(items) == 0 {
		return "🔔 No notifications yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔔 Notifications (%d unread)\n", unread)
	for _, n := range items {
		marker := "🆕"
		if n.IsRead {
			marker = "▫️"
		}
		fmt.Fprintf(&sb, "\n%s %s · %s\n", marker, n.Title, n.ScheduledFor.Format("02 Jan 15:04"))
		if n.Message != "" {
			sb.WriteString(n.Message)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
