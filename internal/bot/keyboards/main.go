package keyboards

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

// Callback data values
const (
	CallbackMainMenu       = "main_menu"
	CallbackCategory       = "category"
	CallbackTrends         = "trends"
	CallbackMetrics        = "metrics"
	CallbackNotifications  = "notifications"
	CallbackReminders      = "reminders"
	CallbackCategoryPrefix = "category:"
	CallbackMarkAllRead    = "notifications_read_all"
)

var categoryLabels = map[domain.Category]string{
	domain.CategoryGeneral:              "💬 General",
	domain.CategorySymptomCheck:         "🤒 Symptoms",
	domain.CategoryMedicationAdvice:     "💊 Medication",
	domain.CategoryDietRecommendation:   "🥗 Diet",
	domain.CategoryDoctorRecommendation: "🩺 Doctor",
	domain.CategoryMythBusting:          "🔍 Myths",
}

// CategoryLabel is the button text for a category
func CategoryLabel(c domain.Category) string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// MainMenu creates the main menu keyboard
func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗂 Topic", CallbackCategory),
			tgbotapi.NewInlineKeyboardButtonData("📈 Trends", CallbackTrends),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚖️ Metrics", CallbackMetrics),
			tgbotapi.NewInlineKeyboardButtonData("🔔 Notifications", CallbackNotifications),
		),
	)
}

// CategoryMenu lists every category, marking the current one
func CategoryMenu(current domain.Category) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range domain.AllCategories {
		label := CategoryLabel(c)
		if c == current {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, CallbackCategoryPrefix+string(c)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", CallbackMainMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// NotificationsMenu creates the notification actions keyboard
func NotificationsMenu(hasUnread bool) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏰ Schedule reminders", CallbackReminders),
		),
	)

	if hasUnread {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✔️ Mark all read", CallbackMarkAllRead),
			),
		)
	}

	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", CallbackMainMenu),
		),
	)

	return keyboard
}

// BackToMenu is a single "main menu" button
func BackToMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Main menu", CallbackMainMenu),
		),
	)
}
