package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/menus"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

const helpText = `Available commands:
/start - Show the main menu
/help - Show this message
/category - Choose the topic of your questions
/trends - Summary of the last 30 days
/metrics - BMI and risk factors
/reminders - Schedule daily health reminders
/notifications - Show your notifications

Any other message is a question for the assistant. Mention changes like "I weigh 70 kg" and your profile is updated.`

// CommandHandler handles bot commands
type CommandHandler struct {
	api          BotAPI
	actions      *actions
	stateManager state.StateManager
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(api BotAPI, deps Dependencies, stateManager state.StateManager) *CommandHandler {
	return &CommandHandler{
		api:          api,
		actions:      newActions(api, deps, stateManager),
		stateManager: stateManager,
	}
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message, user Session) error {
	logger.Info("Handling command", "command", message.Command(), "user_id", user.UserID)
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		h.stateManager.ClearUserState(user.TelegramID)
		return menus.SendMainMenu(h.api, chatID, h.stateManager.GetCategory(user.TelegramID))
	case "help":
		_, err := h.api.Send(tgbotapi.NewMessage(chatID, helpText))
		return err
	case "category":
		return h.actions.chooseCategory(chatID, user)
	case "trends":
		return h.actions.showTrends(ctx, chatID, user)
	case "metrics":
		return h.actions.showMetrics(ctx, chatID, user)
	case "reminders":
		return h.actions.scheduleReminders(ctx, chatID, user)
	case "notifications":
		return h.actions.showNotifications(ctx, chatID, user)
	default:
		_, err := h.api.Send(tgbotapi.NewMessage(chatID, "Unknown command. Use /help to see the available commands."))
		return err
	}
}
