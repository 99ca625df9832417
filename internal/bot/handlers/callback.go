package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/keyboards"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/menus"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	api          BotAPI
	actions      *actions
	stateManager state.StateManager
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(api BotAPI, deps Dependencies, stateManager state.StateManager) *CallbackHandler {
	return &CallbackHandler{
		api:          api,
		actions:      newActions(api, deps, stateManager),
		stateManager: stateManager,
	}
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery, user Session) error {
	// Answer the callback query first to remove the loading state
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}
	if query.Message == nil {
		return nil
	}
	chatID := query.Message.Chat.ID

	if strings.HasPrefix(query.Data, keyboards.CallbackCategoryPrefix) {
		return h.handleCategorySelected(chatID, user, strings.TrimPrefix(query.Data, keyboards.CallbackCategoryPrefix))
	}

	switch query.Data {
	case keyboards.CallbackMainMenu:
		h.stateManager.ClearUserState(user.TelegramID)
		return menus.SendMainMenu(h.api, chatID, h.stateManager.GetCategory(user.TelegramID))
	case keyboards.CallbackCategory:
		return h.actions.chooseCategory(chatID, user)
	case keyboards.CallbackTrends:
		return h.actions.showTrends(ctx, chatID, user)
	case keyboards.CallbackMetrics:
		return h.actions.showMetrics(ctx, chatID, user)
	case keyboards.CallbackNotifications:
		return h.actions.showNotifications(ctx, chatID, user)
	case keyboards.CallbackReminders:
		return h.actions.scheduleReminders(ctx, chatID, user)
	case keyboards.CallbackMarkAllRead:
		return h.actions.markAllRead(ctx, chatID, user)
	default:
		_, err := h.api.Send(tgbotapi.NewMessage(chatID, "Unknown action. Use /start to open the menu."))
		return err
	}
}

func (h *CallbackHandler) handleCategorySelected(chatID int64, user Session, raw string) error {
	category, err := domain.ParseCategory(raw)
	if err != nil {
		return h.actions.chooseCategory(chatID, user)
	}
	h.stateManager.SetCategory(user.TelegramID, category)
	h.stateManager.ClearUserState(user.TelegramID)

	text := fmt.Sprintf("Topic set to %s. Send me your question.", keyboards.CategoryLabel(category))
	return menus.SendText(h.api, chatID, text)
}
