package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/interfaces"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// UpdateHandler handles telegram updates and coordinates other handlers
type UpdateHandler struct {
	api             BotAPI
	userService     interfaces.UserServiceInterface
	stateManager    state.StateManager
	callbackHandler *CallbackHandler
	commandHandler  *CommandHandler
	textHandler     *TextHandler
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(api BotAPI, deps Dependencies, stateManager state.StateManager) *UpdateHandler {
	return &UpdateHandler{
		api:             api,
		userService:     deps.UserService,
		stateManager:    stateManager,
		callbackHandler: NewCallbackHandler(api, deps, stateManager),
		commandHandler:  NewCommandHandler(api, deps, stateManager),
		textHandler:     NewTextHandler(api, deps, stateManager),
	}
}

// Handle processes a telegram update
func (h *UpdateHandler) Handle(ctx context.Context, update tgbotapi.Update) error {
	var from *tgbotapi.User
	switch {
	case update.Message != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = update.CallbackQuery.From
	}
	if from == nil {
		return nil
	}
	ctx = logger.ContextWithRequestID(ctx, fmt.Sprintf("tg-%d", update.UpdateID))

	// Get or create user
	profile, err := h.userService.RegisterTelegramUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
	if err != nil {
		logger.WithContext(ctx, nil).Error("Error getting/creating user", "telegram_id", from.ID, "error", err)
		return fmt.Errorf("failed to get/create user: %w", err)
	}
	user := Session{TelegramID: from.ID, UserID: profile.UserID}

	if update.CallbackQuery != nil {
		return h.callbackHandler.Handle(ctx, update.CallbackQuery, user)
	}

	if update.Message.IsCommand() {
		return h.commandHandler.Handle(ctx, update.Message, user)
	}

	if update.Message.Text != "" {
		return h.textHandler.Handle(ctx, update.Message, user)
	}

	return nil
}
