package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/domain"
)

// TextHandler handles text messages
type TextHandler struct {
	api          BotAPI
	deps         Dependencies
	actions      *actions
	stateManager state.StateManager
}

// NewTextHandler creates a new text handler
func NewTextHandler(api BotAPI, deps Dependencies, stateManager state.StateManager) *TextHandler {
	return &TextHandler{
		api:          api,
		deps:         deps,
		actions:      newActions(api, deps, stateManager),
		stateManager: stateManager,
	}
}

// Handle processes a text message
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message, user Session) error {
	if h.stateManager.GetUserState(user.TelegramID) == state.ChoosingCategory {
		h.stateManager.ClearUserState(user.TelegramID)
		// A typed category name counts as a selection
		if category, err := domain.ParseCategory(strings.ReplaceAll(message.Text, " ", "_")); err == nil {
			h.stateManager.SetCategory(user.TelegramID, category)
			_, err := h.api.Send(tgbotapi.NewMessage(message.Chat.ID, "Topic set. Send me your question."))
			return err
		}
	}
	return h.handleQuestion(ctx, message, user)
}

// handleQuestion runs one dialogue turn and replies with its response
func (h *TextHandler) handleQuestion(ctx context.Context, message *tgbotapi.Message, user Session) error {
	chatID := message.Chat.ID
	if err := domain.ValidateMessage(message.Text); err != nil {
		return h.actions.replyError(chatID, user, err)
	}

	_, _ = h.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	category := h.stateManager.GetCategory(user.TelegramID)
	turn, err := h.deps.ChatService.ProcessTurn(ctx, user.UserID, message.Text, &category)
	if err != nil {
		return h.actions.replyError(chatID, user, err)
	}

	reply := turn.Response
	if _, updated := turn.Metadata[domain.MetadataAppliedUpdates]; updated {
		reply = "✅ Profile updated: " + turn.Response
	}
	msg := tgbotapi.NewMessage(chatID, reply)
	msg.ReplyToMessageID = message.MessageID
	_, err = h.api.Send(msg)
	return err
}
