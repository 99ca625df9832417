package handlers

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/menus"
	"github.com/vladimiradmaev/health-dialogue/internal/interfaces"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	UserService         interfaces.UserServiceInterface
	ChatService         interfaces.ChatServiceInterface
	HealthService       interfaces.HealthMonitorServiceInterface
	NotificationService interfaces.NotificationServiceInterface
}

// BotAPI is the subset of *tgbotapi.BotAPI the handlers use
type BotAPI interface {
	menus.Sender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Session identifies the Telegram account and the profile it is bound to
type Session struct {
	TelegramID int64
	UserID     uint
}
