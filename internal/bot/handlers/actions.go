package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/keyboards"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/menus"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	apperrors "github.com/vladimiradmaev/health-dialogue/internal/errors"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
	"github.com/vladimiradmaev/health-dialogue/internal/services"
)

const notificationsPageSize = 5

// actions are the menu operations reachable from both commands and buttons
type actions struct {
	api          BotAPI
	deps         Dependencies
	stateManager state.StateManager
}

func newActions(api BotAPI, deps Dependencies, stateManager state.StateManager) *actions {
	return &actions{api: api, deps: deps, stateManager: stateManager}
}

func (a *actions) chooseCategory(chatID int64, user Session) error {
	a.stateManager.SetUserState(user.TelegramID, state.ChoosingCategory)
	return menus.SendCategoryMenu(a.api, chatID, a.stateManager.GetCategory(user.TelegramID))
}

func (a *actions) showTrends(ctx context.Context, chatID int64, user Session) error {
	trends, err := a.deps.HealthService.GetHealthTrends(ctx, user.UserID)
	if err != nil {
		return a.replyError(chatID, user, err)
	}
	return menus.SendText(a.api, chatID, menus.FormatTrends(trends))
}

func (a *actions) showMetrics(ctx context.Context, chatID int64, user Session) error {
	metrics, err := a.deps.HealthService.GetHealthMetrics(ctx, user.UserID)
	if err != nil {
		return a.replyError(chatID, user, err)
	}
	return menus.SendText(a.api, chatID, menus.FormatMetrics(metrics))
}

func (a *actions) scheduleReminders(ctx context.Context, chatID int64, user Session) error {
	created, err := a.deps.NotificationService.ScheduleDefaultReminders(ctx, user.UserID)
	if err != nil {
		return a.replyError(chatID, user, err)
	}
	text := "⏰ Scheduled reminders:"
	for _, n := range created {
		text += fmt.Sprintf("\n• %s at %s", n.Title, n.ScheduledFor.Format("02 Jan 15:04"))
	}
	return menus.SendText(a.api, chatID, text)
}

func (a *actions) showNotifications(ctx context.Context, chatID int64, user Session) error {
	page, err := a.deps.NotificationService.GetUserNotifications(ctx, user.UserID, services.NotificationListOptions{Limit: notificationsPageSize})
	if err != nil {
		return a.replyError(chatID, user, err)
	}
	stats, err := a.deps.NotificationService.GetNotificationStats(ctx, user.UserID)
	if err != nil {
		return a.replyError(chatID, user, err)
	}

	msg := tgbotapi.NewMessage(chatID, menus.FormatNotifications(page.Items, stats.UnreadCount))
	msg.ReplyMarkup = keyboards.NotificationsMenu(stats.UnreadCount > 0)
	_, err = a.api.Send(msg)
	return err
}

func (a *actions) markAllRead(ctx context.Context, chatID int64, user Session) error {
	updated, err := a.deps.NotificationService.MarkAllAsRead(ctx, user.UserID)
	if err != nil {
		return a.replyError(chatID, user, err)
	}
	return menus.SendText(a.api, chatID, fmt.Sprintf("✔️ Marked %d notifications as read.", updated))
}

// replyError tells the user what went wrong without leaking internals.
// The error is logged and swallowed so the update loop keeps going.
func (a *actions) replyError(chatID int64, user Session, err error) error {
	logger.Warn("Bot request failed",
		"user_id", user.UserID,
		"error_type", apperrors.TypeOf(err),
		"error", err)
	_, sendErr := a.api.Send(tgbotapi.NewMessage(chatID, userMessage(err)))
	return sendErr
}

func userMessage(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return "⚠️ " + appErr.PublicMessage()
		}
		return "⚠️ Invalid input."
	case apperrors.ErrorTypeUpstream:
		kind, _ := apperrors.UpstreamKindOf(err)
		switch kind {
		case apperrors.UpstreamRateLimited:
			return "⏳ The assistant is getting too many requests. Please try again in a minute."
		case apperrors.UpstreamTimeout:
			return "⏳ The assistant took too long to answer. Please try again."
		default:
			return "😔 The assistant is unavailable right now. Please try again later."
		}
	case apperrors.ErrorTypeNotFound:
		return "🤷 Nothing found."
	case apperrors.ErrorTypeConflict:
		return "⚠️ Your profile was being updated at the same time. Please repeat your message."
	default:
		return "😔 Something went wrong. Please try again."
	}
}
