package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/vladimiradmaev/health-dialogue/internal/bot/handlers"
	"github.com/vladimiradmaev/health-dialogue/internal/bot/state"
	"github.com/vladimiradmaev/health-dialogue/internal/logger"
)

// maxConcurrentUpdates bounds how many updates are processed at once
const maxConcurrentUpdates = 8

type Bot struct {
	api     *tgbotapi.BotAPI
	handler *handlers.UpdateHandler
}

func NewBot(token string, deps handlers.Dependencies, stateManager state.StateManager) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot authorized", "account", api.Self.UserName)
	return &Bot{
		api:     api,
		handler: handlers.NewUpdateHandler(api, deps, stateManager),
	}, nil
}

// Start polls for updates until ctx is cancelled and waits for in-flight updates
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	logger.Info("Bot is now listening for updates")

	var g errgroup.Group
	g.SetLimit(maxConcurrentUpdates)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Bot is shutting down")
			b.api.StopReceivingUpdates()
			_ = g.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				_ = g.Wait()
				return nil
			}
			g.Go(func() error {
				if err := b.handler.Handle(ctx, update); err != nil {
					logger.Error("Error handling update", "update_id", update.UpdateID, "error", err)
				}
				return nil
			})
		}
	}
}
