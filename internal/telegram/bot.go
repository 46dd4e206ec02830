// internal/telegram/bot.go
//
// Telegram bot: long-polls updates and routes commands and button callbacks.
// Commands: /start /play /help /leaderboard [period] /balance

package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	bot     *tgbotapi.BotAPI
	handler *Handler
	log     zerolog.Logger
}

// NewBot connects to the Bot API with token.
func NewBot(token, gameURL string, svc Service, log zerolog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("bot", botAPI.Self.UserName).Logger()
	return &Bot{
		bot:     botAPI,
		handler: NewHandler(botAPI, svc, gameURL, log),
		log:     log,
	}, nil
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	b.log.Info().Msg("bot started")
	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			b.log.Info().Msg("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handler.Dispatch(ctx, update)
		}
	}
}

// Dispatch routes one update to its handler.
func (h *Handler) Dispatch(ctx context.Context, update tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if msg := update.Message; msg != nil {
		switch msg.Command() {
		case "start":
			h.HandleStart(msg.Chat.ID, msg.From)
		case "play":
			h.HandlePlay(msg.Chat.ID, msg.From)
		case "help":
			h.HandleHelp(msg.Chat.ID)
		case "leaderboard", "top":
			h.HandleLeaderboard(ctx, msg.Chat.ID, msg.From, strings.TrimSpace(msg.CommandArguments()))
		case "balance":
			h.HandleBalance(ctx, msg.Chat.ID, msg.From)
		}
		return
	}

	callback := update.CallbackQuery
	if callback == nil || callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	switch {
	case strings.HasPrefix(callback.Data, cbLeaderboardPre):
		h.HandleLeaderboard(ctx, chatID, callback.From, strings.TrimPrefix(callback.Data, cbLeaderboardPre))
	case callback.Data == cbBalance:
		h.HandleBalance(ctx, chatID, callback.From)
	}
	// Answer callback query so the loading icon on the button disappears
	if _, err := h.Bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		h.log.Debug().Err(err).Msg("answer callback")
	}
}
