// internal/telegram/helpers.go

package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func sendMessage(bot MessageSender, log zerolog.Logger, msg tgbotapi.Chattable) {
	if _, err := bot.Send(msg); err != nil {
		log.Error().Err(err).Msg("send message")
	}
}
