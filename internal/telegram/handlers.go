// internal/telegram/handlers.go
//
// Command handlers. Each replies through a MessageSender so tests can mock
// the Bot API.
// Notes:
//   - Backend failures never surface as errors: the leaderboard shows its
//     placeholder and the balance reads as zero.
//   - The game opens from a URL button carrying user_id/user_name.

package telegram

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/leaderboard"
)

// MessageSender is the part of *tgbotapi.BotAPI the handlers use.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Service is the game backend as seen from the bot. *backend.Client
// implements it.
type Service interface {
	leaderboard.Fetcher
	UserStats(ctx context.Context, userID string) (backend.StatsResponse, error)
}

const (
	cbBalance        = "balance"
	cbLeaderboardPre = "leaderboard_"
	leaderboardLimit = 10
)

type Handler struct {
	Bot     MessageSender
	Service Service
	Board   *leaderboard.Board
	GameURL string
	log     zerolog.Logger
}

func NewHandler(bot MessageSender, svc Service, gameURL string, log zerolog.Logger) *Handler {
	return &Handler{
		Bot:     bot,
		Service: svc,
		Board:   leaderboard.New(svc, log),
		GameURL: gameURL,
		log:     log,
	}
}

// HandleStart - /start
func (h *Handler) HandleStart(chatID int64, user *tgbotapi.User) {
	name := "there"
	if user != nil && user.FirstName != "" {
		name = user.FirstName
	}
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"👋 Hi, %s!\n\nUnscramble as many words as you can in 60 seconds. "+
			"You have 3 lives; streaks score extra and every 20 points bank 1 TX.", name))
	reply.ReplyMarkup = h.menuKeyboard(user)
	sendMessage(h.Bot, h.log, reply)
}

// HandlePlay - /play
func (h *Handler) HandlePlay(chatID int64, user *tgbotapi.User) {
	reply := tgbotapi.NewMessage(chatID, "🎮 Tap the button to start Word Scramble.")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🎮 Play", h.gameLink(user))),
	)
	sendMessage(h.Bot, h.log, reply)
}

// HandleHelp - /help
func (h *Handler) HandleHelp(chatID int64) {
	sendMessage(h.Bot, h.log, tgbotapi.NewMessage(chatID,
		"/play - open the game\n"+
			"/leaderboard [daily|weekly|all] - top scores\n"+
			"/balance - your TX balance"))
}

// HandleLeaderboard renders the board for period, marking the caller's row.
// Failures show up as the board's placeholder text.
func (h *Handler) HandleLeaderboard(ctx context.Context, chatID int64, user *tgbotapi.User, period string) {
	switch period {
	case "daily", "weekly", "all":
	default:
		period = "daily"
	}
	res := h.Board.FetchTop(ctx, period, leaderboardLimit)

	reply := tgbotapi.NewMessage(chatID, res.Text(userID(user)))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Today", cbLeaderboardPre+"daily"),
			tgbotapi.NewInlineKeyboardButtonData("Week", cbLeaderboardPre+"weekly"),
			tgbotapi.NewInlineKeyboardButtonData("All time", cbLeaderboardPre+"all"),
		),
	)
	sendMessage(h.Bot, h.log, reply)
}

// HandleBalance - /balance. An unreachable backend reads as zero.
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, user *tgbotapi.User) {
	uid := userID(user)
	st, err := h.Service.UserStats(ctx, uid)
	if err != nil {
		h.log.Warn().Err(err).Str("user", uid).Msg("load balance")
		st = backend.StatsResponse{}
	}
	text := fmt.Sprintf("💰 TX balance: %d", st.TX)
	if st.BestScore > 0 {
		text += fmt.Sprintf("\n🏆 Best score: %d", st.BestScore)
	}
	sendMessage(h.Bot, h.log, tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) menuKeyboard(user *tgbotapi.User) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🎮 Play Word Scramble", h.gameLink(user))),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", cbLeaderboardPre+"daily"),
			tgbotapi.NewInlineKeyboardButtonData("💰 Balance", cbBalance),
		),
	)
}

// gameLink appends the player's id and name so the page can identify itself
// with X-User-Id when it is opened outside the mini-app shell.
func (h *Handler) gameLink(user *tgbotapi.User) string {
	if user == nil {
		return h.GameURL
	}
	u, err := url.Parse(h.GameURL)
	if err != nil {
		return h.GameURL
	}
	q := u.Query()
	q.Set("user_id", userID(user))
	if user.FirstName != "" {
		q.Set("user_name", user.FirstName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func userID(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	return strconv.FormatInt(user.ID, 10)
}
