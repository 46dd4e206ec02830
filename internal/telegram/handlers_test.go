package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/leaderboard"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Leaderboard(ctx context.Context, period string, limit int) ([]backend.Entry, error) {
	args := m.Called(period, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]backend.Entry), args.Error(1)
}

func (m *MockService) UserStats(ctx context.Context, userID string) (backend.StatsResponse, error) {
	args := m.Called(userID)
	return args.Get(0).(backend.StatsResponse), args.Error(1)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	if msg, ok := args.Get(0).(tgbotapi.Message); ok {
		return msg, args.Error(1)
	}
	return tgbotapi.Message{}, args.Error(1)
}

func (m *MockMessageSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return nil, args.Error(1)
}

// textMsg matches a MessageConfig to chatID whose text contains want.
func textMsg(chatID int64, want string) any {
	return mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m, ok := c.(tgbotapi.MessageConfig)
		return ok && m.ChatID == chatID && strings.Contains(m.Text, want)
	})
}

func newHandler() (*Handler, *MockMessageSender, *MockService) {
	sender := new(MockMessageSender)
	svc := new(MockService)
	return NewHandler(sender, svc, "https://example.org/game/", zerolog.Nop()), sender, svc
}

func command(chatID int64, user *tgbotapi.User, text string) tgbotapi.Update {
	cmd := text
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmd = text[:i]
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     user,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

var ann = &tgbotapi.User{ID: 42, FirstName: "Ann"}

func TestHandleStart(t *testing.T) {
	h, sender, _ := newHandler()

	var sent tgbotapi.MessageConfig
	sender.On("Send", textMsg(7, "Hi, Ann")).Run(func(args mock.Arguments) {
		sent = args.Get(0).(tgbotapi.MessageConfig)
	}).Return(tgbotapi.Message{}, nil).Once()

	h.Dispatch(context.Background(), command(7, ann, "/start"))
	sender.AssertExpectations(t)

	kb, ok := sent.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	play := kb.InlineKeyboard[0][0]
	require.NotNil(t, play.URL)
	assert.Equal(t, "https://example.org/game/?user_id=42&user_name=Ann", *play.URL)
}

func TestHandlePlayWithoutUser(t *testing.T) {
	h, sender, _ := newHandler()
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		m := c.(tgbotapi.MessageConfig)
		kb := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		return *kb.InlineKeyboard[0][0].URL == "https://example.org/game/"
	})).Return(tgbotapi.Message{}, nil).Once()

	h.HandlePlay(7, nil)
	sender.AssertExpectations(t)
}

func TestHandleLeaderboard(t *testing.T) {
	t.Run("renders rows and marks the caller", func(t *testing.T) {
		h, sender, svc := newHandler()
		svc.On("Leaderboard", "weekly", leaderboardLimit).Return([]backend.Entry{
			{Rank: 1, UserID: "1", Name: "Bob", Score: 30},
			{Rank: 2, UserID: "42", Name: "Ann", Score: 20},
		}, nil).Once()
		sender.On("Send", textMsg(7, "🥈 Ann: 20 (you)")).Return(tgbotapi.Message{}, nil).Once()

		h.Dispatch(context.Background(), command(7, ann, "/leaderboard weekly"))
		svc.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("unknown period falls back to daily", func(t *testing.T) {
		h, sender, svc := newHandler()
		svc.On("Leaderboard", "daily", leaderboardLimit).Return([]backend.Entry{}, nil).Once()
		sender.On("Send", textMsg(7, leaderboard.PlaceholderEmpty)).Return(tgbotapi.Message{}, nil).Once()

		h.HandleLeaderboard(context.Background(), 7, ann, "yearly")
		svc.AssertExpectations(t)
		sender.AssertExpectations(t)
	})

	t.Run("backend failure shows placeholder", func(t *testing.T) {
		h, sender, svc := newHandler()
		svc.On("Leaderboard", "all", leaderboardLimit).Return(nil, errors.New("down")).Once()
		sender.On("Send", textMsg(7, leaderboard.PlaceholderFailed)).Return(tgbotapi.Message{}, nil).Once()

		h.HandleLeaderboard(context.Background(), 7, ann, "all")
		sender.AssertExpectations(t)
	})
}

func TestHandleBalance(t *testing.T) {
	t.Run("shows tx", func(t *testing.T) {
		h, sender, svc := newHandler()
		svc.On("UserStats", "42").Return(backend.StatsResponse{TX: 12, BestScore: 80}, nil).Once()
		sender.On("Send", textMsg(7, "TX balance: 12")).Return(tgbotapi.Message{}, nil).Once()

		h.Dispatch(context.Background(), command(7, ann, "/balance"))
		sender.AssertExpectations(t)
	})

	t.Run("failure reads as zero", func(t *testing.T) {
		h, sender, svc := newHandler()
		svc.On("UserStats", "42").Return(backend.StatsResponse{TX: 99}, errors.New("timeout")).Once()
		sender.On("Send", textMsg(7, "TX balance: 0")).Return(tgbotapi.Message{}, nil).Once()

		h.HandleBalance(context.Background(), 7, ann)
		sender.AssertExpectations(t)
	})
}

func TestDispatchCallback(t *testing.T) {
	h, sender, svc := newHandler()
	svc.On("UserStats", "42").Return(backend.StatsResponse{TX: 3}, nil).Once()
	sender.On("Send", textMsg(9, "TX balance: 3")).Return(tgbotapi.Message{}, nil).Once()
	sender.On("Request", tgbotapi.NewCallback("cb1", "")).Return(nil, nil).Once()

	h.Dispatch(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    ann,
		Data:    cbBalance,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 9}},
	}})
	sender.AssertExpectations(t)
}

func TestDispatchIgnoresPlainText(t *testing.T) {
	h, sender, svc := newHandler()
	h.Dispatch(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: ann,
		Chat: &tgbotapi.Chat{ID: 7},
		Text: "hello",
	}})
	sender.AssertNotCalled(t, "Send", mock.Anything)
	svc.AssertNotCalled(t, "UserStats", mock.Anything)
}
