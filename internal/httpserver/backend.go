// internal/httpserver/backend.go
//
// What a play session reports to: a remote backend over HTTP, or
// LocalBackend answering the same contract from this process's store.

package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/wordscramble/internal/backend"
	"github.com/robalobadob/wordscramble/internal/game"
	"github.com/robalobadob/wordscramble/internal/leaderboard"
	"github.com/robalobadob/wordscramble/internal/store"
)

// Backend is what a play session talks to: the remote HTTP backend
// (*backend.Client) or LocalBackend over this process's store.
type Backend interface {
	game.Submitter
	leaderboard.Fetcher
	UserStats(ctx context.Context, userID string) (backend.StatsResponse, error)
}

var _ Backend = (*backend.Client)(nil)

// LocalBackend serves the backend contract from a store without a network hop.
type LocalBackend struct {
	Store store.Store
	Now   func() time.Time
}

func (b LocalBackend) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b LocalBackend) SubmitScore(ctx context.Context, s game.ScoreSubmission) error {
	_, err := b.Store.SaveScore(ctx, store.Score{
		UserID:   s.UserID,
		UserName: s.UserName,
		Score:    s.Score,
		Words:    s.WordsSolved,
		TxEarned: s.TxEarned,
	})
	return err
}

func (b LocalBackend) Leaderboard(ctx context.Context, period string, limit int) ([]backend.Entry, error) {
	p, ok := store.ParsePeriod(period)
	if !ok {
		return nil, errors.New("unknown period " + period)
	}
	rows, err := b.Store.Leaderboard(ctx, p.Since(b.now()), store.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return toWire(rows), nil
}

func (b LocalBackend) UserStats(ctx context.Context, userID string) (backend.StatsResponse, error) {
	st, err := b.Store.Stats(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return backend.StatsResponse{}, nil
	}
	if err != nil {
		return backend.StatsResponse{}, err
	}
	return backend.StatsResponse{TX: st.TX, BestScore: st.BestScore, Games: st.Games}, nil
}

func toWire(rows []store.Entry) []backend.Entry {
	out := make([]backend.Entry, len(rows))
	for i, e := range rows {
		out[i] = backend.Entry{Rank: e.Rank, UserID: backend.FlexString(e.UserID), Name: e.Name, Score: e.Score}
	}
	return out
}
