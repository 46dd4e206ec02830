// internal/store/store.go
//
// Persistence for the reference backend: players, their tx balance, and the
// per-session scores that feed the leaderboard.
//
// Implementations:
//   - memory.go    map-backed, for development and tests
//   - sqlite.go    database/sql over mattn/go-sqlite3 (default)
//   - postgres.go  pgxpool
//   - cache_redis.go  read-through leaderboard cache wrapping any of the above
//
// All implementations rank the same way: best score per user within the
// window, highest first, ties broken by user ID.

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("not found")

// User is a player known to the backend.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TX        int       `json:"tx"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats summarises a player's history.
type Stats struct {
	UserID    string `json:"user_id"`
	TX        int    `json:"tx"`
	BestScore int    `json:"best_score"`
	Games     int    `json:"games"`
}

// Score is one submitted session.
type Score struct {
	ID        string
	UserID    string
	UserName  string
	Score     int
	Words     int
	TxEarned  int
	CreatedAt time.Time
}

// Entry is one leaderboard row.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Store defines the persistence interface used by the HTTP handlers.
type Store interface {
	// EnsureUser creates the user if missing. A non-empty name replaces the
	// stored one.
	EnsureUser(ctx context.Context, id, name string) (User, error)

	// Stats returns ErrNotFound for unknown users.
	Stats(ctx context.Context, userID string) (Stats, error)

	// SaveScore records a session and credits its TxEarned to the user,
	// creating the user on first sight. ID and CreatedAt are filled in when
	// empty.
	SaveScore(ctx context.Context, s Score) (Score, error)

	// Leaderboard returns the best score per user since the given instant,
	// ranked from 1. A zero since means all time.
	Leaderboard(ctx context.Context, since time.Time, limit int) ([]Entry, error)
}

func rank(entries []Entry) []Entry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
