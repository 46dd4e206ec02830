// internal/store/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout, foreign keys).
//   - Users and scores over database/sql; the leaderboard is one GROUP BY.
//
// Timestamps are stored as Unix milliseconds.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (and creates if missing) a SQLite database file.
// The parent directory is created for relative paths such as ./data/app.db.
func OpenSQLite(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db, now: time.Now}
}

const upsertUser = `
	INSERT INTO users (id, name, tx, created_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		tx   = users.tx + excluded.tx,
		name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END`

func (s *sqliteStore) EnsureUser(ctx context.Context, id, name string) (User, error) {
	if _, err := s.db.ExecContext(ctx, upsertUser, id, name, 0, millis(s.now())); err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	var u User
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, tx, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.TX, &created)
	if err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

func (s *sqliteStore) Stats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT u.tx, COALESCE(MAX(g.score), 0), COUNT(g.id)
		FROM users u LEFT JOIN game_scores g ON g.user_id = u.id
		WHERE u.id = ?
		GROUP BY u.id`, userID,
	).Scan(&st.TX, &st.BestScore, &st.Games)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) SaveScore(ctx context.Context, sc Score) (Score, error) {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Score{}, err
	}
	if _, err := tx.ExecContext(ctx, upsertUser, sc.UserID, sc.UserName, sc.TxEarned, millis(sc.CreatedAt)); err != nil {
		_ = tx.Rollback()
		return Score{}, fmt.Errorf("save score: user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_scores (id, user_id, score, words, tx_earned, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.UserID, sc.Score, sc.Words, sc.TxEarned, millis(sc.CreatedAt),
	); err != nil {
		_ = tx.Rollback()
		return Score{}, fmt.Errorf("save score: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Score{}, fmt.Errorf("save score: commit: %w", err)
	}
	return sc, nil
}

func (s *sqliteStore) Leaderboard(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.user_id, u.name, MAX(g.score) AS best
		FROM game_scores g JOIN users u ON u.id = g.user_id
		WHERE g.created_at >= ?
		GROUP BY g.user_id, u.name
		ORDER BY best DESC, g.user_id ASC
		LIMIT ?`, millis(since), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return rank(out), rows.Err()
}
