// internal/store/postgres.go
//
// Store over a pgx pool. Migrations run through database/sql (pgx stdlib
// driver) because goose needs a *sql.DB.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresStore wraps a pool connected to a migrated database.
func NewPostgresStore(db *pgxpool.Pool) Store {
	return &postgresStore{db: db, now: time.Now}
}

// MigratePostgres runs the embedded migrations through the pgx stdlib driver.
func MigratePostgres(dbURL string) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("migrations: open db: %w", err)
	}
	defer db.Close()
	return Migrate(db, "postgres")
}

const pgUpsertUser = `
	INSERT INTO users (id, name, tx, created_at) VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		tx   = users.tx + excluded.tx,
		name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END`

func (s *postgresStore) EnsureUser(ctx context.Context, id, name string) (User, error) {
	if _, err := s.db.Exec(ctx, pgUpsertUser, id, name, 0, millis(s.now())); err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	var u User
	var created int64
	err := s.db.QueryRow(ctx,
		`SELECT id, name, tx, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.TX, &created)
	if err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(created).UTC()
	return u, nil
}

func (s *postgresStore) Stats(ctx context.Context, userID string) (Stats, error) {
	st := Stats{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT u.tx, COALESCE(MAX(g.score), 0), COUNT(g.id)
		FROM users u LEFT JOIN game_scores g ON g.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`, userID,
	).Scan(&st.TX, &st.BestScore, &st.Games)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, ErrNotFound
	}
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (s *postgresStore) SaveScore(ctx context.Context, sc Score) (Score, error) {
	id, err := uuid.Parse(sc.ID)
	if err != nil {
		id = uuid.New()
	}
	sc.ID = id.String()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now().UTC()
	}

	err = pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, pgUpsertUser, sc.UserID, sc.UserName, sc.TxEarned, millis(sc.CreatedAt)); err != nil {
			return fmt.Errorf("user: %w", err)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO game_scores (id, user_id, score, words, tx_earned, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, sc.UserID, sc.Score, sc.Words, sc.TxEarned, millis(sc.CreatedAt),
		)
		return err
	})
	if err != nil {
		return Score{}, fmt.Errorf("save score: %w", err)
	}
	return sc, nil
}

func (s *postgresStore) Leaderboard(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.Query(ctx, `
		SELECT g.user_id, u.name, MAX(g.score) AS best
		FROM game_scores g JOIN users u ON u.id = g.user_id
		WHERE g.created_at >= $1
		GROUP BY g.user_id, u.name
		ORDER BY best DESC, g.user_id ASC
		LIMIT $2`, millis(since), limit,
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
