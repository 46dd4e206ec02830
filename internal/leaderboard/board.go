// Package leaderboard fetches and renders the top scores. It never fails:
// an empty board and an unreachable backend both come back as a Result with
// a placeholder message.
package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/wordscramble/internal/backend"
)

const (
	PlaceholderEmpty  = "No scores yet. Be the first!"
	PlaceholderFailed = "Failed to load leaderboard"
	DefaultName       = "Player"
)

// Fetcher is the part of the backend client the board needs.
type Fetcher interface {
	Leaderboard(ctx context.Context, period string, limit int) ([]backend.Entry, error)
}

// Row is a display-ready entry.
type Row struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Medal  string `json:"medal,omitempty"` // gold|silver|bronze for the first three positions
}

// Result is what the presentation layer shows. Exactly one of Rows and
// Placeholder is set.
type Result struct {
	Period      string `json:"period"`
	Rows        []Row  `json:"rows,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

type Board struct {
	f       Fetcher
	timeout time.Duration
	log     zerolog.Logger
}

func New(f Fetcher, log zerolog.Logger) *Board {
	return &Board{f: f, timeout: 10 * time.Second, log: log}
}

var medals = [...]string{"gold", "silver", "bronze"}

// FetchTop loads the board for period. Rows keep the backend's order; a
// missing rank falls back to the 1-based position and a missing name to
// "Player".
func (b *Board) FetchTop(ctx context.Context, period string, limit int) Result {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res := Result{Period: period}
	entries, err := b.f.Leaderboard(ctx, period, limit)
	if err != nil {
		b.log.Warn().Err(err).Str("period", period).Msg("load leaderboard")
		res.Placeholder = PlaceholderFailed
		return res
	}
	if len(entries) == 0 {
		res.Placeholder = PlaceholderEmpty
		return res
	}

	res.Rows = make([]Row, len(entries))
	for i, e := range entries {
		r := Row{Rank: e.Rank, UserID: string(e.UserID), Name: strings.TrimSpace(e.Name), Score: e.Score}
		if r.Rank <= 0 {
			r.Rank = i + 1
		}
		if r.Name == "" {
			r.Name = DefaultName
		}
		if i < len(medals) {
			r.Medal = medals[i]
		}
		res.Rows[i] = r
	}
	return res
}

var medalIcons = map[string]string{"gold": "🥇", "silver": "🥈", "bronze": "🥉"}

// Text renders the result as plain chat text, marking currentUserID's row.
func (r Result) Text(currentUserID string) string {
	if r.Placeholder != "" {
		return r.Placeholder
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 Leaderboard (%s)\n", r.Period)
	for _, row := range r.Rows {
		prefix := medalIcons[row.Medal]
		if prefix == "" {
			prefix = fmt.Sprintf("%d.", row.Rank)
		}
		fmt.Fprintf(&sb, "%s %s: %d", prefix, row.Name, row.Score)
		if currentUserID != "" && row.UserID == currentUserID {
			sb.WriteString(" (you)")
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}
