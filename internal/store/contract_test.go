package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises behaviour every Store must share.
func runStoreContract(t *testing.T, st Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("unknown user", func(t *testing.T) {
		_, err := st.Stats(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ensure user keeps name", func(t *testing.T) {
		u, err := st.EnsureUser(ctx, "u1", "Ann")
		require.NoError(t, err)
		assert.Equal(t, "Ann", u.Name)
		assert.Zero(t, u.TX)

		u, err = st.EnsureUser(ctx, "u1", "")
		require.NoError(t, err)
		assert.Equal(t, "Ann", u.Name, "empty name does not overwrite")
	})

	t.Run("save credits tx", func(t *testing.T) {
		saved, err := st.SaveScore(ctx, Score{UserID: "u1", UserName: "Ann", Score: 30, Words: 12, TxEarned: 3, CreatedAt: now})
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)

		_, err = st.SaveScore(ctx, Score{UserID: "u1", Score: 12, Words: 5, TxEarned: 1, CreatedAt: now})
		require.NoError(t, err)

		stats, err := st.Stats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, Stats{UserID: "u1", TX: 4, BestScore: 30, Games: 2}, stats)
	})

	t.Run("save creates user", func(t *testing.T) {
		_, err := st.SaveScore(ctx, Score{UserID: "u2", UserName: "Bob", Score: 50, Words: 20, TxEarned: 5, CreatedAt: now})
		require.NoError(t, err)
		_, err = st.SaveScore(ctx, Score{UserID: "u3", UserName: "Cy", Score: 30, TxEarned: 3, CreatedAt: now.Add(-3 * 24 * time.Hour)})
		require.NoError(t, err)
		_, err = st.SaveScore(ctx, Score{UserID: "u4", UserName: "Di", Score: 99, TxEarned: 9, CreatedAt: now.Add(-30 * 24 * time.Hour)})
		require.NoError(t, err)

		stats, err := st.Stats(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TX)
	})

	t.Run("leaderboard best per user", func(t *testing.T) {
		all, err := st.Leaderboard(ctx, time.Time{}, 10)
		require.NoError(t, err)
		assert.Equal(t, []Entry{
			{Rank: 1, UserID: "u4", Name: "Di", Score: 99},
			{Rank: 2, UserID: "u2", Name: "Bob", Score: 50},
			{Rank: 3, UserID: "u1", Name: "Ann", Score: 30},
			{Rank: 4, UserID: "u3", Name: "Cy", Score: 30},
		}, all)

		weekly, err := st.Leaderboard(ctx, Weekly.Since(now), 10)
		require.NoError(t, err)
		require.Len(t, weekly, 3)
		assert.Equal(t, "u2", weekly[0].UserID)

		top, err := st.Leaderboard(ctx, time.Time{}, 2)
		require.NoError(t, err)
		assert.Len(t, top, 2)

		none, err := st.Leaderboard(ctx, now.Add(time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
