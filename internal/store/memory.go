// internal/store/memory.go
//
// In-memory implementation of Store.
//
// Characteristics:
//   - Users keyed by ID, scores appended in submission order.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memory struct {
	mu     sync.RWMutex     // guards users and scores
	users  map[string]*User // keyed by User.ID
	scores []Score
	now    func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{users: make(map[string]*User), now: time.Now}
}

func (m *memory) ensure(id, name string) *User {
	u, ok := m.users[id]
	if !ok {
		u = &User{ID: id, CreatedAt: m.now().UTC()}
		m.users[id] = u
	}
	if name != "" {
		u.Name = name
	}
	return u
}

func (m *memory) EnsureUser(ctx context.Context, id, name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.ensure(id, name), nil
}

func (m *memory) Stats(ctx context.Context, userID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return Stats{}, ErrNotFound
	}
	st := Stats{UserID: u.ID, TX: u.TX}
	for _, s := range m.scores {
		if s.UserID != userID {
			continue
		}
		st.Games++
		if s.Score > st.BestScore {
			st.BestScore = s.Score
		}
	}
	return st, nil
}

func (m *memory) SaveScore(ctx context.Context, s Score) (Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now().UTC()
	}
	u := m.ensure(s.UserID, s.UserName)
	u.TX += s.TxEarned
	m.scores = append(m.scores, s)
	return s, nil
}

func (m *memory) Leaderboard(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	best := map[string]int{}
	for _, s := range m.scores {
		if s.CreatedAt.Before(since) {
			continue
		}
		if cur, ok := best[s.UserID]; !ok || s.Score > cur {
			best[s.UserID] = s.Score
		}
	}

	out := make([]Entry, 0, len(best))
	for uid, score := range best {
		out = append(out, Entry{UserID: uid, Name: m.users[uid].Name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return rank(out), nil
}
