// internal/words/words.go
//
// Word bank for the scramble game.
//
// Responsibilities:
//   - Hold one immutable word list per difficulty tier (easy, moderate, hard).
//   - Load lists once, from a directory (config WORDS_DIR) when given or
//     from the embedded defaults.
//   - Sample words uniformly without replacement against a caller-owned
//     exclusion set, signalling when that set has to be cleared.
//
// Word Lists:
//   - easy:     short everyday words
//   - moderate: five/six letter common words
//   - hard:     seven letters and up
//
// Directory layout:
//   <dir>/easy.txt, <dir>/moderate.txt, <dir>/hard.txt
//
// Constraints:
//   • Words are lowercase alphabetic; anything else is dropped at load time.
//   • A tier with no words is a load error, so Sample never sees an empty list.
//   • Initialization is run once (sync.Once).

package words

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/wordscramble/assets"
)

// Tier is a difficulty level. The set is closed: Easy, Moderate, Hard.
type Tier string

const (
	Easy     Tier = "easy"
	Moderate Tier = "moderate"
	Hard     Tier = "hard"
)

// Tiers lists every tier in menu order.
var Tiers = []Tier{Easy, Moderate, Hard}

// ParseTier maps a client-supplied name onto a Tier.
// An empty name selects Moderate, the menu default.
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", Moderate:
		return Moderate, true
	case Easy:
		return Easy, true
	case Hard:
		return Hard, true
	}
	return "", false
}

// Bank is a fixed mapping from tier to an immutable word list.
type Bank struct {
	lists map[Tier][]string
	intn  func(n int) int
}

// NewBank copies lists into a Bank. Every tier must be present and non-empty.
func NewBank(lists map[Tier][]string) (*Bank, error) {
	b := &Bank{lists: make(map[Tier][]string, len(Tiers)), intn: cryptoIntn}
	for _, t := range Tiers {
		ws := normalize(lists[t])
		if len(ws) == 0 {
			return nil, fmt.Errorf("words: %s list is empty", t)
		}
		b.lists[t] = ws
	}
	return b, nil
}

// Sample draws a word from tier uniformly among the words not in excluding.
// When every word of the tier is excluded it returns cleared=true, meaning the
// caller must empty its exclusion set, and draws from the whole list instead.
// An unknown tier samples from Moderate.
func (b *Bank) Sample(t Tier, excluding map[string]struct{}) (word string, cleared bool) {
	list, ok := b.lists[t]
	if !ok {
		list = b.lists[Moderate]
	}

	available := make([]string, 0, len(list))
	for _, w := range list {
		if _, used := excluding[w]; !used {
			available = append(available, w)
		}
	}
	if len(available) == 0 {
		return list[b.intn(len(list))], true
	}
	return available[b.intn(len(available))], false
}

// List returns a copy of the tier's words.
func (b *Bank) List(t Tier) []string {
	return append([]string(nil), b.lists[t]...)
}

// Contains reports whether w is in the tier's list.
func (b *Bank) Contains(t Tier, w string) bool {
	for _, x := range b.lists[t] {
		if x == w {
			return true
		}
	}
	return false
}

// Stats returns the number of words per tier.
func (b *Bank) Stats() map[Tier]int {
	out := make(map[Tier]int, len(b.lists))
	for t, ws := range b.lists {
		out[t] = len(ws)
	}
	return out
}

// --- process-wide default bank ---

var (
	initOnce   sync.Once
	defaultBk  *Bank
	initialErr error
)

// Load reads every tier from dir, or from the embedded lists when dir is
// empty, and builds a Bank.
func Load(dir string) (*Bank, error) {
	lists := make(map[Tier][]string, len(Tiers))
	for _, t := range Tiers {
		ws, err := readTierFile(dir, t)
		if err != nil {
			return nil, fmt.Errorf("words: load %s: %w", t, err)
		}
		lists[t] = ws
	}
	return NewBank(lists)
}

// Init loads the default bank from dir exactly once. Later calls return the
// first result whatever dir they pass.
func Init(dir string) error {
	initOnce.Do(func() {
		defaultBk, initialErr = Load(dir)
	})
	return initialErr
}

// readTierFile loads a tier from dir, or from the embedded lists when dir is empty.
func readTierFile(dir string, t Tier) ([]string, error) {
	if dir == "" {
		return assets.WordList(string(t))
	}
	return assets.ReadWordFile(os.DirFS(dir), string(t)+".txt")
}

// Default returns the bank loaded by Init, or nil if Init has not succeeded.
func Default() *Bank {
	return defaultBk
}

// normalize lowercases and trims words and keeps only alphabetic entries.
func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, w := range in {
		w = strings.TrimSpace(strings.ToLower(w))
		if w != "" && isAlpha(w) {
			out = append(out, w)
		}
	}
	return out
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// cryptoIntn returns a uniform int in [0, n) from crypto/rand.
func cryptoIntn(n int) int {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}
