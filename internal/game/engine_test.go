package game

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordscramble/internal/words"
)

// manualClock is a Scheduler whose time only moves through Advance.
type manualClock struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	clock   *manualClock
	at      time.Duration
	every   time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (c *manualClock) add(d, every time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTask{clock: c, at: c.now + d, every: every, seq: c.seq, fn: fn}
	c.tasks = append(c.tasks, t)
	return t
}

func (c *manualClock) After(d time.Duration, fn func()) Timer { return c.add(d, 0, fn) }
func (c *manualClock) Every(d time.Duration, fn func()) Timer { return c.add(d, d, fn) }

// Advance moves time forward by d, running due callbacks in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *manualTask
		for _, t := range c.tasks {
			if t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		if next.every > 0 {
			next.at += next.every
		} else {
			next.stopped = true
		}
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *manualClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// listSource hands out words in list order, skipping excluded ones.
type listSource struct{ words []string }

func (s listSource) Sample(_ words.Tier, excluding map[string]struct{}) (string, bool) {
	for _, w := range s.words {
		if _, used := excluding[w]; !used {
			return w, false
		}
	}
	return s.words[0], true
}

type recordingSubmitter struct {
	mu   sync.Mutex
	subs []ScoreSubmission
	err  error
}

func (r *recordingSubmitter) SubmitScore(_ context.Context, s ScoreSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
	return r.err
}

func (r *recordingSubmitter) all() []ScoreSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ScoreSubmission(nil), r.subs...)
}

type harness struct {
	loop   *Loop
	clock  *manualClock
	sub    *recordingSubmitter
	rep    *Reporter
	events []Event
}

func newHarness(t *testing.T, list ...string) *harness {
	t.Helper()
	if len(list) == 0 {
		list = []string{"cat", "dog", "sun"}
	}
	h := &harness{clock: &manualClock{}, sub: &recordingSubmitter{}}
	h.rep = NewReporter(h.sub, Player{ID: "42", Name: "Ann"}, WithDivisor(2))
	cfg := DefaultConfig()
	cfg.TxDivisor = 2
	h.loop = NewLoop(cfg, listSource{words: list}, h.clock, h.rep, func(e Event) {
		h.events = append(h.events, e)
	})
	return h
}

func (h *harness) count(typ EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (h *harness) last() Event { return h.events[len(h.events)-1] }

func sortedLetters(s string) string {
	r := []rune(strings.ToLower(s))
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return string(r)
}

func TestStartInitialisesSession(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)

	s := h.loop.Session()
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, StartingLives, s.Lives)
	assert.Equal(t, RoundSeconds, s.TimeLeft)
	assert.Zero(t, s.Score)
	assert.Zero(t, s.Streak)
	assert.Equal(t, "cat", s.CurrentWord)
	assert.Equal(t, sortedLetters("cat"), sortedLetters(s.Scrambled))
	assert.Equal(t, strings.ToUpper(s.Scrambled), s.Scrambled)
	assert.Contains(t, s.Used, "cat")
	assert.Equal(t, EventStarted, h.last().Type)
	assert.Equal(t, 1, h.clock.active(), "countdown running")
}

func TestPartialInputIgnoredThenCorrect(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)

	assert.Equal(t, VerdictIgnored, h.loop.SubmitAnswer("ca"))
	assert.Equal(t, 3, h.loop.Lives())
	assert.Zero(t, h.loop.Streak())

	assert.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("  CAT "))
	s := h.loop.Session()
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, 1, s.Score)
	assert.Equal(t, 1, s.WordsSolved)
	assert.Equal(t, "dog", s.CurrentWord)
	assert.Equal(t, 1, h.count(EventCorrect))
	assert.Equal(t, EventWord, h.last().Type)
}

func TestStreakScoring(t *testing.T) {
	h := newHarness(t, "cat", "dog", "sun", "owl", "elk")
	h.loop.Start(words.Easy)

	var points []int
	for n := 0; n < 4; n++ {
		require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer(h.loop.Session().CurrentWord))
	}
	for _, e := range h.events {
		if e.Type == EventCorrect {
			points = append(points, e.Points)
		}
	}
	assert.Equal(t, []int{1, 2, 2, 3}, points)
	assert.Equal(t, 8, h.loop.Score())
	assert.Equal(t, 8, h.rep.SessionScore())
}

func TestWrongGuessCostsLifeAndStreak(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	assert.Equal(t, VerdictWrong, h.loop.SubmitAnswer("dgo"))
	assert.Equal(t, 2, h.loop.Lives())
	assert.Zero(t, h.loop.Streak())
	assert.Equal(t, 1, h.loop.Score(), "score never decreases")

	assert.Equal(t, VerdictWrong, h.loop.SubmitAnswer("dogs"), "longer input is evaluated")
	assert.Equal(t, 1, h.loop.Lives())
	assert.Equal(t, "dog", h.loop.Session().CurrentWord, "word kept after a wrong guess")
}

func TestLastLifeWrongEndsAfterDelay(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	for n := 0; n < 3; n++ {
		require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer(h.loop.Session().CurrentWord))
	}
	score := h.loop.Score()
	require.Equal(t, 5, score)

	cur := h.loop.Session().CurrentWord
	wrong := strings.Repeat("x", len(cur))
	h.loop.SubmitAnswer(wrong)
	h.loop.SubmitAnswer(wrong)
	require.Equal(t, VerdictWrong, h.loop.SubmitAnswer(wrong))
	assert.Zero(t, h.loop.Lives())
	assert.Equal(t, PhasePlaying, h.loop.Session().Phase, "end is delayed")

	assert.Equal(t, VerdictIgnored, h.loop.SubmitAnswer(cur), "input locked during the delay")
	assert.False(t, h.loop.Skip())

	h.clock.Advance(500 * time.Millisecond)
	require.Equal(t, PhaseEnded, h.loop.Session().Phase)
	end := h.last()
	assert.Equal(t, EventEnded, end.Type)
	assert.True(t, end.Display)
	assert.Equal(t, score/2, end.TxEarned)

	h.rep.Wait()
	subs := h.sub.all()
	require.Len(t, subs, 1)
	assert.Equal(t, ScoreSubmission{UserID: "42", UserName: "Ann", Score: 5, WordsSolved: 3, TxEarned: 2}, subs[0])

	h.loop.Hide()
	h.loop.Unload()
	h.rep.Wait()
	assert.Len(t, h.sub.all(), 1, "reported at most once")
	assert.Zero(t, h.clock.active())
}

func TestTimeoutEndsSessionAndStopsTimer(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Moderate)

	h.clock.Advance(59 * time.Second)
	assert.Equal(t, 1, h.loop.TimeLeft())
	assert.Equal(t, PhasePlaying, h.loop.Session().Phase)

	h.clock.Advance(time.Second)
	assert.Zero(t, h.loop.TimeLeft())
	assert.Equal(t, PhaseEnded, h.loop.Session().Phase)
	ticks := h.count(EventTick)
	assert.Equal(t, 60, ticks)

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, ticks, h.count(EventTick), "no ticks after end")
	assert.Zero(t, h.loop.TimeLeft())
	assert.Zero(t, h.clock.active())
	assert.Equal(t, 1, h.count(EventEnded))

	h.rep.Wait()
	assert.Empty(t, h.sub.all(), "zero score is not submitted")
}

func TestSkipRevealsThenNextWord(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	require.True(t, h.loop.Skip())
	reveal := h.last()
	assert.Equal(t, EventReveal, reveal.Type)
	assert.Equal(t, "dog", reveal.Word)
	assert.Equal(t, 2, h.loop.Lives())
	assert.Zero(t, h.loop.Streak())

	assert.Equal(t, VerdictIgnored, h.loop.SubmitAnswer("dog"))
	assert.False(t, h.loop.Skip(), "one reveal at a time")

	h.clock.Advance(time.Second)
	assert.Equal(t, EventWord, h.last().Type)
	assert.Equal(t, "sun", h.loop.Session().CurrentWord)
	assert.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("sun"))
}

func TestSkipOnLastLifeEnds(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	for n := 0; n < 3; n++ {
		require.True(t, h.loop.Skip())
		h.clock.Advance(time.Second)
	}
	assert.Zero(t, h.loop.Lives())
	assert.Equal(t, PhaseEnded, h.loop.Session().Phase)
	assert.True(t, h.last().Display)
}

func TestQuitStopsWithoutDisplay(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	h.loop.Quit()
	end := h.last()
	assert.Equal(t, EventEnded, end.Type)
	assert.False(t, end.Display)
	assert.Equal(t, PhaseEnded, h.loop.Session().Phase)
	assert.Zero(t, h.clock.active())

	h.rep.Wait()
	assert.Len(t, h.sub.all(), 1)

	h.loop.Quit()
	assert.Equal(t, 1, h.count(EventEnded), "quit outside a session is a no-op")
}

func TestQuitWithZeroScoreSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	h.loop.Quit()
	h.rep.Wait()
	assert.Empty(t, h.sub.all())
}

func TestQuitCancelsPendingReveal(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.True(t, h.loop.Skip())
	h.loop.Quit()

	before := len(h.events)
	h.clock.Advance(5 * time.Second)
	assert.Len(t, h.events, before)
}

func TestRestartDropsStaleCallbacks(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.True(t, h.loop.Skip())

	h.loop.Start(words.Hard)
	assert.Equal(t, 3, h.loop.Lives())
	word := h.loop.Session().CurrentWord

	h.clock.Advance(time.Second)
	assert.Equal(t, word, h.loop.Session().CurrentWord, "old reveal did not advance the new session")
	assert.Equal(t, RoundSeconds-1, h.loop.TimeLeft(), "one countdown only")
}

func TestUsedWordsClearWhenTierExhausted(t *testing.T) {
	h := newHarness(t, "cat", "dog")
	h.loop.Start(words.Easy)

	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))
	assert.Len(t, h.loop.Session().Used, 2)

	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("dog"))
	used := h.loop.Session().Used
	assert.Len(t, used, 1, "exclusion set restarted")
	assert.Contains(t, used, h.loop.Session().CurrentWord)
}

func TestHideReportsOnce(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	h.loop.Hide()
	h.loop.Hide()
	h.rep.Wait()
	assert.Len(t, h.sub.all(), 1)
	assert.Equal(t, PhasePlaying, h.loop.Session().Phase, "hiding does not stop the session")

	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("dog"))
	h.clock.Advance(time.Minute)
	h.rep.Wait()
	assert.Len(t, h.sub.all(), 1)
}

func TestUnloadStopsSessionAndReports(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	h.loop.Unload()
	h.rep.Wait()
	assert.Zero(t, h.clock.active())
	assert.Len(t, h.sub.all(), 1)
}

func TestBackClosesAfterSubmission(t *testing.T) {
	h := newHarness(t)
	h.sub.err = errors.New("backend down")
	h.loop.Start(words.Easy)
	require.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("cat"))

	h.loop.Back()
	h.rep.Wait()
	h.clock.Advance(0)

	assert.Len(t, h.sub.all(), 1)
	assert.Equal(t, EventClose, h.last().Type, "close follows a failed submission too")
	assert.Equal(t, 1, h.count(EventClose))
}

func TestBackWithNothingToReportClosesImmediately(t *testing.T) {
	h := newHarness(t)
	h.loop.Back()
	h.clock.Advance(0)
	assert.Equal(t, 1, h.count(EventClose))
	assert.Empty(t, h.sub.all())
}

func TestLivesNeverNegative(t *testing.T) {
	h := newHarness(t)
	h.loop.Start(words.Easy)
	for n := 0; n < 10; n++ {
		h.loop.SubmitAnswer("zzz")
		h.loop.Skip()
		assert.GreaterOrEqual(t, h.loop.Lives(), 0)
		h.clock.Advance(time.Second)
	}
	assert.Zero(t, h.loop.Lives())
	assert.Equal(t, PhaseEnded, h.loop.Session().Phase)
}

func TestRealWordBankSession(t *testing.T) {
	bank, err := words.NewBank(map[words.Tier][]string{
		words.Easy:     {"cat", "dog"},
		words.Moderate: {"planet"},
		words.Hard:     {"journey"},
	})
	require.NoError(t, err)

	h := newHarness(t)
	h.loop = NewLoop(DefaultConfig(), bank, h.clock, h.rep, nil)
	h.loop.Start(words.Hard)
	assert.Equal(t, "journey", h.loop.Session().CurrentWord)
	assert.Equal(t, VerdictCorrect, h.loop.SubmitAnswer("journey"))
	assert.Equal(t, "journey", h.loop.Session().CurrentWord, "single-word tier repeats after clearing")
}
