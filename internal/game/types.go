// internal/game/types.go
//
// Core type definitions for the scramble game loop.
// Defines:
//   - Phase: coarse state of a session (idle → playing → ended).
//   - Session: the authoritative record of one play session.
//   - View: read-only accessors handed to the presentation layer.
//   - Event: notifications emitted by the Loop after each transition.
//   - ScoreSubmission: the payload reported to the backend at most once.

package game

import (
	"time"

	"github.com/robalobadob/wordscramble/internal/words"
)

// Phase is the state-machine position of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// Fixed gameplay constants.
const (
	StartingLives    = 3
	RoundSeconds     = 60
	ScrambleAttempts = 20
	TxDivisor        = 10 // end screen
	SubmitTxDivisor  = 20 // tx_earned credited by the backend
)

// Session holds the state of a single play from Start to Ended.
type Session struct {
	Tier        words.Tier
	Score       int
	Streak      int
	Lives       int
	WordsSolved int
	TimeLeft    int    // seconds
	CurrentWord string // lowercase, member of the tier list
	Scrambled   string // uppercase permutation of CurrentWord
	Used        map[string]struct{}
	Phase       Phase
}

// Playing reports whether the session accepts input and ticks.
func (s *Session) Playing() bool { return s.Phase == PhasePlaying }

// View is the snapshot the UI is allowed to read.
type View struct {
	Phase       Phase      `json:"phase"`
	Tier        words.Tier `json:"difficulty"`
	Score       int        `json:"score"`
	Streak      int        `json:"streak"`
	Lives       int        `json:"lives"`
	WordsSolved int        `json:"wordsSolved"`
	TimeLeft    int        `json:"timeLeft"`
	Scrambled   string     `json:"scrambledWord"`
}

// EventType names a Loop notification.
type EventType string

const (
	EventStarted EventType = "started" // new session, first word drawn
	EventWord    EventType = "word"    // next scrambled word
	EventCorrect EventType = "correct" // Points awarded
	EventWrong   EventType = "wrong"   // full-length wrong guess
	EventReveal  EventType = "reveal"  // skip; Word holds the answer
	EventTick    EventType = "tick"    // one second elapsed
	EventEnded   EventType = "ended"   // TxEarned set; Display false on quit
	EventClose   EventType = "close"   // host shell should close the app
)

// Event is emitted after a transition has fully applied.
type Event struct {
	Type     EventType `json:"type"`
	View     View      `json:"view"`
	Points   int       `json:"points,omitempty"`
	Word     string    `json:"word,omitempty"`
	TxEarned int       `json:"txEarned,omitempty"`
	Display  bool      `json:"display,omitempty"`
}

// Config tunes the loop. Zero fields fall back to the defaults.
type Config struct {
	RoundSeconds    int
	TxDivisor       int
	SubmitTxDivisor int
	WrongEndDelay   time.Duration // lives hit zero on a wrong guess
	SkipDelay       time.Duration // answer reveal before next word / end
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		RoundSeconds:    RoundSeconds,
		TxDivisor:       TxDivisor,
		SubmitTxDivisor: SubmitTxDivisor,
		WrongEndDelay:   500 * time.Millisecond,
		SkipDelay:       time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RoundSeconds <= 0 {
		c.RoundSeconds = d.RoundSeconds
	}
	if c.TxDivisor <= 0 {
		c.TxDivisor = d.TxDivisor
	}
	if c.SubmitTxDivisor <= 0 {
		c.SubmitTxDivisor = d.SubmitTxDivisor
	}
	if c.WrongEndDelay <= 0 {
		c.WrongEndDelay = d.WrongEndDelay
	}
	if c.SkipDelay <= 0 {
		c.SkipDelay = d.SkipDelay
	}
	return c
}

// TxEarned converts a score into tx using divisor (floor division).
func TxEarned(score, divisor int) int {
	if divisor <= 0 {
		divisor = TxDivisor
	}
	if score <= 0 {
		return 0
	}
	return score / divisor
}

// Player identifies who a session's score is reported for.
type Player struct {
	ID   string
	Name string
}

// ScoreSubmission is the snapshot sent to the backend's /submit-score.
type ScoreSubmission struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	Score       int    `json:"score"`
	WordsSolved int    `json:"words"`
	TxEarned    int    `json:"tx_earned"`
}
