// internal/game/engine.go
//
// Game loop for a single scramble session.
// Responsibilities:
//   - Start a session for a tier and draw/scramble words without repeats.
//   - Evaluate answers: correct → streak/points, full-length wrong → life lost,
//     shorter input → still typing, ignored.
//   - Skip with answer reveal, countdown ticks, quit, and the end transition.
//   - Hand the score to the Reporter on every end path and lifecycle signal.
//
// Notes:
//   - A Loop is not safe for concurrent use. Drive it from one goroutine,
//     normally through a Runner, which is also its Scheduler.
//   - The countdown is one Timer handle, stopped in the same transition that
//     leaves Playing. timerGen discards ticks already queued before the stop;
//     epoch does the same for delayed reveal/end callbacks.
package game

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/robalobadob/wordscramble/internal/words"
)

// WordSource samples words for a tier; *words.Bank implements it.
type WordSource interface {
	Sample(t words.Tier, excluding map[string]struct{}) (word string, cleared bool)
}

// Verdict is the outcome of SubmitAnswer.
type Verdict int

const (
	VerdictIgnored Verdict = iota // not playing, locked, or too short
	VerdictCorrect
	VerdictWrong
)

// Loop orchestrates one player's sessions.
type Loop struct {
	cfg      Config
	bank     WordSource
	sched    Scheduler
	reporter *Reporter
	notify   func(Event)
	scramble func(string) string

	s Session

	timer    Timer
	timerGen int
	pending  Timer
	epoch    int
	locked   bool // a reveal or end is pending; input is ignored
	closed   bool
}

// NewLoop wires a Loop. notify may be nil.
func NewLoop(cfg Config, bank WordSource, sched Scheduler, reporter *Reporter, notify func(Event)) *Loop {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Loop{
		cfg:      cfg.withDefaults(),
		bank:     bank,
		sched:    sched,
		reporter: reporter,
		notify:   notify,
		scramble: Scramble,
		s:        Session{Phase: PhaseIdle, Used: map[string]struct{}{}},
	}
}

// Start resets the session for tier and begins the countdown.
// Calling Start while playing abandons the current session.
func (l *Loop) Start(tier words.Tier) {
	l.stopTimer()
	l.cancelPending()
	l.epoch++
	l.locked = false
	l.closed = false

	l.s = Session{
		Tier:     tier,
		Lives:    StartingLives,
		TimeLeft: l.cfg.RoundSeconds,
		Used:     map[string]struct{}{},
		Phase:    PhasePlaying,
	}
	l.reporter.Reset()

	l.drawWord()
	l.startTimer()
	l.emit(Event{Type: EventStarted})
}

// SubmitAnswer evaluates text against the current word.
func (l *Loop) SubmitAnswer(text string) Verdict {
	if !l.s.Playing() || l.locked {
		return VerdictIgnored
	}
	answer := strings.ToLower(strings.TrimSpace(text))

	if answer == l.s.CurrentWord {
		l.s.Streak++
		points := 1 + l.s.Streak/2
		l.s.Score += points
		l.s.WordsSolved++
		l.reporter.AddScore(points)
		l.emit(Event{Type: EventCorrect, Points: points})
		l.nextWord()
		return VerdictCorrect
	}

	if utf8.RuneCountInString(answer) < utf8.RuneCountInString(l.s.CurrentWord) {
		return VerdictIgnored
	}

	l.s.Streak = 0
	l.loseLife()
	l.emit(Event{Type: EventWrong})
	if l.s.Lives == 0 {
		l.locked = true
		l.schedule(l.cfg.WrongEndDelay, l.end)
	}
	return VerdictWrong
}

// Skip gives up on the current word at the cost of a life and reveals it.
func (l *Loop) Skip() bool {
	if !l.s.Playing() || l.locked {
		return false
	}
	l.s.Streak = 0
	l.loseLife()
	l.locked = true
	l.emit(Event{Type: EventReveal, Word: l.s.CurrentWord})

	if l.s.Lives == 0 {
		l.schedule(l.cfg.SkipDelay, l.end)
		return true
	}
	l.schedule(l.cfg.SkipDelay, func() {
		l.locked = false
		l.nextWord()
	})
	return true
}

// Quit leaves a running session without the game-over display and reports
// a positive score.
func (l *Loop) Quit() {
	if !l.s.Playing() {
		return
	}
	l.stopTimer()
	l.cancelPending()
	l.s.Phase = PhaseEnded
	l.locked = false
	l.emit(Event{Type: EventEnded, TxEarned: TxEarned(l.s.Score, l.cfg.TxDivisor)})
	if l.s.Score > 0 {
		l.reporter.ReportIfNeeded(l.s.WordsSolved, nil)
	}
}

// Hide handles loss of visibility: the score goes out if it has not yet.
func (l *Loop) Hide() {
	l.reporter.ReportIfNeeded(l.s.WordsSolved, nil)
}

// Unload handles the page/app going away. A running session is stopped so no
// timer outlives it, and the score is reported if it has not been.
func (l *Loop) Unload() {
	l.Quit()
	l.reporter.ReportIfNeeded(l.s.WordsSolved, nil)
}

// Back handles the host shell's back action: stop, report, then ask the shell
// to close once the submission has completed.
func (l *Loop) Back() {
	l.Quit()
	epoch := l.epoch
	l.reporter.ReportIfNeeded(l.s.WordsSolved, func() {
		l.sched.After(0, func() {
			if l.closed || epoch != l.epoch {
				return
			}
			l.closed = true
			l.emit(Event{Type: EventClose})
		})
	})
}

// Session returns a copy of the current session state.
func (l *Loop) Session() Session {
	s := l.s
	s.Used = make(map[string]struct{}, len(l.s.Used))
	for w := range l.s.Used {
		s.Used[w] = struct{}{}
	}
	return s
}

// View returns the accessors exposed to the presentation layer.
func (l *Loop) View() View {
	return View{
		Phase:       l.s.Phase,
		Tier:        l.s.Tier,
		Score:       l.s.Score,
		Streak:      l.s.Streak,
		Lives:       l.s.Lives,
		WordsSolved: l.s.WordsSolved,
		TimeLeft:    l.s.TimeLeft,
		Scrambled:   l.s.Scrambled,
	}
}

func (l *Loop) Score() int            { return l.s.Score }
func (l *Loop) TimeLeft() int         { return l.s.TimeLeft }
func (l *Loop) Streak() int           { return l.s.Streak }
func (l *Loop) Lives() int            { return l.s.Lives }
func (l *Loop) ScrambledWord() string { return l.s.Scrambled }

// ---------------------------------------------------------------------------

func (l *Loop) nextWord() {
	l.drawWord()
	l.emit(Event{Type: EventWord})
}

// drawWord picks an unused word, scrambles it, and records its use.
func (l *Loop) drawWord() {
	w, cleared := l.bank.Sample(l.s.Tier, l.s.Used)
	if cleared {
		clear(l.s.Used)
	}
	l.s.CurrentWord = w
	l.s.Scrambled = l.scramble(w)
	l.s.Used[w] = struct{}{}
}

func (l *Loop) loseLife() {
	if l.s.Lives > 0 {
		l.s.Lives--
	}
}

func (l *Loop) startTimer() {
	l.timerGen++
	gen := l.timerGen
	l.timer = l.sched.Every(time.Second, func() { l.tick(gen) })
}

func (l *Loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++
}

func (l *Loop) tick(gen int) {
	if gen != l.timerGen || !l.s.Playing() {
		return
	}
	if l.s.TimeLeft > 0 {
		l.s.TimeLeft--
	}
	l.emit(Event{Type: EventTick})
	if l.s.TimeLeft == 0 {
		l.end()
	}
}

// schedule runs fn after d unless the session was restarted or quit meanwhile.
func (l *Loop) schedule(d time.Duration, fn func()) {
	l.cancelPending()
	epoch := l.epoch
	l.pending = l.sched.After(d, func() {
		if epoch != l.epoch || !l.s.Playing() {
			return
		}
		l.pending = nil
		fn()
	})
}

func (l *Loop) cancelPending() {
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
}

// end is the natural game-over: time ran out or lives reached zero.
func (l *Loop) end() {
	if !l.s.Playing() {
		return
	}
	l.stopTimer()
	l.cancelPending()
	l.s.Phase = PhaseEnded
	l.locked = false
	l.emit(Event{Type: EventEnded, TxEarned: TxEarned(l.s.Score, l.cfg.TxDivisor), Display: true})
	l.reporter.ReportIfNeeded(l.s.WordsSolved, nil)
}

func (l *Loop) emit(e Event) {
	e.View = l.View()
	l.notify(e)
}
