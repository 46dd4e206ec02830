// internal/game/reporter.go
//
// At-most-once score submission for a session.
// Responsibilities:
//   - Accrue the session score as points are awarded.
//   - Send one ScoreSubmission (tx_earned at the settlement rate) on the
//     first report with a positive score; later reports are no-ops.
//   - Run `then` callbacks after the in-flight submission returns.
//
// Notes:
//   - All fields except the WaitGroup belong to the Loop goroutine; only the
//     outbound request runs elsewhere.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Submitter delivers a finished session's score to the backend.
type Submitter interface {
	SubmitScore(ctx context.Context, s ScoreSubmission) error
}

// Reporter sends a session's score at most once. Its state is owned by the
// Loop goroutine; only the outbound request runs elsewhere.
type Reporter struct {
	sub     Submitter
	player  Player
	divisor int
	timeout time.Duration
	log     zerolog.Logger

	sessionScore int
	submitted    bool
	inflight     chan struct{} // closed when the current submission returns

	wg sync.WaitGroup
}

// ReporterOption customizes a Reporter.
type ReporterOption func(*Reporter)

// WithTimeout bounds each outbound submission. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithDivisor sets the score→tx divisor used for the submitted tx_earned.
// Non-positive values keep SubmitTxDivisor.
func WithDivisor(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.divisor = n
		}
	}
}

// WithLogger sets the logger used for submission outcomes.
func WithLogger(l zerolog.Logger) ReporterOption {
	return func(r *Reporter) { r.log = l }
}

// NewReporter builds a Reporter for player. An empty player ID is reported as
// "debug_user" and an empty name as "Player".
func NewReporter(sub Submitter, player Player, opts ...ReporterOption) *Reporter {
	if player.ID == "" {
		player.ID = "debug_user"
	}
	if player.Name == "" {
		player.Name = "Player"
	}
	r := &Reporter{
		sub:     sub,
		player:  player,
		divisor: SubmitTxDivisor,
		timeout: 10 * time.Second,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset arms the reporter for a new session.
func (r *Reporter) Reset() {
	r.sessionScore = 0
	r.submitted = false
	r.inflight = nil
}

// AddScore accrues points earned during the session.
func (r *Reporter) AddScore(points int) {
	if points > 0 {
		r.sessionScore += points
	}
}

// SessionScore is the score accrued since the last Reset.
func (r *Reporter) SessionScore() int { return r.sessionScore }

// Submitted reports whether this session's score has been sent.
func (r *Reporter) Submitted() bool { return r.submitted }

// ReportIfNeeded starts the one submission for this session if the score is
// positive and nothing was sent yet. It never blocks: the request runs on its
// own goroutine and failures are only logged. then, if non-nil, runs after the
// request completes, including one started by an earlier call, or immediately
// when there is nothing to send.
// It returns true only for the call that initiated the submission.
func (r *Reporter) ReportIfNeeded(wordsSolved int, then func()) bool {
	if r.submitted || r.sessionScore <= 0 {
		r.after(then)
		return false
	}
	r.submitted = true
	done := make(chan struct{})
	r.inflight = done

	sub := ScoreSubmission{
		UserID:      r.player.ID,
		UserName:    r.player.Name,
		Score:       r.sessionScore,
		WordsSolved: wordsSolved,
		TxEarned:    TxEarned(r.sessionScore, r.divisor),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.sub.SubmitScore(ctx, sub); err != nil {
			r.log.Warn().Err(err).Str("user", sub.UserID).Int("score", sub.Score).Msg("submit score")
		} else {
			r.log.Info().Str("user", sub.UserID).Int("score", sub.Score).Int("tx", sub.TxEarned).Msg("score submitted")
		}
		close(done)
		if then != nil {
			then()
		}
	}()
	return true
}

// after runs then once any in-flight submission has returned.
func (r *Reporter) after(then func()) {
	if then == nil {
		return
	}
	done := r.inflight
	if done == nil {
		then()
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		<-done
		then()
	}()
}

// Wait blocks until in-flight submissions finish.
func (r *Reporter) Wait() { r.wg.Wait() }
