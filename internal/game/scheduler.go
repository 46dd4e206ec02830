// internal/game/scheduler.go
//
// Timers and the single-goroutine Runner that drives a Loop.

package game

import (
	"context"
	"sync"
	"time"
)

// Timer is a handle to scheduled work. Stop prevents future firings and
// reports whether the timer was still active.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks later. Callbacks must be delivered on the same
// goroutine that drives the Loop.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Runner is a single-goroutine event loop. Every closure posted to it runs to
// completion before the next one starts, so a Loop driven only through a
// Runner needs no locking. Runner also implements Scheduler by posting timer
// callbacks back onto its own queue.
type Runner struct {
	events chan func()
	done   chan struct{}
	once   sync.Once
}

// NewRunner creates a Runner with a queue of size buf.
func NewRunner(buf int) *Runner {
	if buf <= 0 {
		buf = 64
	}
	return &Runner{
		events: make(chan func(), buf),
		done:   make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	defer r.once.Do(func() { close(r.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.events:
			fn()
		}
	}
}

// Post queues fn. It returns false once the runner has stopped.
func (r *Runner) Post(fn func()) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.events <- fn:
		return true
	case <-r.done:
		return false
	}
}

// Do queues fn and waits for it to finish. It returns false if the runner
// stopped before fn ran.
func (r *Runner) Do(fn func()) bool {
	finished := make(chan struct{})
	if !r.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-r.done:
		return false
	}
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// After posts fn to the runner once d has elapsed.
func (r *Runner) After(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { r.Post(fn) })
}

// Every posts fn to the runner every d until stopped.
func (r *Runner) Every(d time.Duration, fn func()) Timer {
	t := &ticker{stop: make(chan struct{})}
	tk := time.NewTicker(d)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-r.done:
				return
			case <-tk.C:
				r.Post(fn)
			}
		}
	}()
	return t
}

type ticker struct {
	stop chan struct{}
	once sync.Once
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.stop)
		stopped = true
	})
	return stopped
}
