// Package speech adapts external recognizers into a start/stop event source.
package speech

import (
	"context"
	"sync"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
)

type Kind string

const (
	KindResult   Kind = "result"
	KindComplete Kind = "complete"
	KindError    Kind = "error"
)

type Cause string

const (
	CauseComplete Cause = "complete"
	CauseNoSpeech Cause = "no_speech"
	CauseTimeout  Cause = "timeout"
	CauseCanceled Cause = "canceled"
)

// Event is one recognizer notification for a listening session.
type Event struct {
	Session    uint64
	Kind       Kind
	Text       string
	Confidence float64
	Cause      Cause
	Code       string
}

// Source produces recognition events for numbered listening sessions.
//
// Start is a no-op while a session is running. Stop is idempotent and returns
// once the session can no longer deliver events, so nothing from a stopped
// session is observed on Events.
type Source interface {
	Start(context.Context) error
	Stop(context.Context) error
	Status() Status
	Events() <-chan Event
}

// session is one running recognizer invocation.
type session interface {
	run(ctx context.Context, emit func(Event) bool)
}

type opener func(ctx context.Context) (session, error)

// runner owns session numbering and delivery shared by every backend.
type runner struct {
	open   opener
	events chan Event

	mu      sync.Mutex
	session uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

func newRunner(open opener) *runner {
	return &runner{open: open, events: make(chan Event)}
}

func (r *runner) Events() <-chan Event {
	return r.events
}

func (r *runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runningLocked() {
		return StatusRunning
	}
	return StatusIdle
}

func (r *runner) runningLocked() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runningLocked() {
		return nil
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess, err := r.open(sessionCtx)
	if err != nil {
		cancel()
		return err
	}

	r.session++
	id := r.session
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	emit := func(ev Event) bool {
		ev.Session = id
		select {
		case r.events <- ev:
			return true
		case <-sessionCtx.Done():
			return false
		}
	}

	go func() {
		defer close(done)
		defer cancel()
		sess.run(sessionCtx, emit)
	}()
	return nil
}

func (r *runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
