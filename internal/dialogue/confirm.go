package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/registry"
	"github.com/rbright/hark/internal/utterance"
)

type outcome string

const (
	outcomeYes      outcome = "yes"
	outcomeNo       outcome = "no"
	outcomeInvalid  outcome = "invalid"
	outcomeTimedOut outcome = "timed_out"
	outcomeFailed   outcome = "failed"
)

const (
	statusInvalidAnswer = "Invalid response. Say 'yes' or 'no'."
	statusTimedOut      = "No response. Timed out."
	statusNotAdded      = "Okay, not added."
	statusNoFile        = "No file selected."
	statusNoAppName     = "No app name given."
)

func promptNotFound(app string) string {
	return fmt.Sprintf("%s not found. Add it? Say 'yes' or 'no'.", app)
}

func statusAdded(app string) string {
	return app + " added!"
}

// confirmation is one pending yes/no question about adding app.
type confirmation struct {
	id    string
	app   string
	timer *time.Timer
	once  sync.Once
}

// confirm asks whether app should be added and listens for the answer.
func (e *Engine) confirm(ctx context.Context, app string) {
	if err := e.transition(fsm.EventPrompt); err != nil {
		e.logger.Warn("confirmation rejected", "app", app, "error", err.Error())
		return
	}

	prompt := promptNotFound(app)
	c := &confirmation{id: uuid.NewString(), app: app}
	e.pending = c
	e.setStatus(prompt)
	e.presenter.ShowPrompt(ctx, prompt)

	id := c.id
	c.timer = time.AfterFunc(e.timeout, func() {
		select {
		case e.deadlines <- id:
		case <-e.done:
		}
	})
	e.logger.Debug("confirmation pending", "id", id, "app", app, "timeout_ms", e.timeout.Milliseconds())

	e.stopSpeech()
	if err := e.speech.Start(ctx); err != nil {
		e.fail(ctx, err.Error())
	}
}

func (e *Engine) answer(ctx context.Context, text string) {
	switch utterance.ParseAnswer(text) {
	case utterance.AnswerYes:
		e.resolve(ctx, outcomeYes)
	case utterance.AnswerNo:
		e.resolve(ctx, outcomeNo)
	default:
		e.resolve(ctx, outcomeInvalid)
	}
}

func (e *Engine) handleDeadline(ctx context.Context, id string) {
	if e.pending == nil || e.pending.id != id {
		e.logger.Debug("ignoring stale confirmation deadline", "id", id)
		return
	}
	e.resolve(ctx, outcomeTimedOut)
}

// resolve settles the pending confirmation exactly once and runs the add-app
// continuation for its outcome.
func (e *Engine) resolve(ctx context.Context, result outcome) {
	c := e.pending
	if c == nil {
		return
	}

	c.once.Do(func() {
		e.pending = nil
		if c.timer != nil {
			c.timer.Stop()
		}
		e.stopSpeech()
		if err := e.transition(fsm.EventResolve); err != nil {
			_ = e.transition(fsm.EventFail)
		}
		e.logger.Info("confirmation resolved", "id", c.id, "app", c.app, "outcome", string(result))
		e.continueAdd(ctx, c.app, result)
	})
}

func (e *Engine) continueAdd(ctx context.Context, app string, result outcome) {
	switch result {
	case outcomeYes:
		e.addApp(ctx, app)
	case outcomeNo:
		e.setStatus(statusNotAdded)
		e.presenter.CueCancel(ctx)
		e.presenter.Show(ctx, statusNotAdded)
	case outcomeInvalid:
		e.setStatus(statusInvalidAnswer)
		e.presenter.ShowError(ctx, statusInvalidAnswer)
	case outcomeTimedOut:
		e.setStatus(statusTimedOut)
		e.presenter.CueCancel(ctx)
		e.presenter.ShowError(ctx, statusTimedOut)
	case outcomeFailed:
		// status already describes the failure
	}
}

func (e *Engine) addApp(ctx context.Context, app string) {
	if app == "" {
		e.setStatus(statusNoAppName)
		e.presenter.ShowError(ctx, statusNoAppName)
		return
	}

	e.presenter.Hide(ctx)
	path, ok, err := e.picker.ChooseExecutable(ctx)
	if err != nil {
		e.reportError(ctx, "file picker failed", err)
		return
	}
	if !ok {
		e.setStatus(statusNoFile)
		e.presenter.CueCancel(ctx)
		e.presenter.Show(ctx, statusNoFile)
		return
	}

	if err := e.registry.Add(app, path); err != nil {
		if errors.Is(err, registry.ErrEmptyName) {
			e.setStatus(statusNoAppName)
			e.presenter.ShowError(ctx, statusNoAppName)
			return
		}
		e.reportError(ctx, "save registry failed", err)
		return
	}

	e.setStatus(statusAdded(app))
	e.presenter.CueComplete(ctx)
	e.presenter.Show(ctx, statusAdded(app))
}

// reportError logs err and shows a short status for it while staying idle.
func (e *Engine) reportError(ctx context.Context, what string, err error) {
	e.logger.Error(what, "error", err.Error())
	e.setStatus(statusError(what))
	e.presenter.ShowError(ctx, statusError(what))
}
