package dialogue

import (
	"context"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/speech"
	"github.com/rbright/hark/internal/utterance"
)

const (
	statusListening     = "Listening..."
	statusStopped       = "Stopped."
	statusNotUnderstood = "Could not understand."
)

func statusHeard(text string) string {
	return "You said: " + text
}

func statusError(code string) string {
	return "Error: " + code
}

func (e *Engine) handleToggle(ctx context.Context) {
	switch e.State() {
	case fsm.StateIdle:
		e.startListening(ctx)
	case fsm.StateListening:
		e.stopListening(ctx)
	default:
		e.logger.Debug("toggle ignored", "state", string(e.State()), "reason", errAwaitingAnswer.Error())
	}
}

func (e *Engine) startListening(ctx context.Context) {
	if err := e.transition(fsm.EventStart); err != nil {
		e.logger.Warn("start listening rejected", "error", err.Error())
		return
	}
	e.setLastResult("")
	e.setStatus(statusListening)
	e.presenter.ShowListening(ctx)

	if e.speech.Status() == speech.StatusRunning {
		return
	}
	if err := e.speech.Start(ctx); err != nil {
		e.fail(ctx, err.Error())
	}
}

func (e *Engine) stopListening(ctx context.Context) {
	e.stopSpeech()
	if err := e.transition(fsm.EventStop); err != nil {
		e.logger.Warn("stop listening rejected", "error", err.Error())
		return
	}

	last := e.Snapshot().LastResult
	if last != "" {
		e.setStatus(statusHeard(last))
	} else {
		e.setStatus(statusStopped)
	}
	e.presenter.CueStop(ctx)
	e.presenter.Hide(ctx)
}

func (e *Engine) handleSay(ctx context.Context, text string) {
	text = utterance.Collapse(text)
	if text == "" {
		return
	}

	switch e.State() {
	case fsm.StateIdle:
		e.setLastResult(text)
		e.setStatus(statusHeard(text))
		e.route(ctx, text)
	case fsm.StateAwaitingConfirmation:
		e.setLastResult(text)
		e.answer(ctx, text)
	default:
		e.logger.Debug("say ignored", "state", string(e.State()), "reason", errListening.Error())
	}
}

func (e *Engine) handleSpeech(ctx context.Context, ev speech.Event) {
	switch e.State() {
	case fsm.StateListening:
		e.handleListeningEvent(ctx, ev)
	case fsm.StateAwaitingConfirmation:
		e.handleAnswerEvent(ctx, ev)
	default:
		e.logger.Debug("ignoring stale speech event", "kind", string(ev.Kind), "session", ev.Session)
	}
}

func (e *Engine) handleListeningEvent(ctx context.Context, ev speech.Event) {
	switch ev.Kind {
	case speech.KindResult:
		e.setLastResult(ev.Text)
		e.setStatus(statusHeard(ev.Text))
		e.stopSpeech()
		if err := e.transition(fsm.EventRecognized); err != nil {
			e.logger.Warn("recognized transition rejected", "error", err.Error())
			return
		}
		e.presenter.CueStop(ctx)
		e.logger.Debug("utterance recognized", "text", ev.Text, "confidence", ev.Confidence)
		e.route(ctx, ev.Text)
	case speech.KindComplete:
		_ = e.transition(fsm.EventStop)
		if ev.Cause != speech.CauseComplete {
			e.setStatus(statusNotUnderstood)
			e.presenter.ShowError(ctx, statusNotUnderstood)
			return
		}
		e.setStatus(statusStopped)
		e.presenter.Hide(ctx)
	case speech.KindError:
		e.fail(ctx, ev.Code)
	default:
		e.logger.Warn("unknown speech event", "kind", string(ev.Kind))
	}
}

func (e *Engine) handleAnswerEvent(ctx context.Context, ev speech.Event) {
	switch ev.Kind {
	case speech.KindResult:
		e.setLastResult(ev.Text)
		e.answer(ctx, ev.Text)
	case speech.KindComplete:
		e.resolve(ctx, outcomeTimedOut)
	case speech.KindError:
		e.setStatus(statusError(ev.Code))
		e.presenter.ShowError(ctx, statusError(ev.Code))
		e.resolve(ctx, outcomeFailed)
	default:
		e.logger.Warn("unknown speech event", "kind", string(ev.Kind))
	}
}

// fail reports code, stops the source, and returns to idle from any state.
func (e *Engine) fail(ctx context.Context, code string) {
	if e.pending != nil {
		e.setStatus(statusError(code))
		e.presenter.ShowError(ctx, statusError(code))
		e.resolve(ctx, outcomeFailed)
		return
	}

	e.setStatus(statusError(code))
	e.stopSpeech()
	if err := e.transition(fsm.EventFail); err != nil {
		e.logger.Warn("fail transition rejected", "error", err.Error())
	}
	e.presenter.CueCancel(ctx)
	e.presenter.ShowError(ctx, statusError(code))
}
