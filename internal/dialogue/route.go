package dialogue

import (
	"context"
	"errors"
	"strings"

	"github.com/rbright/hark/internal/assistant"
	"github.com/rbright/hark/internal/conversation"
	"github.com/rbright/hark/internal/utterance"
)

const (
	statusNetworkError = "Network error"
	statusParseError   = "Error parsing AI response."
	statusNoReply      = "No reply."
	statusReplied      = "Replied."
)

func statusOpening(app string) string {
	return "Opening " + app
}

func statusMissingKey(env string) string {
	return "API key not found. Set " + env + "."
}

// route launches registered apps, confirms unknown ones, and sends
// everything else to the assistant.
func (e *Engine) route(ctx context.Context, text string) {
	cmd := utterance.ParseCommand(text)
	if cmd.Kind != utterance.KindOpen {
		e.query(ctx, cmd.Text)
		return
	}

	path, ok := e.registry.Lookup(cmd.App)
	if !ok {
		e.confirm(ctx, cmd.App)
		return
	}

	if err := e.launcher.Launch(ctx, path); err != nil {
		e.reportError(ctx, "launch "+cmd.App+" failed", err)
		return
	}
	e.logger.Info("app launched", "app", cmd.App, "path", path)
	e.setStatus(statusOpening(cmd.App))
	e.presenter.CueComplete(ctx)
	e.presenter.Show(ctx, statusOpening(cmd.App))
}

// query runs on the engine loop, so at most one request is in flight.
func (e *Engine) query(ctx context.Context, text string) {
	if err := e.assistant.Ready(); err != nil {
		e.reportCredential(ctx, err)
		return
	}

	if err := e.history.Append(conversation.Turn{Role: conversation.RoleUser, Content: text}); err != nil {
		e.reportError(ctx, "record query failed", err)
		return
	}

	reply, err := e.assistant.Send(ctx, e.history.Turns())
	if err != nil {
		var parseErr *assistant.ParseError
		switch {
		case errors.Is(err, assistant.ErrCredentialMissing):
			e.reportCredential(ctx, err)
		case errors.As(err, &parseErr):
			e.logger.Error("assistant response malformed", "error", err.Error())
			e.setStatus(statusParseError)
			e.presenter.ShowError(ctx, statusParseError)
		default:
			e.logger.Error("assistant request failed", "error", err.Error())
			e.setStatus(statusNetworkError)
			e.presenter.ShowError(ctx, statusNetworkError)
		}
		return
	}

	if strings.TrimSpace(reply) == "" {
		reply = statusNoReply
	}
	if err := e.history.Append(conversation.Turn{Role: conversation.RoleAssistant, Content: reply}); err != nil {
		e.logger.Warn("record reply failed", "error", err.Error())
	}
	e.presenter.Show(ctx, reply)
	e.setStatus(statusReplied)
}

func (e *Engine) reportCredential(ctx context.Context, err error) {
	var credErr *assistant.CredentialError
	if !errors.As(err, &credErr) {
		e.reportError(ctx, "load api key failed", err)
		return
	}
	e.setStatus(statusMissingKey(credErr.Env))
	e.presenter.ShowError(ctx, statusMissingKey(credErr.Env))
}
