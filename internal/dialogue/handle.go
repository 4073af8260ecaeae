package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/utterance"
)

// Handle serves one IPC request against the engine.
func (e *Engine) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return e.response(true, "")
	case ipc.CommandToggle:
		return e.accepted(e.Toggle())
	case ipc.CommandSay:
		if strings.TrimSpace(req.Text) == "" {
			return e.response(false, "say requires text")
		}
		return e.accepted(e.Say(req.Text))
	case ipc.CommandHistory:
		return e.withData(e.History())
	case ipc.CommandApps:
		return e.withData(e.registry.LoadAll())
	case ipc.CommandRemove:
		return e.removeApp(req.Text)
	default:
		return e.response(false, fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// removeApp runs on the IPC goroutine, not the loop. Registry.Delete takes the
// same file lock as the loop's Add, so the two never interleave.
func (e *Engine) removeApp(raw string) ipc.Response {
	name := utterance.Normalize(raw)
	if name == "" {
		return e.response(false, "apps.remove requires an app name")
	}
	removed, err := e.registry.Delete(name)
	if err != nil {
		return e.response(false, err.Error())
	}
	if !removed {
		return e.response(false, fmt.Sprintf("app %q is not registered", name))
	}
	e.logger.Info("app removed", "app", name)
	resp := e.response(true, "")
	resp.Message = name + " removed"
	return resp
}

func (e *Engine) accepted(err error) ipc.Response {
	if err == nil {
		return e.response(true, "")
	}
	if errors.Is(err, ErrBusy) {
		e.logger.Warn("ipc request dropped", "error", err.Error())
	}
	return e.response(false, err.Error())
}

func (e *Engine) withData(v any) ipc.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return e.response(false, fmt.Sprintf("encode response: %v", err))
	}
	resp := e.response(true, "")
	resp.Data = data
	return resp
}

func (e *Engine) response(ok bool, errText string) ipc.Response {
	snap := e.Snapshot()
	return ipc.Response{
		OK:      ok,
		State:   string(snap.State),
		Message: snap.Status,
		Error:   errText,
	}
}
