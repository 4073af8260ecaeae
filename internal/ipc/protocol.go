package ipc

import "encoding/json"

const (
	CommandStatus  = "status"
	CommandToggle  = "toggle"
	CommandSay     = "say"
	CommandHistory = "history"
	CommandApps    = "apps"
	CommandRemove  = "apps.remove"
)

// Request is one newline-delimited JSON command sent to the daemon.
// Text carries the utterance for say and the app name for apps.remove.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// Response is the daemon reply. Data holds command-specific JSON payloads
// such as conversation history or the registry listing.
type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
