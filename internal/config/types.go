// Package config resolves, parses, validates, and defaults hark configuration.
package config

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	AI           AIConfig
	Speech       SpeechConfig
	Registry     RegistryConfig
	Confirmation ConfirmationConfig
	Launcher     CommandConfig
	Picker       CommandConfig
	Indicator    IndicatorConfig
}

// AIConfig controls the chat-completion endpoint and its credential source.
type AIConfig struct {
	BaseURL   string
	Model     string
	APIKeyEnv string
	EnvFile   string
	Proxy     string
	TimeoutMS int
}

// SpeechConfig selects and configures the recognizer backend.
type SpeechConfig struct {
	Backend    string
	Command    CommandConfig
	URL        string
	HealthGRPC string
}

// RegistryConfig locates the persisted app registry file.
type RegistryConfig struct {
	Path  string
	Watch bool
}

// ConfirmationConfig controls the spoken yes/no sub-dialogue.
type ConfirmationConfig struct {
	TimeoutMS int
}

// IndicatorConfig controls notification output and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
	ReplyBaseMS    int
	ReplyPerCharMS int
	ReplyMaxMS     int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

const (
	SpeechBackendCommand   = "command"
	SpeechBackendWebSocket = "websocket"
)
