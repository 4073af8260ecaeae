package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		AI: AIConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			Model:     "llama3-70b-8192",
			APIKeyEnv: "GROQ_API_KEY",
			TimeoutMS: 30000,
		},
		Speech: SpeechConfig{
			Backend: SpeechBackendCommand,
			Command: mustCommand("hark-recognize --json"),
		},
		Registry:     RegistryConfig{Watch: true},
		Confirmation: ConfirmationConfig{TimeoutMS: 10000},
		Picker:       mustCommand(`zenity --file-selection --title "Select App"`),
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "hark",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
			ReplyBaseMS:    4000,
			ReplyPerCharMS: 45,
			ReplyMaxMS:     20000,
		},
	}
}
