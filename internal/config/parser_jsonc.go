package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	AI           *jsoncAI           `json:"ai"`
	Speech       *jsoncSpeech       `json:"speech"`
	Registry     *jsoncRegistry     `json:"registry"`
	Confirmation *jsoncConfirmation `json:"confirmation"`
	Indicator    *jsoncIndicator    `json:"indicator"`

	LauncherCmd *string `json:"launcher_cmd"`
	PickerCmd   *string `json:"picker_cmd"`
}

type jsoncAI struct {
	BaseURL   *string `json:"base_url"`
	Model     *string `json:"model"`
	APIKeyEnv *string `json:"api_key_env"`
	EnvFile   *string `json:"env_file"`
	Proxy     *string `json:"proxy"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncSpeech struct {
	Backend    *string `json:"backend"`
	Command    *string `json:"command"`
	URL        *string `json:"url"`
	HealthGRPC *string `json:"health_grpc"`
}

type jsoncRegistry struct {
	Path  *string `json:"path"`
	Watch *bool   `json:"watch"`
}

type jsoncConfirmation struct {
	TimeoutMS *int `json:"timeout_ms"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
	ReplyBaseMS    *int    `json:"reply_base_ms"`
	ReplyPerCharMS *int    `json:"reply_per_char_ms"`
	ReplyMaxMS     *int    `json:"reply_max_ms"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if ai := payload.AI; ai != nil {
		setTrimmed(&cfg.AI.BaseURL, ai.BaseURL)
		setTrimmed(&cfg.AI.Model, ai.Model)
		setTrimmed(&cfg.AI.APIKeyEnv, ai.APIKeyEnv)
		setTrimmed(&cfg.AI.EnvFile, ai.EnvFile)
		setTrimmed(&cfg.AI.Proxy, ai.Proxy)
		if ai.TimeoutMS != nil {
			cfg.AI.TimeoutMS = *ai.TimeoutMS
		}
	}

	if speech := payload.Speech; speech != nil {
		if speech.Backend != nil {
			cfg.Speech.Backend = strings.ToLower(strings.TrimSpace(*speech.Backend))
		}
		if err := setCommand(&cfg.Speech.Command, speech.Command, "speech.command"); err != nil {
			return nil, err
		}
		setTrimmed(&cfg.Speech.URL, speech.URL)
		setTrimmed(&cfg.Speech.HealthGRPC, speech.HealthGRPC)
	}

	if payload.Registry != nil {
		setTrimmed(&cfg.Registry.Path, payload.Registry.Path)
		if payload.Registry.Watch != nil {
			cfg.Registry.Watch = *payload.Registry.Watch
		}
	}

	if payload.Confirmation != nil && payload.Confirmation.TimeoutMS != nil {
		cfg.Confirmation.TimeoutMS = *payload.Confirmation.TimeoutMS
	}

	if ind := payload.Indicator; ind != nil {
		if ind.Enable != nil {
			cfg.Indicator.Enable = *ind.Enable
		}
		setTrimmed(&cfg.Indicator.Backend, ind.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		if ind.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *ind.SoundEnable
		}
		if ind.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *ind.ErrorTimeoutMS
		}
		if ind.ReplyBaseMS != nil {
			cfg.Indicator.ReplyBaseMS = *ind.ReplyBaseMS
		}
		if ind.ReplyPerCharMS != nil {
			cfg.Indicator.ReplyPerCharMS = *ind.ReplyPerCharMS
		}
		if ind.ReplyMaxMS != nil {
			cfg.Indicator.ReplyMaxMS = *ind.ReplyMaxMS
		}
	}

	if err := setCommand(&cfg.Launcher, payload.LauncherCmd, "launcher_cmd"); err != nil {
		return nil, err
	}
	if err := setCommand(&cfg.Picker, payload.PickerCmd, "picker_cmd"); err != nil {
		return nil, err
	}

	if cfg.Speech.Backend == SpeechBackendWebSocket && len(cfg.Speech.Command.Argv) > 0 && payload.Speech != nil && payload.Speech.Command != nil {
		warnings = append(warnings, Warning{Message: "speech.command is ignored when speech.backend=websocket"})
	}

	return warnings, nil
}

func setCommand(dst *CommandConfig, src *string, key string) error {
	if src == nil {
		return nil
	}
	cmd, err := parseCommand(*src)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = cmd
	return nil
}

func setTrimmed(dst *string, src *string) {
	if src == nil {
		return
	}
	*dst = strings.TrimSpace(*src)
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
