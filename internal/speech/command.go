package speech

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// CommandSource runs an external recognizer once per listening session and
// reads JSON lines from its stdout:
//
//	{"text": "open firefox", "confidence": 0.92}
//	{"error": "No audio file provided"}
type CommandSource struct {
	*runner
	argv   []string
	logger *slog.Logger
}

// NewCommandSource builds a source around recognizer argv.
func NewCommandSource(argv []string, logger *slog.Logger) *CommandSource {
	s := &CommandSource{argv: append([]string(nil), argv...), logger: logger}
	s.runner = newRunner(s.open)
	return s
}

type recognizerLine struct {
	Text       *string  `json:"text"`
	Confidence *float64 `json:"confidence"`
	Error      string   `json:"error"`
}

type commandSession struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	logger *slog.Logger
}

func (s *CommandSource) open(ctx context.Context) (session, error) {
	if len(s.argv) == 0 {
		return nil, errors.New("recognizer command is empty")
	}

	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.WaitDelay = 2 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recognizer stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer %q: %w", s.argv[0], err)
	}
	return &commandSession{cmd: cmd, stdout: stdout, stderr: &stderr, logger: s.logger}, nil
}

func (c *commandSession) run(ctx context.Context, emit func(Event) bool) {
	gotResult, gotError, delivered := c.scan(emit)
	waitErr := c.cmd.Wait()
	if !delivered || ctx.Err() != nil || gotError {
		return
	}

	switch {
	case waitErr != nil:
		if msg := strings.TrimSpace(c.stderr.String()); msg != "" {
			c.log("recognizer failed", slog.String("stderr", msg))
		}
		emit(Event{Kind: KindError, Code: waitErr.Error()})
	case gotResult:
		emit(Event{Kind: KindComplete, Cause: CauseComplete})
	default:
		emit(Event{Kind: KindComplete, Cause: CauseNoSpeech})
	}
}

// scan forwards recognizer lines until stdout closes or delivery is refused.
func (c *commandSession) scan(emit func(Event) bool) (gotResult bool, gotError bool, delivered bool) {
	scanner := bufio.NewScanner(c.stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var payload recognizerLine
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			c.log("ignoring non-JSON recognizer output", slog.String("line", line))
			continue
		}

		switch {
		case payload.Error != "":
			gotError = true
			if !emit(Event{Kind: KindError, Code: payload.Error}) {
				return gotResult, gotError, false
			}
		case payload.Text != nil:
			text := strings.TrimSpace(*payload.Text)
			if text == "" {
				continue
			}
			confidence := 1.0
			if payload.Confidence != nil {
				confidence = *payload.Confidence
			}
			gotResult = true
			if !emit(Event{Kind: KindResult, Text: text, Confidence: confidence}) {
				return gotResult, gotError, false
			}
		}
	}
	return gotResult, gotError, true
}

func (c *commandSession) log(msg string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}
