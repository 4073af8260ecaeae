package launch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Picker runs a file-selection dialog command such as
// `zenity --file-selection --title "Select App"`.
type Picker struct {
	argv []string
}

func NewPicker(argv []string) *Picker {
	return &Picker{argv: append([]string(nil), argv...)}
}

// ChooseExecutable returns the selected path. ok is false when the user
// cancelled, which the dialog reports as exit status 1 with no output.
func (p *Picker) ChooseExecutable(ctx context.Context) (string, bool, error) {
	if len(p.argv) == 0 {
		return "", false, fmt.Errorf("picker argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, p.argv[0], p.argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	path := strings.TrimSpace(stdout.String())

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return path, path != "", nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && path == "":
		return "", false, nil
	default:
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", false, fmt.Errorf("run picker %s: %w (%s)", p.argv[0], err, msg)
		}
		return "", false, fmt.Errorf("run picker %s: %w", p.argv[0], err)
	}
}
