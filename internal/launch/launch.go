// Package launch starts registered applications and asks the user to pick
// an executable for new registry entries.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
)

// Launcher starts executables detached from the daemon, optionally through a
// prefix argv such as `uwsm app --` or `setsid`.
type Launcher struct {
	prefix []string
	logger *slog.Logger
}

func NewLauncher(prefix []string, logger *slog.Logger) *Launcher {
	return &Launcher{prefix: append([]string(nil), prefix...), logger: logger}
}

// Launch starts path and returns once the process is running. The child is
// reaped in the background.
func (l *Launcher) Launch(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("executable path cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	argv := append(append([]string(nil), l.prefix...), path)

	// Not bound to ctx: the launched app must outlive the request.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		if l.logger == nil {
			return
		}
		if err != nil {
			l.logger.Warn("launched app exited with error", "path", path, "pid", pid, "error", err.Error())
			return
		}
		l.logger.Debug("launched app exited", "path", path, "pid", pid)
	}()
	return nil
}
