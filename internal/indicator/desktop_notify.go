package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rbright/hark/internal/hypr"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notifySignature    = "susssasa{sv}i"
	urgencyLow         = 0
	urgencyNormal      = 1
	urgencyCritical    = 2
	desktopDefaultName = "hark"
)

// desktopMessage is one org.freedesktop.Notifications.Notify call.
type desktopMessage struct {
	appName   string
	replaceID uint32
	icon      string
	summary   string
	urgency   int
	timeoutMS int
}

// desktopStyle maps the Hyprland icon set onto freedesktop icon names and
// urgency levels so both backends express the same states.
func desktopStyle(icon hypr.Icon) (string, int) {
	switch icon {
	case hypr.IconInfo:
		return "audio-input-microphone", urgencyNormal
	case hypr.IconHint:
		return "dialog-question", urgencyCritical
	case hypr.IconError, hypr.IconWarning:
		return "dialog-error", urgencyNormal
	default:
		return "dialog-information", urgencyLow
	}
}

func (m desktopMessage) args() []string {
	return []string{
		"--user", "call", notificationsDest, notificationsPath, notificationsDest,
		"Notify", notifySignature,
		m.appName,
		strconv.FormatUint(uint64(m.replaceID), 10),
		m.icon,
		m.summary,
		"",  // body
		"0", // actions
		"1", "urgency", "y", strconv.Itoa(m.urgency),
		strconv.Itoa(m.timeoutMS),
	}
}

// send delivers the message and returns the server-assigned notification ID.
func (m desktopMessage) send(ctx context.Context) (uint32, error) {
	out, err := busctl(ctx, m.args())
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}

	// busctl prints the reply as "u <id>".
	fields := strings.Fields(out)
	if len(fields) != 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify: unexpected reply %q", out)
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: parse id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}

func desktopClose(ctx context.Context, id uint32) error {
	_, err := busctl(ctx, []string{
		"--user", "call", notificationsDest, notificationsPath, notificationsDest,
		"CloseNotification", "u", strconv.FormatUint(uint64(id), 10),
	})
	if err != nil {
		return fmt.Errorf("desktop close %d: %w", id, err)
	}
	return nil
}

func busctl(ctx context.Context, args []string) (string, error) {
	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, trimmed)
	}
	return trimmed, nil
}
