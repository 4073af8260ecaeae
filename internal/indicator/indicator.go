// Package indicator presents dialogue state as desktop notifications and
// audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/hypr"
)

// Presenter is the engine-facing notification contract.
type Presenter interface {
	ShowListening(context.Context)
	ShowPrompt(context.Context, string)
	Show(context.Context, string)
	ShowError(context.Context, string)
	Hide(context.Context)
	CueStop(context.Context)
	CueComplete(context.Context)
	CueCancel(context.Context)
}

const (
	stickyTimeoutMS = 300000

	colorListening = "rgb(89b4fa)"
	colorPrompt    = "rgb(f9e2af)"
	colorReply     = "rgb(a6e3a1)"
	colorError     = "rgb(f38ba8)"

	listeningText     = "Listening…"
	fallbackErrorText = "Voice command error"
	fallbackErrorMS   = 1200
)

// Notifier routes notifications through Hyprland or desktop DBus based on
// the configured backend.
type Notifier struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewNotifier creates a presenter from config.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// ShowListening signals that a listening session started and emits the start cue.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.playCue(cueStart)
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconInfo, stickyTimeoutMS, colorListening, listeningText)
	})
}

// ShowPrompt keeps a yes/no question visible until the next notification.
func (n *Notifier) ShowPrompt(ctx context.Context, text string) {
	n.playCue(cuePrompt)
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconHint, stickyTimeoutMS, colorPrompt, text)
	})
}

// Show displays a status line or AI reply for a length-scaled duration.
func (n *Notifier) Show(ctx context.Context, text string) {
	if !n.cfg.Enable || strings.TrimSpace(text) == "" {
		return
	}
	timeout := int(ReplyDuration(n.cfg, text) / time.Millisecond)
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconOK, timeout, colorReply, text)
	})
}

// ShowError displays an error-state message.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	if text == "" {
		text = fallbackErrorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = fallbackErrorMS
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.IconError, timeout, colorError, text)
	})
}

func (n *Notifier) CueStop(context.Context) {
	n.playCue(cueStop)
}

func (n *Notifier) CueComplete(context.Context) {
	n.playCue(cueComplete)
}

func (n *Notifier) CueCancel(context.Context) {
	n.playCue(cueCancel)
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// ReplyDuration is how long a bubble for text stays visible:
// reply_base_ms + reply_per_char_ms per rune, capped at reply_max_ms when set.
func ReplyDuration(cfg config.IndicatorConfig, text string) time.Duration {
	ms := cfg.ReplyBaseMS + cfg.ReplyPerCharMS*utf8.RuneCountInString(text)
	if cfg.ReplyMaxMS > 0 && ms > cfg.ReplyMaxMS {
		ms = cfg.ReplyMaxMS
	}
	if ms <= 0 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

func (n *Notifier) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop")
}

func (n *Notifier) notify(ctx context.Context, icon hypr.Icon, timeoutMS int, color string, text string) error {
	if n.desktopBackend() {
		return n.notifyDesktop(ctx, icon, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if n.desktopBackend() {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, icon hypr.Icon, timeoutMS int, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	msg := desktopMessage{
		appName:   strings.TrimSpace(n.cfg.DesktopAppName),
		replaceID: replaceID,
		summary:   text,
		timeoutMS: timeoutMS,
	}
	if msg.appName == "" {
		msg.appName = desktopDefaultName
	}
	msg.icon, msg.urgency = desktopStyle(icon)

	id, err := msg.send(ctx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopClose(ctx, id)
}

// run executes a notification call with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
