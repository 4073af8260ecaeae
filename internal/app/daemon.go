package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/hark/internal/assistant"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/dialogue"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/launch"
	"github.com/rbright/hark/internal/registry"
	"github.com/rbright/hark/internal/speech"
)

// commandRun becomes the single owner daemon and serves until SIGINT/SIGTERM.
func (r Runner) commandRun(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	daemon, err := buildDaemon(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("build daemon failed", "error", err.Error())
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, ipc.AcquireOptions{
		ProbeTimeout: 180 * time.Millisecond,
		Retries:      8,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if !errors.Is(err, ipc.ErrAlreadyRunning) {
			logger.Error("acquire socket failed", "error", err.Error())
		}
		return 1
	}
	defer func() {
		if err := ipc.Release(listener, socketPath); err != nil {
			logger.Warn("release socket failed", "error", err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("daemon started", "socket", socketPath, "registry", daemon.registry.Path())
	fmt.Fprintf(r.Stdout, "hark listening for commands on %s\n", socketPath)

	if err := daemon.run(ctx, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err.Error())
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

type daemon struct {
	logger   *slog.Logger
	engine   *dialogue.Engine
	registry *registry.Registry
	watch    bool
}

func buildDaemon(loaded config.Loaded, logger *slog.Logger) (*daemon, error) {
	cfg := loaded.Config

	reg, err := registry.Load(loaded.RegistryPath)
	if err != nil {
		return nil, err
	}

	source, err := newSpeechSource(cfg.Speech, logger)
	if err != nil {
		return nil, err
	}

	envFile := loaded.EnvFile
	client, err := assistant.New(assistant.Options{
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Proxy:   cfg.AI.Proxy,
		Timeout: time.Duration(cfg.AI.TimeoutMS) * time.Millisecond,
		Key: func() (string, error) {
			return assistant.LoadAPIKey(envFile, cfg.AI.APIKeyEnv)
		},
	})
	if err != nil {
		return nil, err
	}

	engine, err := dialogue.New(dialogue.Options{
		Logger:              logger.With("component", "dialogue"),
		Speech:              source,
		Assistant:           client,
		Registry:            reg,
		Launcher:            launch.NewLauncher(cfg.Launcher.Argv, logger),
		Picker:              launch.NewPicker(cfg.Picker.Argv),
		Presenter:           indicator.NewNotifier(cfg.Indicator, logger),
		ConfirmationTimeout: time.Duration(cfg.Confirmation.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		return nil, err
	}

	return &daemon{logger: logger, engine: engine, registry: reg, watch: cfg.Registry.Watch}, nil
}

func newSpeechSource(cfg config.SpeechConfig, logger *slog.Logger) (speech.Source, error) {
	logger = logger.With("component", "speech")
	switch cfg.Backend {
	case config.SpeechBackendWebSocket:
		source, err := speech.NewWebSocketSource(cfg.URL, logger)
		if err != nil {
			return nil, err
		}
		return source, nil
	case config.SpeechBackendCommand:
		return speech.NewCommandSource(cfg.Command.Argv, logger), nil
	default:
		return nil, fmt.Errorf("unsupported speech backend %q", cfg.Backend)
	}
}

// run serves IPC, drives the engine, and watches the registry until ctx is
// done or one of them fails.
func (d *daemon) run(ctx context.Context, listener net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ipc.Serve(ctx, listener, d.engine)
	})
	g.Go(func() error {
		return d.engine.Run(ctx)
	})
	if d.watch {
		g.Go(func() error {
			err := d.registry.Watch(ctx,
				func() {
					d.logger.Info("registry reloaded", "path", d.registry.Path(), "apps", len(d.registry.Names()))
				},
				func(err error) {
					d.logger.Warn("registry reload failed", "path", d.registry.Path(), "error", err.Error())
				},
			)
			if err != nil {
				// external edits are picked up on restart instead
				d.logger.Warn("registry watch disabled", "error", err.Error())
			}
			return nil
		})
	}

	return g.Wait()
}
