// Package dialogue owns the listening state machine, command routing, the
// spoken yes/no confirmation, and AI queries. Every input is serialized
// through Engine.Run so state changes happen on one goroutine.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/hark/internal/conversation"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/speech"
)

// ErrBusy is returned when the engine input queue is full.
var ErrBusy = errors.New("dialogue engine busy; try again")

const (
	defaultConfirmationTimeout = 10 * time.Second
	speechStopTimeout          = 2 * time.Second
	inputQueueSize             = 8
)

// Assistant answers free-form queries with the full conversation history.
type Assistant interface {
	Ready() error
	Send(context.Context, []conversation.Turn) (string, error)
}

// Registry maps spoken app names to executables.
type Registry interface {
	Lookup(string) (string, bool)
	Add(name string, path string) error
	Delete(name string) (bool, error)
	LoadAll() map[string]string
}

type Launcher interface {
	Launch(ctx context.Context, path string) error
}

type Picker interface {
	ChooseExecutable(context.Context) (string, bool, error)
}

// Options wires engine collaborators. Presenter may be nil.
type Options struct {
	Logger              *slog.Logger
	Speech              speech.Source
	Assistant           Assistant
	Registry            Registry
	Launcher            Launcher
	Picker              Picker
	Presenter           indicator.Presenter
	ConfirmationTimeout time.Duration
}

// Snapshot is a consistent view of engine state.
type Snapshot struct {
	State                fsm.State `json:"state"`
	Status               string    `json:"status"`
	LastResult           string    `json:"last_result,omitempty"`
	AwaitingConfirmation bool      `json:"awaiting_confirmation"`
}

type inputKind int

const (
	inputToggle inputKind = iota + 1
	inputSay
)

type input struct {
	kind inputKind
	text string
}

// Engine is the dialogue state owner. Create with New and drive with Run.
type Engine struct {
	logger    *slog.Logger
	speech    speech.Source
	assistant Assistant
	registry  Registry
	launcher  Launcher
	picker    Picker
	presenter indicator.Presenter
	timeout   time.Duration
	history   *conversation.Store

	mu         sync.RWMutex
	state      fsm.State
	status     string
	lastResult string

	inputs    chan input
	deadlines chan string
	done      chan struct{}
	runOnce   sync.Once

	// pending is owned by the Run goroutine.
	pending *confirmation
}

// New validates collaborators and returns an idle engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Speech == nil:
		return nil, errors.New("dialogue: speech source is required")
	case opts.Assistant == nil:
		return nil, errors.New("dialogue: assistant is required")
	case opts.Registry == nil:
		return nil, errors.New("dialogue: registry is required")
	case opts.Launcher == nil:
		return nil, errors.New("dialogue: launcher is required")
	case opts.Picker == nil:
		return nil, errors.New("dialogue: picker is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = noopPresenter{}
	}
	timeout := opts.ConfirmationTimeout
	if timeout <= 0 {
		timeout = defaultConfirmationTimeout
	}

	return &Engine{
		logger:    logger,
		speech:    opts.Speech,
		assistant: opts.Assistant,
		registry:  opts.Registry,
		launcher:  opts.Launcher,
		picker:    opts.Picker,
		presenter: presenter,
		timeout:   timeout,
		history:   conversation.NewStore(),
		state:     fsm.StateIdle,
		inputs:    make(chan input, inputQueueSize),
		deadlines: make(chan string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Snapshot returns the current state, status text, and last utterance.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		State:                e.state,
		Status:               e.status,
		LastResult:           e.lastResult,
		AwaitingConfirmation: e.state == fsm.StateAwaitingConfirmation,
	}
}

func (e *Engine) State() fsm.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// History returns the conversation turns recorded so far.
func (e *Engine) History() []conversation.Turn {
	return e.history.Turns()
}

// Toggle requests a listening start or stop. It never blocks.
func (e *Engine) Toggle() error {
	if e.State() == fsm.StateAwaitingConfirmation {
		return errAwaitingAnswer
	}
	return e.enqueue(input{kind: inputToggle})
}

// Say injects text as if it had been recognized.
func (e *Engine) Say(text string) error {
	if e.State() == fsm.StateListening {
		return errListening
	}
	return e.enqueue(input{kind: inputSay, text: text})
}

func (e *Engine) enqueue(in input) error {
	select {
	case <-e.done:
		return errStopped
	default:
	}
	select {
	case e.inputs <- in:
		return nil
	default:
		return ErrBusy
	}
}

var (
	errAwaitingAnswer = errors.New("waiting for a yes or no answer")
	errListening      = errors.New("cannot inject text while listening")
	errStopped        = errors.New("dialogue engine stopped")
)

// Run processes inputs, speech events, and confirmation deadlines until ctx
// is done. A pending confirmation is resolved as failed on shutdown.
func (e *Engine) Run(ctx context.Context) error {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("dialogue: engine already ran")
	}
	defer close(e.done)
	defer e.shutdown()

	events := e.speech.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case in := <-e.inputs:
			switch in.kind {
			case inputToggle:
				e.handleToggle(ctx)
			case inputSay:
				e.handleSay(ctx, in.text)
			}
		case ev := <-events:
			e.handleSpeech(ctx, ev)
		case id := <-e.deadlines:
			e.handleDeadline(ctx, id)
		}
	}
}

func (e *Engine) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), speechStopTimeout)
	defer cancel()

	if e.pending != nil {
		e.resolve(ctx, outcomeFailed)
	}
	e.stopSpeech()
	if e.State() != fsm.StateIdle {
		_ = e.transition(fsm.EventFail)
	}
	e.presenter.Hide(ctx)
}

func (e *Engine) transition(event fsm.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fsm.Transition(e.state, event)
	if err != nil {
		return err
	}
	e.state = next
	return nil
}

func (e *Engine) setStatus(status string) {
	e.mu.Lock()
	e.status = status
	state := e.state
	e.mu.Unlock()

	e.logger.Info("status", "state", string(state), "status", status)
}

func (e *Engine) setLastResult(text string) {
	e.mu.Lock()
	e.lastResult = text
	e.mu.Unlock()
}

// stopSpeech stops the source with a bounded wait.
func (e *Engine) stopSpeech() {
	ctx, cancel := context.WithTimeout(context.Background(), speechStopTimeout)
	defer cancel()
	if err := e.speech.Stop(ctx); err != nil {
		e.logger.Warn("speech stop failed", "error", err.Error())
	}
}

type noopPresenter struct{}

func (noopPresenter) ShowListening(context.Context)     {}
func (noopPresenter) ShowPrompt(context.Context, string) {}
func (noopPresenter) Show(context.Context, string)       {}
func (noopPresenter) ShowError(context.Context, string)  {}
func (noopPresenter) Hide(context.Context)               {}
func (noopPresenter) CueStop(context.Context)            {}
func (noopPresenter) CueComplete(context.Context)        {}
func (noopPresenter) CueCancel(context.Context)          {}
