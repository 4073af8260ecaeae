// Package fsm defines the listening state machine shared by the dialogue engine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle                 State = "idle"
	StateListening            State = "listening"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

const (
	EventStart      Event = "start"
	EventStop       Event = "stop"
	EventRecognized Event = "recognized"
	EventPrompt     Event = "prompt"
	EventResolve    Event = "resolve"
	EventFail       Event = "fail"
)

// Transition returns the next state for event, or the current state and an
// error when the event is not valid in current.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateListening, StateAwaitingConfirmation:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	if event == EventFail {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		case EventPrompt:
			return StateAwaitingConfirmation, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventStop, EventRecognized:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		switch event {
		case EventResolve:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
