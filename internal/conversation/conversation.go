// Package conversation keeps the ordered user/assistant history sent with each AI query.
package conversation

import (
	"errors"
	"fmt"
	"sync"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrOutOfOrder reports an assistant turn without a preceding user turn.
var ErrOutOfOrder = errors.New("assistant turn must follow a user turn")

// Store is an append-only, in-memory conversation history.
type Store struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Append(turn Turn) error {
	switch turn.Role {
	case RoleUser, RoleAssistant:
	case "":
		return fmt.Errorf("turn role must not be empty")
	default:
		return fmt.Errorf("unknown turn role %q", turn.Role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.Role == RoleAssistant {
		if len(s.turns) == 0 || s.turns[len(s.turns)-1].Role != RoleUser {
			return ErrOutOfOrder
		}
	}
	s.turns = append(s.turns, turn)
	return nil
}

// Turns returns a copy of the history in chronological order.
func (s *Store) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}
