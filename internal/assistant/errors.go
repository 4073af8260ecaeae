package assistant

import (
	"errors"
	"fmt"
)

// ErrCredentialMissing reports that no API key is configured. No request is sent.
var ErrCredentialMissing = errors.New("api credential missing")

// CredentialError names the environment variable that should hold the key.
type CredentialError struct {
	Env string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("api credential missing: set %s", e.Env)
}

func (e *CredentialError) Unwrap() error {
	return ErrCredentialMissing
}

// NetworkError is a transport failure or a non-2xx response.
// StatusCode is zero when no response was received.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat completion: http %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat completion: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError is a 2xx response whose body could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("decode chat completion: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
