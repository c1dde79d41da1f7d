package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoCredential is returned when no credential source yields a value.
var ErrNoCredential = errors.New("no API key available")

// ErrEmptyInput is returned for empty or whitespace-only submissions.
var ErrEmptyInput = errors.New("empty input")

// ErrTurnInFlight is returned when a submission arrives while a request is outstanding.
var ErrTurnInFlight = errors.New("a request is already in flight for this session")

// ErrUnsupportedModel is returned when a session selects a model outside SupportedModels.
var ErrUnsupportedModel = errors.New("unsupported model")

// ErrTemperatureRange is returned when the temperature is outside [MinTemperature, MaxTemperature].
var ErrTemperatureRange = errors.New("temperature out of range")

// ErrEmptyCompletion is returned when the provider reply carries no choices.
var ErrEmptyCompletion = errors.New("completion has no choices")

// ConfigurationError reports that the turn could not be sent because of missing configuration.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError reports that the outbound completion call failed for any reason.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTurnFailure reports whether err is one of the two errors a turn surfaces inline.
func IsTurnFailure(err error) bool {
	var cfg *ConfigurationError
	var tr *TransportError
	return errors.As(err, &cfg) || errors.As(err, &tr)
}
