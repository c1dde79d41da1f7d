package runner

import (
	"context"
	"errors"

	"github.com/aretw0/parley/pkg/conversation"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a chat bubble to the user.
	Output(ctx context.Context, bubble conversation.Bubble) error

	// Input reads the next line. It returns io.EOF when the stream ends.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (errors, usage, command feedback).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// ErrInputBusy is returned by ReadSecret while a line read is still pending.
var ErrInputBusy = errors.New("input is busy")

// SecretReader is implemented by handlers that can read a value without echoing it.
type SecretReader interface {
	ReadSecret(ctx context.Context) (string, error)
}
