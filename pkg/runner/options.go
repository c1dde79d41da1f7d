package runner

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures a SessionStore the session is saved to after every turn.
func WithStore(store ports.SessionStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSessionID sets the session ID used for new sessions and persistence.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithSession resumes an existing session instead of starting a fresh one.
func WithSession(sess *domain.Session) Option {
	return func(r *Runner) {
		r.session = sess
	}
}

// WithManualKey sets the manual credential override used for every submission.
// It is held in memory only.
func WithManualKey(key string) Option {
	return func(r *Runner) {
		r.manualKey = key
	}
}

// WithSettings overrides the model settings of the session.
func WithSettings(settings domain.Settings) Option {
	return func(r *Runner) {
		r.settings = &settings
	}
}
