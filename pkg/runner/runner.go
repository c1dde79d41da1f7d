package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultSessionID names the terminal session when none is set.
const DefaultSessionID = "terminal"

// HelpText lists the local commands.
const HelpText = "Commands: /clear, /usage, /key [value], /temperature [value], /help, /exit"

// Runner drives a conversation.Machine from a line-oriented IOHandler.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Store, when set, receives the session after every turn.
	Store ports.SessionStore

	// SessionID identifies the session for persistence and hooks.
	SessionID string

	machine   *conversation.Machine
	session   *domain.Session
	settings  *domain.Settings
	manualKey string
}

// NewRunner creates a Runner for machine.
func NewRunner(machine *conversation.Machine, opts ...Option) *Runner {
	r := &Runner{
		machine:   machine,
		Logger:    logging.NewNop(),
		SessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Session returns the session driven by the runner, once Run has started.
func (r *Runner) Session() *domain.Session {
	return r.session
}

// Run executes the chat loop until the input ends, the user exits or ctx is done.
// Turn failures are reported through the handler and never end the loop.
func (r *Runner) Run(ctx context.Context) error {
	handler := r.resolveHandler()
	if r.session == nil {
		r.session = r.machine.NewSession(r.SessionID)
	}
	if r.settings != nil {
		if err := r.settings.Validate(); err != nil {
			return err
		}
		r.session.Settings = *r.settings
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	for {
		currentCtx := signals.Context()

		line, err := handler.Input(currentCtx)
		if err != nil {
			signals.CheckRace()
			if currentCtx.Err() != nil || errors.Is(err, io.EOF) {
				r.Logger.Debug("Runner input closed", "err", err)
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		done, err := r.step(currentCtx, handler, line)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		// A signal during the request cancels that request only.
		if currentCtx.Err() != nil && ctx.Err() == nil {
			signals.Reset()
		}
	}
}

// step handles one input line. It reports whether the loop should end.
func (r *Runner) step(ctx context.Context, handler IOHandler, line string) (bool, error) {
	sess := r.session
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/key":
		return false, handler.SystemOutput(ctx, r.setKey(ctx, handler, arg))
	case "/temperature":
		return false, handler.SystemOutput(ctx, r.setTemperature(ctx, arg))
	}

	switch strings.TrimSpace(line) {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		return false, handler.SystemOutput(ctx, HelpText)
	case "/usage":
		if sess.LastUsage == nil {
			return false, handler.SystemOutput(ctx, "No usage reported yet.")
		}
		return false, handler.SystemOutput(ctx, sess.LastUsage.String())
	case "/clear":
		if err := r.machine.Clear(ctx, sess); err != nil {
			return false, handler.SystemOutput(ctx, conversation.UserMessage(err))
		}
		r.save(ctx)
		return false, handler.SystemOutput(ctx, "Conversation cleared.")
	}

	res, err := r.machine.Submit(ctx, sess, line, r.manualKey)
	if err != nil {
		r.save(ctx)
		if ctx.Err() != nil {
			return false, handler.SystemOutput(ctx, "Request cancelled.")
		}
		return false, handler.SystemOutput(ctx, conversation.UserMessage(err))
	}
	r.save(ctx)

	return false, handler.Output(ctx, conversation.Bubble{Role: domain.RoleAssistant, Content: res.Reply})
}

// setKey replaces the manual key for the following turns. Without a value the key is read
// without echo when the handler supports it; an empty answer clears the override.
func (r *Runner) setKey(ctx context.Context, handler IOHandler, value string) string {
	if value == "" {
		reader, ok := handler.(SecretReader)
		if !ok {
			return "Usage: /key <value>"
		}
		var err error
		value, err = reader.ReadSecret(ctx)
		if errors.Is(err, ErrNotTerminal) {
			return "Usage: /key <value>"
		}
		if err != nil {
			r.Logger.Debug("Key prompt failed", "err", err)
			return "Could not read the key."
		}
	}
	r.manualKey = strings.TrimSpace(value)
	if r.manualKey == "" {
		return "Manual key cleared."
	}
	return "Manual key set for this session."
}

// setTemperature shows or changes the session temperature.
func (r *Runner) setTemperature(ctx context.Context, value string) string {
	sess := r.session
	if value == "" {
		return fmt.Sprintf("Temperature: %.2f", sess.Settings.Temperature)
	}
	t, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return conversation.UserMessage(fmt.Errorf("%w: %q is not a number", domain.ErrTemperatureRange, value))
	}
	candidate := sess.Settings
	candidate.Temperature = t
	if err := candidate.Validate(); err != nil {
		return conversation.UserMessage(err)
	}
	sess.Settings = candidate
	r.save(ctx)
	return fmt.Sprintf("Temperature set to %.2f.", t)
}

func (r *Runner) save(ctx context.Context) {
	if r.Store == nil {
		return
	}
	// The signal context may be cancelled already; saving must still happen.
	if err := r.Store.Save(context.WithoutCancel(ctx), r.session.ID, r.session); err != nil {
		r.Logger.Warn("Failed to save session", "session_id", r.session.ID, "err", err)
		return
	}
	r.Logger.Debug("Session saved", "session_id", r.session.ID, "messages", r.session.Transcript.Len())
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}
