package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/domain"
)

// ErrSessionCommand reports that at least one session operation failed.
var ErrSessionCommand = errors.New("session command failed")

// SessionOptions contains the configuration for the session subcommands.
type SessionOptions struct {
	Config *config.Config

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// EngineOptions are appended when the engine is built.
	EngineOptions []parley.Option

	// Parent bounds the command; defaults to context.Background.
	Parent context.Context
}

// withEngine builds an engine from opts, runs fn and releases the engine.
func withEngine(opts SessionOptions, fn func(ctx context.Context, engine *parley.Engine, out io.Writer) error) error {
	out, errOut := opts.Stdout, opts.Stderr
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	ctx := opts.Parent
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := NewLogger(opts.Config, errOut)
	if err != nil {
		return err
	}
	if opts.Config.Store.Kind == config.StoreMemory {
		logger.Warn("The memory store keeps no sessions between runs; use --store file or redis")
	}

	engine, err := NewEngine(ctx, opts.Config, logger, opts.EngineOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("Failed to release resources", "error", err)
		}
	}()
	return fn(ctx, engine, out)
}

// ListSessions prints the IDs of stored sessions.
func ListSessions(opts SessionOptions) error {
	return withEngine(opts, func(ctx context.Context, engine *parley.Engine, out io.Writer) error {
		sessions, err := engine.Sessions().List(ctx)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}

		if len(sessions) == 0 {
			fmt.Fprintln(out, "No active sessions found.")
			return nil
		}

		fmt.Fprintln(out, "Active Sessions:")
		for _, s := range sessions {
			fmt.Fprintln(out, "- "+s)
		}
		return nil
	})
}

// InspectSession prints one session as indented JSON.
func InspectSession(opts SessionOptions, sessionID string) error {
	return withEngine(opts, func(ctx context.Context, engine *parley.Engine, out io.Writer) error {
		sess, err := engine.Sessions().Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", sessionID, err)
		}

		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling session: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	})
}

// RemoveSessions deletes each session, reporting every failure before returning ErrSessionCommand.
func RemoveSessions(opts SessionOptions, sessionIDs ...string) error {
	return withEngine(opts, func(ctx context.Context, engine *parley.Engine, out io.Writer) error {
		hasError := false
		for _, sessionID := range sessionIDs {
			if _, err := engine.Sessions().Load(ctx, sessionID); errors.Is(err, domain.ErrSessionNotFound) {
				fmt.Fprintf(out, "No session '%s'\n", sessionID)
				hasError = true
				continue
			}
			if err := engine.Sessions().Delete(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "Error removing '%s': %v\n", sessionID, err)
				hasError = true
				continue
			}
			fmt.Fprintf(out, "Removed session '%s'\n", sessionID)
		}
		if hasError {
			return ErrSessionCommand
		}
		return nil
	})
}
