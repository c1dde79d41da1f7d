package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// ChatOptions contains the configuration for the chat command.
type ChatOptions struct {
	Config    *config.Config
	JSON      bool
	NoPrompt  bool
	SessionID string

	// Stdin, Stdout and Stderr default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// EngineOptions are appended when the engine is built.
	EngineOptions []parley.Option

	// Parent bounds the chat; defaults to context.Background.
	Parent context.Context
}

// Context returns the parent context.
func (o *ChatOptions) Context() context.Context {
	if o.Parent == nil {
		return context.Background()
	}
	return o.Parent
}

func (o *ChatOptions) streams() (io.Reader, io.Writer, io.Writer) {
	in, out, errOut := o.Stdin, o.Stdout, o.Stderr
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return in, out, errOut
}

// RunChat executes an interactive terminal conversation.
func RunChat(opts ChatOptions) error {
	in, out, errOut := opts.streams()

	logger, err := NewLogger(opts.Config, errOut)
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(opts.Context())
	defer sigCtx.Cancel()

	engine, err := NewEngine(sigCtx, opts.Config, logger, opts.EngineOptions...)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("Failed to release resources", "error", err)
		}
	}()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = runner.DefaultSessionID
	}

	var handler runner.IOHandler
	var manualKey string
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		tui.PrintBanner(out, opts.Config.Settings().Model)
		source, ok := engine.Machine().KeyStatus(sigCtx)
		if ok {
			printSystemMessage(out, "Using OpenAI key from %s.", source)
		} else if !opts.NoPrompt {
			if f, isFile := in.(*os.File); isFile {
				manualKey, err = runner.PromptKey(f, out)
				if err != nil && !errors.Is(err, runner.ErrNotTerminal) {
					return err
				}
			}
		}

		var textOpts []runner.TextHandlerOption
		if runner.IsTerminal(out) {
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(tui.DefaultWordWrap)))
		}
		handler = runner.NewTextHandler(in, out, textOpts...)
		_ = handler.SystemOutput(sigCtx, runner.HelpText)
	}

	runnerOpts := []runner.Option{
		runner.WithInputHandler(handler),
		runner.WithManualKey(manualKey),
		runner.WithStore(engine.Sessions()),
	}
	// Persistent stores resume the named session.
	if opts.Config.Store.Kind != config.StoreMemory {
		sess, err := engine.Sessions().Load(sigCtx, sessionID)
		switch {
		case err == nil:
			logger.Debug("Resuming session", "session_id", sessionID, "messages", sess.Transcript.Len())
			runnerOpts = append(runnerOpts, runner.WithSession(sess))
		case !errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("failed to load session: %w", err)
		}
	}

	r := engine.Runner(sessionID, runnerOpts...)

	runErr := r.Run(sigCtx)
	if sig := sigCtx.Signal(); sig != nil {
		logger.Debug("Chat interrupted", "signal", sig.String())
		if !opts.JSON {
			fmt.Fprintln(out)
		}
		return nil
	}
	return runErr
}
