package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
)

// ShutdownTimeout is the deadline given to outstanding requests on shutdown.
const ShutdownTimeout = 5 * time.Second

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	Config *config.Config

	// Stderr receives logs; defaults to os.Stderr.
	Stderr io.Writer

	// Listener, when set, is used instead of listening on Config.Addr.
	Listener net.Listener

	// EngineOptions are appended when the engine is built.
	EngineOptions []parley.Option

	// Parent bounds the server; defaults to context.Background.
	Parent context.Context
}

// RunServe starts the HTTP front-end and blocks until a signal arrives or the server fails.
func RunServe(opts ServeOptions) error {
	errOut := opts.Stderr
	if errOut == nil {
		errOut = os.Stderr
	}
	logger, err := NewLogger(opts.Config, errOut)
	if err != nil {
		return err
	}

	parent := opts.Parent
	if parent == nil {
		parent = context.Background()
	}
	sigCtx := NewSignalContext(parent)
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

	srv := &http.Server{
		Addr: opts.Config.Addr,
		Handler: engine.Handler(
			httpAdapter.WithSecureCookie(opts.Config.SecureCookie),
			httpAdapter.WithCookieTTL(opts.Config.SessionTTL),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		if opts.Listener != nil {
			logger.Info("Starting parley server", "addr", opts.Listener.Addr().String(), "version", parley.Version)
			serverErrors <- srv.Serve(opts.Listener)
			return
		}
		logger.Info("Starting parley server", "addr", srv.Addr, "version", parley.Version)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		logger.Info("Start shutdown", "signal", fmt.Sprint(sigCtx.Signal()))

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("Parley server stopped gracefully")
		return nil
	}
}
