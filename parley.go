package parley

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/parley/internal/logging"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/openai"
	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/credential"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
)

// Engine is the high-level entry point for the parley library.
// It wires the key resolver, the completion provider, the session manager and the
// observability hooks into a conversation.Machine.
type Engine struct {
	machine  *conversation.Machine
	sessions *session.Manager
	metrics  *observability.Metrics
	logger   *slog.Logger
	settings domain.Settings

	provider     ports.CompletionProvider
	baseURL      string
	secretStore  ports.SecretStore
	secretKey    string
	envKey       string
	envFallback  bool
	store        ports.SessionStore
	storeMW      []middleware.Middleware
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	systemPrompt string
	closers      []func() error
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithProvider injects a custom completion provider, bypassing the OpenAI adapter.
func WithProvider(p ports.CompletionProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithBaseURL points the OpenAI adapter at a compatible endpoint.
func WithBaseURL(url string) Option {
	return func(e *Engine) {
		e.baseURL = url
	}
}

// WithSecretStore sets the highest-priority key source and the entry to read from it.
func WithSecretStore(store ports.SecretStore, key string) Option {
	return func(e *Engine) {
		e.secretStore = store
		e.secretKey = key
	}
}

// WithEnvFallback enables or disables the environment variable key source.
func WithEnvFallback(enabled bool) Option {
	return func(e *Engine) {
		e.envFallback = enabled
	}
}

// WithEnvKey names the environment variable consulted last.
func WithEnvKey(name string) Option {
	return func(e *Engine) {
		e.envKey = name
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithStoreMiddleware wraps the session store. The first middleware is the outermost.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Engine) {
		e.storeMW = append(e.storeMW, mws...)
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithMetrics records Prometheus metrics for every turn.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSystemPrompt sets the system message of new sessions.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) {
		e.systemPrompt = prompt
	}
}

// WithSettings sets the model settings of new sessions.
func WithSettings(settings domain.Settings) Option {
	return func(e *Engine) {
		e.settings = settings
	}
}

// WithCloser registers a function run by Close, e.g. to release a redis client.
func WithCloser(fn func() error) Option {
	return func(e *Engine) {
		e.closers = append(e.closers, fn)
	}
}

// New creates an Engine. Without options it talks to api.openai.com, resolves the key
// from OPENAI_API_KEY and keeps sessions in memory.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:       logging.NewNop(),
		settings:     domain.DefaultSettings(),
		envKey:       domain.DefaultCredentialKey,
		envFallback:  true,
		systemPrompt: domain.DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.settings.Validate(); err != nil {
		return nil, err
	}

	resolverOpts := []credential.Option{credential.WithLogger(e.logger)}
	if e.secretStore != nil {
		key := e.secretKey
		if key == "" {
			key = domain.DefaultCredentialKey
		}
		resolverOpts = append(resolverOpts, credential.WithSecretStore(e.secretStore, key))
	}
	if e.envFallback {
		resolverOpts = append(resolverOpts, credential.WithEnv(e.envKey))
	} else {
		resolverOpts = append(resolverOpts, credential.WithoutEnv())
	}
	resolver := credential.NewResolver(resolverOpts...)

	if e.provider == nil {
		providerOpts := []openai.Option{openai.WithLogger(e.logger)}
		if e.baseURL != "" {
			providerOpts = append(providerOpts, openai.WithBaseURL(e.baseURL))
		}
		e.provider = openai.New(providerOpts...)
	}

	hooks := e.hooks.Merge(observability.LogHooks(e.logger))
	if e.metrics != nil {
		hooks = hooks.Merge(e.metrics.Hooks())
	}

	e.machine = conversation.NewMachine(e.provider, resolver,
		conversation.WithLifecycleHooks(hooks),
		conversation.WithLogger(e.logger),
		conversation.WithSystemPrompt(e.systemPrompt),
	)

	store := e.store
	if store == nil {
		store = memory.NewStore()
	}
	store = middleware.Chain(store, e.storeMW...)

	managerOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(store, managerOpts...)
	return e, nil
}

// Machine returns the conversation state machine.
func (e *Engine) Machine() *conversation.Machine {
	return e.machine
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Metrics returns the configured metrics, or nil.
func (e *Engine) Metrics() *observability.Metrics {
	return e.metrics
}

// NewSession builds a fresh session with the engine's system prompt and settings.
func (e *Engine) NewSession(id string) *domain.Session {
	sess := e.machine.NewSession(id)
	sess.Settings = e.settings
	return sess
}

// Send submits input on the session identified by sessionID, creating it when unknown.
// The session is saved whatever the outcome.
func (e *Engine) Send(ctx context.Context, sessionID, input, manualKey string) (*domain.Session, *conversation.TurnResult, error) {
	var res *conversation.TurnResult
	sess, err := e.sessions.Update(ctx, sessionID, e.NewSession, func(ctx context.Context, sess *domain.Session) error {
		var err error
		res, err = e.machine.Submit(ctx, sess, input, manualKey)
		return err
	})
	return sess, res, err
}

// Clear resets the session's transcript to its system message.
func (e *Engine) Clear(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Update(ctx, sessionID, e.NewSession, func(ctx context.Context, sess *domain.Session) error {
		return e.machine.Clear(ctx, sess)
	})
}

// Handler returns the HTTP front-end. /metrics is mounted when metrics are configured.
func (e *Engine) Handler(opts ...httpAdapter.Option) http.Handler {
	base := []httpAdapter.Option{
		httpAdapter.WithLogger(e.logger),
		httpAdapter.WithVersion(Version),
		httpAdapter.WithSessionFactory(e.NewSession),
	}
	if e.metrics != nil {
		base = append(base, httpAdapter.WithMetrics(e.metrics.Handler()))
	}
	return httpAdapter.NewHandler(e.machine, e.sessions, append(base, opts...)...)
}

// Runner returns a terminal chat loop over a fresh session.
func (e *Engine) Runner(sessionID string, opts ...runner.Option) *runner.Runner {
	base := []runner.Option{
		runner.WithLogger(e.logger),
		runner.WithSessionID(sessionID),
		runner.WithSession(e.NewSession(sessionID)),
	}
	return runner.NewRunner(e.machine, append(base, opts...)...)
}

// Close releases resources registered with WithCloser.
func (e *Engine) Close() error {
	var errs []error
	for _, fn := range e.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
