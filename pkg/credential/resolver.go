package credential

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Credential is a resolved API key. Its String and LogValue never reveal the value.
type Credential struct {
	value  string
	source string
}

// Value returns the raw key. Only the provider adapter should call it.
func (c Credential) Value() string { return c.value }

// Source names the source that produced the key.
func (c Credential) Source() string { return c.source }

// IsZero reports whether no key was resolved.
func (c Credential) IsZero() bool { return c.value == "" }

func (c Credential) String() string { return "***" }

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("source", c.source), slog.String("value", "***"))
}

// Resolver walks the credential sources in priority order.
type Resolver struct {
	secret Source
	env    Source
	logger *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithSecretStore sets the priority-1 source.
func WithSecretStore(store ports.SecretStore, key string) Option {
	return func(r *Resolver) {
		r.secret = SecretSource(store, key)
	}
}

// WithEnv sets the priority-3 environment variable.
func WithEnv(name string) Option {
	return func(r *Resolver) {
		r.env = EnvSource(name)
	}
}

// WithoutEnv disables the environment fallback.
func WithoutEnv() Option {
	return func(r *Resolver) {
		r.env = nil
	}
}

// WithLogger configures a logger for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver. By default the env fallback reads OPENAI_API_KEY
// and no secret store is configured.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		env:    EnvSource(domain.DefaultCredentialKey),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sources returns the ordered candidate list for one submission.
func (r *Resolver) Sources(manual string) []Source {
	sources := make([]Source, 0, 3)
	if r.secret != nil {
		sources = append(sources, r.secret)
	}
	sources = append(sources, Manual(manual))
	if r.env != nil {
		sources = append(sources, r.env)
	}
	return sources
}

// Resolve returns the first non-empty candidate for this submission.
// It returns a *domain.ConfigurationError wrapping domain.ErrNoCredential when none is set.
func (r *Resolver) Resolve(ctx context.Context, manual string) (Credential, error) {
	return r.first(ctx, r.Sources(manual))
}

// Available reports whether a process-wide source (secret store or env) currently holds a key.
func (r *Resolver) Available(ctx context.Context) (string, bool) {
	var sources []Source
	if r.secret != nil {
		sources = append(sources, r.secret)
	}
	if r.env != nil {
		sources = append(sources, r.env)
	}
	c, err := r.first(ctx, sources)
	if err != nil {
		return "", false
	}
	return c.source, true
}

func (r *Resolver) first(ctx context.Context, sources []Source) (Credential, error) {
	for _, src := range sources {
		v, err := src.Lookup(ctx)
		if err != nil {
			// A broken source counts as empty; the value is never logged.
			r.logger.Debug("Credential source lookup failed", "source", src.Name(), "err", err)
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return Credential{value: v, source: src.Name()}, nil
		}
	}
	return Credential{}, &domain.ConfigurationError{Err: domain.ErrNoCredential}
}
