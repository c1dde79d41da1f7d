package credential

import (
	"context"
	"os"

	"github.com/aretw0/parley/pkg/ports"
)

// Source names of the built-in sources.
const (
	SourceSecrets = "secrets"
	SourceManual  = "manual"
	SourceEnv     = "env"
)

// Source is one candidate location of the credential.
type Source interface {
	Name() string
	// Lookup returns "" when the source has no value.
	Lookup(ctx context.Context) (string, error)
}

type secretSource struct {
	store ports.SecretStore
	key   string
}

// SecretSource reads key from a secret store.
func SecretSource(store ports.SecretStore, key string) Source {
	return secretSource{store: store, key: key}
}

func (s secretSource) Name() string { return SourceSecrets }

func (s secretSource) Lookup(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", nil
	}
	return s.store.Secret(ctx, s.key)
}

// Manual is the value typed into the session's masked key field.
type Manual string

func (m Manual) Name() string { return SourceManual }

func (m Manual) Lookup(ctx context.Context) (string, error) {
	return string(m), nil
}

type envSource struct {
	name string
}

// EnvSource reads the named environment variable.
func EnvSource(name string) Source {
	return envSource{name: name}
}

func (e envSource) Name() string { return SourceEnv }

func (e envSource) Lookup(ctx context.Context) (string, error) {
	return os.Getenv(e.name), nil
}
