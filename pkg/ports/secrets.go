package ports

import "context"

// SecretStore is a read-only, process-wide secret lookup.
// It must be safe for concurrent use.
type SecretStore interface {
	// Secret returns the value stored under key, or "" with a nil error when it is absent.
	Secret(ctx context.Context, key string) (string, error)
}
