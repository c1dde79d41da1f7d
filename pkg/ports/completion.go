package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// CompletionProvider is the single seam to the hosted model.
// Implementations must not log or retain the credential.
type CompletionProvider interface {
	// Complete sends the request authenticated with credential.
	// Any failure is returned as a *domain.TransportError.
	Complete(ctx context.Context, credential string, req domain.CompletionRequest) (domain.Completion, error)
}

// CompletionFunc adapts a function to CompletionProvider.
type CompletionFunc func(ctx context.Context, credential string, req domain.CompletionRequest) (domain.Completion, error)

// Complete calls f.
func (f CompletionFunc) Complete(ctx context.Context, credential string, req domain.CompletionRequest) (domain.Completion, error) {
	return f(ctx, credential, req)
}
