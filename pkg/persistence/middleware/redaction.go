package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Mask replaces every redacted substring.
const Mask = "***"

// DefaultRedactionPatterns match common API key shapes.
var DefaultRedactionPatterns = []string{
	`sk-[A-Za-z0-9_\-]{16,}`,
	`(?i)bearer\s+[A-Za-z0-9_\-\.]{16,}`,
}

type redactionMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks substrings of message content
// matching the patterns before they reach the underlying store.
// The caller's session is left untouched; only the stored copy is masked. System messages
// are never rewritten. Sessions loaded back carry the masked text, so this belongs in front
// of durable stores only.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	cloned := sess.Snapshot()
	for i := range cloned.Transcript {
		if cloned.Transcript[i].Role == domain.RoleSystem {
			continue
		}
		cloned.Transcript[i].Content = m.mask(cloned.Transcript[i].Content)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
