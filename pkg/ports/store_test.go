package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// jsonStore keeps sessions as serialized JSON, the way a remote backend would.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newJSONStore() *jsonStore {
	return &jsonStore{data: make(map[string][]byte)}
}

func (m *jsonStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = b
	return nil
}

func (m *jsonStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *jsonStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *jsonStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStoreContract_JSONStore(t *testing.T) {
	ports.RunSessionStoreContract(t, newJSONStore())
}

func TestCompletionFunc(t *testing.T) {
	var got string
	p := ports.CompletionFunc(func(ctx context.Context, credential string, req domain.CompletionRequest) (domain.Completion, error) {
		got = req.Model
		return domain.Completion{Content: "ok"}, nil
	})

	c, err := p.Complete(context.Background(), "key", domain.CompletionRequest{Model: domain.DefaultModel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Content != "ok" || got != domain.DefaultModel {
		t.Errorf("unexpected completion %q for model %q", c.Content, got)
	}
}
