// Package secrets provides the read-only secret store consulted first when resolving the API key.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the secrets file is looked up when no path is configured.
const DefaultPath = ".parley/secrets.yaml"

// FileStore implements ports.SecretStore over a YAML file.
//
// The file is a mapping; nested mappings are addressed with dotted keys:
//
//	OPENAI_API_KEY: sk-...
//	openai:
//	  api_key: sk-...   # "openai.api_key"
//
// The file is read once at construction. The store is safe for concurrent use.
type FileStore struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// Load reads the secrets file at path. A missing file yields an empty store.
func Load(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &FileStore{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	flatten("", raw, s.values)
	return s, nil
}

// Path returns the file the store was loaded from.
func (s *FileStore) Path() string {
	return s.path
}

// Secret returns the value under key, or "" when absent.
func (s *FileStore) Secret(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

// Has reports whether key holds a non-empty value. Used for the "key found" status line.
func (s *FileStore) Has(key string) bool {
	v, _ := s.Secret(context.Background(), key)
	return strings.TrimSpace(v) != ""
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Static is an in-memory secret store, mostly useful for tests and embedding.
type Static map[string]string

// Secret returns the value under key.
func (s Static) Secret(ctx context.Context, key string) (string, error) {
	return s[key], nil
}
