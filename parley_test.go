package parley_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoProvider(seen *[]string) ports.CompletionProvider {
	return ports.CompletionFunc(func(ctx context.Context, key string, req domain.CompletionRequest) (domain.Completion, error) {
		*seen = append(*seen, key)
		return domain.Completion{Content: "ok", Usage: &domain.Usage{TotalTokens: 3}}, nil
	})
}

func TestEngine_SendAndClear(t *testing.T) {
	var keys []string
	eng, err := parley.New(
		parley.WithProvider(echoProvider(&keys)),
		parley.WithSecretStore(secrets.Static{"OPENAI_API_KEY": "sk-from-file"}, ""),
		parley.WithEnvFallback(false),
		parley.WithSystemPrompt("Be brief."),
	)
	require.NoError(t, err)
	ctx := context.Background()

	sess, res, err := eng.Send(ctx, "s1", "hello", "sk-manual")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Reply)
	assert.Equal(t, "secrets", res.Source)
	assert.Equal(t, []string{"sk-from-file"}, keys, "secrets beat the manual key")
	assert.Equal(t, "Be brief.", sess.Transcript.SystemPrompt())
	assert.Equal(t, 3, sess.Transcript.Len())

	sess, err = eng.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Transcript.Len())
	assert.Nil(t, sess.LastUsage)
}

func TestEngine_MissingKeyIsConfigurationError(t *testing.T) {
	var keys []string
	eng, err := parley.New(
		parley.WithProvider(echoProvider(&keys)),
		parley.WithEnvFallback(false),
	)
	require.NoError(t, err)

	sess, _, err := eng.Send(context.Background(), "s1", "hello", "")
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, keys)
	assert.Equal(t, 2, sess.Transcript.Len())

	// The failed turn was persisted.
	loaded, err := eng.Sessions().Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, loaded.Transcript[1].Failed)
}

func TestEngine_InvalidSettings(t *testing.T) {
	_, err := parley.New(parley.WithSettings(domain.Settings{Model: "gpt-99", Temperature: 0.5}))
	assert.ErrorIs(t, err, domain.ErrUnsupportedModel)
}

func TestEngine_StoreMiddlewareAndMetrics(t *testing.T) {
	var keys []string
	store := memory.NewStore()
	metrics := observability.NewMetrics()
	eng, err := parley.New(
		parley.WithProvider(echoProvider(&keys)),
		parley.WithSessionStore(store),
		parley.WithStoreMiddleware(middleware.NewRedactionMiddleware(middleware.DefaultRedactionPatterns)),
		parley.WithMetrics(metrics),
	)
	require.NoError(t, err)

	_, _, err = eng.Send(context.Background(), "s1", "my key is sk-abcdefghijklmnopqrstuvwx", "sk-manual")
	require.NoError(t, err)

	raw, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "my key is ***", raw.Transcript[1].Content)

	srv := httptest.NewServer(eng.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEngine_RunnerUsesSettings(t *testing.T) {
	var keys []string
	settings := domain.DefaultSettings()
	settings.Temperature = 0.1
	eng, err := parley.New(
		parley.WithProvider(echoProvider(&keys)),
		parley.WithSettings(settings),
	)
	require.NoError(t, err)

	r := eng.Runner("cli")
	assert.Equal(t, 0.1, r.Session().Settings.Temperature)
}

func TestEngine_Close(t *testing.T) {
	closed := 0
	eng, err := parley.New(
		parley.WithCloser(func() error { closed++; return nil }),
		parley.WithCloser(func() error { return errors.New("boom") }),
	)
	require.NoError(t, err)

	err = eng.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, closed)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(parley.Version))
}
