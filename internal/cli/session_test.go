package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed runs one turn on each session ID with an engine built from cfg.
func seed(t *testing.T, cfg *config.Config, ids ...string) {
	t.Helper()
	var keys []string
	engine, err := NewEngine(context.Background(), cfg, logging.NewNop(), recordingProvider(&keys, "stored reply"))
	require.NoError(t, err)
	defer engine.Close()

	for _, id := range ids {
		_, _, err := engine.Send(context.Background(), id, "hello "+id, "sk-manual-key-1234567890")
		require.NoError(t, err)
	}
}

func sessionOpts(cfg *config.Config, out *bytes.Buffer) SessionOptions {
	return SessionOptions{Config: cfg, Stdout: out, Stderr: &bytes.Buffer{}}
}

func TestSessionCommands_FileStore(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"store.kind": config.StoreFile,
		"store.dir":  t.TempDir(),
	})

	t.Run("Empty list", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, ListSessions(sessionOpts(cfg, &out)))
		assert.Equal(t, "No active sessions found.\n", out.String())
	})

	seed(t, cfg, "alpha", "beta")

	t.Run("List", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, ListSessions(sessionOpts(cfg, &out)))
		assert.Contains(t, out.String(), "Active Sessions:")
		assert.Contains(t, out.String(), "- alpha\n")
		assert.Contains(t, out.String(), "- beta\n")
	})

	t.Run("Inspect", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, InspectSession(sessionOpts(cfg, &out), "alpha"))

		var sess domain.Session
		require.NoError(t, json.Unmarshal(out.Bytes(), &sess))
		assert.Equal(t, "alpha", sess.ID)
		assert.Equal(t, 3, sess.Transcript.Len())
		assert.Equal(t, "hello alpha", sess.Transcript[1].Content)
		assert.NotContains(t, out.String(), "sk-manual", "the credential is never part of a session")
	})

	t.Run("Inspect missing", func(t *testing.T) {
		var out bytes.Buffer
		err := InspectSession(sessionOpts(cfg, &out), "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		var out bytes.Buffer
		err := RemoveSessions(sessionOpts(cfg, &out), "alpha", "nope")
		assert.ErrorIs(t, err, ErrSessionCommand)
		assert.Contains(t, out.String(), "Removed session 'alpha'")
		assert.Contains(t, out.String(), "No session 'nope'")

		out.Reset()
		require.NoError(t, ListSessions(sessionOpts(cfg, &out)))
		assert.NotContains(t, out.String(), "alpha")
		assert.Contains(t, out.String(), "- beta\n")
	})
}

func TestSessionCommands_RedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, map[string]any{
		"store.kind":      config.StoreRedis,
		"store.redis_url": "redis://" + mr.Addr(),
		"encryption_key":  hex.EncodeToString(bytes.Repeat([]byte{9}, 32)),
	})
	seed(t, cfg, "gamma")

	var out bytes.Buffer
	require.NoError(t, ListSessions(sessionOpts(cfg, &out)))
	assert.Contains(t, out.String(), "- gamma\n")

	out.Reset()
	require.NoError(t, InspectSession(sessionOpts(cfg, &out), "gamma"))
	assert.Contains(t, out.String(), "hello gamma", "inspect shows the decrypted transcript")

	out.Reset()
	require.NoError(t, RemoveSessions(sessionOpts(cfg, &out), "gamma"))
	assert.False(t, mr.Exists("parley:session:gamma"))
}
