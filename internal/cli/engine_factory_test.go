package cli

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, overrides map[string]any) *config.Config {
	t.Helper()
	base := map[string]any{
		"secrets_file": filepath.Join(t.TempDir(), "secrets.yaml"),
		"env_fallback": false,
	}
	for k, v := range overrides {
		base[k] = v
	}
	cfg, err := config.Load(config.LoadOptions{
		File:      filepath.Join(t.TempDir(), "parley.yaml"),
		Environ:   []string{},
		Overrides: base,
	})
	require.NoError(t, err)
	return cfg
}

func writeSecrets(t *testing.T, cfg *config.Config, key string) {
	t.Helper()
	require.NoError(t, os.WriteFile(cfg.SecretsFile, []byte("OPENAI_API_KEY: "+key+"\n"), 0o600))
}

func recordingProvider(keys *[]string, reply string) parley.Option {
	return parley.WithProvider(ports.CompletionFunc(func(ctx context.Context, key string, req domain.CompletionRequest) (domain.Completion, error) {
		*keys = append(*keys, key)
		return domain.Completion{Content: reply}, nil
	}))
}

func TestNewEngine_MemoryDefaults(t *testing.T) {
	cfg := testConfig(t, nil)
	writeSecrets(t, cfg, "sk-from-secrets-file")

	var keys []string
	engine, err := NewEngine(context.Background(), cfg, logging.NewNop(), recordingProvider(&keys, "hi"))
	require.NoError(t, err)
	defer engine.Close()

	assert.NotNil(t, engine.Metrics(), "metrics are on by default")

	sess, res, err := engine.Send(context.Background(), "s1", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Reply)
	assert.Equal(t, "secrets", res.Source)
	assert.Equal(t, []string{"sk-from-secrets-file"}, keys)
	assert.Equal(t, domain.DefaultModel, sess.Settings.Model)
}

func TestNewEngine_RedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	key := hex.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg := testConfig(t, map[string]any{
		"store.kind":      config.StoreRedis,
		"store.redis_url": "redis://" + mr.Addr(),
		"store.prefix":    "test:",
		"encryption_key":  key,
	})

	var keys []string
	engine, err := NewEngine(context.Background(), cfg, logging.NewNop(), recordingProvider(&keys, "secret reply"))
	require.NoError(t, err)
	defer engine.Close()

	_, _, err = engine.Send(context.Background(), "abc", "hello there", "sk-manual-key-1234567890")
	require.NoError(t, err)

	raw, err := mr.Get("test:abc")
	require.NoError(t, err)
	assert.NotContains(t, raw, "hello there")
	assert.NotContains(t, raw, "secret reply")
	assert.NotContains(t, raw, "sk-manual")

	sess, err := engine.Sessions().Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Transcript.Len())
}

func TestNewEngine_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"store.kind":      config.StoreRedis,
		"store.redis_url": "redis://127.0.0.1:1",
	})
	_, err := NewEngine(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unreachable")
}

func TestNewEngine_BadEncryptionKey(t *testing.T) {
	cfg := testConfig(t, nil)
	cfg.EncryptionKey = "too-short"
	_, err := NewEngine(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig(t, map[string]any{"log_format": "json", "log_level": "debug"})
	var buf bytes.Buffer
	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Debug("probe", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "json output expected, got %q", buf.String())
	assert.Contains(t, buf.String(), `"msg":"probe"`)
}

func capturingProvider(sent *[]domain.Transcript) parley.Option {
	return parley.WithProvider(ports.CompletionFunc(func(ctx context.Context, key string, req domain.CompletionRequest) (domain.Completion, error) {
		*sent = append(*sent, req.Messages)
		return domain.Completion{Content: "ok"}, nil
	}))
}

func TestNewEngine_MemoryTranscriptIsNeverRedacted(t *testing.T) {
	cfg := testConfig(t, nil)
	require.True(t, cfg.RedactKeys, "redaction is on by default")
	writeSecrets(t, cfg, "sk-from-secrets-file")

	var sent []domain.Transcript
	engine, err := NewEngine(context.Background(), cfg, logging.NewNop(), capturingProvider(&sent))
	require.NoError(t, err)
	defer engine.Close()

	ctx := context.Background()
	question := "what does sk-abcdefghijklmnopqrstuvwxyz mean"
	_, _, err = engine.Send(ctx, "s1", question, "")
	require.NoError(t, err)
	sess, _, err := engine.Send(ctx, "s1", "and now?", "")
	require.NoError(t, err)

	require.Len(t, sent, 2)
	assert.Equal(t, question, sent[1][1].Content, "the second turn resends the text as typed")
	assert.Equal(t, question, sess.Transcript[1].Content)
}

func TestNewEngine_FileStoreIsRedacted(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, map[string]any{
		"store.kind": config.StoreFile,
		"store.dir":  dir,
	})
	writeSecrets(t, cfg, "sk-from-secrets-file")

	var sent []domain.Transcript
	engine, err := NewEngine(context.Background(), cfg, logging.NewNop(), capturingProvider(&sent))
	require.NoError(t, err)
	defer engine.Close()

	_, _, err = engine.Send(context.Background(), "s1", "my key is sk-abcdefghijklmnopqrstuvwxyz", "")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-abcdefghijklmnopqrstuvwxyz")
	assert.Contains(t, string(raw), "my key is ***")
}
