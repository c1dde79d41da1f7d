package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf,
		WithTextHandlerRenderer(func(s string) (string, error) {
			return "Rendered: " + s, nil
		}),
	)
	ctx := context.Background()

	require.NoError(t, handler.Output(ctx, conversation.Bubble{Role: domain.RoleAssistant, Content: "Hello World"}))
	require.NoError(t, handler.Output(ctx, conversation.Bubble{Role: domain.RoleUser, Content: "raw"}))

	assert.Equal(t, "Rendered: Hello World\nraw\n", outBuf.String())
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("my user input\r\n  \nlast"), outBuf)
	ctx := context.Background()

	val, err := handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "my user input", val)

	// Whitespace is preserved; deciding what is empty is the machine's job.
	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "  ", val)

	val, err = handler.Input(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", val)

	_, err = handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, 4, strings.Count(outBuf.String(), DefaultPrompt))
}

func TestTextHandler_InputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextHandler_ReadSecret(t *testing.T) {
	ctx := context.Background()

	t.Run("Needs a terminal", func(t *testing.T) {
		handler := NewTextHandler(strings.NewReader("line\n"), &bytes.Buffer{})
		_, err := handler.ReadSecret(ctx)
		assert.ErrorIs(t, err, ErrNotTerminal)
	})

	t.Run("Refuses while a line read is pending", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		handler := NewTextHandler(pr, &bytes.Buffer{})

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		_, err := handler.Input(cctx)
		require.ErrorIs(t, err, context.Canceled)

		_, err = handler.ReadSecret(ctx)
		assert.ErrorIs(t, err, ErrInputBusy)

		// The pending read still delivers the next line.
		go func() { _, _ = pw.Write([]byte("kept\n")) }()
		val, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, "kept", val)
	})

	t.Run("Does not read ahead", func(t *testing.T) {
		src := strings.NewReader("one\ntwo\n")
		handler := NewTextHandler(src, &bytes.Buffer{})

		val, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, "one", val)

		// Only the buffered reader consumed input; no second read was requested.
		_, err = handler.ReadSecret(ctx)
		assert.ErrorIs(t, err, ErrNotTerminal)
		assert.False(t, handler.pending)
	})
}

func TestJSONHandler_Input(t *testing.T) {
	handler := NewJSONHandler(strings.NewReader("\"Hello World\"\n{\"message\":\"from object\"}\njust plain text"), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"Hello World", "from object", "just plain text"} {
		val, err := handler.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}

	_, err := handler.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
