package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultPrompt is printed before each read.
const DefaultPrompt = "> "

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Prompt   string

	source    io.Reader
	want      chan struct{}
	inputChan chan inputResult
	startOnce sync.Once

	// Owned by the goroutine calling Input and ReadSecret.
	pending bool
	done    error
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerPrompt overrides the input prompt.
func WithTextHandlerPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source: r,
		Reader: bufio.NewReader(r),
		Writer: w,
		Prompt: DefaultPrompt,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.want = make(chan struct{})
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads one line per request in the background so Input can honor context
// cancellation. Nothing is read ahead, so ReadSecret can take the terminal between lines.
func (h *TextHandler) pump() {
	for range h.want {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			err = nil
		}
		h.inputChan <- inputResult{text: text, err: err}
		if err != nil {
			return
		}
	}
}

// Output prints the bubble content, rendered when a renderer is set.
func (h *TextHandler) Output(ctx context.Context, bubble conversation.Bubble) error {
	output := bubble.Content
	if h.Renderer != nil && bubble.Role == domain.RoleAssistant {
		if rendered, err := h.Renderer(bubble.Content); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

// Input prompts and returns the next line without its line terminator.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	if h.done != nil {
		return "", h.done
	}
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		fmt.Fprint(h.Writer, h.Prompt)
	}

	// A read left over from a cancelled Input is still owed to us.
	if !h.pending {
		h.want <- struct{}{}
		h.pending = true
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-h.inputChan:
		h.pending = false
		if res.err != nil {
			h.done = res.err
			close(h.want)
			return "", res.err
		}
		return strings.TrimRight(res.text, "\r\n"), nil
	}
}

// ReadSecret asks for a value without echo. It needs a terminal on input and no
// line read in flight.
func (h *TextHandler) ReadSecret(ctx context.Context) (string, error) {
	if h.pending || h.done != nil {
		return "", ErrInputBusy
	}
	f, ok := h.source.(*os.File)
	if !ok {
		return "", ErrNotTerminal
	}
	return PromptKey(f, h.Writer)
}

// SystemOutput prints msg with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
