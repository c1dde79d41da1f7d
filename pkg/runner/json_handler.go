package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/conversation"
)

// JSONEvent is one line written by the JSONHandler.
type JSONEvent struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// JSONInput is the object form accepted on input lines.
type JSONInput struct {
	Message string `json:"message"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader *bufio.Reader

	mu      sync.Mutex
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) emit(e JSONEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(e)
}

// Output emits the bubble as a "message" event.
func (h *JSONHandler) Output(ctx context.Context, bubble conversation.Bubble) error {
	return h.emit(JSONEvent{Type: "message", Role: string(bubble.Role), Content: bubble.Content})
}

// Input reads one line: a JSON string, a {"message": ...} object, or plain text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimRight(text, "\r\n")

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	var obj JSONInput
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj.Message, nil
	}
	return text, nil
}

// SystemOutput emits a "system" event.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(JSONEvent{Type: "system", Message: msg})
}
