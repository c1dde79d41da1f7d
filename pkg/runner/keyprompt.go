package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by PromptKey when input is not an interactive terminal.
var ErrNotTerminal = errors.New("input is not a terminal")

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PromptKey asks for an API key without echoing it. An empty answer is allowed.
// The key is returned to the caller only; it is never written anywhere.
func PromptKey(in *os.File, out io.Writer) (string, error) {
	if !IsTerminal(in) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(out, "OpenAI API Key (input hidden, not stored, Enter to skip): ")
	b, err := term.ReadPassword(int(in.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
