package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/credential"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Machine drives turns for any number of sessions.
type Machine struct {
	provider     ports.CompletionProvider
	resolver     *credential.Resolver
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	systemPrompt string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option configures the Machine.
type Option func(*Machine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithSystemPrompt sets the system message of new sessions.
func WithSystemPrompt(prompt string) Option {
	return func(m *Machine) {
		m.systemPrompt = prompt
	}
}

// NewMachine creates a Machine sending turns through provider with keys from resolver.
func NewMachine(provider ports.CompletionProvider, resolver *credential.Resolver, opts ...Option) *Machine {
	m := &Machine{
		provider:     provider,
		resolver:     resolver,
		logger:       logging.NewNop(),
		systemPrompt: domain.DefaultSystemPrompt,
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = credential.NewResolver()
	}
	return m
}

// NewSession creates a session holding only the configured system message.
func (m *Machine) NewSession(id string) *domain.Session {
	return domain.NewSession(id, m.systemPrompt)
}

// State reports whether a request is outstanding for the session.
func (m *Machine) State(sessionID string) domain.TurnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.inFlight[sessionID]; ok {
		return domain.StateAwaitingResponse
	}
	return domain.StateIdle
}

// KeyStatus reports which configured source, if any, currently holds a key.
// The manual override is not considered.
func (m *Machine) KeyStatus(ctx context.Context) (string, bool) {
	return m.resolver.Available(ctx)
}

// TurnResult describes a successful turn.
type TurnResult struct {
	Reply    string
	Usage    *domain.Usage
	Source   string
	Duration time.Duration
}

// Submit performs one turn on sess.
//
// Empty or whitespace-only input is rejected with domain.ErrEmptyInput before any state change.
// Otherwise the user message is appended and stays in the transcript whatever happens next.
// A missing key yields a *domain.ConfigurationError and no outbound call; a provider failure
// yields a *domain.TransportError. In both cases no assistant message is appended.
func (m *Machine) Submit(ctx context.Context, sess *domain.Session, input, manualKey string) (*TurnResult, error) {
	text, err := SanitizeInput(input)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}
	if err := sess.Settings.Validate(); err != nil {
		return nil, err
	}
	if !m.begin(sess.ID) {
		return nil, domain.ErrTurnInFlight
	}
	defer m.end(sess.ID)

	start := time.Now()
	sess.Transcript = append(sess.Transcript, domain.Message{Role: domain.RoleUser, Content: text})
	userIdx := len(sess.Transcript) - 1
	sess.UpdatedAt = start.UTC()

	m.emit(ctx, m.hooks.OnTurnStart, m.event(domain.EventTurnStart, sess))
	m.logger.Debug("Turn started", "session_id", sess.ID, "messages", len(sess.Transcript))

	cred, err := m.resolver.Resolve(ctx, manualKey)
	if err != nil {
		return nil, m.fail(ctx, sess, userIdx, start, "", err)
	}

	req := domain.CompletionRequest{
		Messages:    sess.Transcript.Clone(),
		Model:       sess.Settings.Model,
		Temperature: sess.Settings.Temperature,
		MaxTokens:   domain.MaxTokens,
	}
	resp, err := m.provider.Complete(ctx, cred.Value(), req)
	if err != nil {
		var tr *domain.TransportError
		if !errors.As(err, &tr) {
			err = &domain.TransportError{Err: err}
		}
		return nil, m.fail(ctx, sess, userIdx, start, cred.Source(), err)
	}

	reply := strings.TrimSpace(resp.Content)
	sess.Transcript = append(sess.Transcript, domain.Message{Role: domain.RoleAssistant, Content: reply})
	sess.LastUsage = resp.Usage
	sess.UpdatedAt = time.Now().UTC()

	res := &TurnResult{
		Reply:    reply,
		Usage:    resp.Usage,
		Source:   cred.Source(),
		Duration: time.Since(start),
	}

	e := m.event(domain.EventTurnComplete, sess)
	e.Source = res.Source
	e.Usage = res.Usage
	e.Duration = res.Duration
	m.emit(ctx, m.hooks.OnTurnComplete, e)
	m.logger.Info("Turn completed",
		"session_id", sess.ID,
		"model", sess.Settings.Model,
		"source", res.Source,
		"messages", len(sess.Transcript),
		"duration", res.Duration,
	)
	return res, nil
}

// Clear resets the transcript to its initial system message.
func (m *Machine) Clear(ctx context.Context, sess *domain.Session) error {
	if m.State(sess.ID) == domain.StateAwaitingResponse {
		return domain.ErrTurnInFlight
	}
	prompt := sess.Transcript.SystemPrompt()
	if prompt == "" {
		prompt = m.systemPrompt
	}
	sess.Transcript = domain.NewTranscript(prompt)
	sess.LastUsage = nil
	sess.UpdatedAt = time.Now().UTC()

	m.emit(ctx, m.hooks.OnClear, m.event(domain.EventClear, sess))
	m.logger.Debug("Transcript cleared", "session_id", sess.ID)
	return nil
}

func (m *Machine) fail(ctx context.Context, sess *domain.Session, userIdx int, start time.Time, source string, err error) error {
	sess.Transcript[userIdx].Failed = true

	e := m.event(domain.EventTurnFailed, sess)
	e.Source = source
	e.Duration = time.Since(start)
	e.Err = err
	m.emit(ctx, m.hooks.OnTurnFailed, e)
	m.logger.Warn("Turn failed", "session_id", sess.ID, "err", err)
	return fmt.Errorf("turn failed: %w", err)
}

func (m *Machine) begin(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[sessionID]; busy {
		return false
	}
	m.inFlight[sessionID] = struct{}{}
	return true
}

func (m *Machine) end(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, sessionID)
}

func (m *Machine) event(t domain.EventType, sess *domain.Session) *domain.TurnEvent {
	return &domain.TurnEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      t,
			SessionID: sess.ID,
		},
		Model:    sess.Settings.Model,
		Messages: len(sess.Transcript),
	}
}

func (m *Machine) emit(ctx context.Context, hook func(context.Context, *domain.TurnEvent), e *domain.TurnEvent) {
	if hook != nil {
		hook(ctx, e)
	}
}

// UserMessage returns the text to show for err inline, next to the chat.
func UserMessage(err error) string {
	var cfg *domain.ConfigurationError
	var tr *domain.TransportError
	switch {
	case errors.As(err, &cfg):
		return "No OpenAI API key available. Add it to the secrets file or paste it in the sidebar."
	case errors.As(err, &tr):
		return fmt.Sprintf("OpenAI API error: %v", tr.Err)
	case errors.Is(err, domain.ErrEmptyInput):
		return "Type a message first."
	case errors.Is(err, domain.ErrTurnInFlight):
		return "Still waiting for the previous reply."
	case errors.Is(err, domain.ErrUnsupportedModel), errors.Is(err, domain.ErrTemperatureRange):
		return fmt.Sprintf("Invalid settings: %v", err)
	case errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
		return fmt.Sprintf("Invalid message: %v", err)
	case err != nil:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
	return ""
}
