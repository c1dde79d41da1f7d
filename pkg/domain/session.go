package domain

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// TurnState is the state of the conversation state machine.
type TurnState string

const (
	StateIdle             TurnState = "idle"
	StateAwaitingResponse TurnState = "awaiting_response"
)

// Settings holds the user-adjustable parameters of a session.
type Settings struct {
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultSettings returns the settings of a fresh session.
func DefaultSettings() Settings {
	return Settings{
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   MaxTokens,
	}
}

// Validate checks the model against SupportedModels and the temperature bounds.
func (s Settings) Validate() error {
	if !slices.Contains(SupportedModels, s.Model) {
		return fmt.Errorf("%w: %q", ErrUnsupportedModel, s.Model)
	}
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: %v", ErrTemperatureRange, s.Temperature)
	}
	return nil
}

// Usage carries the optional token counters reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// String renders the usage line shown to the user.
func (u Usage) String() string {
	return fmt.Sprintf("Usage: prompt %d | completion %d | total %d", u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}

// CompletionRequest is the provider-neutral outbound payload.
type CompletionRequest struct {
	Messages    Transcript
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the provider-neutral reply.
type Completion struct {
	// Content is the first choice's message content, as returned.
	Content string
	// Usage is nil when the provider did not report token counters.
	Usage *Usage
}

// Session is the explicit session context passed to every handler.
// It never holds the credential.
type Session struct {
	ID         string     `json:"id"`
	Transcript Transcript `json:"transcript"`
	Settings   Settings   `json:"settings"`
	LastUsage  *Usage     `json:"last_usage,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Sealed carries the encrypted form of the session when stored behind an
	// encryption middleware. All other content fields are empty in that case.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session whose transcript holds only the system message.
func NewSession(id, systemPrompt string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		Transcript: NewTranscript(systemPrompt),
		Settings:   DefaultSettings(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = s.Transcript.Clone()
	if s.LastUsage != nil {
		u := *s.LastUsage
		out.LastUsage = &u
	}
	return &out
}
