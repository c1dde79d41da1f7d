package domain

// Role tags the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one entry of a Transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Failed marks a user message whose turn produced no reply.
	// It is presentation metadata and is never sent to the provider.
	Failed bool `json:"failed,omitempty"`
}

// Transcript is the ordered (oldest first) list of messages of one session.
type Transcript []Message

// NewTranscript creates a transcript holding only the system message.
func NewTranscript(systemPrompt string) Transcript {
	return Transcript{{Role: RoleSystem, Content: systemPrompt}}
}

// Len returns the number of messages, system message included.
func (t Transcript) Len() int {
	return len(t)
}

// Count returns how many messages carry the given role.
func (t Transcript) Count(role Role) int {
	n := 0
	for _, m := range t {
		if m.Role == role {
			n++
		}
	}
	return n
}

// SystemPrompt returns the content of the system message, or "" if there is none.
func (t Transcript) SystemPrompt() string {
	for _, m := range t {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Clone returns a copy that shares no backing array with t.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
