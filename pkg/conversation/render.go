package conversation

import "github.com/aretw0/parley/pkg/domain"

// Bubble is one rendered chat entry.
type Bubble struct {
	Role    domain.Role `json:"role"`
	Content string      `json:"content"`
	Failed  bool        `json:"failed,omitempty"`
}

// Visible returns the bubbles to display for t: every message except the system one, in order.
func Visible(t domain.Transcript) []Bubble {
	out := make([]Bubble, 0, len(t))
	for _, m := range t {
		if m.Role == domain.RoleSystem {
			continue
		}
		out = append(out, Bubble{Role: m.Role, Content: m.Content, Failed: m.Failed})
	}
	return out
}
