package http

import (
	"encoding/json"
	"net/http"

	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
)

// MessageRequest is the body of POST /api/messages.
type MessageRequest struct {
	Message     string   `json:"message"`
	APIKey      string   `json:"api_key,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// SessionResponse describes the visible state of a session.
type SessionResponse struct {
	ID        string                `json:"id"`
	State     domain.TurnState      `json:"state"`
	Messages  []conversation.Bubble `json:"messages"`
	Settings  domain.Settings       `json:"settings"`
	Usage     *domain.Usage         `json:"usage,omitempty"`
	KeySource string                `json:"key_source,omitempty"`
	Reply     string                `json:"reply,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func (s *Server) response(r *http.Request, sess *domain.Session) SessionResponse {
	source, _ := s.machine.KeyStatus(r.Context())
	resp := SessionResponse{
		ID:        sess.ID,
		State:     s.machine.State(sess.ID),
		Messages:  conversation.Visible(sess.Transcript),
		Settings:  sess.Settings,
		Usage:     sess.LastUsage,
		KeySource: source,
	}
	return resp
}

// GetSession handles the GET /api/session request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	sess, err := s.sessions.LoadOrStart(r.Context(), id, s.factory)
	if err != nil {
		s.logger.Error("Failed to load session", "session_id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, s.response(r, sess))
}

// DeleteSession handles the DELETE /api/session request by clearing the conversation.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	sess, err := s.clear(r.Context(), id)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": conversation.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, s.response(r, sess))
}

// PostMessage handles the POST /api/messages request.
// On failure the body still carries the transcript, since the user message is kept.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	var body MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	sess, res, err := s.submit(r.Context(), id, submitInput{
		Message:     body.Message,
		APIKey:      body.APIKey,
		Model:       body.Model,
		Temperature: body.Temperature,
	})
	if sess == nil {
		writeJSON(w, statusFor(err), map[string]string{"error": conversation.UserMessage(err)})
		return
	}

	resp := s.response(r, sess)
	if res != nil {
		resp.Reply = res.Reply
	}
	if err != nil {
		resp.Error = conversation.UserMessage(err)
	}
	writeJSON(w, statusFor(err), resp)
}
