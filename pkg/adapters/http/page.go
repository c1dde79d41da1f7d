package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
)

// pageData feeds templates/page.html.
type pageData struct {
	Title     string
	KeySource string
	Models    []string
	Settings  domain.Settings
	Bubbles   []conversation.Bubble
	Usage     string
	Error     string
	Draft     string

	MinTemperature  float64
	MaxTemperature  float64
	TemperatureStep float64
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, sess *domain.Session, errMsg, draft string) {
	source, _ := s.machine.KeyStatus(r.Context())
	data := pageData{
		Title:           s.title,
		KeySource:       source,
		Models:          domain.SupportedModels,
		Settings:        domain.DefaultSettings(),
		Error:           errMsg,
		Draft:           draft,
		MinTemperature:  domain.MinTemperature,
		MaxTemperature:  domain.MaxTemperature,
		TemperatureStep: domain.TemperatureStep,
	}
	if sess != nil {
		data.Settings = sess.Settings
		data.Bubbles = conversation.Visible(sess.Transcript)
		if sess.LastUsage != nil {
			data.Usage = sess.LastUsage.String()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("Page render failed", "err", err)
	}
}

// GetPage handles the GET / request.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	sess, err := s.sessions.LoadOrStart(r.Context(), id, s.factory)
	if err != nil {
		s.logger.Error("Failed to load session", "session_id", id, "err", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	s.render(w, r, http.StatusOK, sess, "", "")
}

// PostChat handles the chat form. Success redirects back to the page; failures render it
// with the error inline. The manual key is used for this submission only.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in := submitInput{
		Message: r.PostForm.Get("message"),
		APIKey:  r.PostForm.Get("api_key"),
		Model:   r.PostForm.Get("model"),
	}
	var formErr error
	if raw := strings.TrimSpace(r.PostForm.Get("temperature")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			formErr = fmt.Errorf("%w: %q", domain.ErrTemperatureRange, raw)
		}
		in.Temperature = &t
	}

	var sess *domain.Session
	err := formErr
	if err == nil {
		sess, _, err = s.submit(r.Context(), id, in)
	}
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if sess == nil {
		sess, _ = s.sessions.LoadOrStart(r.Context(), id, s.factory)
	}
	status := http.StatusOK
	draft := ""
	if isInputError(err) {
		status = http.StatusUnprocessableEntity
		draft = in.Message
	} else if errors.Is(err, domain.ErrTurnInFlight) {
		status = http.StatusConflict
		draft = in.Message
	}
	s.render(w, r, status, sess, conversation.UserMessage(err), draft)
}

// PostClear handles the clear button.
func (s *Server) PostClear(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	sess, err := s.clear(r.Context(), id)
	if err != nil {
		if sess == nil {
			sess, _ = s.sessions.LoadOrStart(r.Context(), id, s.factory)
		}
		s.render(w, r, statusFor(err), sess, conversation.UserMessage(err), "")
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
