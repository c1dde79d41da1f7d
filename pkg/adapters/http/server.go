// Package http exposes the chat front-end over HTTP: an HTML page for browsers and a
// small JSON API, both backed by the same conversation.Machine and session.Manager.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/conversation"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "parley_session"

// SessionHeader lets API clients pass the session ID without cookies.
const SessionHeader = "X-Parley-Session"

// DefaultTitle is the page title.
const DefaultTitle = "Simple Chat (gpt-3.5-turbo)"

//go:embed templates/*.html
var templateFS embed.FS

// Server serves the chat page and the JSON API.
type Server struct {
	machine  *conversation.Machine
	sessions *session.Manager
	page     *template.Template
	factory  session.Factory

	metrics      http.Handler
	logger       *slog.Logger
	version      string
	title        string
	secureCookie bool
	cookieTTL    time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithSessionFactory sets how unknown session IDs are initialized.
// Defaults to the machine's NewSession.
func WithSessionFactory(f session.Factory) Option {
	return func(s *Server) {
		s.factory = f
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithTitle overrides the page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// WithSecureCookie marks the session cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) Option {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

// WithCookieTTL sets the session cookie lifetime. Zero means a browser-session cookie.
func WithCookieTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.cookieTTL = ttl
	}
}

// NewServer creates a Server. It panics if the embedded templates are broken.
func NewServer(machine *conversation.Machine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		machine:  machine,
		sessions: sessions,
		page:     template.Must(template.ParseFS(templateFS, "templates/page.html")),
		logger:   logging.NewNop(),
		version:  "dev",
		title:    DefaultTitle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = machine.NewSession
	}
	return s
}

// NewHandler creates the HTTP handler for the chat front-end.
func NewHandler(machine *conversation.Machine, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(machine, sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.GetPage)
	r.Post("/chat", s.PostChat)
	r.Post("/clear", s.PostClear)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.GetSession)
		r.Delete("/session", s.DeleteSession)
		r.Post("/messages", s.PostMessage)
	})

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": strings.TrimSpace(s.version),
		"model":   domain.DefaultModel,
	})
}

// sessionID returns the caller's session ID, issuing a new cookie when absent or malformed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cookieTTL > 0 {
		cookie.MaxAge = int(s.cookieTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

// submitInput is the transport-neutral form of a chat submission.
type submitInput struct {
	Message     string
	APIKey      string
	Model       string
	Temperature *float64
}

// submit runs one turn for the session under its lock.
// The session is saved whatever the outcome, since a failed turn keeps the user message.
func (s *Server) submit(ctx context.Context, id string, in submitInput) (*domain.Session, *conversation.TurnResult, error) {
	if s.machine.State(id) == domain.StateAwaitingResponse {
		return nil, nil, domain.ErrTurnInFlight
	}

	var res *conversation.TurnResult
	sess, err := s.sessions.Update(ctx, id, s.factory, func(ctx context.Context, sess *domain.Session) error {
		settings := sess.Settings
		if in.Model != "" {
			settings.Model = in.Model
		}
		if in.Temperature != nil {
			settings.Temperature = *in.Temperature
		}
		if err := settings.Validate(); err != nil {
			return err
		}
		sess.Settings = settings

		var err error
		res, err = s.machine.Submit(ctx, sess, in.Message, in.APIKey)
		return err
	})
	return sess, res, err
}

func (s *Server) clear(ctx context.Context, id string) (*domain.Session, error) {
	if s.machine.State(id) == domain.StateAwaitingResponse {
		return nil, domain.ErrTurnInFlight
	}
	return s.sessions.Update(ctx, id, s.factory, func(ctx context.Context, sess *domain.Session) error {
		return s.machine.Clear(ctx, sess)
	})
}

// statusFor maps an error to the JSON API status code.
func statusFor(err error) int {
	var cfgErr *domain.ConfigurationError
	var trErr *domain.TransportError
	switch {
	case err == nil:
		return http.StatusOK
	case isInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTurnInFlight):
		return http.StatusConflict
	case errors.As(err, &trErr):
		return http.StatusBadGateway
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func isInputError(err error) bool {
	return errors.Is(err, domain.ErrEmptyInput) ||
		errors.Is(err, domain.ErrUnsupportedModel) ||
		errors.Is(err, domain.ErrTemperatureRange) ||
		errors.Is(err, conversation.ErrInputTooLarge) ||
		errors.Is(err, conversation.ErrInvalidUTF8)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

// requestLogger logs one line per request. Bodies are never logged, they may carry a key.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
