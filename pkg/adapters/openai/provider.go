// Package openai adapts the OpenAI chat completions API to ports.CompletionProvider.
//
// Every provider-specific field is read in this package, and response decoding lives in a
// single function (toDomain), so a change of provider shape touches one seam.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	backend "github.com/sashabaranov/go-openai"
)

var _ ports.CompletionProvider = (*Provider)(nil)

// ChatClient is the subset of *backend.Client the provider uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req backend.ChatCompletionRequest) (backend.ChatCompletionResponse, error)
}

// Provider sends transcripts to an OpenAI-compatible endpoint.
// A client is built per call because the credential is resolved per submission.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	newClient  func(credential string) ChatClient
	logger     *slog.Logger
}

// Option configures the Provider.
type Option func(*Provider)

// WithBaseURL points the provider at an OpenAI-compatible endpoint (e.g. http://localhost:8000/v1).
func WithBaseURL(url string) Option {
	return func(p *Provider) {
		p.baseURL = url
	}
}

// WithHTTPClient overrides the transport. The default client has no timeout override.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithClientFactory replaces the go-openai client, mostly for tests.
func WithClientFactory(fn func(credential string) ChatClient) Option {
	return func(p *Provider) {
		p.newClient = fn
	}
}

// WithLogger configures a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a Provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.newClient == nil {
		p.newClient = p.defaultClient
	}
	return p
}

func (p *Provider) defaultClient(credential string) ChatClient {
	cfg := backend.DefaultConfig(credential)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	return backend.NewClientWithConfig(cfg)
}

// Complete implements ports.CompletionProvider.
func (p *Provider) Complete(ctx context.Context, credential string, req domain.CompletionRequest) (domain.Completion, error) {
	client := p.newClient(credential)

	p.logger.Debug("Sending chat completion", "model", req.Model, "messages", len(req.Messages))
	resp, err := client.CreateChatCompletion(ctx, toRequest(req))
	if err != nil {
		return domain.Completion{}, &domain.TransportError{Err: err}
	}

	c, err := toDomain(resp)
	if err != nil {
		return domain.Completion{}, &domain.TransportError{Err: err}
	}
	return c, nil
}

func toRequest(req domain.CompletionRequest) backend.ChatCompletionRequest {
	msgs := make([]backend.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, backend.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	temp := float32(req.Temperature)
	if temp == 0 {
		// temperature is omitempty on the wire; a literal zero would fall back to the API default.
		temp = math.SmallestNonzeroFloat32
	}

	return backend.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   req.MaxTokens,
	}
}

// toDomain reads the first choice and the optional usage counters.
func toDomain(resp backend.ChatCompletionResponse) (domain.Completion, error) {
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("%w (id=%q)", domain.ErrEmptyCompletion, resp.ID)
	}

	c := domain.Completion{Content: resp.Choices[0].Message.Content}
	u := resp.Usage
	if u.PromptTokens != 0 || u.CompletionTokens != 0 || u.TotalTokens != 0 {
		c.Usage = &domain.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	return c, nil
}
