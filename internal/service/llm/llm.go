package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
)

// Common errors
var (
	ErrAPIRequestFailed  = errors.New("LLM API request failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidProvider   = errors.New("no provider handles model")
	ErrEmptySource       = errors.New("source text is empty")
)

// Provider is a hosted text model backend
type Provider interface {
	// Name returns the name of the provider
	Name() string

	// Handles reports whether the provider serves the model identifier
	Handles(model string) bool

	// SupportsStructuredOutput reports whether Complete honors CompletionRequest.Structured
	SupportsStructuredOutput() bool

	// Complete submits one prompt and returns the raw text
	Complete(ctx context.Context, req CompletionRequest) (*RawResponse, error)

	// Close performs any necessary cleanup
	Close() error
}

// PromptBuilder renders the instruction sent to the model
type PromptBuilder interface {
	PostPrompt(source string, req GenerationRequest, structured bool) string
}

// Service routes generation requests to providers with rate limiting
type Service struct {
	providers  []Provider
	prompts    PromptBuilder
	limiter    *rate.Limiter
	structured bool
	mutex      sync.RWMutex
	logger     logging.Logger
}

// ServiceOptions contains configuration for the LLM service
type ServiceOptions struct {
	Prompts   PromptBuilder
	RateLimit rate.Limit
	RateBurst int
	// StructuredOutput enables schema-constrained responses on providers that support them
	StructuredOutput bool
	Logger           logging.Logger
}

// NewService creates a new LLM service with the specified options
func NewService(opts ServiceOptions) *Service {
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Limit(1)
	}
	if opts.RateBurst == 0 {
		opts.RateBurst = 1
	}

	return &Service{
		prompts:    opts.Prompts,
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		structured: opts.StructuredOutput,
		logger:     logging.OrDefault(opts.Logger),
	}
}

// RegisterProvider registers a provider. Earlier registrations win when
// more than one provider handles a model.
func (s *Service) RegisterProvider(provider Provider) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.providers = append(s.providers, provider)
	s.logger.Info("Registered LLM provider", "provider", provider.Name())
}

// ProviderFor returns the provider serving model
func (s *Service) ProviderFor(model string) (Provider, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, p := range s.providers {
		if p.Handles(model) {
			return p, nil
		}
	}
	return nil, apierr.New("llm", apierr.ErrModelUnavailable, fmt.Errorf("%w: %s", ErrInvalidProvider, model))
}

// Providers returns the names of the registered providers
func (s *Service) Providers() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate builds the post instruction for source and submits it to the
// provider serving req.Model. The response is returned unmodified.
// There is no retry and no model substitution.
func (s *Service) Generate(ctx context.Context, source string, req GenerationRequest) (*RawResponse, error) {
	if source == "" {
		return nil, ErrEmptySource
	}
	req = req.Normalized()

	provider, err := s.ProviderFor(req.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIRequestFailed, err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		// Wait fails early when the next slot is past the deadline
		kind := apierr.ErrQuota
		if ctx.Err() != nil {
			kind = apierr.KindOf(ctx.Err())
		}
		err = apierr.New(provider.Name(), kind, err)
		s.logger.Error("Rate limit wait failed", "error", err, "kind", apierr.KindName(err))
		return nil, fmt.Errorf("%w: %w", ErrRateLimitExceeded, err)
	}

	structured := s.structured && provider.SupportsStructuredOutput()
	prompt := s.prompts.PostPrompt(source, req, structured)

	s.logger.Debug("Sending prompt", "provider", provider.Name(), "model", req.Model, "structured", structured)

	resp, err := provider.Complete(ctx, CompletionRequest{
		Model:       req.Model,
		Prompt:      prompt,
		Temperature: req.Temperature,
		Structured:  structured,
	})
	if err != nil {
		err = apierr.Classify(provider.Name(), err)
		s.logger.Error("LLM API request failed",
			"error", err,
			"provider", provider.Name(),
			"model", req.Model,
			"kind", apierr.KindName(err))
		return nil, fmt.Errorf("%w: %w", ErrAPIRequestFailed, err)
	}

	resp.Structured = structured
	if resp.Model == "" {
		resp.Model = req.Model
	}
	if resp.Provider == "" {
		resp.Provider = provider.Name()
	}

	s.logger.Info("Generated post copy",
		"provider", provider.Name(),
		"model", req.Model,
		"chars", len(resp.Text))

	return resp, nil
}

// Close closes every registered provider
func (s *Service) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var errs []error
	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
