package providers

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

const openAIProviderName = "openai"

// ErrEmptyChoices is returned when OpenAI answers without choices
var ErrEmptyChoices = errors.New("openai returned no choices")

// OpenAIOptions configures the OpenAI provider
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Logger  logging.Logger
}

// OpenAIProvider implements llm.Provider with the official openai-go SDK.
// It relies on the label heuristic, so structured output is not requested.
type OpenAIProvider struct {
	client openai.Client
	logger logging.Logger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, apierr.New(openAIProviderName, apierr.ErrAuth, errors.New("openai api key missing"))
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// Retries are the operator's decision
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIProvider{
		client: openai.NewClient(reqOpts...),
		logger: logging.OrDefault(opts.Logger),
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return openAIProviderName
}

// Handles implements llm.Provider
func (p *OpenAIProvider) Handles(model string) bool {
	return IsOpenAIModel(model)
}

// SupportsStructuredOutput implements llm.Provider
func (p *OpenAIProvider) SupportsStructuredOutput() bool {
	return false
}

// Complete implements llm.Provider
func (p *OpenAIProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.RawResponse, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(float64(req.Temperature)),
	})
	if err != nil {
		p.logger.Error("OpenAI API error", "model", req.Model, "error", err)
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.New(openAIProviderName, apierr.ErrProvider, ErrEmptyChoices)
	}

	text := resp.Choices[0].Message.Content
	p.logger.Debug("Received response from OpenAI", "model", req.Model, "chars", len(text))

	return &llm.RawResponse{
		Text:     text,
		Model:    req.Model,
		Provider: openAIProviderName,
	}, nil
}

// Close implements llm.Provider
func (p *OpenAIProvider) Close() error {
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apierr.FromStatus(openAIProviderName, apiErr.StatusCode, apiErr.Error(), err)
	}
	return apierr.Classify(openAIProviderName, err)
}
