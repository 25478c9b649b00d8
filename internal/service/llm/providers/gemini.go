package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
)

const geminiProviderName = "gemini"

// ErrNoCandidates is returned when Gemini answers without any text
var ErrNoCandidates = errors.New("gemini returned no candidates")

// GeminiOptions configures the Gemini provider. APIKey wins over CredentialsJSON.
type GeminiOptions struct {
	APIKey          string
	CredentialsJSON []byte
	Logger          logging.Logger
}

// GeminiProvider implements llm.Provider for Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	logger logging.Logger
}

// NewGeminiProvider creates a new Gemini provider using the official client
func NewGeminiProvider(ctx context.Context, opts GeminiOptions) (*GeminiProvider, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	case len(opts.CredentialsJSON) > 0:
		clientOpts = append(clientOpts,
			option.WithCredentialsJSON(opts.CredentialsJSON),
			option.WithScopes("https://www.googleapis.com/auth/generative-language", "https://www.googleapis.com/auth/cloud-platform"),
		)
	default:
		return nil, apierr.New(geminiProviderName, apierr.ErrAuth, errors.New("no API key or service account credentials"))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, apierr.Classify(geminiProviderName, fmt.Errorf("create gemini client: %w", err))
	}

	return &GeminiProvider{
		client: client,
		logger: logging.OrDefault(opts.Logger),
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return geminiProviderName
}

// Handles implements llm.Provider
func (p *GeminiProvider) Handles(model string) bool {
	return IsGeminiModel(model)
}

// SupportsStructuredOutput implements llm.Provider
func (p *GeminiProvider) SupportsStructuredOutput() bool {
	return true
}

// Complete implements llm.Provider
func (p *GeminiProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.RawResponse, error) {
	model := p.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	model.SetCandidateCount(1)
	if req.Structured {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = PostSchema()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		p.logger.Error("Gemini API error", "model", req.Model, "error", err)
		return nil, classifyGeminiError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, apierr.New(geminiProviderName, apierr.ErrProvider, err)
	}

	p.logger.Debug("Received response from Gemini", "model", req.Model, "chars", len(text))

	return &llm.RawResponse{
		Text:       text,
		Structured: req.Structured,
		Model:      req.Model,
		Provider:   geminiProviderName,
	}, nil
}

// Close closes the Gemini client
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// PostSchema is the response schema for structured post output
func PostSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"headline": {
				Type:        genai.TypeString,
				Description: "One short headline line",
			},
			"body": {
				Type:        genai.TypeString,
				Description: "One paragraph of post copy",
			},
			"image_prompt": {
				Type:        genai.TypeString,
				Description: "A single photo description, or exactly SKIP when no image fits",
			},
		},
		Required: []string{"headline", "body", "image_prompt"},
	}
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return sb.String(), nil
}

func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apierr.New(geminiProviderName, apierr.ErrContentPolicy, err)
	}
	return apierr.Classify(geminiProviderName, err)
}
