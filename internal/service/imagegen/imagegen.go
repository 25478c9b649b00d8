package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/utils/imageconv"
)

// Constants for API configuration
const (
	DefaultModel         = "imagen-3.0-generate-001"
	DefaultFallbackModel = "imagegeneration@006"
	DefaultAspectRatio   = "4:3"
	DefaultLocation      = "us-central1"

	// personGeneration lets the model depict adults but never minors
	personGeneration = "allow_adult"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
	providerName       = "imagen"
)

// Modifier tokens appended to every directive
const (
	PhoneModifiers  = ", shot on iPhone, natural lighting, candid, slightly imperfect framing, no text"
	StudioModifiers = ", photorealistic, 4k, professional studio lighting, no text"
)

var (
	ErrEmptyPrompt    = errors.New("image prompt is empty")
	ErrSafetyFiltered = errors.New("image removed by safety filter")
	ErrNoImage        = errors.New("no image produced")
)

var phoneStyleHints = []string{"ugc", "candid", "authentic", "iphone", "phone photo", "amateur"}

// Image is one generated picture
type Image struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
	Model    string `json:"model"`
}

// Generator produces at most one image for a directive
type Generator interface {
	Generate(ctx context.Context, directive string) (*Image, error)
}

// Client calls the Vertex AI Imagen predict endpoint
type Client struct {
	baseURL       string
	project       string
	location      string
	model         string
	fallbackModel string
	aspectRatio   string
	format        imageconv.Format
	httpClient    *http.Client
	logger        logging.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets an authorized HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModels sets the primary and fallback model identifiers.
// An empty fallback disables the fallback attempt.
func WithModels(primary, fallback string) ClientOption {
	return func(c *Client) {
		if primary != "" {
			c.model = primary
		}
		c.fallbackModel = fallback
	}
}

// WithAspectRatio sets the requested aspect ratio
func WithAspectRatio(ratio string) ClientOption {
	return func(c *Client) {
		if ratio != "" {
			c.aspectRatio = ratio
		}
	}
}

// WithFormat sets the output encoding
func WithFormat(f imageconv.Format) ClientOption {
	return func(c *Client) {
		c.format = f
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Imagen client. baseURL empty selects the regional
// Vertex AI endpoint for location.
func NewClient(baseURL, project, location string, options ...ClientOption) *Client {
	if location == "" {
		location = DefaultLocation
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL(location)
	}

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		project:       project,
		location:      location,
		model:         DefaultModel,
		fallbackModel: DefaultFallbackModel,
		aspectRatio:   DefaultAspectRatio,
		format:        imageconv.JPEG,
		httpClient:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, option := range options {
		option(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// DefaultBaseURL returns the regional Vertex AI endpoint
func DefaultBaseURL(location string) string {
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com", location)
}

// NewVertexHTTPClient returns an HTTP client authorized with a service account bundle
func NewVertexHTTPClient(ctx context.Context, credentialsJSON []byte) (*http.Client, error) {
	client, _, err := htransport.NewClient(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(cloudPlatformScope),
	)
	if err != nil {
		return nil, apierr.New(providerName, apierr.ErrAuth, err)
	}
	return client, nil
}

// Modifiers returns the style tokens appended to directive
func Modifiers(directive string) string {
	lower := strings.ToLower(directive)
	for _, hint := range phoneStyleHints {
		if strings.Contains(lower, hint) {
			return PhoneModifiers
		}
	}
	return StudioModifiers
}

// Generate requests one image for directive. A provider error on the primary
// model triggers exactly one attempt with the fallback model. Every failure
// is reported as ErrNoImage wrapping the cause.
func (c *Client) Generate(ctx context.Context, directive string) (*Image, error) {
	directive = strings.TrimSpace(directive)
	if directive == "" {
		return nil, ErrEmptyPrompt
	}
	prompt := directive + Modifiers(directive)

	img, err := c.predict(ctx, c.model, prompt)
	if err != nil && c.shouldFallback(err) {
		c.logger.Info("Primary image model failed, trying fallback",
			"model", c.model,
			"fallback", c.fallbackModel,
			"error", err)
		img, err = c.predict(ctx, c.fallbackModel, prompt)
	}
	if err != nil {
		c.logger.Error("Image generation failed", "error", err, "kind", apierr.KindName(err))
		return nil, fmt.Errorf("%w: %w", ErrNoImage, err)
	}

	if converted, convErr := imageconv.Convert(img.Data, c.format); convErr != nil {
		c.logger.Error("Failed to convert image, keeping original encoding", "format", c.format, "error", convErr)
	} else {
		img.Data = converted
		img.MimeType = c.format.MimeType()
	}

	c.logger.Info("Generated image", "model", img.Model, "bytes", len(img.Data))
	return img, nil
}

func (c *Client) shouldFallback(err error) bool {
	if c.fallbackModel == "" || c.fallbackModel == c.model {
		return false
	}
	if errors.Is(err, ErrSafetyFiltered) || errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount      int    `json:"sampleCount"`
	AspectRatio      string `json:"aspectRatio"`
	PersonGeneration string `json:"personGeneration"`
	IncludeRAIReason bool   `json:"includeRaiReason"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
		RAIFilteredReason  string `json:"raiFilteredReason"`
	} `json:"predictions"`
}

func (c *Client) predictURL(model string) string {
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		c.baseURL, url.PathEscape(c.project), url.PathEscape(c.location), url.PathEscape(model))
}

func (c *Client) predict(ctx context.Context, model, prompt string) (*Image, error) {
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount:      1,
			AspectRatio:      c.aspectRatio,
			PersonGeneration: personGeneration,
			IncludeRAIReason: true,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL(model), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Requesting image", "model", model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.Classify(providerName, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, apierr.Classify(providerName, err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(providerName, apierr.ErrNetwork, err)
	}

	var pr predictResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return nil, apierr.New(providerName, apierr.ErrProvider, fmt.Errorf("decode predict response: %w", err))
	}

	for _, p := range pr.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, apierr.New(providerName, apierr.ErrProvider, fmt.Errorf("decode image bytes: %w", err))
		}
		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = http.DetectContentType(raw)
		}
		return &Image{Data: raw, MimeType: mimeType, Model: model}, nil
	}

	reason := "no predictions returned"
	if len(pr.Predictions) > 0 && pr.Predictions[0].RAIFilteredReason != "" {
		reason = pr.Predictions[0].RAIFilteredReason
	}
	return nil, apierr.New(providerName, apierr.ErrContentPolicy, fmt.Errorf("%w: %s", ErrSafetyFiltered, reason))
}
