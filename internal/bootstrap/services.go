package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/fetcher"
	"github.com/chynybekuuludastan/post_factory/internal/service/imagegen"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm/prompts"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm/providers"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
	"github.com/chynybekuuludastan/post_factory/internal/service/storage"
	"github.com/chynybekuuludastan/post_factory/internal/utils/imageconv"
)

// ErrNoTextProvider is returned when neither Gemini nor OpenAI can be configured
var ErrNoTextProvider = errors.New("no text provider configured: set GEMINI_API_KEY, OPENAI_API_KEY or service account credentials")

// Services is the generation stack built from configuration
type Services struct {
	// Credentials is nil when no service account is configured
	Credentials *config.Credentials
	LLM         *llm.Service
	// Images and Uploader are nil when their stage is unavailable
	Images   *imagegen.Client
	Uploader *storage.DriveUploader
	Pipeline *pipeline.Pipeline
}

// Close releases provider clients
func (s *Services) Close() error {
	return s.LLM.Close()
}

// Build wires fetcher, text providers, image generator and Drive uploader.
// Only a missing text provider is fatal; the image and upload stages are
// left out when credentials do not allow them.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Services, error) {
	logger = logging.OrDefault(logger)
	s := &Services{}

	creds, err := cfg.LoadCredentials()
	switch {
	case errors.Is(err, config.ErrNoCredentials):
		logger.Info("No service account configured; image generation and Drive uploads disabled")
	case err != nil:
		return nil, err
	default:
		s.Credentials = creds
		logger.Info("Loaded service account", "email", creds.ClientEmail, "project", creds.ProjectID)
	}

	s.LLM = llm.NewService(llm.ServiceOptions{
		Prompts:          prompts.NewGenerator(),
		RateLimit:        rate.Limit(cfg.TextRateLimit),
		StructuredOutput: cfg.StructuredOutput,
		Logger:           logger,
	})
	if err := registerProviders(ctx, s, cfg, logger); err != nil {
		return nil, err
	}

	if s.Credentials != nil {
		if err := buildCloudStages(ctx, s, cfg, logger); err != nil {
			if closeErr := s.LLM.Close(); closeErr != nil {
				logger.Error("Failed to close text providers", "error", closeErr)
			}
			return nil, err
		}
	}

	fetchOpts := fetcher.Options{Timeout: cfg.FetchTimeout, UserAgent: cfg.UserAgent, Logger: logger}
	var f fetcher.Fetcher = fetcher.NewCollyFetcher(fetchOpts)
	if cfg.FetchRenderJS {
		f = fetcher.NewRenderFetcher(fetchOpts)
	}

	deps := pipeline.Deps{
		Fetcher:   f,
		Text:      s.LLM,
		BulkDelay: cfg.BulkDelay,
		Logger:    logger,
	}
	// Typed nil pointers must not reach the interfaces
	if s.Images != nil {
		deps.Images = s.Images
	}
	if s.Uploader != nil {
		deps.Uploader = s.Uploader
	}
	s.Pipeline = pipeline.New(deps)

	return s, nil
}

func registerProviders(ctx context.Context, s *Services, cfg *config.Config, logger logging.Logger) error {
	if cfg.GeminiAPIKey != "" || s.Credentials != nil {
		opts := providers.GeminiOptions{APIKey: cfg.GeminiAPIKey, Logger: logger}
		if s.Credentials != nil {
			opts.CredentialsJSON = s.Credentials.JSON
		}
		gemini, err := providers.NewGeminiProvider(ctx, opts)
		if err != nil {
			return fmt.Errorf("failed to create gemini provider: %w", err)
		}
		s.LLM.RegisterProvider(gemini)
	}

	if cfg.OpenAIAPIKey != "" {
		openai, err := providers.NewOpenAIProvider(providers.OpenAIOptions{APIKey: cfg.OpenAIAPIKey, Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to create openai provider: %w", err)
		}
		s.LLM.RegisterProvider(openai)
	}

	if len(s.LLM.Providers()) == 0 {
		return ErrNoTextProvider
	}
	logger.Info("Text providers ready", "providers", s.LLM.Providers())
	return nil
}

func buildCloudStages(ctx context.Context, s *Services, cfg *config.Config, logger logging.Logger) error {
	format, err := imageconv.ParseFormat(cfg.ImageFormat)
	if err != nil {
		return err
	}

	if s.Credentials.ProjectID == "" {
		logger.Info("No project ID in credentials; image generation disabled")
	} else {
		httpClient, err := imagegen.NewVertexHTTPClient(ctx, s.Credentials.JSON)
		if err != nil {
			return fmt.Errorf("failed to authorize image generation: %w", err)
		}
		s.Images = imagegen.NewClient("", s.Credentials.ProjectID, cfg.Location,
			imagegen.WithHTTPClient(httpClient),
			imagegen.WithModels(cfg.ImageModel, cfg.ImageFallbackModel),
			imagegen.WithAspectRatio(cfg.ImageAspectRatio),
			imagegen.WithFormat(format),
			imagegen.WithLogger(logger),
		)
	}

	uploader, err := storage.NewDriveUploader(ctx, s.Credentials.JSON, logger)
	if err != nil {
		return fmt.Errorf("failed to create drive client: %w", err)
	}
	s.Uploader = uploader
	return nil
}
