package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/service/fetcher"
	"github.com/chynybekuuludastan/post_factory/internal/service/imagegen"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm/validation"
	"github.com/chynybekuuludastan/post_factory/internal/service/storage"
	"github.com/chynybekuuludastan/post_factory/internal/utils/imageconv"
)

// MinContentLength is the least page text worth sending to a model
const MinContentLength = 50

var (
	ErrScrapeFailed       = errors.New("scrape failed")
	ErrContentTooShort    = errors.New("page has too little readable text")
	ErrTextGeneration     = errors.New("text generation failed")
	ErrImageNotConfigured = errors.New("image generation is not configured")
	ErrStorageNotReady    = errors.New("cloud storage is not configured")
)

// Stage names reported to progress listeners
type Stage string

const (
	StageReadingWebsite  Stage = "reading_website"
	StageWritingContent  Stage = "writing_content"
	StageGeneratingImage Stage = "generating_image"
	StageUploadingImage  Stage = "uploading_image"
	StageUploadingText   Stage = "uploading_text"
	StageComplete        Stage = "complete"
	StageFailed          Stage = "failed"
)

// Event is one progress notification
type Event struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Stage Stage  `json:"stage"`
	Error string `json:"error,omitempty"`
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(Event)

// TextGenerator produces the raw model response for a post
type TextGenerator interface {
	Generate(ctx context.Context, source string, req llm.GenerationRequest) (*llm.RawResponse, error)
}

// Options describe one post. Built per request and passed by value.
type Options struct {
	URL      string
	Request  llm.GenerationRequest
	FolderID string
	// Index numbers posts within a batch, 0 for a single post
	Index int
	Total int
}

// Result is everything produced for one post
type Result struct {
	ID           string                 `json:"id"`
	Index        int                    `json:"index"`
	SourceURL    string                 `json:"source_url"`
	BaseName     string                 `json:"base_name"`
	CreatedAt    time.Time              `json:"created_at"`
	Model        string                 `json:"model,omitempty"`
	Provider     string                 `json:"provider,omitempty"`
	Structured   bool                   `json:"structured"`
	Post         *llm.ParsedPost        `json:"post,omitempty"`
	BodyHTML     string                 `json:"body_html,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Image        *imagegen.Image        `json:"image,omitempty"`
	ImageWarning string                 `json:"image_warning,omitempty"`
	Uploads      []storage.UploadResult `json:"uploads,omitempty"`
	Error        string                 `json:"error,omitempty"`
	ErrorKind    string                 `json:"error_kind,omitempty"`
	Duration     time.Duration          `json:"duration"`
}

// TextFilename returns the name of the text artifact
func (r *Result) TextFilename() string {
	return r.BaseName + ".txt"
}

// ImageFilename returns the name of the image artifact
func (r *Result) ImageFilename() string {
	ext := "jpg"
	if r.Image != nil {
		switch r.Image.MimeType {
		case imageconv.PNG.MimeType():
			ext = imageconv.PNG.Extension()
		case imageconv.WEBP.MimeType():
			ext = imageconv.WEBP.Extension()
		}
	}
	return r.BaseName + "." + ext
}

// TextArtifact renders the downloadable text file
func (r *Result) TextArtifact() []byte {
	if r.Post == nil {
		return nil
	}
	return []byte(FormatText(*r.Post, r.SourceURL))
}

// FormatText renders a post in the text artifact format
func FormatText(post llm.ParsedPost, sourceURL string) string {
	return fmt.Sprintf("HEADLINE: %s\n\nBODY: %s\n\nPROMPT: %s\n\nSOURCE: %s",
		post.Headline, post.Body, post.ImagePrompt, sourceURL)
}

// Deps are the collaborators of a Pipeline. Images and Uploader are optional.
type Deps struct {
	Fetcher   fetcher.Fetcher
	Text      TextGenerator
	Images    imagegen.Generator
	Uploader  storage.Uploader
	Validator *validation.ContentValidator
	BulkDelay time.Duration
	Logger    logging.Logger
	Now       func() time.Time
}

// Pipeline runs fetch, copy, parse, image and upload strictly in sequence
type Pipeline struct {
	fetcher   fetcher.Fetcher
	text      TextGenerator
	images    imagegen.Generator
	uploader  storage.Uploader
	validator *validation.ContentValidator
	markdown  goldmark.Markdown
	bulkDelay time.Duration
	logger    logging.Logger
	now       func() time.Time
}

// New creates a pipeline
func New(deps Deps) *Pipeline {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Validator == nil {
		deps.Validator = validation.NewContentValidator()
	}
	return &Pipeline{
		fetcher:   deps.Fetcher,
		text:      deps.Text,
		images:    deps.Images,
		uploader:  deps.Uploader,
		validator: deps.Validator,
		markdown:  goldmark.New(),
		bulkDelay: deps.BulkDelay,
		logger:    logging.OrDefault(deps.Logger),
		now:       deps.Now,
	}
}

// Run produces one post. The returned Result is never nil; on a terminal
// failure (scrape or text generation) it carries the error and err is set.
func (p *Pipeline) Run(ctx context.Context, opts Options, progress ProgressFunc) (*Result, error) {
	start := p.now()
	req := opts.Request.Normalized()

	result := &Result{
		ID:        uuid.New().String(),
		Index:     opts.Index,
		SourceURL: strings.TrimSpace(opts.URL),
		BaseName:  storage.BaseName(start, opts.Index),
		CreatedAt: start,
		Model:     req.Model,
	}
	emit := func(stage Stage) {
		if progress != nil {
			progress(Event{Index: opts.Index, Total: opts.Total, Stage: stage})
		}
	}
	fail := func(err error, kind string) (*Result, error) {
		result.Error = err.Error()
		result.ErrorKind = kind
		result.Duration = p.now().Sub(start)
		if progress != nil {
			progress(Event{Index: opts.Index, Total: opts.Total, Stage: StageFailed, Error: result.Error})
		}
		return result, err
	}

	// 1. Fetch
	emit(StageReadingWebsite)
	content, err := p.fetcher.Fetch(ctx, opts.URL)
	if err != nil {
		p.logger.Error("Failed to read website", "url", opts.URL, "error", err)
		return fail(fmt.Errorf("%w: %w", ErrScrapeFailed, err), "scrape_failed")
	}
	result.SourceURL = content.URL
	if n := utf8.RuneCountInString(strings.TrimSpace(content.Text)); n < MinContentLength {
		return fail(fmt.Errorf("%w: %w (%d characters)", ErrScrapeFailed, ErrContentTooShort, n), "scrape_failed")
	}

	// 2. Generate copy
	emit(StageWritingContent)
	raw, err := p.text.Generate(ctx, content.Text, req)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrTextGeneration, err), apierr.KindName(err))
	}
	result.Model = raw.Model
	result.Provider = raw.Provider
	result.Structured = raw.Structured

	// 3. Parse. Never terminal.
	post := llm.ParseResponse(raw)
	result.Post = &post
	result.BodyHTML = p.renderBody(post.Body)
	if len(post.Degraded) > 0 {
		p.logger.Info("Model response only partially parsed", "degraded", post.Degraded, "model", raw.Model)
	}
	result.Warnings = p.validator.Validate(req, post).Warnings

	// 4. Image. Never terminal.
	p.generateImage(ctx, result, emit)

	// 5. Upload. Failures are per artifact.
	if folder := storage.ExtractFolderID(opts.FolderID); folder != "" {
		result.Uploads = p.upload(ctx, folder, result, emit)
	}

	result.Duration = p.now().Sub(start)
	emit(StageComplete)

	p.logger.Info("Post generated",
		"id", result.ID,
		"url", result.SourceURL,
		"model", result.Model,
		"image", result.Image != nil,
		"duration", result.Duration)

	return result, nil
}

func (p *Pipeline) generateImage(ctx context.Context, result *Result, emit func(Stage)) {
	post := result.Post
	switch {
	case post.IsDegraded(llm.FieldImagePrompt):
		result.ImageWarning = "No image: the image prompt could not be read from the model response"
		return
	case post.SkipImage:
		return
	case p.images == nil:
		result.ImageWarning = ErrImageNotConfigured.Error()
		return
	}

	emit(StageGeneratingImage)
	img, err := p.images.Generate(ctx, post.ImagePrompt)
	if err != nil {
		result.ImageWarning = err.Error()
		return
	}
	result.Image = img
}

func (p *Pipeline) upload(ctx context.Context, folder string, result *Result, emit func(Stage)) []storage.UploadResult {
	textArtifact := storage.Artifact{
		Kind:     storage.ArtifactText,
		Name:     result.TextFilename(),
		MimeType: "text/plain",
		Data:     result.TextArtifact(),
	}

	if p.uploader == nil {
		var results []storage.UploadResult
		if result.Image != nil {
			results = append(results, storage.UploadResult{Artifact: storage.ArtifactImage, Name: result.ImageFilename(), Error: ErrStorageNotReady.Error()})
		}
		return append(results, storage.UploadResult{Artifact: storage.ArtifactText, Name: textArtifact.Name, Error: ErrStorageNotReady.Error()})
	}

	var artifacts []storage.Artifact
	if result.Image != nil {
		artifacts = append(artifacts, storage.Artifact{
			Kind:     storage.ArtifactImage,
			Name:     result.ImageFilename(),
			MimeType: result.Image.MimeType,
			Data:     result.Image.Data,
		})
	}
	artifacts = append(artifacts, textArtifact)

	return storage.UploadAll(ctx, p.uploader, folder, func(a storage.Artifact) {
		if a.Kind == storage.ArtifactImage {
			emit(StageUploadingImage)
		} else {
			emit(StageUploadingText)
		}
	}, artifacts...)
}

func (p *Pipeline) renderBody(body string) string {
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(body), &buf); err != nil {
		p.logger.Error("Failed to render body", "error", err)
		return ""
	}
	return buf.String()
}
