package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/chynybekuuludastan/post_factory/internal/database"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
)

const (
	// Key prefixes
	KeyPrefixJob   = "job:"
	KeyPrefixText  = "artifact:text:"
	KeyPrefixImage = "artifact:image:"

	// DefaultTTL applies when no TTL is configured
	DefaultTTL = 1 * time.Hour
)

var (
	ErrNotFound    = errors.New("not found or expired")
	ErrUnavailable = errors.New("redis client not available")
)

// JobState is the live status of a bulk job
type JobState struct {
	ID        string             `json:"id"`
	SourceURL string             `json:"source_url"`
	Status    string             `json:"status"`
	Total     int                `json:"total"`
	Completed int                `json:"completed"`
	Failed    int                `json:"failed"`
	Stage     pipeline.Stage     `json:"stage,omitempty"`
	Results   []*pipeline.Result `json:"results"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Artifact is one downloadable file
type Artifact struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Repository keeps job state and generated files in Redis for a limited time
type Repository struct {
	client *database.RedisClient
	ttl    time.Duration
}

// NewRepository creates a new Redis repository. A non-positive ttl means DefaultTTL.
func NewRepository(client *database.RedisClient, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{client: client, ttl: ttl}
}

// SaveJob stores the job state, refreshing its TTL
func (r *Repository) SaveJob(ctx context.Context, job *JobState) error {
	if r.client == nil {
		return ErrUnavailable
	}
	job.UpdatedAt = time.Now()
	if err := r.client.Set(ctx, KeyPrefixJob+job.ID, job, r.ttl); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// GetJob loads a job state
func (r *Repository) GetJob(ctx context.Context, id string) (*JobState, error) {
	var job JobState
	if err := r.get(ctx, KeyPrefixJob+id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SaveArtifacts stores the text file and, when present, the image of a result
func (r *Repository) SaveArtifacts(ctx context.Context, res *pipeline.Result) error {
	if r.client == nil {
		return ErrUnavailable
	}
	if res.Post == nil {
		return nil
	}

	text := Artifact{Name: res.TextFilename(), MimeType: "text/plain; charset=utf-8", Data: res.TextArtifact()}
	if err := r.client.Set(ctx, KeyPrefixText+res.ID, text, r.ttl); err != nil {
		return fmt.Errorf("failed to save text artifact: %w", err)
	}

	if res.Image != nil {
		img := Artifact{Name: res.ImageFilename(), MimeType: res.Image.MimeType, Data: res.Image.Data}
		if err := r.client.Set(ctx, KeyPrefixImage+res.ID, img, r.ttl); err != nil {
			return fmt.Errorf("failed to save image artifact: %w", err)
		}
	}
	return nil
}

// GetText loads the text artifact of a post
func (r *Repository) GetText(ctx context.Context, postID string) (*Artifact, error) {
	return r.artifact(ctx, KeyPrefixText+postID)
}

// GetImage loads the image artifact of a post
func (r *Repository) GetImage(ctx context.Context, postID string) (*Artifact, error) {
	return r.artifact(ctx, KeyPrefixImage+postID)
}

func (r *Repository) artifact(ctx context.Context, key string) (*Artifact, error) {
	var a Artifact
	if err := r.get(ctx, key, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return ErrUnavailable
	}
	err := r.client.Get(ctx, key, dest)
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable
func (r *Repository) Ping(ctx context.Context) error {
	if r.client == nil {
		return ErrUnavailable
	}
	return r.client.Ping(ctx)
}
