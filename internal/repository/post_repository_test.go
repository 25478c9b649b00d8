package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/service/imagegen"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
	"github.com/chynybekuuludastan/post_factory/internal/service/storage"
)

func TestPostFromResult(t *testing.T) {
	id := uuid.New()
	job := uuid.New()
	created := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	res := &pipeline.Result{
		ID:        id.String(),
		SourceURL: "https://client.example",
		BaseName:  "Post_2025-06-01_10-30-00_2",
		CreatedAt: created,
		Model:     "gemini-2.5-flash",
		Post: &llm.ParsedPost{
			Headline:    "Error Parsing",
			Body:        "Body text",
			ImagePrompt: "A desk",
			Degraded:    []string{"headline"},
		},
		Warnings: []string{"keyword missing"},
		Image:    &imagegen.Image{MimeType: "image/jpeg"},
		Uploads: []storage.UploadResult{
			{Artifact: storage.ArtifactImage, Name: "a.jpg", Success: true, FileID: "F1", Link: "https://drive/F1"},
			{Artifact: storage.ArtifactText, Name: "a.txt", Error: "denied"},
		},
		Duration: 1500 * time.Millisecond,
	}

	post := PostFromResult(res, llm.GenerationRequest{Keyword: " dentist ", PostType: llm.PostReview}, &job)

	assert.Equal(t, id, post.ID)
	assert.Equal(t, &job, post.JobID)
	assert.Equal(t, "dentist", post.Keyword)
	assert.Equal(t, "review", post.PostType)
	assert.Equal(t, "friendly", post.Vibe)
	assert.True(t, post.HasImage)
	assert.Equal(t, int64(1500), post.DurationMS)
	assert.Equal(t, created, post.CreatedAt)

	var degraded []string
	require.NoError(t, json.Unmarshal(post.Degraded, &degraded))
	assert.Equal(t, []string{"headline"}, degraded)

	require.Len(t, post.Uploads, 2)
	assert.Equal(t, "F1", post.Uploads[0].FileID)
	assert.Equal(t, "denied", post.Uploads[1].Error)
}

func TestPostFromFailedResult(t *testing.T) {
	res := &pipeline.Result{ID: "not-a-uuid", SourceURL: "https://x.example", Error: "scrape failed", ErrorKind: "scrape_failed"}

	post := PostFromResult(res, llm.GenerationRequest{}, nil)

	assert.Equal(t, uuid.Nil, post.ID)
	assert.Empty(t, post.Headline)
	assert.Nil(t, post.Degraded)
	assert.Nil(t, post.Warnings)
	assert.Equal(t, "scrape_failed", post.ErrorKind)
}

func TestPageBounds(t *testing.T) {
	offset, limit := pageBounds(3, 10)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)

	offset, limit = pageBounds(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, limit)

	_, limit = pageBounds(1, 1000)
	assert.Equal(t, 100, limit)
}
