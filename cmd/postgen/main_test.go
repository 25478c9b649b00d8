package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/service/imagegen"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest(" seo ", "", "faq", "urgent", "empty-room", "", 3)
	require.NoError(t, err)
	assert.Equal(t, "seo", req.Keyword)
	assert.Equal(t, llm.PostFAQ, req.PostType)
	assert.Equal(t, llm.VibeUrgent, req.Vibe)
	assert.Equal(t, llm.StyleEmptyRoom, req.VisualStyle)
	assert.Equal(t, llm.DefaultModel, req.Model)
	assert.Equal(t, float32(1), req.Temperature)

	_, err = buildRequest("", "", "essay", "", "", "", 0.2)
	assert.ErrorIs(t, err, llm.ErrInvalidOption)
}

func TestReportWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	res := &pipeline.Result{
		SourceURL: "https://client.example",
		BaseName:  "Post_2025-06-01_10-30-00",
		Post:      &llm.ParsedPost{Headline: "H", Body: "B", ImagePrompt: "P"},
		Image:     &imagegen.Image{Data: []byte{0xFF, 0xD8}, MimeType: "image/jpeg"},
	}

	report(res, dir)

	text, err := os.ReadFile(filepath.Join(dir, "Post_2025-06-01_10-30-00.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "SOURCE: https://client.example")
	_, err = os.Stat(filepath.Join(dir, "Post_2025-06-01_10-30-00.jpg"))
	assert.NoError(t, err)
}
