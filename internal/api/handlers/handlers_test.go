package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/repository/cache"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
	"github.com/chynybekuuludastan/post_factory/internal/service/imagegen"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
	"github.com/chynybekuuludastan/post_factory/internal/utils/password"
)

type fakeRunner struct {
	mu   sync.Mutex
	opts []pipeline.Options
	err  error
	kind string
}

func (f *fakeRunner) result(o pipeline.Options) *pipeline.Result {
	return &pipeline.Result{
		ID:        uuid.New().String(),
		Index:     o.Index,
		SourceURL: o.URL,
		BaseName:  fmt.Sprintf("Post_2025-06-01_10-30-00_%d", o.Index),
		Model:     o.Request.Model,
		Post:      &llm.ParsedPost{Headline: "H", Body: "B", ImagePrompt: "P"},
		Image:     &imagegen.Image{Data: []byte("img"), MimeType: "image/jpeg"},
	}
}

func (f *fakeRunner) Run(_ context.Context, o pipeline.Options, _ pipeline.ProgressFunc) (*pipeline.Result, error) {
	f.mu.Lock()
	f.opts = append(f.opts, o)
	f.mu.Unlock()
	if f.err != nil {
		return &pipeline.Result{ID: uuid.New().String(), SourceURL: o.URL, Error: f.err.Error(), ErrorKind: f.kind}, f.err
	}
	return f.result(o), nil
}

func (f *fakeRunner) RunBulkEach(_ context.Context, o pipeline.Options, count int, progress pipeline.ProgressFunc, each pipeline.ResultFunc) []*pipeline.Result {
	var out []*pipeline.Result
	for i := 1; i <= count; i++ {
		o.Index, o.Total = i, count
		progress(pipeline.Event{Index: i, Total: count, Stage: pipeline.StageComplete})
		res := f.result(o)
		if i == 2 {
			res.Post, res.Image = nil, nil
			res.Error, res.ErrorKind = "quota exceeded", "quota"
		}
		each(res)
		out = append(out, res)
	}
	return out
}

type memStore struct {
	mu        sync.Mutex
	jobs      map[string][]byte
	artifacts map[string]*cache.Artifact
}

func newMemStore() *memStore {
	return &memStore{jobs: map[string][]byte{}, artifacts: map[string]*cache.Artifact{}}
}

func (s *memStore) SaveJob(_ context.Context, job *cache.JobState) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = data
	return nil
}

func (s *memStore) GetJob(_ context.Context, id string) (*cache.JobState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.jobs[id]
	if !ok {
		return nil, cache.ErrNotFound
	}
	var job cache.JobState
	return &job, json.Unmarshal(data, &job)
}

func (s *memStore) SaveArtifacts(_ context.Context, res *pipeline.Result) error {
	if res.Post == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts["text:"+res.ID] = &cache.Artifact{Name: res.TextFilename(), MimeType: "text/plain; charset=utf-8", Data: res.TextArtifact()}
	if res.Image != nil {
		s.artifacts["image:"+res.ID] = &cache.Artifact{Name: res.ImageFilename(), MimeType: res.Image.MimeType, Data: res.Image.Data}
	}
	return nil
}

func (s *memStore) get(key string) (*cache.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.artifacts[key]; ok {
		return a, nil
	}
	return nil, cache.ErrNotFound
}

func (s *memStore) GetText(_ context.Context, id string) (*cache.Artifact, error) {
	return s.get("text:" + id)
}

func (s *memStore) GetImage(_ context.Context, id string) (*cache.Artifact, error) {
	return s.get("image:" + id)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{TextModel: "gemini-2.5-flash", Temperature: 0.2, JWTSecret: "s", JWTExpiration: time.Hour}
}

func newPostApp(runner Runner, store Store) (*fiber.App, *PostHandler) {
	h := NewPostHandler(context.Background(), runner, store, nil, nil, testConfig(), logging.NopLogger{})
	app := fiber.New()
	app.Post("/api/posts", h.CreatePost)
	app.Post("/api/posts/bulk", h.CreateBulk)
	app.Get("/api/posts", h.ListPosts)
	app.Get("/api/posts/:id/text", h.DownloadText)
	app.Get("/api/posts/:id/image", h.DownloadImage)
	app.Get("/api/jobs/:id", h.GetJob)
	return app, h
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestCreatePost(t *testing.T) {
	runner := &fakeRunner{}
	app, _ := newPostApp(runner, newMemStore())

	status, body := doJSON(t, app, http.MethodPost, "/api/posts",
		`{"url":"https://client.example","keyword":" dentist ","post_type":"review","visual_style":"empty-room"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "aW1n", data["image_base64"])
	assert.Contains(t, data["text_url"], "/text")

	require.Len(t, runner.opts, 1)
	req := runner.opts[0].Request
	assert.Equal(t, "dentist", req.Keyword)
	assert.Equal(t, llm.PostReview, req.PostType)
	assert.Equal(t, llm.StyleEmptyRoom, req.VisualStyle)
	assert.Equal(t, "gemini-2.5-flash", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 0.0001)
}

func TestCreatePostValidation(t *testing.T) {
	app, _ := newPostApp(&fakeRunner{}, newMemStore())

	for _, body := range []string{`{`, `{"url":""}`, `{"url":"https://x.example","vibe":"sarcastic"}`} {
		status, out := doJSON(t, app, http.MethodPost, "/api/posts", body)
		assert.Equal(t, fiber.StatusBadRequest, status, body)
		assert.Equal(t, false, out["success"])
	}
}

func TestCreatePostFailures(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		kind   string
		status int
	}{
		{"scrape", fmt.Errorf("%w: timeout", pipeline.ErrScrapeFailed), "scrape_failed", fiber.StatusUnprocessableEntity},
		{"text", fmt.Errorf("%w: %w", pipeline.ErrTextGeneration, apierr.ErrQuota), "quota", fiber.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newPostApp(&fakeRunner{err: tc.err, kind: tc.kind}, newMemStore())
			status, body := doJSON(t, app, http.MethodPost, "/api/posts", `{"url":"https://client.example"}`)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body["error_kind"])
		})
	}
}

func TestDownloads(t *testing.T) {
	store := newMemStore()
	app, _ := newPostApp(&fakeRunner{}, store)

	_, body := doJSON(t, app, http.MethodPost, "/api/posts", `{"url":"https://client.example"}`)
	id := body["data"].(map[string]interface{})["id"].(string)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+id+"/text", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="Post_2025-06-01_10-30-00_0.txt"`, resp.Header.Get("Content-Disposition"))
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "HEADLINE: H\n\nBODY: B\n\nPROMPT: P\n\nSOURCE: https://client.example", string(raw))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+id+"/image", nil))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/missing/image", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBulkJob(t *testing.T) {
	store := newMemStore()
	app, h := newPostApp(&fakeRunner{}, store)

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/bulk", `{"url":"https://client.example","count":40}`)
	require.Equal(t, fiber.StatusAccepted, status)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, pipeline.MaxBulkCount, data["count"])
	jobID := data["job_id"].(string)

	h.Wait()

	status, body = doJSON(t, app, http.MethodGet, "/api/jobs/"+jobID, "")
	require.Equal(t, fiber.StatusOK, status)
	job := body["data"].(map[string]interface{})
	assert.Equal(t, "completed", job["status"])
	assert.EqualValues(t, 11, job["completed"])
	assert.EqualValues(t, 1, job["failed"])
	assert.Len(t, job["results"], pipeline.MaxBulkCount)

	status, _ = doJSON(t, app, http.MethodGet, "/api/jobs/"+uuid.New().String(), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestListPostsWithoutHistory(t *testing.T) {
	app, _ := newPostApp(&fakeRunner{}, newMemStore())
	status, _ := doJSON(t, app, http.MethodGet, "/api/posts", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestMetaEndpoints(t *testing.T) {
	h := &MetaHandler{
		Config:      testConfig(),
		Credentials: &config.Credentials{ProjectID: "proj", ClientEmail: "bot@proj.iam.gserviceaccount.com"},
		Providers:   []string{"gemini"},
		Redis:       failingPinger{},
	}
	app := fiber.New()
	app.Get("/health", h.Health)
	app.Get("/models", h.Models)
	app.Get("/status", h.AuthStatus)

	status, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
	assert.Equal(t, "disabled", checks["postgres"])

	status, body = doJSON(t, app, http.MethodGet, "/models", "")
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "gemini-2.5-flash", data["default_model"])
	assert.Len(t, data["vibes"], 3)

	_, body = doJSON(t, app, http.MethodGet, "/status", "")
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["credentials_loaded"])
	assert.Equal(t, "bot@proj.iam.gserviceaccount.com", data["service_account_email"])
}

func TestIssueToken(t *testing.T) {
	hash, err := password.HashWithParams("letmein", password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
	require.NoError(t, err)

	cfg := testConfig()
	h := NewAuthHandler(cfg, logging.NopLogger{})
	app := fiber.New()
	app.Post("/token", h.IssueToken)

	status, _ := doJSON(t, app, http.MethodPost, "/token", `{"key":"letmein"}`)
	assert.Equal(t, fiber.StatusNotFound, status, "disabled")

	cfg.AuthEnabled = true
	cfg.OperatorKeyHash = hash

	status, _ = doJSON(t, app, http.MethodPost, "/token", `{"key":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/token", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/token", `{"key":"letmein"}`)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.EqualValues(t, 3600, data["expires_in"])
}
