package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/models"
	"github.com/chynybekuuludastan/post_factory/internal/repository"
)

type fakePosts struct {
	repository.PostRepository
	mu    sync.Mutex
	posts map[uuid.UUID]*models.Post
}

func (f *fakePosts) CreateWithUploads(post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.ID] = post
	return nil
}

func (f *fakePosts) FindWithUploads(id uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePosts) FindByJobID(jobID uuid.UUID) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Post
	for _, p := range f.posts {
		if p.JobID != nil && *p.JobID == jobID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeJobs struct {
	repository.JobRepository
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.BulkJob
}

func (f *fakeJobs) Create(entity interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := entity.(*models.BulkJob)
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobs) update(id uuid.UUID, fn func(*models.BulkJob)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		fn(job)
	}
	return nil
}

func (f *fakeJobs) UpdateStatus(id uuid.UUID, status string) error {
	return f.update(id, func(j *models.BulkJob) { j.Status = status })
}

func (f *fakeJobs) RecordProgress(id uuid.UUID, failed bool) error {
	return f.update(id, func(j *models.BulkJob) {
		if failed {
			j.Failed++
		} else {
			j.Completed++
		}
	})
}

func (f *fakeJobs) Finish(id uuid.UUID, status string) error {
	return f.update(id, func(j *models.BulkJob) { j.Status = status })
}

func (f *fakeJobs) FindJob(id uuid.UUID) (*models.BulkJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeJobs) ListRecent(limit int) ([]*models.BulkJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BulkJob
	for _, j := range f.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, j)
	}
	return out, nil
}

func newHistoryApp() (*fiber.App, *PostHandler, *memStore) {
	store := newMemStore()
	posts := &fakePosts{posts: map[uuid.UUID]*models.Post{}}
	repos := &repository.Factory{
		PostRepository: posts,
		JobRepository:  &fakeJobs{jobs: map[uuid.UUID]*models.BulkJob{}},
	}
	h := NewPostHandler(context.Background(), &fakeRunner{}, store, repos, nil, testConfig(), logging.NopLogger{})
	app := fiber.New()
	app.Post("/api/posts", h.CreatePost)
	app.Post("/api/posts/bulk", h.CreateBulk)
	app.Get("/api/posts/:id", h.GetPost)
	app.Get("/api/jobs", h.ListJobs)
	app.Get("/api/jobs/:id", h.GetJob)
	return app, h, store
}

func TestGetPostFromHistory(t *testing.T) {
	app, _, _ := newHistoryApp()

	status, body := doJSON(t, app, http.MethodPost, "/api/posts", `{"url":"https://client.example"}`)
	require.Equal(t, fiber.StatusOK, status)
	id := body["data"].(map[string]interface{})["id"].(string)

	status, body = doJSON(t, app, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, fiber.StatusOK, status)
	post := body["data"].(map[string]interface{})
	assert.Equal(t, "H", post["headline"])
	assert.Equal(t, "https://client.example", post["source_url"])

	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+uuid.New().String(), "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/posts/not-a-uuid", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestExpiredJobFallsBackToHistory(t *testing.T) {
	app, h, store := newHistoryApp()

	status, body := doJSON(t, app, http.MethodPost, "/api/posts/bulk", `{"url":"https://client.example","count":3}`)
	require.Equal(t, fiber.StatusAccepted, status)
	jobID := body["data"].(map[string]interface{})["job_id"].(string)
	h.Wait()

	store.mu.Lock()
	delete(store.jobs, jobID)
	store.mu.Unlock()

	status, body = doJSON(t, app, http.MethodGet, "/api/jobs/"+jobID, "")
	require.Equal(t, fiber.StatusOK, status)
	job := body["data"].(map[string]interface{})
	assert.Equal(t, "completed", job["status"])
	assert.EqualValues(t, 2, job["completed"])
	assert.EqualValues(t, 1, job["failed"])
	// failed items are kept in history with their error
	assert.Len(t, job["posts"], 3)

	status, body = doJSON(t, app, http.MethodGet, "/api/jobs", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestListJobsWithoutHistory(t *testing.T) {
	h := NewPostHandler(context.Background(), &fakeRunner{}, newMemStore(), nil, nil, testConfig(), logging.NopLogger{})
	app := fiber.New()
	app.Get("/api/jobs", h.ListJobs)

	status, _ := doJSON(t, app, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}
