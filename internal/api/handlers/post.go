package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	ws "github.com/chynybekuuludastan/post_factory/internal/api/websocket"
	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/models"
	"github.com/chynybekuuludastan/post_factory/internal/repository"
	"github.com/chynybekuuludastan/post_factory/internal/repository/cache"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
)

// Runner executes the post pipeline
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options, progress pipeline.ProgressFunc) (*pipeline.Result, error)
	RunBulkEach(ctx context.Context, opts pipeline.Options, count int, progress pipeline.ProgressFunc, each pipeline.ResultFunc) []*pipeline.Result
}

// Store keeps job state and downloadable artifacts for a limited time
type Store interface {
	SaveJob(ctx context.Context, job *cache.JobState) error
	GetJob(ctx context.Context, id string) (*cache.JobState, error)
	SaveArtifacts(ctx context.Context, res *pipeline.Result) error
	GetText(ctx context.Context, postID string) (*cache.Artifact, error)
	GetImage(ctx context.Context, postID string) (*cache.Artifact, error)
}

// PostHandler serves post generation, jobs, history and downloads
type PostHandler struct {
	Runner Runner
	Store  Store
	// Posts and Jobs are nil when history is not configured
	Posts  repository.PostRepository
	Jobs   repository.JobRepository
	Hub    *ws.Hub
	Config *config.Config
	Logger logging.Logger

	// background jobs live as long as baseCtx
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewPostHandler creates a post handler. Bulk jobs are cancelled when ctx is done.
func NewPostHandler(ctx context.Context, runner Runner, store Store, repos *repository.Factory, hub *ws.Hub, cfg *config.Config, logger logging.Logger) *PostHandler {
	h := &PostHandler{
		Runner:  runner,
		Store:   store,
		Hub:     hub,
		Config:  cfg,
		Logger:  logging.OrDefault(logger),
		baseCtx: ctx,
	}
	if repos != nil {
		h.Posts = repos.PostRepository
		h.Jobs = repos.JobRepository
	}
	return h
}

// Wait blocks until every background job has finished
func (h *PostHandler) Wait() {
	h.wg.Wait()
}

// GeneratePostRequest is the body of a generation request
type GeneratePostRequest struct {
	URL         string   `json:"url" example:"https://example.com"`
	Keyword     string   `json:"keyword,omitempty" example:"emergency dentist austin"`
	Focus       string   `json:"focus,omitempty" example:"20% off whitening in June"`
	PostType    string   `json:"post_type,omitempty" example:"generic"`
	Vibe        string   `json:"vibe,omitempty" example:"friendly"`
	VisualStyle string   `json:"visual_style,omitempty" example:"commercial"`
	Model       string   `json:"model,omitempty" example:"gemini-2.5-flash"`
	Temperature *float32 `json:"temperature,omitempty" example:"0.2"`
	// FolderURL is a Drive folder link or ID; empty keeps artifacts for download only
	FolderURL string `json:"folder_url,omitempty"`
}

// BulkPostRequest is the body of a bulk generation request
type BulkPostRequest struct {
	GeneratePostRequest
	Count int `json:"count" example:"3"`
}

// PostResponse is a pipeline result with delivery details
type PostResponse struct {
	*pipeline.Result
	ImageBase64 string `json:"image_base64,omitempty"`
	TextURL     string `json:"text_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

func (h *PostHandler) options(req *GeneratePostRequest) (pipeline.Options, error) {
	if strings.TrimSpace(req.URL) == "" {
		return pipeline.Options{}, errors.New("url is required")
	}
	postType, err := llm.ParsePostType(req.PostType)
	if err != nil {
		return pipeline.Options{}, err
	}
	vibe, err := llm.ParseVibe(req.Vibe)
	if err != nil {
		return pipeline.Options{}, err
	}
	style, err := llm.ParseVisualStyle(req.VisualStyle)
	if err != nil {
		return pipeline.Options{}, err
	}

	temperature := float32(h.Config.Temperature)
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	model := req.Model
	if model == "" {
		model = h.Config.TextModel
	}

	return pipeline.Options{
		URL: req.URL,
		Request: llm.GenerationRequest{
			Keyword:     req.Keyword,
			Focus:       req.Focus,
			PostType:    postType,
			Vibe:        vibe,
			VisualStyle: style,
			Model:       model,
			Temperature: temperature,
		}.Normalized(),
		FolderID: req.FolderURL,
	}, nil
}

// @Summary Generate one post
// @Description Reads the page, writes copy, generates an image and optionally uploads both to Drive
// @Tags posts
// @Accept json
// @Produce json
// @Param request body GeneratePostRequest true "Post parameters"
// @Success 200 {object} map[string]interface{} "Generated post"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 422 {object} map[string]interface{} "Page could not be read"
// @Failure 502 {object} map[string]interface{} "Text generation failed"
// @Security BearerAuth
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	req := new(GeneratePostRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	opts, err := h.options(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	res, err := h.Runner.Run(c.UserContext(), opts, nil)
	h.record(c.UserContext(), res, opts.Request, nil)
	if err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, pipeline.ErrScrapeFailed) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(fiber.Map{
			"success":    false,
			"error":      err.Error(),
			"error_kind": res.ErrorKind,
			"data":       res,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.response(res),
	})
}

func (h *PostHandler) response(res *pipeline.Result) *PostResponse {
	out := &PostResponse{Result: res}
	if res.Post != nil {
		out.TextURL = "/api/posts/" + res.ID + "/text"
	}
	if res.Image != nil {
		out.ImageURL = "/api/posts/" + res.ID + "/image"
		out.ImageBase64 = base64.StdEncoding.EncodeToString(res.Image.Data)
	}
	return out
}

// record stores artifacts for download and the history row. Failures are logged only.
func (h *PostHandler) record(ctx context.Context, res *pipeline.Result, req llm.GenerationRequest, jobID *uuid.UUID) {
	if res == nil {
		return
	}
	if err := h.Store.SaveArtifacts(ctx, res); err != nil {
		h.Logger.Error("Failed to store artifacts", "id", res.ID, "error", err)
	}
	if h.Posts == nil || res.ID == "" {
		return
	}
	if err := h.Posts.CreateWithUploads(repository.PostFromResult(res, req, jobID)); err != nil {
		h.Logger.Error("Failed to save post history", "id", res.ID, "error", err)
	}
}

// @Summary Start a bulk job
// @Description Generates count posts (1-12) for one page in the background
// @Tags posts
// @Accept json
// @Produce json
// @Param request body BulkPostRequest true "Bulk parameters"
// @Success 202 {object} map[string]interface{} "Job accepted"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /posts/bulk [post]
func (h *PostHandler) CreateBulk(c *fiber.Ctx) error {
	req := new(BulkPostRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	opts, err := h.options(&req.GeneratePostRequest)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	count := pipeline.ClampCount(req.Count)
	jobID := uuid.New()
	job := &cache.JobState{
		ID:        jobID.String(),
		SourceURL: opts.URL,
		Status:    models.JobStatusPending,
		Total:     count,
		Results:   []*pipeline.Result{},
		CreatedAt: time.Now(),
	}
	if err := h.Store.SaveJob(c.UserContext(), job); err != nil {
		h.Logger.Error("Failed to save job", "job", job.ID, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Job store is unavailable",
		})
	}
	if h.Jobs != nil {
		record := &models.BulkJob{ID: jobID, SourceURL: opts.URL, Count: count, Status: models.JobStatusPending}
		if err := h.Jobs.Create(record); err != nil {
			h.Logger.Error("Failed to save job history", "job", job.ID, "error", err)
		}
	}

	h.wg.Add(1)
	go h.runJob(job, opts, count)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"job_id":     job.ID,
			"count":      count,
			"status_url": "/api/jobs/" + job.ID,
			"ws_url":     "/ws/jobs/" + job.ID,
		},
	})
}

func (h *PostHandler) runJob(job *cache.JobState, opts pipeline.Options, count int) {
	defer h.wg.Done()
	ctx := h.baseCtx
	// State is still recorded after ctx is cancelled
	storeCtx := context.WithoutCancel(ctx)
	jobID, _ := uuid.Parse(job.ID)

	var mu sync.Mutex
	save := func() {
		if err := h.Store.SaveJob(storeCtx, job); err != nil {
			h.Logger.Error("Failed to update job", "job", job.ID, "error", err)
		}
	}

	job.Status = models.JobStatusRunning
	save()
	if h.Jobs != nil {
		h.logJobError(job.ID, h.Jobs.UpdateStatus(jobID, models.JobStatusRunning))
	}

	progress := func(e pipeline.Event) {
		mu.Lock()
		job.Stage = e.Stage
		mu.Unlock()
		if h.Hub != nil {
			h.Hub.Broadcast(job.ID, ws.TypeProgress, e)
		}
	}
	each := func(res *pipeline.Result) {
		failed := res.Error != ""
		h.record(storeCtx, res, opts.Request, &jobID)

		mu.Lock()
		job.Results = append(job.Results, res)
		if failed {
			job.Failed++
		} else {
			job.Completed++
		}
		save()
		mu.Unlock()

		if h.Jobs != nil {
			h.logJobError(job.ID, h.Jobs.RecordProgress(jobID, failed))
		}
		if h.Hub != nil {
			h.Hub.Broadcast(job.ID, ws.TypePostResult, h.response(res))
		}
	}

	h.Runner.RunBulkEach(ctx, opts, count, progress, each)

	mu.Lock()
	switch {
	case ctx.Err() != nil:
		job.Status = models.JobStatusCancelled
	case job.Completed == 0:
		job.Status = models.JobStatusFailed
	default:
		job.Status = models.JobStatusCompleted
	}
	save()
	mu.Unlock()

	if h.Jobs != nil {
		h.logJobError(job.ID, h.Jobs.Finish(jobID, job.Status))
	}
	if h.Hub != nil {
		h.Hub.Broadcast(job.ID, ws.TypeJobComplete, fiber.Map{
			"status":    job.Status,
			"completed": job.Completed,
			"failed":    job.Failed,
		})
	}
	h.Logger.Info("Bulk job finished", "job", job.ID, "completed", job.Completed, "failed", job.Failed)
}

func (h *PostHandler) logJobError(id string, err error) {
	if err != nil {
		h.Logger.Error("Failed to update job history", "job", id, "error", err)
	}
}

// @Summary Get a bulk job
// @Tags posts
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{} "Job state"
// @Failure 404 {object} map[string]interface{} "Job not found or expired"
// @Security BearerAuth
// @Router /jobs/{id} [get]
func (h *PostHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.Store.GetJob(c.UserContext(), c.Params("id"))
	if errors.Is(err, cache.ErrNotFound) {
		if record, ok := h.jobFromHistory(c.Params("id")); ok {
			return c.JSON(fiber.Map{
				"success": true,
				"data":    record,
			})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Job not found or expired",
		})
	}
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    job,
	})
}

// jobFromHistory loads an expired job and its posts from Postgres
func (h *PostHandler) jobFromHistory(id string) (*models.BulkJob, bool) {
	if h.Jobs == nil {
		return nil, false
	}
	jobID, err := uuid.Parse(id)
	if err != nil {
		return nil, false
	}
	record, err := h.Jobs.FindJob(jobID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.Logger.Error("Failed to load job history", "job", id, "error", err)
		}
		return nil, false
	}
	if h.Posts != nil {
		posts, err := h.Posts.FindByJobID(jobID)
		if err != nil {
			h.Logger.Error("Failed to load job posts", "job", id, "error", err)
		}
		for _, p := range posts {
			record.Posts = append(record.Posts, *p)
		}
	}
	return record, true
}

// @Summary List recent bulk jobs
// @Tags posts
// @Produce json
// @Param limit query int false "Maximum jobs" default(20)
// @Success 200 {object} map[string]interface{} "Jobs"
// @Failure 503 {object} map[string]interface{} "History not configured"
// @Security BearerAuth
// @Router /jobs [get]
func (h *PostHandler) ListJobs(c *fiber.Ctx) error {
	if h.Jobs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Post history is not configured",
		})
	}

	jobs, err := h.Jobs.ListRecent(c.QueryInt("limit", 20))
	if err != nil {
		h.Logger.Error("Failed to list jobs", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Database error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    jobs,
	})
}

// @Summary Get one post from history
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} map[string]interface{} "Post with upload outcomes"
// @Failure 400 {object} map[string]interface{} "Invalid post ID"
// @Failure 404 {object} map[string]interface{} "Post not found"
// @Failure 503 {object} map[string]interface{} "History not configured"
// @Security BearerAuth
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	if h.Posts == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Post history is not configured",
		})
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid post ID format",
		})
	}

	post, err := h.Posts.FindWithUploads(id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Post not found",
		})
	}
	if err != nil {
		h.Logger.Error("Failed to load post", "id", id, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Database error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    post,
	})
}

// @Summary List generated posts
// @Tags posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param url query string false "Filter by source URL"
// @Param model query string false "Filter by model"
// @Param failed query bool false "Only failed or only successful posts"
// @Success 200 {object} map[string]interface{} "Posts"
// @Failure 503 {object} map[string]interface{} "History not configured"
// @Security BearerAuth
// @Router /posts [get]
func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	if h.Posts == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Post history is not configured",
		})
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)
	filter := repository.PostFilter{
		SourceURL: c.Query("url"),
		Model:     c.Query("model"),
	}
	if raw := c.Query("failed"); raw != "" {
		failed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "failed must be true or false",
			})
		}
		filter.Failed = &failed
	}

	posts, total, err := h.Posts.List(filter, page, pageSize)
	if err != nil {
		h.Logger.Error("Failed to list posts", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Database error")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"posts":     posts,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// @Summary Download the text file of a post
// @Tags posts
// @Produce plain
// @Param id path string true "Post ID"
// @Success 200 {string} string "Text artifact"
// @Failure 404 {object} map[string]interface{} "Not found or expired"
// @Security BearerAuth
// @Router /posts/{id}/text [get]
func (h *PostHandler) DownloadText(c *fiber.Ctx) error {
	return h.download(c, h.Store.GetText)
}

// @Summary Download the image of a post
// @Tags posts
// @Produce image/jpeg
// @Param id path string true "Post ID"
// @Success 200 {file} file "Image artifact"
// @Failure 404 {object} map[string]interface{} "Not found or expired"
// @Security BearerAuth
// @Router /posts/{id}/image [get]
func (h *PostHandler) DownloadImage(c *fiber.Ctx) error {
	return h.download(c, h.Store.GetImage)
}

func (h *PostHandler) download(c *fiber.Ctx, get func(context.Context, string) (*cache.Artifact, error)) error {
	artifact, err := get(c.UserContext(), c.Params("id"))
	if errors.Is(err, cache.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Artifact not found or expired",
		})
	}
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}

	c.Set(fiber.HeaderContentType, artifact.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.Name))
	return c.Send(artifact.Data)
}
