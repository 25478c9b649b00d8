package repository

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/post_factory/internal/models"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
)

// PostFilter narrows a history listing. Zero values match everything.
type PostFilter struct {
	SourceURL string
	Model     string
	JobID     *uuid.UUID
	Failed    *bool
}

// PostRepository stores generated posts
type PostRepository interface {
	Repository
	// CreateWithUploads saves a post and its upload rows in one transaction
	CreateWithUploads(post *models.Post) error
	FindWithUploads(id uuid.UUID) (*models.Post, error)
	List(filter PostFilter, page, pageSize int) ([]*models.Post, int64, error)
	FindByJobID(jobID uuid.UUID) ([]*models.Post, error)
}

type postRepository struct {
	*BaseRepository
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *postRepository) CreateWithUploads(post *models.Post) error {
	return r.Transaction(func(tx *gorm.DB) error {
		uploads := post.Uploads
		post.Uploads = nil
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for i := range uploads {
			uploads[i].PostID = post.ID
		}
		if len(uploads) > 0 {
			if err := tx.Create(&uploads).Error; err != nil {
				return err
			}
		}
		post.Uploads = uploads
		return nil
	})
}

func (r *postRepository) FindWithUploads(id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.DB.Preload("Uploads").First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// List returns one page of posts, newest first, with the total match count
func (r *postRepository) List(filter PostFilter, page, pageSize int) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var count int64

	query := r.DB.Model(&models.Post{})
	if filter.SourceURL != "" {
		query = query.Where("source_url = ?", filter.SourceURL)
	}
	if filter.Model != "" {
		query = query.Where("model = ?", filter.Model)
	}
	if filter.JobID != nil {
		query = query.Where("job_id = ?", *filter.JobID)
	}
	if filter.Failed != nil {
		if *filter.Failed {
			query = query.Where("error_kind <> ''")
		} else {
			query = query.Where("error_kind = '' OR error_kind IS NULL")
		}
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	offset, limit := pageBounds(page, pageSize)
	if err := query.
		Preload("Uploads").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, count, nil
}

func (r *postRepository) FindByJobID(jobID uuid.UUID) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.DB.Where("job_id = ?", jobID).
		Preload("Uploads").
		Order("base_name ASC").
		Find(&posts).Error
	return posts, err
}

// PostFromResult maps a pipeline result onto a history row
func PostFromResult(res *pipeline.Result, req llm.GenerationRequest, jobID *uuid.UUID) *models.Post {
	req = req.Normalized()
	post := &models.Post{
		JobID:        jobID,
		SourceURL:    res.SourceURL,
		BaseName:     res.BaseName,
		Model:        res.Model,
		PostType:     string(req.PostType),
		Vibe:         string(req.Vibe),
		VisualStyle:  string(req.VisualStyle),
		Keyword:      req.Keyword,
		Focus:        req.Focus,
		Temperature:  req.Temperature,
		HasImage:     res.Image != nil,
		ImageWarning: res.ImageWarning,
		Warnings:     jsonList(res.Warnings),
		Error:        res.Error,
		ErrorKind:    res.ErrorKind,
		DurationMS:   res.Duration.Milliseconds(),
		CreatedAt:    res.CreatedAt,
	}
	if id, err := uuid.Parse(res.ID); err == nil {
		post.ID = id
	}
	if res.Post != nil {
		post.Headline = res.Post.Headline
		post.Body = res.Post.Body
		post.ImagePrompt = res.Post.ImagePrompt
		post.SkipImage = res.Post.SkipImage
		post.Degraded = jsonList(res.Post.Degraded)
	}
	for _, u := range res.Uploads {
		post.Uploads = append(post.Uploads, models.PostUpload{
			Artifact: u.Artifact,
			Name:     u.Name,
			Success:  u.Success,
			FileID:   u.FileID,
			Link:     u.Link,
			Error:    u.Error,
		})
	}
	return post
}

func jsonList(items []string) datatypes.JSON {
	if len(items) == 0 {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
