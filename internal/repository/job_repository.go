package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chynybekuuludastan/post_factory/internal/models"
)

// JobRepository stores bulk job records
type JobRepository interface {
	Repository
	FindJob(id uuid.UUID) (*models.BulkJob, error)
	UpdateStatus(id uuid.UUID, status string) error
	RecordProgress(id uuid.UUID, failed bool) error
	Finish(id uuid.UUID, status string) error
	ListRecent(limit int) ([]*models.BulkJob, error)
}

type jobRepository struct {
	*BaseRepository
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *jobRepository) FindJob(id uuid.UUID) (*models.BulkJob, error) {
	var job models.BulkJob
	if err := r.FindByID(id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus sets the status and stamps started_at when a job begins running
func (r *jobRepository) UpdateStatus(id uuid.UUID, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.JobStatusRunning {
		updates["started_at"] = time.Now()
	}
	return r.DB.Model(&models.BulkJob{}).Where("id = ?", id).Updates(updates).Error
}

// RecordProgress counts one finished post
func (r *jobRepository) RecordProgress(id uuid.UUID, failed bool) error {
	column := "completed"
	if failed {
		column = "failed"
	}
	return r.DB.Model(&models.BulkJob{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

func (r *jobRepository) Finish(id uuid.UUID, status string) error {
	return r.DB.Model(&models.BulkJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"completed_at": time.Now(),
	}).Error
}

func (r *jobRepository) ListRecent(limit int) ([]*models.BulkJob, error) {
	_, limit = pageBounds(1, limit)
	var jobs []*models.BulkJob
	err := r.DB.Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
