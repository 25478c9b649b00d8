// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Post is one generated post kept in history
type Post struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	JobID        *uuid.UUID     `gorm:"type:uuid;index" json:"job_id,omitempty"`
	Job          *BulkJob       `gorm:"foreignKey:JobID" json:"-"`
	SourceURL    string         `gorm:"type:varchar(2048);not null;index" json:"source_url"`
	BaseName     string         `gorm:"type:varchar(100);not null" json:"base_name"`
	Model        string         `gorm:"type:varchar(100);index" json:"model"`
	PostType     string         `gorm:"type:varchar(20)" json:"post_type"`
	Vibe         string         `gorm:"type:varchar(20)" json:"vibe"`
	VisualStyle  string         `gorm:"type:varchar(20)" json:"visual_style"`
	Keyword      string         `gorm:"type:varchar(255)" json:"keyword,omitempty"`
	Focus        string         `gorm:"type:text" json:"focus,omitempty"`
	Temperature  float32        `json:"temperature"`
	Headline     string         `gorm:"type:text" json:"headline"`
	Body         string         `gorm:"type:text" json:"body"`
	ImagePrompt  string         `gorm:"type:text" json:"image_prompt"`
	SkipImage    bool           `gorm:"default:false" json:"skip_image"`
	HasImage     bool           `gorm:"default:false" json:"has_image"`
	ImageWarning string         `gorm:"type:text" json:"image_warning,omitempty"`
	Degraded     datatypes.JSON `gorm:"type:jsonb" json:"degraded_fields,omitempty"`
	Warnings     datatypes.JSON `gorm:"type:jsonb" json:"warnings,omitempty"`
	Error        string         `gorm:"type:text" json:"error,omitempty"`
	ErrorKind    string         `gorm:"type:varchar(50);index" json:"error_kind,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	// Relationships
	Uploads []PostUpload `gorm:"foreignKey:PostID" json:"uploads,omitempty"`
}

// PostUpload is the upload outcome of one artifact
type PostUpload struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	Artifact  string    `gorm:"type:varchar(20);not null" json:"artifact"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Success   bool      `gorm:"default:false" json:"success"`
	FileID    string    `gorm:"type:varchar(255)" json:"file_id,omitempty"`
	Link      string    `gorm:"type:varchar(2048)" json:"link,omitempty"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BulkJob tracks a batch of posts generated in the background
type BulkJob struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SourceURL   string         `gorm:"type:varchar(2048);not null" json:"source_url"`
	Count       int            `gorm:"not null" json:"count"`
	Completed   int            `gorm:"default:0" json:"completed"`
	Failed      int            `gorm:"default:0" json:"failed"`
	Status      string         `gorm:"type:varchar(50);not null;default:'pending';index" json:"status"`
	Options     datatypes.JSON `gorm:"type:jsonb" json:"options,omitempty"`
	StartedAt   *time.Time     `gorm:"default:null" json:"started_at,omitempty"`
	CompletedAt *time.Time     `gorm:"default:null" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	// Relationships
	Posts []Post `gorm:"foreignKey:JobID" json:"posts,omitempty"`
}

// GetAllModels returns all models for migration
func GetAllModels() []interface{} {
	return []interface{}{
		&BulkJob{},
		&Post{},
		&PostUpload{},
	}
}
