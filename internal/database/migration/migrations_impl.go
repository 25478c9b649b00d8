package migration

import (
	"gorm.io/gorm"
)

// CreateBulkJobsTable creates the bulk_jobs table
func CreateBulkJobsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS bulk_jobs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			source_url VARCHAR(2048) NOT NULL,
			count INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			options JSONB,
			started_at TIMESTAMP WITH TIME ZONE,
			completed_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropBulkJobsTable drops the bulk_jobs table
func DropBulkJobsTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS bulk_jobs CASCADE").Error
}

// CreatePostsTable creates the posts table
func CreatePostsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			job_id UUID REFERENCES bulk_jobs(id) ON DELETE SET NULL,
			source_url VARCHAR(2048) NOT NULL,
			base_name VARCHAR(100) NOT NULL,
			model VARCHAR(100),
			post_type VARCHAR(20),
			vibe VARCHAR(20),
			visual_style VARCHAR(20),
			keyword VARCHAR(255),
			focus TEXT,
			temperature REAL,
			headline TEXT,
			body TEXT,
			image_prompt TEXT,
			skip_image BOOLEAN NOT NULL DEFAULT FALSE,
			has_image BOOLEAN NOT NULL DEFAULT FALSE,
			image_warning TEXT,
			degraded JSONB,
			warnings JSONB,
			error TEXT,
			error_kind VARCHAR(50),
			duration_ms BIGINT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP WITH TIME ZONE
		)
	`).Error
}

// DropPostsTable drops the posts table
func DropPostsTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS posts CASCADE").Error
}

// CreatePostUploadsTable creates the post_uploads table
func CreatePostUploadsTable(tx *gorm.DB) error {
	return tx.Exec(`
		CREATE TABLE IF NOT EXISTS post_uploads (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			artifact VARCHAR(20) NOT NULL,
			name VARCHAR(255) NOT NULL,
			success BOOLEAN NOT NULL DEFAULT FALSE,
			file_id VARCHAR(255),
			link VARCHAR(2048),
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error
}

// DropPostUploadsTable drops the post_uploads table
func DropPostUploadsTable(tx *gorm.DB) error {
	return tx.Exec("DROP TABLE IF EXISTS post_uploads CASCADE").Error
}

var indexes = []struct {
	name string
	ddl  string
}{
	{"idx_bulk_jobs_status", "CREATE INDEX IF NOT EXISTS idx_bulk_jobs_status ON bulk_jobs(status)"},
	{"idx_bulk_jobs_created_at", "CREATE INDEX IF NOT EXISTS idx_bulk_jobs_created_at ON bulk_jobs(created_at)"},
	{"idx_posts_job_id", "CREATE INDEX IF NOT EXISTS idx_posts_job_id ON posts(job_id)"},
	{"idx_posts_source_url", "CREATE INDEX IF NOT EXISTS idx_posts_source_url ON posts(source_url)"},
	{"idx_posts_model", "CREATE INDEX IF NOT EXISTS idx_posts_model ON posts(model)"},
	{"idx_posts_error_kind", "CREATE INDEX IF NOT EXISTS idx_posts_error_kind ON posts(error_kind)"},
	{"idx_posts_created_at", "CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)"},
	{"idx_posts_deleted_at", "CREATE INDEX IF NOT EXISTS idx_posts_deleted_at ON posts(deleted_at)"},
	{"idx_post_uploads_post_id", "CREATE INDEX IF NOT EXISTS idx_post_uploads_post_id ON post_uploads(post_id)"},
}

// AddIndexes adds the lookup indexes used by history queries
func AddIndexes(tx *gorm.DB) error {
	for _, idx := range indexes {
		if err := tx.Exec(idx.ddl).Error; err != nil {
			return err
		}
	}
	return nil
}

// RemoveIndexes drops the indexes added by AddIndexes
func RemoveIndexes(tx *gorm.DB) error {
	for _, idx := range indexes {
		if err := tx.Exec("DROP INDEX IF EXISTS " + idx.name).Error; err != nil {
			return err
		}
	}
	return nil
}
