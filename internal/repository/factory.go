package repository

import (
	"gorm.io/gorm"
)

// Factory manages all repositories
type Factory struct {
	PostRepository PostRepository
	JobRepository  JobRepository
}

// NewRepositoryFactory creates a repository factory with all repositories
func NewRepositoryFactory(db *gorm.DB) *Factory {
	return &Factory{
		PostRepository: NewPostRepository(db),
		JobRepository:  NewJobRepository(db),
	}
}
