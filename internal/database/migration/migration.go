package migration

import (
	"fmt"
	"log"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Migration is one applied schema change
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;unique"`
	Batch     int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// MigrationFunc applies or reverts one schema change
type MigrationFunc func(tx *gorm.DB) error

// Step pairs the up and down halves of a migration
type Step struct {
	Up   MigrationFunc
	Down MigrationFunc
}

// Status describes one registered migration
type Status struct {
	Name      string
	Applied   bool
	Batch     int
	AppliedAt time.Time
}

// Migrator applies registered migrations in name order
type Migrator struct {
	DB           *gorm.DB
	Migrations   map[string]Step
	CurrentBatch int
}

// NewMigrator creates the bookkeeping table and loads the next batch number
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var maxBatch int
	if err := db.Model(&Migration{}).Select("COALESCE(MAX(batch), 0)").Row().Scan(&maxBatch); err != nil {
		return nil, fmt.Errorf("failed to read migration batch: %w", err)
	}

	return &Migrator{
		DB:           db,
		Migrations:   RegisterMigrations(),
		CurrentBatch: maxBatch + 1,
	}, nil
}

// RegisterMigrations lists every migration. Names sort in apply order.
func RegisterMigrations() map[string]Step {
	return map[string]Step{
		"01_create_bulk_jobs_table":    {Up: CreateBulkJobsTable, Down: DropBulkJobsTable},
		"02_create_posts_table":        {Up: CreatePostsTable, Down: DropPostsTable},
		"03_create_post_uploads_table": {Up: CreatePostUploadsTable, Down: DropPostUploadsTable},
		"04_add_indexes":               {Up: AddIndexes, Down: RemoveIndexes},
	}
}

func (m *Migrator) names() []string {
	names := make([]string, 0, len(m.Migrations))
	for name := range m.Migrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Migrator) applied(order string) ([]Migration, error) {
	var rows []Migration
	if err := m.DB.Order(order).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return rows, nil
}

// Migrate runs all pending migrations
func (m *Migrator) Migrate() error {
	rows, err := m.applied("id")
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(rows))
	for _, row := range rows {
		done[row.Name] = true
	}

	for _, name := range m.names() {
		if done[name] {
			continue
		}
		step := m.Migrations[name]
		log.Printf("Running migration: %s", name)

		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return tx.Create(&Migration{Name: name, Batch: m.CurrentBatch}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}

		log.Printf("Migration applied: %s", name)
	}

	return nil
}

// Rollback reverts the last batch of migrations
func (m *Migrator) Rollback() error {
	var rows []Migration
	if err := m.DB.Where("batch = ?", m.CurrentBatch-1).Order("id DESC").Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to get migrations to rollback: %w", err)
	}

	if len(rows) == 0 {
		log.Println("No migrations to rollback")
		return nil
	}

	return m.revert(rows)
}

// Reset reverts every migration and applies them again
func (m *Migrator) Reset() error {
	rows, err := m.applied("id DESC")
	if err != nil {
		return err
	}
	if err := m.revert(rows); err != nil {
		return err
	}

	m.CurrentBatch = 1
	return m.Migrate()
}

func (m *Migrator) revert(rows []Migration) error {
	for _, row := range rows {
		step, ok := m.Migrations[row.Name]
		if !ok {
			continue
		}
		log.Printf("Rolling back migration: %s", row.Name)

		row := row
		err := m.DB.Transaction(func(tx *gorm.DB) error {
			if err := step.Down(tx); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return tx.Delete(&row).Error
		})
		if err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", row.Name, err)
		}

		log.Printf("Migration rolled back: %s", row.Name)
	}
	return nil
}

// GetStatus reports every registered migration in apply order
func (m *Migrator) GetStatus() ([]Status, error) {
	rows, err := m.applied("id")
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Migration, len(rows))
	for _, row := range rows {
		byName[row.Name] = row
	}

	var status []Status
	for _, name := range m.names() {
		row, ok := byName[name]
		status = append(status, Status{
			Name:      name,
			Applied:   ok,
			Batch:     row.Batch,
			AppliedAt: row.AppliedAt,
		})
	}
	return status, nil
}
