package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/soundclip-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// filterColumns lists the job columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"status":       true,
	"url":          true,
	"audio_format": true,
}

// SQLiteJobRepository implements JobRepository using SQLite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository creates a new SQLite repository
func NewSQLiteJobRepository(dbPath string) (*SQLiteJobRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Job{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create creates a new job
func (r *SQLiteJobRepository) Create(job *domain.Job) error {
	return r.db.Create(job).Error
}

// Update updates an existing job
func (r *SQLiteJobRepository) Update(job *domain.Job) error {
	return r.db.Save(job).Error
}

// FindByID finds a job by ID. Returns nil if not found.
func (r *SQLiteJobRepository) FindByID(id string) (*domain.Job, error) {
	var job domain.Job
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindAll finds jobs with optional filters, newest first. A limit <= 0
// returns every match.
func (r *SQLiteJobRepository) FindAll(filters map[string]interface{}, limit int) ([]*domain.Job, error) {
	var jobs []*domain.Job
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// FindLatest returns the most recently created job, or nil
func (r *SQLiteJobRepository) FindLatest() (*domain.Job, error) {
	var job domain.Job
	err := r.db.Order("created_at DESC").First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetStats returns job statistics
func (r *SQLiteJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	if err := r.db.Model(&domain.Job{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.JobStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Job{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.JobRunning:
			stats.Running = sc.Count
		case domain.JobCompleted:
			stats.Completed = sc.Count
		case domain.JobFailed:
			stats.Failed = sc.Count
		case domain.JobCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// ResetOrphanedRunning marks jobs left running by a previous server process
// as failed. Their processes did not survive the restart.
func (r *SQLiteJobRepository) ResetOrphanedRunning() (int64, error) {
	now := time.Now()
	result := r.db.Model(&domain.Job{}).
		Where("status = ?", domain.JobRunning).
		Updates(map[string]interface{}{
			"status":        domain.JobFailed,
			"error_message": "interrupted by server restart",
			"completed_at":  now,
		})
	return result.RowsAffected, result.Error
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
