package repository

import (
	"context"

	"ViewTube/model"

	"gorm.io/gorm"
)

// WatchHistoryRepository defines data access for per-user watch history.
type WatchHistoryRepository interface {
	Add(ctx context.Context, entry *model.WatchHistoryEntry) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*model.WatchHistoryEntry, error)
	ClearForUser(ctx context.Context, userID int64) error
}

// gormWatchHistoryRepository is the GORM implementation.
type gormWatchHistoryRepository struct {
	db *gorm.DB
}

// NewGormWatchHistoryRepository creates a GORM watch history repository.
func NewGormWatchHistoryRepository(db *gorm.DB) WatchHistoryRepository {
	return &gormWatchHistoryRepository{db: db}
}

// Add records a watched video reference for a user.
func (r *gormWatchHistoryRepository) Add(ctx context.Context, entry *model.WatchHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns the most recent entries for a user, newest first.
func (r *gormWatchHistoryRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.WatchHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []*model.WatchHistoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ClearForUser removes all history entries for a user.
func (r *gormWatchHistoryRepository) ClearForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.WatchHistoryEntry{}).Error
}
