package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification row
func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	if n == nil {
		return errors.New("notification cannot be nil")
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Create(n).Error
}

// FindByID retrieves a notification by ID
func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	var n entities.Notification
	if err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// ExistsInWindow reports whether a processing/done notification with the
// dedup key was received inside the window
func (r *NotificationRepository) ExistsInWindow(ctx context.Context, dedupKey string, window time.Duration) (bool, error) {
	var count int64
	cutoff := time.Now().Add(-window)
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Notification{}).
		Where("dedup_key = ? AND received_at >= ? AND processing_state IN ?", dedupKey, cutoff,
			[]entities.ProcessingState{
				entities.ProcessingStateQueued,
				entities.ProcessingStateProcessing,
				entities.ProcessingStateDone,
			}).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClaimForProcessing atomically moves a queued notification to processing.
// Only one worker wins when several see the same row.
func (r *NotificationRepository) ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id = ? AND processing_state = ?", id, entities.ProcessingStateQueued).
		Updates(map[string]interface{}{
			"processing_state": entities.ProcessingStateProcessing,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkDone records successful processing. fn runs inside the same database
// transaction; repository writes made through its context join it, so the
// summary insert and the done transition commit or roll back together.
func (r *NotificationRepository) MarkDone(ctx context.Context, id uuid.UUID, meetingID uuid.UUID, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&entities.Notification{}).
			Where("id = ? AND processing_state = ?", id, entities.ProcessingStateProcessing).
			Updates(map[string]interface{}{
				"processing_state": entities.ProcessingStateDone,
				"meeting_id":       meetingID,
				"failure_reason":   nil,
				"last_error":       nil,
				"processed_at":     now,
				"updated_at":       now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("notification %s is not in processing state", id)
		}
		if fn == nil {
			return nil
		}
		return fn(withTx(ctx, tx))
	})
}

// MarkFailed parks a notification with its failure reason
func (r *NotificationRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason entities.FailureReason, errMsg string) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_state": entities.ProcessingStateFailed,
			"failure_reason":   reason,
			"last_error":       errMsg,
			"updated_at":       time.Now(),
		}).Error
}

// Requeue moves a notification into the queued state
func (r *NotificationRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_state": entities.ProcessingStateQueued,
			"updated_at":       time.Now(),
		}).Error
}

// FindQueued retrieves queued notifications oldest first
func (r *NotificationRepository) FindQueued(ctx context.Context, limit int) ([]*entities.Notification, error) {
	if limit == 0 {
		limit = 50
	}
	var out []*entities.Notification
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("processing_state = ?", entities.ProcessingStateQueued).
		Order("received_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindStuckProcessing retrieves notifications processing past the deadline
func (r *NotificationRepository) FindStuckProcessing(ctx context.Context, deadline time.Duration) ([]*entities.Notification, error) {
	var out []*entities.Notification
	cutoff := time.Now().Add(-deadline)
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("processing_state = ? AND updated_at < ?", entities.ProcessingStateProcessing, cutoff).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// IncrementAttempts bumps the attempt counter
func (r *NotificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
}
