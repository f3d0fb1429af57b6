package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// Create inserts a notification row
	Create(ctx context.Context, n *entities.Notification) error

	// FindByID retrieves a notification by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error)

	// ExistsInWindow reports whether a processing/done notification with the
	// dedup key was received inside the window. This is the authoritative
	// dedup check backing at-most-once processing.
	ExistsInWindow(ctx context.Context, dedupKey string, window time.Duration) (bool, error)

	// ClaimForProcessing atomically moves a queued notification to processing.
	// Returns false when another worker already claimed it.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkDone records successful processing inside fn's transaction scope.
	// fn receives a transactional context used for the atomic summary write.
	MarkDone(ctx context.Context, id uuid.UUID, meetingID uuid.UUID, fn func(txCtx context.Context) error) error

	// MarkFailed parks a notification with its failure reason
	MarkFailed(ctx context.Context, id uuid.UUID, reason entities.FailureReason, errMsg string) error

	// Requeue moves a notification into the queued state, both for initial
	// dispatch and for re-driving failed or stale rows
	Requeue(ctx context.Context, id uuid.UUID) error

	// FindQueued retrieves queued notifications oldest first, for crash
	// recovery re-drive
	FindQueued(ctx context.Context, limit int) ([]*entities.Notification, error)

	// FindStuckProcessing retrieves notifications processing longer than the
	// deadline
	FindStuckProcessing(ctx context.Context, deadline time.Duration) ([]*entities.Notification, error)

	// IncrementAttempts bumps the attempt counter
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
}
