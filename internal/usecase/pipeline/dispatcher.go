package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/repositories"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
	"github.com/EliranNovik/Leadify-sub026/pkg/metrics"
)

// Coordinator provides the shared dedup window and per-resource leases.
// Redis backs it in multi-instance deployments; a memory implementation
// serves single-instance and tests.
type Coordinator interface {
	FirstSeen(ctx context.Context, dedupKey string, window time.Duration) (bool, error)
	Forget(ctx context.Context, dedupKey string) error
	AcquireLease(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, resource string) error
}

// Incoming is one validated change notification handed over by the webhook
// ingress after the clientState check passed.
type Incoming struct {
	SubscriptionID string
	ChangeType     string
	Resource       string
	ResourceID     string
	ResourceData   datatypes.JSON
}

// Dispatcher accepts validated notifications, collapses redeliveries inside
// the dedup window and hands survivors to the worker queue. Acceptance is
// decoupled from processing so the webhook always answers Graph quickly.
type Dispatcher struct {
	notifRepo   repositories.NotificationRepository
	coordinator Coordinator
	queue       chan uuid.UUID
	cfg         *config.PipelineConfig
	logger      *zap.Logger
}

// NewDispatcher creates the dispatcher feeding the given worker queue
func NewDispatcher(notifRepo repositories.NotificationRepository, coordinator Coordinator, queue chan uuid.UUID, cfg *config.PipelineConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifRepo:   notifRepo,
		coordinator: coordinator,
		queue:       queue,
		cfg:         cfg,
		logger:      logger,
	}
}

// Accept records one notification and enqueues it for processing. Duplicate
// deliveries inside the dedup window are dropped without error; Graph is
// answered 200 either way.
func (d *Dispatcher) Accept(ctx context.Context, in Incoming) error {
	metrics.NotificationsReceivedTotal.WithLabelValues(in.ChangeType).Inc()

	dedupKey := entities.DedupKey(in.SubscriptionID, in.ResourceID, in.ChangeType)

	// Fast path: the shared SETNX claim catches most redeliveries without a
	// database round trip. A coordinator error falls through to the
	// authoritative database check.
	first, err := d.coordinator.FirstSeen(ctx, dedupKey, d.cfg.DedupWindow)
	if err != nil {
		d.logger.Warn("⚠️ Dedup coordinator unavailable, falling back to database check", zap.Error(err))
	} else if !first {
		metrics.NotificationsDedupedTotal.Inc()
		d.logger.Debug("Duplicate notification dropped",
			zap.String("dedup_key", dedupKey),
			zap.String("resource_id", in.ResourceID),
		)
		return nil
	}

	exists, err := d.notifRepo.ExistsInWindow(ctx, dedupKey, d.cfg.DedupWindow)
	if err != nil {
		d.releaseClaim(ctx, dedupKey)
		return err
	}
	if exists {
		metrics.NotificationsDedupedTotal.Inc()
		return nil
	}

	n := entities.NewNotification(in.SubscriptionID, in.ChangeType, in.Resource, in.ResourceID, in.ResourceData)
	if err := d.notifRepo.Create(ctx, n); err != nil {
		d.releaseClaim(ctx, dedupKey)
		return err
	}
	if err := d.notifRepo.Requeue(ctx, n.ID); err != nil {
		d.releaseClaim(ctx, dedupKey)
		return err
	}

	// Best-effort handoff. When the queue is full the row stays queued in the
	// database and the requeue poller re-drives it.
	select {
	case d.queue <- n.ID:
	default:
		metrics.NotificationsDroppedTotal.WithLabelValues("queue_full").Inc()
		d.logger.Warn("⚠️ Worker queue full, notification left for the requeue poller",
			zap.String("notification_id", n.ID.String()),
		)
	}

	d.logger.Info("📨 Notification accepted",
		zap.String("notification_id", n.ID.String()),
		zap.String("change_type", in.ChangeType),
		zap.String("resource_id", in.ResourceID),
	)
	return nil
}

// releaseClaim frees the dedup key after acceptance failed so the delivery
// Graph retries in response to our 500 is not swallowed by the fast path.
func (d *Dispatcher) releaseClaim(ctx context.Context, dedupKey string) {
	if err := d.coordinator.Forget(ctx, dedupKey); err != nil {
		d.logger.Warn("⚠️ Failed to release dedup claim after acceptance error",
			zap.String("dedup_key", dedupKey),
			zap.Error(err),
		)
	}
}
