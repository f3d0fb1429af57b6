package jobcontext

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	keyNotificationID contextKey = "notification_id"
	keyResource       contextKey = "resource"
	keyWorkerID       contextKey = "worker_id"
	keyStartTime      contextKey = "start_time"
)

// Begin derives a processing context for one notification with the pipeline
// deadline applied. The deadline is what turns a wedged upstream call into a
// Timeout failure instead of a permanently held resource lease.
func Begin(parent context.Context, notificationID uuid.UUID, resource string, workerID int, deadline time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, deadline)

	ctx = context.WithValue(ctx, keyNotificationID, notificationID)
	ctx = context.WithValue(ctx, keyResource, resource)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())

	return ctx, cancel
}

// NotificationID returns the notification ID bound to ctx, or uuid.Nil
func NotificationID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(keyNotificationID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// Resource returns the resource bound to ctx
func Resource(ctx context.Context) string {
	if r, ok := ctx.Value(keyResource).(string); ok {
		return r
	}
	return ""
}

// WorkerID returns the worker that owns this processing run
func WorkerID(ctx context.Context) int {
	if id, ok := ctx.Value(keyWorkerID).(int); ok {
		return id
	}
	return -1
}

// Elapsed returns how long the notification has been processing
func Elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(keyStartTime).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}

// Fields returns standard zap fields for log lines inside a processing run
func Fields(ctx context.Context) []zap.Field {
	return []zap.Field{
		zap.String("notification_id", NotificationID(ctx).String()),
		zap.String("resource", Resource(ctx)),
		zap.Int("worker_id", WorkerID(ctx)),
	}
}
