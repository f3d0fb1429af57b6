package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/infrastructure/cache"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
)

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		WorkerCount:        1,
		QueueSize:          8,
		DedupWindow:        30 * time.Minute,
		ProcessingDeadline: 10 * time.Second,
		FetchMaxAttempts:   1,
		SummaryMaxAttempts: 1,
		RequeueInterval:    time.Hour,
		ReaperInterval:     time.Hour,
	}
}

func TestAcceptCollapsesDuplicateDeliveries(t *testing.T) {
	repo := newFakeNotificationRepo()
	queue := make(chan uuid.UUID, 8)
	d := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, testPipelineConfig(), zap.NewNop())

	in := Incoming{
		SubscriptionID: "sub-1",
		ChangeType:     "created",
		Resource:       "communications/callRecords/cr-1",
		ResourceID:     "cr-1",
	}

	require.NoError(t, d.Accept(context.Background(), in))
	require.NoError(t, d.Accept(context.Background(), in))
	require.NoError(t, d.Accept(context.Background(), in))

	require.Equal(t, 1, repo.count(), "redeliveries inside the window must not create rows")
	require.Len(t, queue, 1, "redeliveries inside the window must not be enqueued")
}

func TestAcceptDistinguishesChangeTypes(t *testing.T) {
	repo := newFakeNotificationRepo()
	queue := make(chan uuid.UUID, 8)
	d := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, testPipelineConfig(), zap.NewNop())

	base := Incoming{SubscriptionID: "sub-1", Resource: "communications/callRecords/cr-1", ResourceID: "cr-1"}

	created := base
	created.ChangeType = "created"
	updated := base
	updated.ChangeType = "updated"

	require.NoError(t, d.Accept(context.Background(), created))
	require.NoError(t, d.Accept(context.Background(), updated))

	require.Equal(t, 2, repo.count(), "different changeTypes are distinct events")
}

func TestAcceptFallsBackToDatabaseCheck(t *testing.T) {
	repo := newFakeNotificationRepo()
	queue := make(chan uuid.UUID, 8)
	cfg := testPipelineConfig()

	in := Incoming{SubscriptionID: "sub-1", ChangeType: "created", ResourceID: "cr-9", Resource: "communications/callRecords/cr-9"}

	// First delivery lands normally.
	d1 := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, cfg, zap.NewNop())
	require.NoError(t, d1.Accept(context.Background(), in))

	// A second dispatcher with a fresh coordinator simulates losing the
	// shared cache; the database check still catches the duplicate.
	d2 := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, cfg, zap.NewNop())
	require.NoError(t, d2.Accept(context.Background(), in))

	require.Equal(t, 1, repo.count())
}

// flakyNotificationRepo fails a configured number of writes before behaving
// normally, standing in for a database outage during acceptance.
type flakyNotificationRepo struct {
	*fakeNotificationRepo
	failCreates  int
	failRequeues int
}

func (r *flakyNotificationRepo) Create(ctx context.Context, n *entities.Notification) error {
	if r.failCreates > 0 {
		r.failCreates--
		return errors.New("db down")
	}
	return r.fakeNotificationRepo.Create(ctx, n)
}

func (r *flakyNotificationRepo) Requeue(ctx context.Context, id uuid.UUID) error {
	if r.failRequeues > 0 {
		r.failRequeues--
		return errors.New("db down")
	}
	return r.fakeNotificationRepo.Requeue(ctx, id)
}

func TestAcceptReleasesDedupClaimOnCreateFailure(t *testing.T) {
	repo := &flakyNotificationRepo{fakeNotificationRepo: newFakeNotificationRepo(), failCreates: 1}
	queue := make(chan uuid.UUID, 8)
	d := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, testPipelineConfig(), zap.NewNop())

	in := Incoming{SubscriptionID: "sub-1", ChangeType: "created", ResourceID: "cr-1", Resource: "communications/callRecords/cr-1"}

	// The failed insert answers 500 upstream, so Graph redelivers. The
	// redelivery must not be swallowed by the dedup fast path.
	require.Error(t, d.Accept(context.Background(), in))
	require.Equal(t, 0, repo.count())

	require.NoError(t, d.Accept(context.Background(), in))
	require.Equal(t, 1, repo.count(), "redelivery after a failed insert must be accepted, not deduped away")
	require.Len(t, queue, 1)
}

func TestAcceptReleasesDedupClaimOnRequeueFailure(t *testing.T) {
	repo := &flakyNotificationRepo{fakeNotificationRepo: newFakeNotificationRepo(), failRequeues: 1}
	queue := make(chan uuid.UUID, 8)
	d := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, testPipelineConfig(), zap.NewNop())

	in := Incoming{SubscriptionID: "sub-1", ChangeType: "created", ResourceID: "cr-2", Resource: "communications/callRecords/cr-2"}

	require.Error(t, d.Accept(context.Background(), in))
	require.Len(t, queue, 0)

	// The first attempt left a received row behind; it never blocks the
	// redelivery because only queued and later states dedup.
	require.NoError(t, d.Accept(context.Background(), in))
	require.Len(t, queue, 1)

	queued, err := repo.FindQueued(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
}

func TestAcceptFullQueueKeepsRowQueued(t *testing.T) {
	repo := newFakeNotificationRepo()
	queue := make(chan uuid.UUID, 1)
	d := NewDispatcher(repo, cache.NewMemoryCoordinator(), queue, testPipelineConfig(), zap.NewNop())

	first := Incoming{SubscriptionID: "sub-1", ChangeType: "created", ResourceID: "cr-1", Resource: "communications/callRecords/cr-1"}
	second := Incoming{SubscriptionID: "sub-1", ChangeType: "created", ResourceID: "cr-2", Resource: "communications/callRecords/cr-2"}

	require.NoError(t, d.Accept(context.Background(), first))
	require.NoError(t, d.Accept(context.Background(), second))

	require.Equal(t, 2, repo.count())
	require.Len(t, queue, 1)

	// The overflowed row is still queued in the store for the poller.
	queued, err := repo.FindQueued(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	for _, n := range queued {
		require.Equal(t, entities.ProcessingStateQueued, n.ProcessingState)
	}
}
