package subscription

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/repositories"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
	"github.com/EliranNovik/Leadify-sub026/pkg/graph"
	"github.com/EliranNovik/Leadify-sub026/pkg/metrics"
)

// renewSlack bounds idempotent renewal: a subscription whose expiry is
// already within slack of a full lifetime extension is treated as freshly
// renewed and not extended again.
const renewSlack = 5 * time.Minute

// GraphAPI is the subset of the Graph client the lifecycle manager uses
type GraphAPI interface {
	CreateSubscription(ctx context.Context, req graph.SubscriptionRequest) (*graph.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]graph.Subscription, error)
	RenewSubscription(ctx context.Context, id string, newExpiry time.Time) (*graph.Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
}

// Service owns the set of active Graph subscriptions, their expiry and
// renewal scheduling
type Service interface {
	Create(ctx context.Context, resourceType entities.ResourceType, resource string) (*entities.Subscription, error)
	List(ctx context.Context) ([]*entities.Subscription, error)
	Status(ctx context.Context, subscriptionID string) (*entities.Subscription, error)
	Renew(ctx context.Context, subscriptionID string) (*entities.Subscription, error)
	Teardown(ctx context.Context, subscriptionID string) error
	ReconcileExpiring(ctx context.Context) error
	StartSweeper(ctx context.Context) error
	StopSweeper() error
}

type service struct {
	repo             repositories.SubscriptionRepository
	graphClient      GraphAPI
	cfg              *config.WebhookConfig
	logger           *zap.Logger
	sweeperStopChan  chan struct{}
	sweeperWg        sync.WaitGroup
	isSweeperRunning bool
	sweeperMutex     sync.Mutex
}

// NewService constructs the subscription lifecycle manager
func NewService(repo repositories.SubscriptionRepository, graphClient GraphAPI, cfg *config.WebhookConfig, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		graphClient: graphClient,
		cfg:         cfg,
		logger:      logger,
	}
}

// resourcePath maps a resource type to its default Graph resource path
func resourcePath(resourceType entities.ResourceType, resource string) (string, error) {
	if resource != "" {
		return resource, nil
	}
	switch resourceType {
	case entities.ResourceTypeCallRecords:
		return "communications/callRecords", nil
	case entities.ResourceTypeCalendarEvents:
		return "", apperrors.ErrInvalidArgument("calendar_events subscriptions require an explicit resource path (users/{id}/events)")
	default:
		return "", apperrors.ErrInvalidArgument(fmt.Sprintf("unknown resource type %q", resourceType))
	}
}

// Create registers a new Graph subscription and caches it locally
func (s *service) Create(ctx context.Context, resourceType entities.ResourceType, resource string) (*entities.Subscription, error) {
	if s.cfg.NotificationURL == "" {
		return nil, apperrors.ErrConfig("WEBHOOK_NOTIFICATION_URL")
	}
	if s.cfg.ClientState == "" {
		return nil, apperrors.ErrConfig("WEBHOOK_CLIENT_STATE")
	}

	path, err := resourcePath(resourceType, resource)
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(s.cfg.SubscriptionLifetime).UTC()
	created, err := s.graphClient.CreateSubscription(ctx, graph.SubscriptionRequest{
		Resource:           path,
		ChangeType:         "created,updated",
		NotificationURL:    s.cfg.NotificationURL,
		ClientState:        s.cfg.ClientState,
		ExpirationDateTime: expiry,
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrorCode_UPSTREAM_TERMINAL {
			return nil, apperrors.ErrGraphRejected(path, err)
		}
		return nil, err
	}

	sub := entities.NewSubscription(created.ID, resourceType, path, s.cfg.ClientState, created.ExpirationDateTime)
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("✅ Graph subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("resource", sub.Resource),
		zap.Time("expiration_at", sub.ExpirationAt),
	)
	return sub, nil
}

// List returns all known subscriptions reconciled against Graph's
// authoritative list. Local rows are a cache; Graph decides what exists.
func (s *service) List(ctx context.Context) ([]*entities.Subscription, error) {
	upstream, err := s.graphClient.ListSubscriptions(ctx)
	if err != nil {
		// Degrade to the cached view when Graph is unreachable.
		s.logger.Warn("⚠️ Could not reconcile with Graph, returning cached subscriptions", zap.Error(err))
		return s.repo.List(ctx)
	}

	upstreamByID := make(map[string]graph.Subscription, len(upstream))
	for _, u := range upstream {
		upstreamByID[u.ID] = u
	}

	local, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(local))
	for _, sub := range local {
		known[sub.ID] = true
		u, exists := upstreamByID[sub.ID]
		if !exists {
			if sub.Status != entities.SubscriptionStatusDeleted {
				s.logger.Warn("🧹 Subscription gone upstream, marking deleted",
					zap.String("subscription_id", sub.ID),
				)
				if err := s.repo.UpdateStatus(ctx, sub.ID, entities.SubscriptionStatusDeleted, "missing upstream"); err != nil {
					return nil, err
				}
				sub.Status = entities.SubscriptionStatusDeleted
			}
			continue
		}
		if !u.ExpirationDateTime.Equal(sub.ExpirationAt) {
			sub.ExpirationAt = u.ExpirationDateTime
			sub.Status = entities.SubscriptionStatusActive
			if err := s.repo.Save(ctx, sub); err != nil {
				return nil, err
			}
		}
	}

	// Import upstream subscriptions this instance does not know about.
	for _, u := range upstream {
		if known[u.ID] {
			continue
		}
		imported := entities.NewSubscription(u.ID, inferResourceType(u.Resource), u.Resource, s.cfg.ClientState, u.ExpirationDateTime)
		if err := s.repo.Save(ctx, imported); err != nil {
			return nil, err
		}
		local = append(local, imported)
		s.logger.Info("📥 Imported subscription from Graph",
			zap.String("subscription_id", u.ID),
			zap.String("resource", u.Resource),
		)
	}

	return local, nil
}

// Status returns a single subscription with live status
func (s *service) Status(ctx context.Context, subscriptionID string) (*entities.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.ErrSubscriptionNotFound(subscriptionID)
	}
	if sub.Status != entities.SubscriptionStatusDeleted && time.Now().After(sub.ExpirationAt) {
		sub.Status = entities.SubscriptionStatusExpired
	}
	return sub, nil
}

// Renew extends a subscription's expiration. Idempotent: a retried renewal
// on an already-extended subscription is a no-op.
func (s *service) Renew(ctx context.Context, subscriptionID string) (*entities.Subscription, error) {
	sub, err := s.repo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperrors.ErrSubscriptionNotFound(subscriptionID)
	}

	if time.Until(sub.ExpirationAt) > s.cfg.SubscriptionLifetime-renewSlack {
		s.logger.Info("⏭️ Subscription already extended, renewal is a no-op",
			zap.String("subscription_id", sub.ID),
			zap.Time("expiration_at", sub.ExpirationAt),
		)
		return sub, nil
	}

	newExpiry := time.Now().Add(s.cfg.SubscriptionLifetime).UTC()
	renewed, err := s.graphClient.RenewSubscription(ctx, sub.ID, newExpiry)
	if err != nil {
		return nil, err
	}

	sub.MarkRenewed(renewed.ExpirationDateTime)
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("🔄 Subscription renewed",
		zap.String("subscription_id", sub.ID),
		zap.Time("expiration_at", sub.ExpirationAt),
	)
	return sub, nil
}

// Teardown deletes a subscription upstream and marks the local row deleted
func (s *service) Teardown(ctx context.Context, subscriptionID string) error {
	if err := s.graphClient.DeleteSubscription(ctx, subscriptionID); err != nil {
		if apperrors.CodeOf(err) != apperrors.ErrorCode_UPSTREAM_TERMINAL {
			return err
		}
		// Already gone upstream; still clear the local row.
		s.logger.Warn("⚠️ Delete rejected upstream, clearing local row anyway",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err),
		)
	}
	return s.repo.UpdateStatus(ctx, subscriptionID, entities.SubscriptionStatusDeleted, "")
}

// ReconcileExpiring renews every subscription expiring inside the safety
// window. Renewal failures retry with exponential backoff; after the attempts
// run out the subscription is marked expiring/expired and an alert is logged
// rather than silently dropping coverage.
func (s *service) ReconcileExpiring(ctx context.Context) error {
	expiring, err := s.repo.FindExpiringWithin(ctx, s.cfg.RenewalSafetyWindow)
	if err != nil {
		return err
	}
	if len(expiring) == 0 {
		return nil
	}

	s.logger.Info("🕑 Sweep found subscriptions nearing expiry",
		zap.Int("count", len(expiring)),
	)

	for _, sub := range expiring {
		if err := s.renewWithBackoff(ctx, sub.ID); err != nil {
			metrics.SubscriptionRenewalsTotal.WithLabelValues("failed").Inc()
			s.handleRenewalFailure(ctx, sub, err)
			continue
		}
		metrics.SubscriptionRenewalsTotal.WithLabelValues("renewed").Inc()
	}
	return nil
}

// renewWithBackoff retries transient renewal failures; terminal 4xx failures
// (revoked consent, bad clientState) abort immediately for operator
// remediation.
func (s *service) renewWithBackoff(ctx context.Context, subscriptionID string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second

	attempts := uint64(s.cfg.RenewalMaxAttempts)
	if attempts == 0 {
		attempts = 4
	}

	operation := func() error {
		_, err := s.Renew(ctx, subscriptionID)
		if err != nil && !apperrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
}

func (s *service) handleRenewalFailure(ctx context.Context, sub *entities.Subscription, cause error) {
	if time.Now().After(sub.ExpirationAt) {
		metrics.SubscriptionsExpiredTotal.Inc()
		s.logger.Error("🚨 ALERT: subscription expired without renewal, notification coverage lost",
			zap.String("subscription_id", sub.ID),
			zap.String("resource", sub.Resource),
			zap.Error(cause),
		)
		if err := s.repo.UpdateStatus(ctx, sub.ID, entities.SubscriptionStatusExpired, cause.Error()); err != nil {
			s.logger.Error("failed to mark subscription expired", zap.Error(err))
		}
		return
	}

	s.logger.Warn("⚠️ Renewal failing, subscription marked expiring",
		zap.String("subscription_id", sub.ID),
		zap.Time("expiration_at", sub.ExpirationAt),
		zap.Error(cause),
	)
	if err := s.repo.UpdateStatus(ctx, sub.ID, entities.SubscriptionStatusExpiring, cause.Error()); err != nil {
		s.logger.Error("failed to mark subscription expiring", zap.Error(err))
	}
}

// StartSweeper starts the background renewal sweep
func (s *service) StartSweeper(ctx context.Context) error {
	s.sweeperMutex.Lock()
	defer s.sweeperMutex.Unlock()

	if s.isSweeperRunning {
		return fmt.Errorf("sweeper already running")
	}

	s.isSweeperRunning = true
	s.sweeperStopChan = make(chan struct{})

	s.logger.Info("🚀 Starting subscription renewal sweeper",
		zap.Duration("interval", s.cfg.SweepInterval),
		zap.Duration("safety_window", s.cfg.RenewalSafetyWindow),
	)

	s.sweeperWg.Add(1)
	go s.sweepLoop(ctx)

	return nil
}

// StopSweeper gracefully stops the background sweep
func (s *service) StopSweeper() error {
	s.sweeperMutex.Lock()
	defer s.sweeperMutex.Unlock()

	if !s.isSweeperRunning {
		return fmt.Errorf("sweeper not running")
	}

	close(s.sweeperStopChan)
	s.sweeperWg.Wait()
	s.isSweeperRunning = false

	s.logger.Info("✅ Subscription sweeper stopped")
	return nil
}

func (s *service) sweepLoop(ctx context.Context) {
	defer s.sweeperWg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.sweeperStopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ReconcileExpiring(ctx); err != nil {
				s.logger.Error("❌ Renewal sweep failed", zap.Error(err))
			}
		}
	}
}

// inferResourceType guesses the resource type of a subscription imported
// from Graph
func inferResourceType(resource string) entities.ResourceType {
	if strings.Contains(resource, "callRecords") {
		return entities.ResourceTypeCallRecords
	}
	return entities.ResourceTypeCalendarEvents
}
