package repositories

import (
	"context"
	"time"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// SubscriptionRepository defines the interface for subscription cache access
type SubscriptionRepository interface {
	// Save upserts a subscription row keyed by the Graph subscription ID
	Save(ctx context.Context, sub *entities.Subscription) error

	// FindByID retrieves a subscription by its Graph ID
	FindByID(ctx context.Context, id string) (*entities.Subscription, error)

	// List retrieves all locally known subscriptions
	List(ctx context.Context) ([]*entities.Subscription, error)

	// FindExpiringWithin retrieves non-expired subscriptions whose expiration
	// falls inside the window
	FindExpiringWithin(ctx context.Context, window time.Duration) ([]*entities.Subscription, error)

	// UpdateStatus sets the lifecycle status for a subscription
	UpdateStatus(ctx context.Context, id string, status entities.SubscriptionStatus, lastError string) error

	// Delete removes the local row
	Delete(ctx context.Context, id string) error
}
