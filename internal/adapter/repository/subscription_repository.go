package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// SubscriptionRepository handles subscription cache operations
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Save upserts a subscription row keyed by the Graph subscription ID
func (r *SubscriptionRepository) Save(ctx context.Context, sub *entities.Subscription) error {
	if sub == nil {
		return errors.New("subscription cannot be nil")
	}
	return dbFrom(ctx, r.db).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"resource_type", "resource", "change_types", "client_state",
				"expiration_at", "status", "last_renewal", "last_error", "updated_at",
			}),
		}).
		Create(sub).Error
}

// FindByID retrieves a subscription by its Graph ID
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*entities.Subscription, error) {
	var sub entities.Subscription
	if err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// List retrieves all locally known subscriptions
func (r *SubscriptionRepository) List(ctx context.Context) ([]*entities.Subscription, error) {
	var subs []*entities.Subscription
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Order("created_at ASC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// FindExpiringWithin retrieves non-expired subscriptions expiring inside the window
func (r *SubscriptionRepository) FindExpiringWithin(ctx context.Context, window time.Duration) ([]*entities.Subscription, error) {
	var subs []*entities.Subscription
	cutoff := time.Now().Add(window)
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("expiration_at <= ? AND status IN ?", cutoff,
			[]entities.SubscriptionStatus{entities.SubscriptionStatusActive, entities.SubscriptionStatusExpiring}).
		Order("expiration_at ASC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// UpdateStatus sets the lifecycle status for a subscription
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status entities.SubscriptionStatus, lastError string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if lastError != "" {
		updates["last_error"] = lastError
	}
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the local row
func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Delete(&entities.Subscription{}, "id = ?", id).Error
}
