package entities

import (
	"time"
)

// SubscriptionStatus represents the lifecycle status of a Graph subscription
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpiring SubscriptionStatus = "expiring" // Renewal failing, still covered
	SubscriptionStatusExpired  SubscriptionStatus = "expired"  // ExpirationAt passed without renewal
	SubscriptionStatusDeleted  SubscriptionStatus = "deleted"  // Torn down explicitly or missing upstream
)

// ResourceType identifies the kind of Graph resource a subscription watches
type ResourceType string

const (
	ResourceTypeCalendarEvents ResourceType = "calendar_events"
	ResourceTypeCallRecords    ResourceType = "call_records"
)

// Subscription is the locally cached view of a Graph change-notification
// subscription. Graph's own list is the source of truth; rows here are a
// reconciled cache owned by the lifecycle manager.
type Subscription struct {
	ID           string             `json:"id" gorm:"type:varchar(255);primary_key"` // Graph subscription ID
	ResourceType ResourceType       `json:"resource_type" gorm:"type:varchar(50);not null;index"`
	Resource     string             `json:"resource" gorm:"type:varchar(512);not null"`
	ChangeTypes  string             `json:"change_types" gorm:"type:varchar(100);not null;default:'created,updated'"`
	ClientState  string             `json:"-" gorm:"type:varchar(255);not null"`
	ExpirationAt time.Time          `json:"expiration_at" gorm:"not null;index"`
	Status       SubscriptionStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'active'"`
	LastRenewal  *time.Time         `json:"last_renewal,omitempty"`
	LastError    *string            `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "graph_subscriptions"
}

// NewSubscription creates a local row from a Graph-issued subscription ID
func NewSubscription(id string, resourceType ResourceType, resource, clientState string, expirationAt time.Time) *Subscription {
	return &Subscription{
		ID:           id,
		ResourceType: resourceType,
		Resource:     resource,
		ChangeTypes:  "created,updated",
		ClientState:  clientState,
		ExpirationAt: expirationAt,
		Status:       SubscriptionStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// ExpiresWithin reports whether the subscription expires inside the window
func (s *Subscription) ExpiresWithin(window time.Duration) bool {
	return time.Until(s.ExpirationAt) <= window
}

// MarkRenewed records a successful renewal
func (s *Subscription) MarkRenewed(newExpiry time.Time) {
	now := time.Now()
	s.ExpirationAt = newExpiry
	s.Status = SubscriptionStatusActive
	s.LastRenewal = &now
	s.LastError = nil
	s.UpdatedAt = now
}

// MarkExpiring records a renewal failure while coverage still holds
func (s *Subscription) MarkExpiring(errMsg string) {
	s.Status = SubscriptionStatusExpiring
	s.LastError = &errMsg
	s.UpdatedAt = time.Now()
}

// MarkExpired records loss of coverage after renewal attempts ran out
func (s *Subscription) MarkExpired(errMsg string) {
	s.Status = SubscriptionStatusExpired
	s.LastError = &errMsg
	s.UpdatedAt = time.Now()
}
