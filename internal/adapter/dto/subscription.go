package dto

import (
	"time"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// SubscriptionCommandRequest drives the subscription control surface. One
// endpoint multiplexes the lifecycle actions so operators and the CRM talk to
// a single stable URL.
type SubscriptionCommandRequest struct {
	Action         string `json:"action" validate:"required,oneof=list create status renew delete"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	ResourceType   string `json:"resourceType,omitempty" validate:"omitempty,resource_type"`
	Resource       string `json:"resource,omitempty"`
}

// SubscriptionResponse is the API view of a subscription
type SubscriptionResponse struct {
	ID           string    `json:"id"`
	ResourceType string    `json:"resourceType"`
	Resource     string    `json:"resource"`
	ChangeTypes  string    `json:"changeTypes"`
	ExpirationAt time.Time `json:"expirationAt"`
	Status       string    `json:"status"`
	LastRenewal  *string   `json:"lastRenewal,omitempty"`
	LastError    *string   `json:"lastError,omitempty"`
}

// NewSubscriptionResponse maps the entity to its API view. ClientState never
// leaves the server.
func NewSubscriptionResponse(sub *entities.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:           sub.ID,
		ResourceType: string(sub.ResourceType),
		Resource:     sub.Resource,
		ChangeTypes:  sub.ChangeTypes,
		ExpirationAt: sub.ExpirationAt,
		Status:       string(sub.Status),
		LastError:    sub.LastError,
	}
	if sub.LastRenewal != nil {
		formatted := sub.LastRenewal.Format(time.RFC3339)
		resp.LastRenewal = &formatted
	}
	return resp
}

// NewSubscriptionListResponse maps a slice of subscriptions
func NewSubscriptionListResponse(subs []*entities.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, NewSubscriptionResponse(sub))
	}
	return out
}
