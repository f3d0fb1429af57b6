package dto

import "encoding/json"

// ChangeNotificationBatch is the envelope Graph POSTs to the webhook. One
// request can carry notifications for several subscriptions. ValidationToken
// is a pointer so an empty-but-present handshake token is distinguishable
// from its absence.
type ChangeNotificationBatch struct {
	ValidationToken *string              `json:"validationToken,omitempty"`
	Value           []ChangeNotification `json:"value"`
}

// ChangeNotification is a single change notification item
type ChangeNotification struct {
	SubscriptionID                 string          `json:"subscriptionId"`
	SubscriptionExpirationDateTime string          `json:"subscriptionExpirationDateTime,omitempty"`
	ChangeType                     string          `json:"changeType"`
	Resource                       string          `json:"resource"`
	ClientState                    string          `json:"clientState"`
	TenantID                       string          `json:"tenantId,omitempty"`
	ResourceData                   json.RawMessage `json:"resourceData,omitempty"`
}

// resourceData is the subset of the resourceData object we need for identity
type resourceData struct {
	ID string `json:"id"`
}

// ResourceID extracts the changed resource's ID from resourceData, falling
// back to the resource path when Graph omits the object
func (n *ChangeNotification) ResourceID() string {
	if len(n.ResourceData) > 0 {
		var rd resourceData
		if err := json.Unmarshal(n.ResourceData, &rd); err == nil && rd.ID != "" {
			return rd.ID
		}
	}
	return n.Resource
}
