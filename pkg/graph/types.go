package graph

import "time"

// Subscription is the Graph representation of a change-notification subscription
type Subscription struct {
	ID                 string    `json:"id,omitempty"`
	Resource           string    `json:"resource"`
	ChangeType         string    `json:"changeType"`
	NotificationURL    string    `json:"notificationUrl"`
	ClientState        string    `json:"clientState,omitempty"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
	ApplicationID      string    `json:"applicationId,omitempty"`
	CreatorID          string    `json:"creatorId,omitempty"`
}

// SubscriptionRequest is the payload for creating a subscription
type SubscriptionRequest struct {
	Resource           string    `json:"resource"`
	ChangeType         string    `json:"changeType"`
	NotificationURL    string    `json:"notificationUrl"`
	ClientState        string    `json:"clientState"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// subscriptionPatch is the payload for renewing a subscription
type subscriptionPatch struct {
	ExpirationDateTime time.Time `json:"expirationDateTime"`
}

// listResponse wraps Graph collection responses
type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink,omitempty"`
}

// CallRecord is Graph's representation of a completed online call
type CallRecord struct {
	ID             string    `json:"id"`
	Version        int       `json:"version,omitempty"`
	Type           string    `json:"type,omitempty"`
	JoinWebURL     string    `json:"joinWebUrl,omitempty"`
	StartDateTime  time.Time `json:"startDateTime,omitempty"`
	EndDateTime    time.Time `json:"endDateTime,omitempty"`
	Organizer      *Identity `json:"organizer,omitempty"`
	OrganizerIDSet *IDSet    `json:"organizer_v2,omitempty"`
}

// Identity is a Graph identitySet participant
type Identity struct {
	User *IdentityDetail `json:"user,omitempty"`
}

// IdentityDetail carries a user id and display name
type IdentityDetail struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// IDSet is the newer organizer_v2 shape on callRecords
type IDSet struct {
	ID string `json:"id,omitempty"`
}

// OrganizerUserID resolves the organizer's user ID from either shape
func (cr *CallRecord) OrganizerUserID() string {
	if cr.OrganizerIDSet != nil && cr.OrganizerIDSet.ID != "" {
		return cr.OrganizerIDSet.ID
	}
	if cr.Organizer != nil && cr.Organizer.User != nil {
		return cr.Organizer.User.ID
	}
	return ""
}

// OnlineMeeting is the subset of the Graph onlineMeeting resource we read
type OnlineMeeting struct {
	ID         string `json:"id"`
	Subject    string `json:"subject,omitempty"`
	JoinWebURL string `json:"joinWebUrl,omitempty"`
}

// TranscriptMeta describes one transcript attached to an online meeting
type TranscriptMeta struct {
	ID                   string    `json:"id"`
	MeetingID            string    `json:"meetingId,omitempty"`
	CreatedDateTime      time.Time `json:"createdDateTime,omitempty"`
	TranscriptContentURL string    `json:"transcriptContentUrl,omitempty"`
}

// graphError is the error envelope Graph returns on failures
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
