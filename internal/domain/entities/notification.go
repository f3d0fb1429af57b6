package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProcessingState represents the pipeline state of a notification
type ProcessingState string

const (
	ProcessingStateReceived   ProcessingState = "received"
	ProcessingStateQueued     ProcessingState = "queued"
	ProcessingStateProcessing ProcessingState = "processing"
	ProcessingStateDone       ProcessingState = "done"
	ProcessingStateFailed     ProcessingState = "failed"
)

// FailureReason categorizes why a notification was parked as failed
type FailureReason string

const (
	FailureReasonTranscriptNotReady FailureReason = "TranscriptNotReady"
	FailureReasonSummarizationError FailureReason = "SummarizationError"
	FailureReasonTimeout            FailureReason = "Timeout"
	FailureReasonUpstreamError      FailureReason = "UpstreamError"
)

// Notification is one validated change notification delivered by Graph.
// Graph delivers at least once; the dedup key collapses redeliveries to
// at-most-once processing inside the dedup window.
type Notification struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SubscriptionID  string          `json:"subscription_id" gorm:"type:varchar(255);not null;index"`
	ChangeType      string          `json:"change_type" gorm:"type:varchar(50);not null"`
	Resource        string          `json:"resource" gorm:"type:varchar(512);not null;index"`
	ResourceID      string          `json:"resource_id" gorm:"type:varchar(255);not null"`
	ResourceData    datatypes.JSON  `json:"resource_data,omitempty" gorm:"type:jsonb"`
	DedupKey        string          `json:"dedup_key" gorm:"type:varchar(64);not null;index"`
	ProcessingState ProcessingState `json:"processing_state" gorm:"type:varchar(20);not null;index;default:'received'"`
	FailureReason   *FailureReason  `json:"failure_reason,omitempty" gorm:"type:varchar(50)"`
	LastError       *string         `json:"last_error,omitempty" gorm:"type:text"`
	Attempts        int             `json:"attempts" gorm:"type:integer;default:0"`
	MeetingID       *uuid.UUID      `json:"meeting_id,omitempty" gorm:"type:uuid;index"`
	ReceivedAt      time.Time       `json:"received_at" gorm:"not null;index"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "graph_notifications"
}

// NewNotification creates a notification in the received state
func NewNotification(subscriptionID, changeType, resource, resourceID string, resourceData datatypes.JSON) *Notification {
	now := time.Now()
	return &Notification{
		ID:              uuid.New(),
		SubscriptionID:  subscriptionID,
		ChangeType:      changeType,
		Resource:        resource,
		ResourceID:      resourceID,
		ResourceData:    resourceData,
		DedupKey:        DedupKey(subscriptionID, resourceID, changeType),
		ProcessingState: ProcessingStateReceived,
		ReceivedAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// DedupKey derives the identifier that collapses duplicate deliveries of the
// same logical change event.
func DedupKey(subscriptionID, resourceID, changeType string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", subscriptionID, resourceID, changeType)))
	return hex.EncodeToString(sum[:])
}

// MarkQueued transitions received -> queued
func (n *Notification) MarkQueued() {
	n.ProcessingState = ProcessingStateQueued
	n.UpdatedAt = time.Now()
}

// MarkDone records successful end-to-end processing
func (n *Notification) MarkDone() {
	now := time.Now()
	n.ProcessingState = ProcessingStateDone
	n.FailureReason = nil
	n.LastError = nil
	n.ProcessedAt = &now
	n.UpdatedAt = now
}

// MarkFailed parks the notification with a reason for later re-drive
func (n *Notification) MarkFailed(reason FailureReason, errMsg string) {
	n.ProcessingState = ProcessingStateFailed
	n.FailureReason = &reason
	n.LastError = &errMsg
	n.UpdatedAt = time.Now()
}
