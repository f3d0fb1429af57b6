package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSource identifies where the transcript content came from
type TranscriptSource string

const (
	TranscriptSourceGraph  TranscriptSource = "graph"  // Fetched from the Graph call record
	TranscriptSourceManual TranscriptSource = "manual" // Supplied directly on the trigger surface
)

// Transcript is the stored transcript model. Rows are immutable once fetched;
// a re-fetch only happens through an explicit manual trigger, which creates a
// new row.
type Transcript struct {
	ID           uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID    uuid.UUID        `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Source       TranscriptSource `json:"source" gorm:"type:varchar(20);not null;default:'graph'"`
	Content      string           `json:"content" gorm:"type:text"`
	ContentKey   string           `json:"content_key,omitempty" gorm:"type:varchar(512)"` // object storage key of the raw VTT, when archived
	GraphID      string           `json:"graph_id,omitempty" gorm:"type:varchar(255)"`    // Graph transcript resource ID
	Language     string           `json:"language,omitempty" gorm:"type:varchar(20)"`
	FetchedAt    time.Time        `json:"fetched_at" gorm:"not null"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a new transcript for a meeting
func NewTranscript(meetingID uuid.UUID, source TranscriptSource, content string) *Transcript {
	now := time.Now()
	return &Transcript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Source:    source,
		Content:   content,
		FetchedAt: now,
		CreatedAt: now,
	}
}
