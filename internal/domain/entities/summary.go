package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Questionnaire maps question keys to answers extracted from the transcript.
type Questionnaire map[string]string

// Scan implements sql.Scanner interface for GORM
func (q *Questionnaire) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, q)
}

// Value implements driver.Valuer interface for GORM
func (q Questionnaire) Value() (driver.Value, error) {
	if q == nil {
		return json.Marshal(Questionnaire{})
	}
	return json.Marshal(q)
}

// Summary holds one generated meeting summary with its structured
// questionnaire. Regeneration inserts a new row; rows are never mutated.
type Summary struct {
	ID             uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID     `json:"meeting_id" gorm:"type:uuid;not null;index"`
	TranscriptID   uuid.UUID     `json:"transcript_id" gorm:"type:uuid;not null;index"`
	SummaryText    string        `json:"summary_text" gorm:"type:text;not null"`
	Questionnaire  Questionnaire `json:"questionnaire" gorm:"type:jsonb"`
	ModelUsed      string        `json:"model_used,omitempty" gorm:"type:varchar(100)"`
	ProcessingTime int           `json:"processing_time,omitempty"` // milliseconds
	CreatedAt      time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Summary) TableName() string {
	return "meeting_summaries"
}

// NewSummary creates a summary row bound to its transcript
func NewSummary(meetingID, transcriptID uuid.UUID, text string, questionnaire Questionnaire) *Summary {
	return &Summary{
		ID:            uuid.New(),
		MeetingID:     meetingID,
		TranscriptID:  transcriptID,
		SummaryText:   text,
		Questionnaire: questionnaire,
		CreatedAt:     time.Now(),
	}
}
