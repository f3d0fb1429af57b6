package entities

import (
	"time"

	"github.com/google/uuid"
)

// CalendarType distinguishes where a meeting originated
type CalendarType string

const (
	CalendarTypeTeams   CalendarType = "teams"
	CalendarTypeOutlook CalendarType = "outlook"
)

// Meeting is created lazily the first time a notification resolves to it.
type Meeting struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TeamsID      string       `json:"teams_id" gorm:"type:varchar(255);uniqueIndex"`
	CallRecordID *string      `json:"call_record_id,omitempty" gorm:"type:varchar(255);index"`
	OrganizerID  string       `json:"organizer_id,omitempty" gorm:"type:varchar(255)"`
	Subject      string       `json:"subject,omitempty" gorm:"type:text"`
	CalendarType CalendarType `json:"calendar_type" gorm:"type:varchar(20);default:'teams'"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	EndedAt      *time.Time   `json:"ended_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting keyed by its Teams identifier
func NewMeeting(teamsID string) *Meeting {
	return &Meeting{
		ID:           uuid.New(),
		TeamsID:      teamsID,
		CalendarType: CalendarTypeTeams,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
