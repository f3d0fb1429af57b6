package dto

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

var errInvalidTrigger = apperrors.ErrInvalidArgument("either meetingId or callRecordId is required")

// SummaryTriggerRequest asks for a summary outside the webhook flow: after a
// missed notification, for regeneration, or with caller-supplied transcript
// text. Exactly one of meetingId and callRecordId identifies the meeting.
type SummaryTriggerRequest struct {
	MeetingID           *uuid.UUID        `json:"meetingId,omitempty"`
	CallRecordID        *string           `json:"callRecordId,omitempty"`
	ClientID            string            `json:"clientId,omitempty"`
	TranscriptText      string            `json:"transcriptText,omitempty"`
	AutoFetchTranscript bool              `json:"autoFetchTranscript,omitempty"`
	Questionnaire       map[string]string `json:"questionnaire,omitempty"`
}

// Validate enforces the identifier requirement the tag syntax cannot express
func (r *SummaryTriggerRequest) Validate() error {
	if r.MeetingID == nil && r.CallRecordID == nil {
		return errInvalidTrigger
	}
	return nil
}

// SummaryResponse is the API view of a generated summary
type SummaryResponse struct {
	ID             uuid.UUID              `json:"id"`
	MeetingID      uuid.UUID              `json:"meetingId"`
	TranscriptID   uuid.UUID              `json:"transcriptId"`
	Summary        string                 `json:"summary"`
	Questionnaire  entities.Questionnaire `json:"questionnaire"`
	ModelUsed      string                 `json:"modelUsed,omitempty"`
	ProcessingTime int                    `json:"processingTimeMs,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// NewSummaryResponse maps the entity to its API view
func NewSummaryResponse(s *entities.Summary) SummaryResponse {
	return SummaryResponse{
		ID:             s.ID,
		MeetingID:      s.MeetingID,
		TranscriptID:   s.TranscriptID,
		Summary:        s.SummaryText,
		Questionnaire:  s.Questionnaire,
		ModelUsed:      s.ModelUsed,
		ProcessingTime: s.ProcessingTime,
		CreatedAt:      s.CreatedAt,
	}
}
