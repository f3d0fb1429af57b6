package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// FindOrCreateByTeamsID resolves a meeting by its Teams identifier,
	// creating it when absent. The upsert is transactional so concurrent
	// notifications for the same meeting cannot race a duplicate row.
	FindOrCreateByTeamsID(ctx context.Context, teamsID string, seed *entities.Meeting) (*entities.Meeting, error)

	// FindByID retrieves a meeting by its primary key
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindByCallRecordID retrieves a meeting by the Graph call record ID
	FindByCallRecordID(ctx context.Context, callRecordID string) (*entities.Meeting, error)

	// Update persists meeting mutations
	Update(ctx context.Context, meeting *entities.Meeting) error
}

// TranscriptRepository defines the interface for transcript persistence
type TranscriptRepository interface {
	// Create inserts an immutable transcript row
	Create(ctx context.Context, t *entities.Transcript) error

	// FindLatestByMeetingID retrieves the most recent transcript for a meeting
	FindLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)
}

// SummaryRepository defines the interface for summary persistence
type SummaryRepository interface {
	// Create inserts a summary row; regeneration inserts a new row
	Create(ctx context.Context, s *entities.Summary) error

	// FindLatestByMeetingID retrieves the most recent summary for a meeting
	FindLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Summary, error)
}
