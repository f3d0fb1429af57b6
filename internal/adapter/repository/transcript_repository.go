package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// TranscriptRepository handles transcript persistence
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Create inserts an immutable transcript row
func (r *TranscriptRepository) Create(ctx context.Context, t *entities.Transcript) error {
	if t == nil {
		return errors.New("transcript cannot be nil")
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Create(t).Error
}

// FindLatestByMeetingID retrieves the most recent transcript for a meeting
func (r *TranscriptRepository) FindLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var t entities.Transcript
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// SummaryRepository handles summary persistence
type SummaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Create inserts a summary row
func (r *SummaryRepository) Create(ctx context.Context, s *entities.Summary) error {
	if s == nil {
		return errors.New("summary cannot be nil")
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Create(s).Error
}

// FindLatestByMeetingID retrieves the most recent summary for a meeting
func (r *SummaryRepository) FindLatestByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Summary, error) {
	var s entities.Summary
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
