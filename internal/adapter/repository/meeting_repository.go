package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// FindOrCreateByTeamsID resolves a meeting by Teams ID, inserting it when
// absent. ON CONFLICT DO NOTHING plus a re-read keeps concurrent creators
// from producing duplicate rows.
func (r *MeetingRepository) FindOrCreateByTeamsID(ctx context.Context, teamsID string, seed *entities.Meeting) (*entities.Meeting, error) {
	db := dbFrom(ctx, r.db).WithContext(ctx)

	var meeting entities.Meeting
	err := db.Where("teams_id = ?", teamsID).First(&meeting).Error
	if err == nil {
		return &meeting, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if seed == nil {
		seed = entities.NewMeeting(teamsID)
	}
	seed.TeamsID = teamsID
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "teams_id"}},
		DoNothing: true,
	}).Create(seed).Error; err != nil {
		return nil, err
	}

	// Re-read so a concurrent winner's row is returned instead of the seed.
	if err := db.Where("teams_id = ?", teamsID).First(&meeting).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// FindByID retrieves a meeting by its primary key
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := dbFrom(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// FindByCallRecordID retrieves a meeting by the Graph call record ID
func (r *MeetingRepository) FindByCallRecordID(ctx context.Context, callRecordID string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("call_record_id = ?", callRecordID).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// Update persists meeting mutations
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return dbFrom(ctx, r.db).WithContext(ctx).Save(meeting).Error
}
