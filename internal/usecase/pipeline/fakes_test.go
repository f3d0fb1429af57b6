package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/pkg/graph"
)

// In-memory repository fakes. They mirror the GORM implementations closely
// enough for pipeline semantics: atomic claims, the dedup window and the
// transactional done transition.

type fakeNotificationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*entities.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[uuid.UUID]*entities.Notification)}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *fakeNotificationRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeNotificationRepo) ExistsInWindow(_ context.Context, dedupKey string, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for _, n := range r.items {
		if n.DedupKey == dedupKey && n.ReceivedAt.After(cutoff) {
			switch n.ProcessingState {
			case entities.ProcessingStateQueued, entities.ProcessingStateProcessing, entities.ProcessingStateDone:
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) ClaimForProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.ProcessingState != entities.ProcessingStateQueued {
		return false, nil
	}
	n.ProcessingState = entities.ProcessingStateProcessing
	n.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeNotificationRepo) MarkDone(ctx context.Context, id uuid.UUID, meetingID uuid.UUID, fn func(txCtx context.Context) error) error {
	r.mu.Lock()
	n, ok := r.items[id]
	if !ok || n.ProcessingState != entities.ProcessingStateProcessing {
		r.mu.Unlock()
		return fmt.Errorf("notification %s is not in processing state", id)
	}
	r.mu.Unlock()

	if fn != nil {
		if err := fn(ctx); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	n.ProcessingState = entities.ProcessingStateDone
	n.MeetingID = &meetingID
	n.FailureReason = nil
	n.LastError = nil
	n.ProcessedAt = &now
	n.UpdatedAt = now
	return nil
}

func (r *fakeNotificationRepo) MarkFailed(_ context.Context, id uuid.UUID, reason entities.FailureReason, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.ProcessingState = entities.ProcessingStateFailed
		n.FailureReason = &reason
		n.LastError = &errMsg
		n.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeNotificationRepo) Requeue(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.ProcessingState = entities.ProcessingStateQueued
		n.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeNotificationRepo) FindQueued(_ context.Context, limit int) ([]*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Notification
	for _, n := range r.items {
		if n.ProcessingState == entities.ProcessingStateQueued {
			cp := *n
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindStuckProcessing(_ context.Context, deadline time.Duration) ([]*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-deadline)
	var out []*entities.Notification
	for _, n := range r.items {
		if n.ProcessingState == entities.ProcessingStateProcessing && n.UpdatedAt.Before(cutoff) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		n.Attempts++
	}
	return nil
}

func (r *fakeNotificationRepo) get(id uuid.UUID) *entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok {
		cp := *n
		return &cp
	}
	return nil
}

func (r *fakeNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeMeetingRepo struct {
	mu      sync.Mutex
	byTeams map[string]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{byTeams: make(map[string]*entities.Meeting)}
}

func (r *fakeMeetingRepo) FindOrCreateByTeamsID(_ context.Context, teamsID string, seed *entities.Meeting) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.byTeams[teamsID]; ok {
		cp := *m
		return &cp, nil
	}
	cp := *seed
	r.byTeams[teamsID] = &cp
	out := cp
	return &out, nil
}

func (r *fakeMeetingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byTeams {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMeetingRepo) FindByCallRecordID(_ context.Context, callRecordID string) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byTeams {
		if m.CallRecordID != nil && *m.CallRecordID == callRecordID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMeetingRepo) Update(_ context.Context, meeting *entities.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *meeting
	r.byTeams[meeting.TeamsID] = &cp
	return nil
}

type fakeTranscriptRepo struct {
	mu    sync.Mutex
	items []*entities.Transcript
}

func (r *fakeTranscriptRepo) Create(_ context.Context, t *entities.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeTranscriptRepo) FindLatestByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].MeetingID == meetingID {
			cp := *r.items[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTranscriptRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeSummaryRepo struct {
	mu    sync.Mutex
	items []*entities.Summary
}

func (r *fakeSummaryRepo) Create(_ context.Context, s *entities.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.items = append(r.items, &cp)
	return nil
}

func (r *fakeSummaryRepo) FindLatestByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].MeetingID == meetingID {
			cp := *r.items[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSummaryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// fakeGraph simulates the Graph surfaces the pipeline touches and counts
// calls so tests can assert work is not redone.
type fakeGraph struct {
	mu sync.Mutex

	callRecord     *graph.CallRecord
	onlineMeeting  *graph.OnlineMeeting
	transcripts    []graph.TranscriptMeta
	transcriptBody string

	// meetingTransientFails makes the online-meeting lookup fail with a
	// transient error that many times before succeeding.
	meetingTransientFails int

	callRecordCalls int
	meetingCalls    int
	listCalls       int
	contentCalls    int
}

func (g *fakeGraph) GetCallRecord(_ context.Context, id string) (*graph.CallRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.callRecordCalls++
	if g.callRecord == nil {
		return nil, apperrors.ErrUpstreamTerminal("graph", 404, fmt.Errorf("call record %s not found", id))
	}
	cp := *g.callRecord
	return &cp, nil
}

func (g *fakeGraph) GetOnlineMeetingByJoinURL(_ context.Context, _, _ string) (*graph.OnlineMeeting, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meetingCalls++
	if g.meetingTransientFails > 0 {
		g.meetingTransientFails--
		return nil, apperrors.ErrUpstreamTransient("graph", fmt.Errorf("service unavailable"))
	}
	if g.onlineMeeting == nil {
		return nil, apperrors.ErrNotFound("online meeting")
	}
	cp := *g.onlineMeeting
	return &cp, nil
}

func (g *fakeGraph) ListTranscripts(_ context.Context, _, _ string) ([]graph.TranscriptMeta, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	return g.transcripts, nil
}

func (g *fakeGraph) GetTranscriptContent(_ context.Context, _, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contentCalls++
	return g.transcriptBody, nil
}

// fakeSummarizer returns canned responses in order, repeating the last one.
type fakeSummarizer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (s *fakeSummarizer) AnalyzeTranscript(_ context.Context, _ string, _ map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return s.responses[i], nil
}

func (s *fakeSummarizer) Model() string { return "fake-model" }
