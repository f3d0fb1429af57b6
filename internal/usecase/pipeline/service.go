package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/repositories"
	"github.com/EliranNovik/Leadify-sub026/pkg/config"
	"github.com/EliranNovik/Leadify-sub026/pkg/graph"
	"github.com/EliranNovik/Leadify-sub026/pkg/jobcontext"
	"github.com/EliranNovik/Leadify-sub026/pkg/metrics"
)

// GraphAPI is the subset of the Graph client the pipeline uses
type GraphAPI interface {
	GetCallRecord(ctx context.Context, id string) (*graph.CallRecord, error)
	GetOnlineMeetingByJoinURL(ctx context.Context, organizerID, joinWebURL string) (*graph.OnlineMeeting, error)
	ListTranscripts(ctx context.Context, organizerID, onlineMeetingID string) ([]graph.TranscriptMeta, error)
	GetTranscriptContent(ctx context.Context, organizerID, onlineMeetingID, transcriptID string) (string, error)
}

// Summarizer generates the meeting analysis from a transcript
type Summarizer interface {
	AnalyzeTranscript(ctx context.Context, transcript string, questions map[string]string) (string, error)
	Model() string
}

// Archive stores raw transcript payloads in object storage. Optional; a nil
// archive skips the raw copy and keeps only the parsed text in the database.
type Archive interface {
	Put(ctx context.Context, meetingID, transcriptID, content string) (string, error)
}

// ManualTrigger is a request on the manual summarization surface
type ManualTrigger struct {
	MeetingID           *uuid.UUID
	CallRecordID        *string
	TranscriptText      string
	AutoFetchTranscript bool
	Questionnaire       map[string]string
}

// Service drains the notification queue through a worker pool and turns call
// record notifications into stored transcripts and summaries
type Service interface {
	Queue() chan uuid.UUID
	Process(ctx context.Context, notificationID uuid.UUID, workerID int) error
	ProcessManual(ctx context.Context, trigger ManualTrigger) (*entities.Summary, error)
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	notifRepo      repositories.NotificationRepository
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	summaryRepo    repositories.SummaryRepository
	graphClient    GraphAPI
	summarizer     Summarizer
	coordinator    Coordinator
	archive        Archive
	cfg            *config.PipelineConfig
	logger         *zap.Logger

	queue     chan uuid.UUID
	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mutex     sync.Mutex
}

// NewService constructs the notification pipeline
func NewService(
	notifRepo repositories.NotificationRepository,
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	summaryRepo repositories.SummaryRepository,
	graphClient GraphAPI,
	summarizer Summarizer,
	coordinator Coordinator,
	archive Archive,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) Service {
	return &service{
		notifRepo:      notifRepo,
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		summaryRepo:    summaryRepo,
		graphClient:    graphClient,
		summarizer:     summarizer,
		coordinator:    coordinator,
		archive:        archive,
		cfg:            cfg,
		logger:         logger,
		queue:          make(chan uuid.UUID, cfg.QueueSize),
	}
}

// Queue exposes the worker queue the dispatcher feeds
func (s *service) Queue() chan uuid.UUID {
	return s.queue
}

// Start launches the worker pool, the requeue poller and the stuck-processing
// reaper
func (s *service) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isRunning {
		return fmt.Errorf("pipeline already running")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})

	s.logger.Info("🚀 Starting notification pipeline",
		zap.Int("workers", s.cfg.WorkerCount),
		zap.Duration("processing_deadline", s.cfg.ProcessingDeadline),
	)

	for i := 0; i < s.cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.wg.Add(2)
	go s.requeuePoller(ctx)
	go s.reaper(ctx)

	return nil
}

// Stop gracefully stops the pipeline. In-flight notifications finish; queued
// rows survive in the database and are re-driven on the next start.
func (s *service) Stop() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isRunning {
		return fmt.Errorf("pipeline not running")
	}

	close(s.stopChan)
	s.wg.Wait()
	s.isRunning = false

	s.logger.Info("✅ Notification pipeline stopped")
	return nil
}

func (s *service) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case id := <-s.queue:
			if err := s.Process(ctx, id, workerID); err != nil {
				s.logger.Error("❌ Notification processing failed",
					zap.String("notification_id", id.String()),
					zap.Int("worker_id", workerID),
					zap.Error(err),
				)
			}
		}
	}
}

// requeuePoller re-drives queued rows that never reached the in-memory queue,
// either because it was full or because the process restarted
func (s *service) requeuePoller(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.RequeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			queued, err := s.notifRepo.FindQueued(ctx, s.cfg.QueueSize)
			if err != nil {
				s.logger.Error("requeue poll failed", zap.Error(err))
				continue
			}
			for _, n := range queued {
				select {
				case s.queue <- n.ID:
				default:
					// Queue still full, the next tick picks it up.
				}
			}
		}
	}
}

// reaper parks notifications stuck in processing past the deadline as Timeout
// failures and releases their dedup claim so a redelivery can retry
func (s *service) reaper(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			stuck, err := s.notifRepo.FindStuckProcessing(ctx, s.cfg.ProcessingDeadline)
			if err != nil {
				s.logger.Error("reaper scan failed", zap.Error(err))
				continue
			}
			for _, n := range stuck {
				s.logger.Warn("⏱️ Reaping notification stuck in processing",
					zap.String("notification_id", n.ID.String()),
					zap.Duration("age", time.Since(n.UpdatedAt)),
				)
				cause := apperrors.ErrProcessingTimeout(n.ID.String())
				if err := s.notifRepo.MarkFailed(ctx, n.ID, entities.FailureReasonTimeout, cause.Error()); err != nil {
					s.logger.Error("failed to park stuck notification", zap.Error(err))
					continue
				}
				metrics.NotificationsProcessedTotal.WithLabelValues("failed", string(entities.FailureReasonTimeout)).Inc()
				if err := s.coordinator.Forget(ctx, n.DedupKey); err != nil {
					s.logger.Warn("failed to release dedup claim", zap.Error(err))
				}
			}
		}
	}
}

// Process runs one notification end to end: claim, lease, resolve, fetch,
// summarize, persist. Failures park the row with a reason and release the
// dedup claim so Graph's next redelivery gets another attempt.
func (s *service) Process(ctx context.Context, notificationID uuid.UUID, workerID int) error {
	n, err := s.notifRepo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	claimed, err := s.notifRepo.ClaimForProcessing(ctx, n.ID)
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker owns it, or it already finished.
		return nil
	}

	// Notifications for the same resource serialize behind the lease so two
	// redeliveries cannot interleave writes for one meeting.
	leased, err := s.coordinator.AcquireLease(ctx, n.ResourceID, s.cfg.ProcessingDeadline)
	if err != nil {
		return err
	}
	if !leased {
		// Resource busy. Put the row back and let the poller retry it.
		return s.notifRepo.Requeue(ctx, n.ID)
	}
	defer func() {
		if err := s.coordinator.ReleaseLease(context.WithoutCancel(ctx), n.ResourceID); err != nil {
			s.logger.Warn("failed to release resource lease", zap.Error(err))
		}
	}()

	jctx, cancel := jobcontext.Begin(ctx, n.ID, n.Resource, workerID, s.cfg.ProcessingDeadline)
	defer cancel()

	if err := s.notifRepo.IncrementAttempts(jctx, n.ID); err != nil {
		s.logger.Warn("failed to bump attempt counter", zap.Error(err))
	}

	start := time.Now()
	if err := s.handle(jctx, n); err != nil {
		s.fail(ctx, n, err)
		return err
	}

	metrics.NotificationsProcessedTotal.WithLabelValues("done", "").Inc()
	metrics.PipelineProcessingDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("✅ Notification processed",
		append(jobcontext.Fields(jctx), zap.Duration("took", time.Since(start)))...,
	)
	return nil
}

// fail parks the notification under its failure reason and releases the
// dedup claim. Uses a fresh context because the job context may already be
// past its deadline.
func (s *service) fail(ctx context.Context, n *entities.Notification, cause error) {
	reason := classifyFailure(cause)

	if err := s.notifRepo.MarkFailed(context.WithoutCancel(ctx), n.ID, reason, cause.Error()); err != nil {
		s.logger.Error("failed to park notification", zap.Error(err))
	}
	metrics.NotificationsProcessedTotal.WithLabelValues("failed", string(reason)).Inc()

	if err := s.coordinator.Forget(context.WithoutCancel(ctx), n.DedupKey); err != nil {
		s.logger.Warn("failed to release dedup claim", zap.Error(err))
	}
}

// classifyFailure maps an error onto the stored failure reason
func classifyFailure(err error) entities.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.FailureReasonTimeout
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrorCode_TRANSCRIPT_NOT_READY:
		return entities.FailureReasonTranscriptNotReady
	case apperrors.ErrorCode_SUMMARIZATION_FAILED:
		return entities.FailureReasonSummarizationError
	case apperrors.ErrorCode_PROCESSING_TIMEOUT:
		return entities.FailureReasonTimeout
	default:
		return entities.FailureReasonUpstreamError
	}
}

// handle branches on the notification's resource type
func (s *service) handle(ctx context.Context, n *entities.Notification) error {
	if isCallRecordResource(n.Resource) {
		return s.handleCallRecord(ctx, n)
	}
	return s.handleCalendarEvent(ctx, n)
}

func isCallRecordResource(resource string) bool {
	return strings.Contains(strings.ToLower(resource), "callrecords")
}

// handleCalendarEvent records the meeting shell for a calendar change. Event
// notifications carry no transcript; they exist so the meeting row is present
// with calendar metadata before the call record arrives.
func (s *service) handleCalendarEvent(ctx context.Context, n *entities.Notification) error {
	seed := entities.NewMeeting(n.ResourceID)
	seed.CalendarType = entities.CalendarTypeOutlook

	meeting, err := s.meetingRepo.FindOrCreateByTeamsID(ctx, n.ResourceID, seed)
	if err != nil {
		return err
	}

	return s.notifRepo.MarkDone(ctx, n.ID, meeting.ID, nil)
}

// handleCallRecord drives the full transcript pipeline for a completed call.
// Every step checks for prior results first, so a retried notification
// resumes where the previous attempt stopped instead of redoing work.
func (s *service) handleCallRecord(ctx context.Context, n *entities.Notification) error {
	meeting, organizerID, err := s.resolveMeeting(ctx, n.ResourceID)
	if err != nil {
		return err
	}

	transcript, err := s.transcriptRepo.FindLatestByMeetingID(ctx, meeting.ID)
	if err != nil {
		return err
	}
	if transcript == nil {
		transcript, err = s.fetchTranscript(ctx, meeting, organizerID, n.ResourceID)
		if err != nil {
			return err
		}
	}

	// A prior attempt may have finished the summary but crashed before the
	// done transition committed. The transactional MarkDone makes that
	// impossible going forward, but regenerating for an existing summary is
	// still skipped.
	if existing, err := s.summaryRepo.FindLatestByMeetingID(ctx, meeting.ID); err != nil {
		return err
	} else if existing != nil && existing.TranscriptID == transcript.ID {
		return s.notifRepo.MarkDone(ctx, n.ID, meeting.ID, nil)
	}

	summary, err := s.summarize(ctx, meeting.ID, transcript, DefaultQuestionnaire())
	if err != nil {
		return err
	}

	// The summary insert and the done transition commit atomically.
	return s.notifRepo.MarkDone(ctx, n.ID, meeting.ID, func(txCtx context.Context) error {
		return s.summaryRepo.Create(txCtx, summary)
	})
}

// resolveMeeting maps a call record to its meeting row, creating the row on
// first sight
func (s *service) resolveMeeting(ctx context.Context, callRecordID string) (*entities.Meeting, string, error) {
	if existing, err := s.meetingRepo.FindByCallRecordID(ctx, callRecordID); err != nil {
		return nil, "", err
	} else if existing != nil {
		return existing, existing.OrganizerID, nil
	}

	var cr *graph.CallRecord
	err := s.retryTransient(ctx, s.cfg.FetchMaxAttempts, func() error {
		var err error
		cr, err = s.graphClient.GetCallRecord(ctx, callRecordID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	organizerID := cr.OrganizerUserID()
	if organizerID == "" {
		return nil, "", apperrors.ErrProcessingFailed(fmt.Errorf("call record %s has no resolvable organizer", callRecordID))
	}
	if cr.JoinWebURL == "" {
		return nil, "", apperrors.ErrProcessingFailed(fmt.Errorf("call record %s has no join URL", callRecordID))
	}

	var om *graph.OnlineMeeting
	err = s.retryTransient(ctx, s.cfg.FetchMaxAttempts, func() error {
		var err error
		om, err = s.graphClient.GetOnlineMeetingByJoinURL(ctx, organizerID, cr.JoinWebURL)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	seed := entities.NewMeeting(om.ID)
	seed.CallRecordID = &callRecordID
	seed.OrganizerID = organizerID
	seed.Subject = om.Subject
	if !cr.StartDateTime.IsZero() {
		started := cr.StartDateTime
		seed.StartedAt = &started
	}
	if !cr.EndDateTime.IsZero() {
		ended := cr.EndDateTime
		seed.EndedAt = &ended
	}

	meeting, err := s.meetingRepo.FindOrCreateByTeamsID(ctx, om.ID, seed)
	if err != nil {
		return nil, "", err
	}

	// The row may predate the call record (created by a calendar event).
	if meeting.CallRecordID == nil || meeting.OrganizerID == "" {
		meeting.CallRecordID = &callRecordID
		meeting.OrganizerID = organizerID
		if meeting.Subject == "" {
			meeting.Subject = om.Subject
		}
		if err := s.meetingRepo.Update(ctx, meeting); err != nil {
			return nil, "", err
		}
	}

	return meeting, organizerID, nil
}

// fetchTranscript downloads the newest transcript for the meeting. Graph
// exposes transcripts a few minutes after the call ends; until then the list
// is empty and the attempt fails as TranscriptNotReady for a later retry.
func (s *service) fetchTranscript(ctx context.Context, meeting *entities.Meeting, organizerID, callRecordID string) (*entities.Transcript, error) {
	var meta *graph.TranscriptMeta
	err := s.retryTransient(ctx, s.cfg.FetchMaxAttempts, func() error {
		items, err := s.graphClient.ListTranscripts(ctx, organizerID, meeting.TeamsID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperrors.ErrTranscriptNotReady(callRecordID)
		}
		newest := items[0]
		for _, item := range items[1:] {
			if item.CreatedDateTime.After(newest.CreatedDateTime) {
				newest = item
			}
		}
		meta = &newest
		return nil
	})
	if err != nil {
		return nil, err
	}

	var content string
	err = s.retryTransient(ctx, s.cfg.FetchMaxAttempts, func() error {
		var err error
		content, err = s.graphClient.GetTranscriptContent(ctx, organizerID, meeting.TeamsID, meta.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	transcript := entities.NewTranscript(meeting.ID, entities.TranscriptSourceGraph, content)
	transcript.GraphID = meta.ID

	if s.archive != nil {
		key, err := s.archive.Put(ctx, meeting.ID.String(), transcript.ID.String(), content)
		if err != nil {
			// The parsed text still lands in the database; losing the raw
			// copy is not worth failing the notification.
			s.logger.Warn("⚠️ Failed to archive raw transcript", zap.Error(err))
		} else {
			transcript.ContentKey = key
		}
	}

	if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
		return nil, err
	}

	s.logger.Info("📝 Transcript stored",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("transcript_id", transcript.ID.String()),
		zap.Int("content_bytes", len(content)),
	)
	return transcript, nil
}

// summarize runs the model over the transcript and parses the structured
// result. Transient model failures retry bounded; a malformed response is
// retried too since regeneration usually fixes it.
func (s *service) summarize(ctx context.Context, meetingID uuid.UUID, transcript *entities.Transcript, questions map[string]string) (*entities.Summary, error) {
	var summary *entities.Summary

	attempt := func() error {
		start := time.Now()
		raw, err := s.summarizer.AnalyzeTranscript(ctx, transcript.Content, questions)
		if err != nil {
			return err
		}

		text, questionnaire, err := parseAnalysis(raw)
		if err != nil {
			return err
		}

		summary = entities.NewSummary(meetingID, transcript.ID, text, questionnaire)
		summary.ModelUsed = s.summarizer.Model()
		summary.ProcessingTime = int(time.Since(start).Milliseconds())
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 20 * time.Second

	attempts := uint64(s.cfg.SummaryMaxAttempts)
	if attempts == 0 {
		attempts = 3
	}

	err := backoff.Retry(func() error {
		err := attempt()
		if err == nil {
			return nil
		}
		switch apperrors.CodeOf(err) {
		case apperrors.ErrorCode_UPSTREAM_TRANSIENT, apperrors.ErrorCode_SUMMARIZATION_FAILED:
			return err
		default:
			return backoff.Permanent(err)
		}
	}, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrorCode_SUMMARIZATION_FAILED {
			return nil, err
		}
		return nil, apperrors.ErrSummarizationFailed(err)
	}

	return summary, nil
}

// ProcessManual drives the pipeline from the manual trigger surface. It reuses
// stored transcripts, accepts caller-supplied transcript text, or fetches from
// Graph when asked to, then generates and stores a new summary.
func (s *service) ProcessManual(ctx context.Context, trigger ManualTrigger) (*entities.Summary, error) {
	meeting, err := s.resolveTriggerMeeting(ctx, trigger)
	if err != nil {
		return nil, err
	}

	transcript, err := s.resolveTriggerTranscript(ctx, meeting, trigger)
	if err != nil {
		return nil, err
	}

	questions := trigger.Questionnaire
	if len(questions) == 0 {
		questions = DefaultQuestionnaire()
	}

	summary, err := s.summarize(ctx, meeting.ID, transcript, questions)
	if err != nil {
		return nil, err
	}
	if err := s.summaryRepo.Create(ctx, summary); err != nil {
		return nil, err
	}

	s.logger.Info("📋 Manual summary generated",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("summary_id", summary.ID.String()),
	)
	return summary, nil
}

func (s *service) resolveTriggerMeeting(ctx context.Context, trigger ManualTrigger) (*entities.Meeting, error) {
	if trigger.MeetingID != nil {
		meeting, err := s.meetingRepo.FindByID(ctx, *trigger.MeetingID)
		if err != nil {
			return nil, err
		}
		if meeting == nil {
			return nil, apperrors.ErrMeetingNotFound(trigger.MeetingID.String())
		}
		return meeting, nil
	}

	if trigger.CallRecordID != nil {
		meeting, err := s.meetingRepo.FindByCallRecordID(ctx, *trigger.CallRecordID)
		if err != nil {
			return nil, err
		}
		if meeting != nil {
			return meeting, nil
		}
		if trigger.AutoFetchTranscript {
			meeting, _, err := s.resolveMeeting(ctx, *trigger.CallRecordID)
			return meeting, err
		}
		return nil, apperrors.ErrMeetingNotFound(*trigger.CallRecordID)
	}

	return nil, apperrors.ErrInvalidArgument("either meetingId or callRecordId is required")
}

func (s *service) resolveTriggerTranscript(ctx context.Context, meeting *entities.Meeting, trigger ManualTrigger) (*entities.Transcript, error) {
	if trigger.TranscriptText != "" {
		transcript := entities.NewTranscript(meeting.ID, entities.TranscriptSourceManual, trigger.TranscriptText)
		if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
			return nil, err
		}
		return transcript, nil
	}

	transcript, err := s.transcriptRepo.FindLatestByMeetingID(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	if transcript != nil {
		return transcript, nil
	}

	if trigger.AutoFetchTranscript && meeting.CallRecordID != nil {
		return s.fetchTranscript(ctx, meeting, meeting.OrganizerID, *meeting.CallRecordID)
	}
	return nil, apperrors.ErrTranscriptNotReady(meeting.TeamsID)
}

// retryTransient retries fn with exponential backoff while the failure is
// transient, up to attempts tries total
func (s *service) retryTransient(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second

	return backoff.Retry(func() error {
		err := fn()
		if err != nil && !apperrors.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}
