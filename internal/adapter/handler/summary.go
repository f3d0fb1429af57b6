package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/adapter/dto"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/pipeline"
)

// Summary exposes the manual summarization trigger: regeneration, missed
// notifications and caller-supplied transcripts all come through here
type Summary struct {
	pipeline pipeline.Service
	logger   *zap.Logger
}

// NewSummary creates the manual trigger handler
func NewSummary(p pipeline.Service, logger *zap.Logger) *Summary {
	return &Summary{pipeline: p, logger: logger}
}

// Trigger generates a summary outside the webhook flow.
// @Summary Trigger meeting summarization
// @Description Generates a summary for a meeting identified by meetingId or callRecordId, optionally fetching the transcript from Graph or using supplied text
// @Tags summaries
// @Accept json
// @Produce json
// @Param request body dto.SummaryTriggerRequest true "Trigger"
// @Success 200 {object} dto.SummaryResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security ServiceToken
// @Router /v1/meetings/summary [post]
func (h *Summary) Trigger(c echo.Context) error {
	var req dto.SummaryTriggerRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := req.Validate(); err != nil {
		return HandleError(h.logger, c, err)
	}

	summary, err := h.pipeline.ProcessManual(c.Request().Context(), pipeline.ManualTrigger{
		MeetingID:           req.MeetingID,
		CallRecordID:        req.CallRecordID,
		TranscriptText:      req.TranscriptText,
		AutoFetchTranscript: req.AutoFetchTranscript,
		Questionnaire:       req.Questionnaire,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, dto.NewSummaryResponse(summary))
}
