package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/adapter/dto"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/pipeline"
	"github.com/EliranNovik/Leadify-sub026/pkg/metrics"
)

// Webhook receives Graph change notifications. It answers the validation
// handshake, checks clientState per item and hands survivors to the
// dispatcher. It must answer inside Graph's delivery timeout, so nothing here
// blocks on the pipeline.
type Webhook struct {
	dispatcher  *pipeline.Dispatcher
	clientState string
	logger      *zap.Logger
}

// NewWebhook creates the webhook ingress handler
func NewWebhook(dispatcher *pipeline.Dispatcher, clientState string, logger *zap.Logger) *Webhook {
	return &Webhook{
		dispatcher:  dispatcher,
		clientState: clientState,
		logger:      logger,
	}
}

// Handle processes a Graph delivery.
// @Summary Graph change-notification webhook
// @Description Answers the subscription validation handshake and accepts change notification batches
// @Tags webhooks
// @Accept json
// @Produce plain
// @Param validationToken query string false "Handshake token echoed back verbatim"
// @Success 200 {object} map[string]interface{} "Batch accepted, or the validation token as plain text"
// @Failure 500 {object} map[string]interface{}
// @Router /v1/webhooks/graph [post]
func (h *Webhook) Handle(c echo.Context) error {
	// Validation handshake. The token must be echoed back verbatim as plain
	// text, including an empty token when the parameter is present.
	query := c.Request().URL.Query()
	if query.Has("validationToken") {
		token := query.Get("validationToken")
		h.logger.Info("🤝 Answering subscription validation handshake",
			zap.Int("token_length", len(token)),
		)
		return c.String(http.StatusOK, token)
	}

	var batch dto.ChangeNotificationBatch
	if err := c.Bind(&batch); err != nil {
		// A non-2xx answer makes Graph retry the delivery.
		h.logger.Error("❌ Unparseable notification payload", zap.Error(err))
		return HandleError(h.logger, c, apperrors.ErrInternal(err))
	}
	if batch.ValidationToken != nil {
		h.logger.Info("🤝 Answering subscription validation handshake",
			zap.Int("token_length", len(*batch.ValidationToken)),
		)
		return c.String(http.StatusOK, *batch.ValidationToken)
	}

	ctx := c.Request().Context()
	var acceptErr error
	for _, item := range batch.Value {
		if item.ClientState != h.clientState {
			// Forged or stale delivery. Dropped here; it never reaches the
			// queue.
			metrics.NotificationsDroppedTotal.WithLabelValues("client_state").Inc()
			h.logger.Warn("🚫 Dropping notification with mismatched clientState",
				zap.String("subscription_id", item.SubscriptionID),
				zap.String("resource", item.Resource),
			)
			continue
		}

		err := h.dispatcher.Accept(ctx, pipeline.Incoming{
			SubscriptionID: item.SubscriptionID,
			ChangeType:     item.ChangeType,
			Resource:       item.Resource,
			ResourceID:     item.ResourceID(),
			ResourceData:   datatypes.JSON(item.ResourceData),
		})
		if err != nil {
			h.logger.Error("❌ Failed to accept notification",
				zap.String("subscription_id", item.SubscriptionID),
				zap.Error(err),
			)
			acceptErr = err
		}
	}

	if acceptErr != nil {
		// Let Graph redeliver the batch; the dedup window absorbs the items
		// that were already accepted.
		return HandleError(h.logger, c, apperrors.ErrInternal(acceptErr))
	}

	// Graph treats the batch as delivered once it sees a 2xx, even when
	// individual items were dropped above.
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
