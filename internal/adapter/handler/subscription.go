package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/EliranNovik/Leadify-sub026/errors"
	"github.com/EliranNovik/Leadify-sub026/internal/adapter/dto"
	"github.com/EliranNovik/Leadify-sub026/internal/domain/entities"
	"github.com/EliranNovik/Leadify-sub026/internal/usecase/subscription"
)

// Subscription exposes the subscription control surface for operators and
// the CRM backend
type Subscription struct {
	service subscription.Service
	logger  *zap.Logger
}

// NewSubscription creates the subscription control handler
func NewSubscription(service subscription.Service, logger *zap.Logger) *Subscription {
	return &Subscription{service: service, logger: logger}
}

// Command multiplexes subscription lifecycle actions.
// @Summary Manage Graph subscriptions
// @Description Lists, creates, inspects, renews or deletes change-notification subscriptions
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param request body dto.SubscriptionCommandRequest true "Command"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security ServiceToken
// @Router /v1/subscriptions [post]
func (h *Subscription) Command(c echo.Context) error {
	var req dto.SubscriptionCommandRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()

	switch req.Action {
	case "list":
		subs, err := h.service.List(ctx)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, dto.NewSubscriptionListResponse(subs))

	case "create":
		if req.ResourceType == "" {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("resourceType is required for create"))
		}
		sub, err := h.service.Create(ctx, entities.ResourceType(req.ResourceType), req.Resource)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, dto.NewSubscriptionResponse(sub))

	case "status":
		if req.SubscriptionID == "" {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("subscriptionId is required for status"))
		}
		sub, err := h.service.Status(ctx, req.SubscriptionID)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, dto.NewSubscriptionResponse(sub))

	case "renew":
		if req.SubscriptionID == "" {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("subscriptionId is required for renew"))
		}
		sub, err := h.service.Renew(ctx, req.SubscriptionID)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, dto.NewSubscriptionResponse(sub))

	case "delete":
		if req.SubscriptionID == "" {
			return HandleError(h.logger, c, apperrors.ErrInvalidArgument("subscriptionId is required for delete"))
		}
		if err := h.service.Teardown(ctx, req.SubscriptionID); err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccess(h.logger, c, map[string]string{"subscriptionId": req.SubscriptionID, "status": "deleted"})

	default:
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("unsupported action: "+req.Action))
	}
}
