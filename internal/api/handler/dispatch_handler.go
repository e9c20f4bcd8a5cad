package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/99minutos/event-pickup/internal/api/metrics"
	"github.com/99minutos/event-pickup/internal/core/domain"
	"github.com/99minutos/event-pickup/internal/core/ports"
)

// DispatchHandler serves plan computation and the synchronous pickup signals.
type DispatchHandler struct {
	service ports.DispatchService
}

func NewDispatchHandler(service ports.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: service}
}

// Dispatch handles POST /v1/events/:event_id/dispatch.
//
// @Summary      Compute the pickup plan for an event and notify subscribers
// @Tags         dispatch
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path      string           true  "Event ID"
// @Param        body      body      dispatchRequest  true  "Driver position and roster"
// @Success      200       {object}  planResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      409       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /v1/events/{event_id}/dispatch [post]
func (h *DispatchHandler) Dispatch(c echo.Context) error {
	var req dispatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.DispatchTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	start := time.Now()
	plan, err := h.service.Dispatch(c.Request().Context(), toDispatchInput(c.Param("event_id"), req))
	metrics.DispatchTotal.WithLabelValues(dispatchResult(err)).Inc()
	if err != nil {
		return err
	}
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	metrics.PlanStops.Observe(float64(len(plan.Entries)))

	return c.JSON(http.StatusOK, toPlanResponse(plan))
}

// Plan handles GET /v1/events/:event_id/plan.
//
// @Summary      Last computed plan for an event
// @Tags         dispatch
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path      string  true  "Event ID"
// @Success      200       {object}  planResponse
// @Failure      404       {object}  errorResponse
// @Router       /v1/events/{event_id}/plan [get]
func (h *DispatchHandler) Plan(c echo.Context) error {
	plan, err := h.service.CurrentPlan(c.Param("event_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlanResponse(plan))
}

// Pickups handles GET /v1/events/:event_id/pickups.
//
// @Summary      Active pickup requests of an event
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        event_id  path      string  true  "Event ID"
// @Success      200       {object}  pickupListResponse
// @Router       /v1/events/{event_id}/pickups [get]
func (h *DispatchHandler) Pickups(c echo.Context) error {
	eventID := c.Param("event_id")
	pickups, err := h.service.ListPickups(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pickupListResponse{
		EventID: eventID,
		Pickups: lo.Map(pickups, func(p *domain.PickupRequest, _ int) pickupResponse {
			return toPickupResponse(p)
		}),
	})
}

// Complete handles POST /v1/events/:event_id/pickups/:subscriber_id/complete.
//
// @Summary      Mark a pickup as completed
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        event_id       path      string  true  "Event ID"
// @Param        subscriber_id  path      string  true  "Subscriber ID"
// @Success      200            {object}  pickupResponse
// @Failure      404            {object}  errorResponse
// @Failure      409            {object}  errorResponse
// @Router       /v1/events/{event_id}/pickups/{subscriber_id}/complete [post]
func (h *DispatchHandler) Complete(c echo.Context) error {
	req, err := h.service.Complete(c.Request().Context(), c.Param("event_id"), c.Param("subscriber_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPickupResponse(req))
}

// Cancel handles POST /v1/events/:event_id/pickups/:subscriber_id/cancel.
// Subscribers may only cancel their own pickup.
//
// @Summary      Cancel a pickup
// @Tags         pickups
// @Produce      json
// @Security     BearerAuth
// @Param        event_id       path      string  true  "Event ID"
// @Param        subscriber_id  path      string  true  "Subscriber ID"
// @Success      200            {object}  pickupResponse
// @Failure      403            {object}  errorResponse
// @Failure      404            {object}  errorResponse
// @Router       /v1/events/{event_id}/pickups/{subscriber_id}/cancel [post]
func (h *DispatchHandler) Cancel(c echo.Context) error {
	role, ownID, err := ctxClaims(c)
	if err != nil {
		return err
	}
	subscriberID := c.Param("subscriber_id")
	if role == domain.RoleSubscriber && ownID != subscriberID {
		return echo.NewHTTPError(http.StatusForbidden, "cannot cancel another subscriber's pickup")
	}

	req, err := h.service.Cancel(c.Request().Context(), c.Param("event_id"), subscriberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPickupResponse(req))
}

func dispatchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
