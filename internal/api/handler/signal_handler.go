package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/event-pickup/internal/core/ports"
)

// SignalQueue is the interface the handler uses to enqueue signals.
type SignalQueue interface {
	EnqueueBatch(signals []ports.SignalInput)
}

// SignalHandler handles asynchronous complete/cancel ingestion.
type SignalHandler struct {
	queue SignalQueue
}

func NewSignalHandler(queue SignalQueue) *SignalHandler {
	return &SignalHandler{queue: queue}
}

// Receive handles POST /v1/signals. It validates the whole batch, enqueues it
// and returns 202.
//
// @Summary      Ingest a batch of pickup signals
// @Tags         signals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []signalRequest  true  "Array of signals"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/signals [post]
func (h *SignalHandler) Receive(c echo.Context) error {
	var reqs []signalRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}

	inputs := make([]ports.SignalInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("signal[%d]: %s", i, err.Error()))
		}
		inputs = append(inputs, toSignalInput(req))
	}

	h.queue.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "signals accepted",
		Count:   len(inputs),
	})
}
