package events

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"warden/internal/application/modmail/usecases"
	"warden/internal/shared/logger"
	"warden/internal/shared/utils"
)

// Dispatcher routes normalized inbound messages.
type Dispatcher interface {
	HandleDirectMessage(ctx context.Context, msg usecases.InboundMessage)
	HandleThreadMessage(ctx context.Context, msg usecases.InboundMessage)
}

// Handler accepts gateway message events over HTTP and feeds them to the
// dispatcher. A gateway sidecar (or a replay tool) posts events here; the
// relay itself never talks to the event stream directly.
type Handler struct {
	dispatcher Dispatcher
	logger     logger.Interface
}

func NewHandler(dispatcher Dispatcher, log logger.Interface) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     log,
	}
}

// DirectMessage handles POST /events/direct-message
func (h *Handler) DirectMessage(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid direct message event", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.dispatcher.HandleDirectMessage(c.Request.Context(), req.ToMessage())

	c.Status(http.StatusAccepted)
}

// ThreadMessage handles POST /events/thread-message
func (h *Handler) ThreadMessage(c *gin.Context) {
	var req InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid thread message event", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.dispatcher.HandleThreadMessage(c.Request.Context(), req.ToMessage())

	c.Status(http.StatusAccepted)
}
