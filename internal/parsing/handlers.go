package parsing

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fxops/confirmhub/internal/types"
	"github.com/fxops/confirmhub/pkg/response"
)

// GinHandlers contains HTTP handlers for message ingest and processing.
type GinHandlers struct {
	orchestrator *Orchestrator
}

func NewGinHandlers(orchestrator *Orchestrator) *GinHandlers {
	return &GinHandlers{orchestrator: orchestrator}
}

// IngestRequest is the body for submitting a raw inbound message.
type IngestRequest struct {
	SourceType      types.SourceType `json:"source_type" binding:"required"`
	SourceVenueCode string           `json:"source_venue_code" binding:"required"`
	FixMsgType      string           `json:"fix_msg_type"`
	RawPayload      string           `json:"raw_payload" binding:"required"`
	SourceTimestamp *time.Time       `json:"source_timestamp"`
}

// IngestMessageHandler handles POST requests to store a raw inbound message.
// Duplicate payloads (by hash) are rejected with a conflict.
func (h *GinHandlers) IngestMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		msg := types.MessageIn{
			SourceType:      req.SourceType,
			SourceVenueCode: req.SourceVenueCode,
			FixMsgType:      req.FixMsgType,
			RawPayload:      req.RawPayload,
			SourceTimestamp: req.SourceTimestamp,
		}
		if err := h.orchestrator.IngestMessage(&msg); err != nil {
			if errors.Is(err, ErrDuplicateMessage) {
				response.Conflict(c, response.CodeDuplicateMessage, "message with identical payload already ingested")
				return
			}
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, msg)
	}
}

// ProcessMessageHandler handles POST requests to parse one message.
// Query parameter reprocess=true forces a re-parse of an already-parsed
// message.
func (h *GinHandlers) ProcessMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		messageID := c.Param("message_id")
		if messageID == "" {
			response.BadRequest(c, "Message ID is required")
			return
		}
		reprocess := c.Query("reprocess") == "true"

		outcome, err := h.orchestrator.ProcessMessage(messageID, reprocess)
		if errors.Is(err, ErrMessageNotFound) {
			response.NotFound(c, "Message not found")
			return
		}
		response.Handle(c, outcome, err)
	}
}

// ProcessPendingHandler handles POST requests to batch-process all unparsed
// messages.
func (h *GinHandlers) ProcessPendingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		outcomes, err := h.orchestrator.ProcessPendingMessages()
		response.Handle(c, outcomes, err)
	}
}
