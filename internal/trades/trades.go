// Package trades exposes read access to canonical trades, their per-system
// booking links and their workflow audit trail.
package trades

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
	"github.com/fxops/confirmhub/pkg/response"
)

// Service handles trade status queries.
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: NewDatabase(gormDB)}
}

// GetDB exposes the database wrapper for collaborators (reconcilers) that
// share the same storage operations.
func (s *Service) GetDB() *Database {
	return s.db
}

// TradeStatus is the aggregate view of one trade across all systems.
type TradeStatus struct {
	Trade  types.Trade                `json:"trade"`
	Links  []types.TradeSystemLink    `json:"links"`
	Events []types.TradeWorkflowEvent `json:"events,omitempty"`
}

var (
	ErrLinkNotFound   = errors.New("link not found")
	ErrNotSubmittable = errors.New("link is not in New status")
)

// SubmitLink marks a New link as handed to its downstream system, moving it to
// Pending so reconciliation starts waiting for a response. Export file
// building happens outside the hub; this records that it happened.
func (s *Service) SubmitLink(tradeID string, system types.SystemCode) (*types.TradeSystemLink, error) {
	link, err := s.db.GetLink(tradeID, system)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if link.Status != types.StatusNew {
		return nil, fmt.Errorf("%w: %s/%s is %s", ErrNotSubmittable, tradeID, system, link.Status)
	}
	if err := s.db.UpdateLinkStatus(link, types.StatusPending); err != nil {
		return nil, err
	}
	return link, nil
}

// GetTradeStatus returns one trade with its system links.
func (s *Service) GetTradeStatus(tradeID string) (*TradeStatus, error) {
	trade, err := s.db.GetTrade(tradeID)
	if err != nil || trade == nil {
		return nil, err
	}
	links, err := s.db.GetLinksByTrade(tradeID)
	if err != nil {
		return nil, err
	}
	return &TradeStatus{Trade: *trade, Links: links}, nil
}

// GinHandlers contains HTTP handlers for trade status endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GetTradeHandler handles GET requests for one trade's status.
func (h *GinHandlers) GetTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")
		if tradeID == "" {
			response.BadRequest(c, "Trade ID is required")
			return
		}

		status, err := h.service.GetTradeStatus(tradeID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if status == nil {
			response.NotFound(c, "Trade not found")
			return
		}
		response.Success(c, status)
	}
}

// SubmitLinkHandler handles POST requests marking a link as exported to its
// downstream system.
func (h *GinHandlers) SubmitLinkHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")
		system := types.SystemCode(c.Param("system_code"))
		if tradeID == "" || system == "" {
			response.BadRequest(c, "Trade ID and system code are required")
			return
		}

		link, err := h.service.SubmitLink(tradeID, system)
		if err != nil {
			switch {
			case errors.Is(err, ErrLinkNotFound):
				response.NotFound(c, "Link not found")
			case errors.Is(err, ErrNotSubmittable):
				response.Conflict(c, response.CodeLinkConflict, err.Error())
			default:
				response.InternalError(c, err.Error())
			}
			return
		}
		response.Success(c, link)
	}
}

// GetTradeEventsHandler handles GET requests for one trade's workflow events.
func (h *GinHandlers) GetTradeEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")
		if tradeID == "" {
			response.BadRequest(c, "Trade ID is required")
			return
		}

		events, err := h.service.GetDB().GetEventsByTrade(tradeID)
		response.Handle(c, events, err)
	}
}
