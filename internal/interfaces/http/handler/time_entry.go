package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
)

// TimeEntryHandler handles time entry endpoints
type TimeEntryHandler struct {
	BaseHandler
	timeline TimelineService
}

// NewTimeEntryHandler creates a new TimeEntryHandler
func NewTimeEntryHandler(timeline TimelineService) *TimeEntryHandler {
	return &TimeEntryHandler{timeline: timeline}
}

type timelineQuery struct {
	dto.PageRequest
	Billed *bool `form:"billed"`
}

// Record records a worked interval on a task
func (h *TimeEntryHandler) Record(c *gin.Context) {
	var req billingapp.RecordTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	entry, err := h.timeline.Record(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// GetByID returns one time entry
func (h *TimeEntryHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.timeline.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Update replaces a time entry
func (h *TimeEntryHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req billingapp.RecordTimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	entry, err := h.timeline.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Delete removes a time entry and returns it with the billed flag
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.timeline.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// List returns the timeline, newest first, optionally for one customer
func (h *TimeEntryHandler) List(c *gin.Context) {
	var q timelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	customerID, ok := h.parseOptionalID(c, "customer_id")
	if !ok {
		return
	}

	entries, err := h.timeline.List(c.Request.Context(), billingapp.TimelineFilter{
		CustomerID: customerID,
		Billed:     q.Billed,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
