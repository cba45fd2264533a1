package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
	"github.com/seatwise/exam-seating-api/pkg/response"
)

type allocationService interface {
	Run(ctx context.Context, req dto.AllocateRequest) (*dto.AllocationRunResponse, error)
	Get(ctx context.Context, id string) (*dto.AllocationRunResponse, error)
	List(ctx context.Context, filter models.RunFilter) ([]dto.AllocationRunSummary, *models.Pagination, error)
	Stats(ctx context.Context, runID string) (*dto.RunStatsResponse, error)
}

// AllocationHandler manages seat allocation endpoints.
type AllocationHandler struct {
	service allocationService
}

// NewAllocationHandler constructs the handler.
func NewAllocationHandler(service allocationService) *AllocationHandler {
	return &AllocationHandler{service: service}
}

// Allocate godoc
// @Summary Run seat allocation for a roster
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.AllocateRequest true "Allocation parameters"
// @Success 201 {object} response.Envelope
// @Router /allocations [post]
func (h *AllocationHandler) Allocate(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid allocation payload"))
		return
	}
	run, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, run)
}

// Get godoc
// @Summary Allocation run with assignment table
// @Tags Allocations
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id} [get]
func (h *AllocationHandler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// List godoc
// @Summary Allocation run history
// @Tags Allocations
// @Produce json
// @Param rosterId query string false "Roster filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /allocations [get]
func (h *AllocationHandler) List(c *gin.Context) {
	filter := models.RunFilter{
		RosterID: c.Query("rosterId"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	runs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

// Stats godoc
// @Summary Per-slot statistics for a run
// @Tags Allocations
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/stats [get]
func (h *AllocationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
