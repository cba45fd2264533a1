package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/dto"
	"github.com/seatwise/exam-seating-api/internal/models"
	appErrors "github.com/seatwise/exam-seating-api/pkg/errors"
	"github.com/seatwise/exam-seating-api/pkg/response"
)

type rosterService interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*dto.RosterUploadResponse, error)
	Get(ctx context.Context, id string) (*dto.RosterDetailResponse, error)
	List(ctx context.Context, filter models.RosterFilter) ([]models.Roster, *models.Pagination, error)
	Students(ctx context.Context, rosterID string) ([]models.Student, error)
	Delete(ctx context.Context, id string) error
}

// RosterHandler manages roster HTTP endpoints.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// Upload godoc
// @Summary Upload a student roster file
// @Tags Rosters
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster file (.csv or .xlsx)"
// @Success 201 {object} response.Envelope
// @Router /rosters [post]
func (h *RosterHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	resp, err := h.service.Upload(c.Request.Context(), fileHeader.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Get godoc
// @Summary Roster details
// @Tags Rosters
// @Produce json
// @Param id path string true "Roster ID"
// @Success 200 {object} response.Envelope
// @Router /rosters/{id} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	roster, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// List godoc
// @Summary Roster history
// @Tags Rosters
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param search query string false "Filename search"
// @Success 200 {object} response.Envelope
// @Router /rosters [get]
func (h *RosterHandler) List(c *gin.Context) {
	filter := models.RosterFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "pageSize"),
	}
	rosters, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rosters, pagination)
}

// Students godoc
// @Summary Roster students
// @Tags Rosters
// @Produce json
// @Param id path string true "Roster ID"
// @Success 200 {object} response.Envelope
// @Router /rosters/{id}/students [get]
func (h *RosterHandler) Students(c *gin.Context) {
	students, err := h.service.Students(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Delete godoc
// @Summary Delete a roster
// @Tags Rosters
// @Param id path string true "Roster ID"
// @Success 204
// @Router /rosters/{id} [delete]
func (h *RosterHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
