package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type assignmentService interface {
	Assign(ctx context.Context, operatorID string, req dto.CreateAssignmentRequest) (*models.AssignmentDetail, error)
	ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error)
	GetAssignment(ctx context.Context, id string) (*models.AssignmentDetail, error)
}

type assignmentExporter interface {
	Roster(ctx context.Context, filter models.AssignmentFilter, format string) (*service.ExportFile, error)
	AssignmentCalendar(ctx context.Context, id string) (*service.ExportFile, error)
	CalendarLink(assignmentID string) (string, time.Time, error)
}

// AssignmentHandler commits and serves student-teacher assignments.
type AssignmentHandler struct {
	service  assignmentService
	exporter assignmentExporter
}

// NewAssignmentHandler builds a new handler.
func NewAssignmentHandler(service assignmentService, exporter assignmentExporter) *AssignmentHandler {
	return &AssignmentHandler{service: service, exporter: exporter}
}

// Create godoc
// @Summary Commit an operator-confirmed assignment
// @Description Re-validates slots, preferences and capacity against current data before committing.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidAssignment.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	detail, err := h.service.Assign(c.Request.Context(), operatorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List committed assignments
// @Tags Assignments
// @Produce json
// @Param teacher_id query string false "Teacher filter"
// @Param student_id query string false "Student filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	items, pagination, err := h.service.ListAssignments(c.Request.Context(), assignmentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	detail, err := h.service.GetAssignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Calendar godoc
// @Summary Download the weekly lessons of an assignment as iCalendar
// @Tags Assignments
// @Produce text/calendar
// @Param id path string true "Assignment ID"
// @Success 200 {file} file
// @Router /assignments/{id}/calendar [get]
func (h *AssignmentHandler) Calendar(c *gin.Context) {
	file, err := h.exporter.AssignmentCalendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// CalendarLink godoc
// @Summary Issue a signed public calendar link for an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/calendar-link [post]
func (h *AssignmentHandler) CalendarLink(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.service.GetAssignment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	url, expiresAt, err := h.exporter.CalendarLink(id)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign calendar link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"url": url, "expires_at": expiresAt.UTC()}, nil)
}

// Export godoc
// @Summary Export the assignment roster
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx" default(csv)
// @Param teacher_id query string false "Teacher filter"
// @Param student_id query string false "Student filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /assignments/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	file, err := h.exporter.Roster(c.Request.Context(), assignmentFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

func assignmentFilter(c *gin.Context) models.AssignmentFilter {
	page, size := pageParams(c)
	return models.AssignmentFilter{
		TeacherID: c.Query("teacher_id"),
		StudentID: c.Query("student_id"),
		Page:      page,
		PageSize:  size,
	}
}
