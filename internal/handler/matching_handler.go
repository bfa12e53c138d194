package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type matchingService interface {
	ListUnassignedStudents(ctx context.Context, filter models.DemandFilter) ([]models.StudentDemand, *models.Pagination, error)
	ListTeachersWithCapacity(ctx context.Context, filter models.OfferFilter) ([]models.TeacherOffer, *models.Pagination, error)
	CreateStudentDemand(ctx context.Context, req dto.CreateStudentDemandRequest) (*models.StudentDemand, error)
	CreateTeacherOffer(ctx context.Context, req dto.CreateTeacherOfferRequest) (*models.TeacherOffer, error)
	Candidates(ctx context.Context, studentID string) (*dto.CandidateListResponse, bool, error)
	ReplaceStudentAvailability(ctx context.Context, studentID string, req dto.ReplaceAvailabilityRequest) (*models.StudentDemand, error)
	ReplaceTeacherAvailability(ctx context.Context, teacherID string, req dto.ReplaceAvailabilityRequest) (*models.TeacherOffer, error)
}

// MatchingHandler exposes the student and teacher pools and candidate ranking.
type MatchingHandler struct {
	service matchingService
}

// NewMatchingHandler builds a new handler.
func NewMatchingHandler(service matchingService) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// ListStudents godoc
// @Summary List unassigned students
// @Tags Matching
// @Produce json
// @Param language query string false "Language filter"
// @Param level query string false "Level filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matching/students [get]
func (h *MatchingHandler) ListStudents(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.DemandFilter{
		Language: c.Query("language"),
		Level:    c.Query("level"),
		Page:     page,
		PageSize: size,
	}
	items, pagination, err := h.service.ListUnassignedStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListTeachers godoc
// @Summary List teachers with remaining capacity
// @Tags Matching
// @Produce json
// @Param language query string false "Language filter"
// @Param level query string false "Level filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /matching/teachers [get]
func (h *MatchingHandler) ListTeachers(c *gin.Context) {
	page, size := pageParams(c)
	filter := models.OfferFilter{
		Language: c.Query("language"),
		Level:    c.Query("level"),
		Page:     page,
		PageSize: size,
	}
	items, pagination, err := h.service.ListTeachersWithCapacity(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// CreateStudent godoc
// @Summary Register a student waiting for a teacher
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentDemandRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /matching/students [post]
func (h *MatchingHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	demand, err := h.service.CreateStudentDemand(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, demand)
}

// CreateTeacher godoc
// @Summary Register a teacher offer
// @Tags Matching
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeacherOfferRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /matching/teachers [post]
func (h *MatchingHandler) CreateTeacher(c *gin.Context) {
	var req dto.CreateTeacherOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	offer, err := h.service.CreateTeacherOffer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, offer)
}

// Candidates godoc
// @Summary Rank eligible teachers for a student
// @Description Teachers failing a hard constraint are listed under excluded with the reasons.
// @Tags Matching
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /matching/students/{id}/candidates [get]
func (h *MatchingHandler) Candidates(c *gin.Context) {
	result, hit, err := h.service.Candidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ReplaceStudentAvailability godoc
// @Summary Replace a student's weekly availability
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Time slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /matching/students/{id}/availability [put]
func (h *MatchingHandler) ReplaceStudentAvailability(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidSlot.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	demand, err := h.service.ReplaceStudentAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demand, nil)
}

// ReplaceTeacherAvailability godoc
// @Summary Replace a teacher's weekly availability
// @Tags Matching
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Time slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /matching/teachers/{id}/availability [put]
func (h *MatchingHandler) ReplaceTeacherAvailability(c *gin.Context) {
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidSlot.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	offer, err := h.service.ReplaceTeacherAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offer, nil)
}
