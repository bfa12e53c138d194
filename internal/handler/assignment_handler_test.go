package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type assignmentServiceMock struct {
	operator string
	req      dto.CreateAssignmentRequest
	filter   models.AssignmentFilter
	err      error
}

func (m *assignmentServiceMock) Assign(ctx context.Context, operatorID string, req dto.CreateAssignmentRequest) (*models.AssignmentDetail, error) {
	m.operator = operatorID
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.AssignmentDetail{Assignment: models.Assignment{ID: "assignment-1", StudentID: req.StudentID, TeacherID: req.TeacherID}}, nil
}

func (m *assignmentServiceMock) ListAssignments(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, *models.Pagination, error) {
	m.filter = filter
	return nil, &models.Pagination{Page: 1, PageSize: 20}, m.err
}

func (m *assignmentServiceMock) GetAssignment(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.AssignmentDetail{Assignment: models.Assignment{ID: id}}, nil
}

type exporterMock struct {
	format string
	err    error
}

func (m *exporterMock) Roster(ctx context.Context, filter models.AssignmentFilter, format string) (*service.ExportFile, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "assignments.csv", ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

func (m *exporterMock) AssignmentCalendar(ctx context.Context, id string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "assignment-" + id + ".ics", ContentType: "text/calendar; charset=utf-8", Data: []byte("BEGIN:VCALENDAR")}, nil
}

func (m *exporterMock) CalendarLink(id string) (string, time.Time, error) {
	return "https://match.example/api/v1/calendar/tok.ics", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil
}

func (m *exporterMock) CalendarByToken(ctx context.Context, token string) (*service.ExportFile, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "calendar link is invalid or expired")
	}
	return m.AssignmentCalendar(ctx, "a-1")
}

func assignmentRouter(svc assignmentService, exporter *exporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAssignmentHandler(svc, exporter)
	cal := NewCalendarHandler(exporter)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "operator-1", Role: models.RoleManager})
		c.Next()
	})
	r.POST("/assignments", h.Create)
	r.GET("/assignments", h.List)
	r.GET("/assignments/export", h.Export)
	r.GET("/assignments/:id", h.Get)
	r.GET("/assignments/:id/calendar", h.Calendar)
	r.POST("/assignments/:id/calendar-link", h.CalendarLink)
	r.GET("/calendar/:token", cal.Download)
	return r
}

func TestAssignmentHandlerCreate(t *testing.T) {
	svc := &assignmentServiceMock{}
	body := `{"student_id":"s-1","teacher_id":"t-1","class_type":"private","mode":"online","time_slots":[{"day":"MONDAY","start_time":"09:00","end_time":"10:00"}]}`
	w := serve(assignmentRouter(svc, &exporterMock{}), http.MethodPost, "/assignments", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "operator-1", svc.operator)
	assert.Equal(t, "s-1", svc.req.StudentID)
	assert.Len(t, svc.req.TimeSlots, 1)
}

func TestAssignmentHandlerCreateConflicts(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrStaleSlotSelection, ""), http.StatusConflict, "STALE_SLOT_SELECTION"},
		{appErrors.Clone(appErrors.ErrCapacityExceeded, ""), http.StatusConflict, "CAPACITY_EXCEEDED"},
		{appErrors.Clone(appErrors.ErrInvalidAssignment, ""), http.StatusBadRequest, "INVALID_ASSIGNMENT_REQUEST"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		svc := &assignmentServiceMock{err: tc.err}
		w := serve(assignmentRouter(svc, &exporterMock{}), http.MethodPost, "/assignments", `{"student_id":"s-1","teacher_id":"t-1"}`)
		assert.Equal(t, tc.status, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, tc.code, env.Error.Code)
	}
}

func TestAssignmentHandlerCreateMalformed(t *testing.T) {
	svc := &assignmentServiceMock{}
	w := serve(assignmentRouter(svc, &exporterMock{}), http.MethodPost, "/assignments", `{"student_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ASSIGNMENT_REQUEST", decode(t, w).Error.Code)
	assert.Empty(t, svc.operator)
}

func TestAssignmentHandlerListFilters(t *testing.T) {
	svc := &assignmentServiceMock{}
	w := serve(assignmentRouter(svc, &exporterMock{}), http.MethodGet, "/assignments?teacher_id=t-1&page_size=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AssignmentFilter{TeacherID: "t-1", PageSize: 5}, svc.filter)
}

func TestAssignmentHandlerExport(t *testing.T) {
	exporter := &exporterMock{}
	w := serve(assignmentRouter(&assignmentServiceMock{}, exporter), http.MethodGet, "/assignments/export?format=xlsx", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", exporter.format)
	assert.Equal(t, `attachment; filename="assignments.csv"`, w.Header().Get("Content-Disposition"))

	exporter.err = appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	w = serve(assignmentRouter(&assignmentServiceMock{}, exporter), http.MethodGet, "/assignments/export?format=doc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentHandlerCalendarAndLink(t *testing.T) {
	r := assignmentRouter(&assignmentServiceMock{}, &exporterMock{})

	w := serve(r, http.MethodGet, "/assignments/a-1/calendar", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "assignment-a-1.ics")

	w = serve(r, http.MethodPost, "/assignments/a-1/calendar-link", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "calendar/tok.ics")

	missing := &assignmentServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "assignment not found")}
	w = serve(assignmentRouter(missing, &exporterMock{}), http.MethodPost, "/assignments/a-9/calendar-link", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarHandlerSignedLink(t *testing.T) {
	r := assignmentRouter(&assignmentServiceMock{}, &exporterMock{})

	w := serve(r, http.MethodGet, "/calendar/tok.ics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BEGIN:VCALENDAR", w.Body.String())

	w = serve(r, http.MethodGet, "/calendar/forged.ics", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewHealthHandler(nil, map[string]Pinger{
		"postgres": PingerFunc(func(ctx context.Context) error { return nil }),
	})
	failing := NewHealthHandler(nil, map[string]Pinger{
		"redis": PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
	})

	r := gin.New()
	r.GET("/ready", healthy.Ready)
	r.GET("/down", failing.Ready)
	r.GET("/metrics", healthy.Prometheus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
