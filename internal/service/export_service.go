package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/export"
	"github.com/noah-isme/tutor-match-api/pkg/linksign"
)

// Roster export formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

const (
	rosterPageSize = 100
	rosterMaxRows  = 10000
)

var rosterHeaders = []string{"Assignment", "Student", "Student Email", "Teacher", "Teacher Email", "Class Type", "Mode", "Schedule", "Notes", "Created By", "Created At"}

type assignmentReader interface {
	FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type calendarRenderer interface {
	Render(events []export.WeeklyEvent, from time.Time) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix     string
	PublicBaseURL string
	AppName       string
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders assignment rosters and lesson calendars.
type ExportService struct {
	assignments assignmentReader
	renderers   map[string]datasetRenderer
	calendar    calendarRenderer
	signer      *linksign.Signer
	cfg         ExportConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the default exporters.
func NewExportService(assignments assignmentReader, calendar calendarRenderer, signer *linksign.Signer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if calendar == nil {
		calendar = export.NewICSExporter("-//"+cfg.AppName+"//Assignments//EN", time.UTC)
	}
	return &ExportService{
		assignments: assignments,
		renderers: map[string]datasetRenderer{
			FormatCSV:  export.NewCSVExporter(),
			FormatPDF:  export.NewPDFExporter(),
			FormatXLSX: export.NewXLSXExporter(),
		},
		calendar: calendar,
		signer:   signer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

var contentTypes = map[string]string{
	FormatCSV:  "text/csv",
	FormatPDF:  "application/pdf",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Roster renders every assignment matching filter in the requested format.
func (s *ExportService) Roster(ctx context.Context, filter models.AssignmentFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	rows := make([]map[string]string, 0)
	filter.PageSize = rosterPageSize
	for page := 1; len(rows) < rosterMaxRows; page++ {
		filter.Page = page
		items, total, err := s.assignments.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		for _, item := range items {
			rows = append(rows, rosterRow(item))
		}
		if len(items) < rosterPageSize || page*rosterPageSize >= total {
			break
		}
	}

	now := s.now().UTC()
	data, err := renderer.Render(export.Dataset{
		Title:   "Assignment roster " + now.Format("2006-01-02"),
		Headers: rosterHeaders,
		Rows:    rows,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.logger.Info("roster exported", zap.String("format", format), zap.Int("rows", len(rows)))

	return &ExportFile{
		Filename:    export.Filename("assignments-"+now.Format("20060102-150405"), format),
		ContentType: contentTypes[format],
		Data:        data,
	}, nil
}

func rosterRow(a models.AssignmentDetail) map[string]string {
	slots := make([]string, 0, len(a.ScheduledSlots))
	for _, slot := range a.ScheduledSlots {
		slots = append(slots, slot.String())
	}
	return map[string]string{
		"Assignment":    a.ID,
		"Student":       a.StudentName,
		"Student Email": deref(a.StudentEmail),
		"Teacher":       a.TeacherName,
		"Teacher Email": deref(a.TeacherEmail),
		"Class Type":    string(a.ClassType),
		"Mode":          string(a.Mode),
		"Schedule":      strings.Join(slots, "; "),
		"Notes":         deref(a.Notes),
		"Created By":    deref(a.CreatedBy),
		"Created At":    a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AssignmentCalendar loads an assignment and renders its weekly lessons.
func (s *ExportService) AssignmentCalendar(ctx context.Context, id string) (*ExportFile, error) {
	detail, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return s.Calendar(*detail)
}

// CalendarByToken resolves a signed calendar link.
func (s *ExportService) CalendarByToken(ctx context.Context, token string) (*ExportFile, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar links are disabled")
	}
	id, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "calendar link is invalid or expired")
	}
	return s.AssignmentCalendar(ctx, id)
}

// Calendar renders one weekly recurring event per scheduled slot.
func (s *ExportService) Calendar(detail models.AssignmentDetail) (*ExportFile, error) {
	events := make([]export.WeeklyEvent, 0, len(detail.ScheduledSlots))
	summary := fmt.Sprintf("%s lesson: %s with %s", capitalize(string(detail.ClassType)), detail.StudentName, detail.TeacherName)
	for i, slot := range detail.ScheduledSlots {
		events = append(events, export.WeeklyEvent{
			UID:         fmt.Sprintf("%s-%d@%s", detail.ID, i, strings.ToLower(strings.ReplaceAll(s.cfg.AppName, " ", "-"))),
			Summary:     summary,
			Description: fmt.Sprintf("Mode: %s\nSlot: %s", detail.Mode, slot),
			Weekday:     weekday(slot.Day),
			StartMinute: int(slot.Start),
			EndMinute:   int(slot.End),
		})
	}
	data, err := s.calendar.Render(events, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render calendar")
	}
	return &ExportFile{
		Filename:    export.Filename("assignment-"+detail.ID, "ics"),
		ContentType: "text/calendar; charset=utf-8",
		Data:        data,
	}, nil
}

// CalendarLink returns a public URL serving the assignment calendar until it expires.
func (s *ExportService) CalendarLink(assignmentID string) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, fmt.Errorf("calendar links disabled")
	}
	token, expiresAt, err := s.signer.Sign(assignmentID)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s%s/calendar/%s.ics", s.cfg.PublicBaseURL, s.cfg.APIPrefix, token), expiresAt, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func weekday(d models.DayOfWeek) time.Weekday {
	// Index is 1 for Monday through 7 for Sunday.
	return time.Weekday(d.Index() % 7)
}
