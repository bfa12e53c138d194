package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/linksign"
)

type rosterReaderStub struct {
	items []models.AssignmentDetail
	pages []int
}

func (s *rosterReaderStub) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	for _, item := range s.items {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *rosterReaderStub) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentDetail, int, error) {
	s.pages = append(s.pages, filter.Page)
	start := (filter.Page - 1) * filter.PageSize
	if start >= len(s.items) {
		return nil, len(s.items), nil
	}
	end := start + filter.PageSize
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[start:end], len(s.items), nil
}

func sampleAssignment(id string) models.AssignmentDetail {
	notes := "bring workbook"
	return models.AssignmentDetail{
		Assignment: models.Assignment{
			ID:             id,
			TeacherID:      "teacher-1",
			StudentID:      "student-" + id,
			StudentName:    "Ana",
			ClassType:      models.ClassTypePrivate,
			Mode:           models.ModeOnline,
			ScheduledSlots: models.TimeSlots{slot("MONDAY", "09:00", "10:00"), slot("THURSDAY", "18:00", "19:30")},
			Notes:          &notes,
			CreatedAt:      time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		},
		TeacherName: "Mr. Kim",
	}
}

func newExportFixture(items ...models.AssignmentDetail) (*ExportService, *rosterReaderStub) {
	reader := &rosterReaderStub{items: items}
	signer := linksign.NewSigner("secret", time.Hour)
	svc := NewExportService(reader, nil, signer, ExportConfig{APIPrefix: "/api/v1", PublicBaseURL: "https://match.example", AppName: "Tutor Match"}, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC) }
	return svc, reader
}

func TestRosterCSV(t *testing.T) {
	svc, _ := newExportFixture(sampleAssignment("a-1"))

	file, err := svc.Roster(context.Background(), models.AssignmentFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "assignments-20260107-120000.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Assignment,Student,"))
	assert.Contains(t, lines[1], "MONDAY 09:00-10:00; THURSDAY 18:00-19:30")
	assert.Contains(t, lines[1], "Mr. Kim")
}

func TestRosterPagesThroughAssignments(t *testing.T) {
	items := make([]models.AssignmentDetail, 0, 150)
	for i := 0; i < 150; i++ {
		items = append(items, sampleAssignment("a"))
	}
	svc, reader := newExportFixture(items...)

	file, err := svc.Roster(context.Background(), models.AssignmentFilter{TeacherID: "teacher-1"}, "XLSX")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, reader.pages)
	assert.True(t, strings.HasSuffix(file.Filename, ".xlsx"))
	assert.Equal(t, []byte("PK"), file.Data[:2])
}

func TestRosterPDFAndUnsupportedFormat(t *testing.T) {
	svc, _ := newExportFixture(sampleAssignment("a-1"))

	file, err := svc.Roster(context.Background(), models.AssignmentFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))

	_, err = svc.Roster(context.Background(), models.AssignmentFilter{}, "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAssignmentCalendar(t *testing.T) {
	svc, _ := newExportFixture(sampleAssignment("a-1"))

	file, err := svc.AssignmentCalendar(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "assignment-a-1.ics", file.Filename)
	body := string(file.Data)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Equal(t, 2, strings.Count(body, "RRULE:FREQ=WEEKLY"))
	assert.NotContains(t, body, "BYDAY")
	assert.Contains(t, body, "a-1-0@tutor-match")

	_, err = svc.AssignmentCalendar(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCalendarLinkRoundTrip(t *testing.T) {
	svc, _ := newExportFixture(sampleAssignment("a-1"))

	link, expiresAt, err := svc.CalendarLink("a-1")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))
	require.True(t, strings.HasPrefix(link, "https://match.example/api/v1/calendar/"))
	require.True(t, strings.HasSuffix(link, ".ics"))

	token := strings.TrimSuffix(strings.TrimPrefix(link, "https://match.example/api/v1/calendar/"), ".ics")
	file, err := svc.CalendarByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Contains(t, string(file.Data), "BEGIN:VEVENT")

	_, err = svc.CalendarByToken(context.Background(), token+"x")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestWeekdayMapping(t *testing.T) {
	assert.Equal(t, time.Monday, weekday(models.Monday))
	assert.Equal(t, time.Saturday, weekday(models.Saturday))
	assert.Equal(t, time.Sunday, weekday(models.Sunday))
}
