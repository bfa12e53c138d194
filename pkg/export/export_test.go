package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Assignments",
		Headers: []string{"Student", "Teacher", "Slots"},
		Rows: []map[string]string{
			{"Student": "Ana", "Teacher": "Mr. Kim", "Slots": "MONDAY 09:00-10:00"},
			{"Student": "Budi", "Teacher": "Ms. Lee"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Teacher,Slots", lines[0])
	assert.Equal(t, "Budi,Ms. Lee,", lines[2])

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Assignments", rows[0][0])
	assert.Equal(t, []string{"Student", "Teacher", "Slots"}, rows[1])
	assert.Equal(t, "Ana", rows[2][0])
}

func TestICSExporterRender(t *testing.T) {
	exporter := NewICSExporter("-//tutor-match//EN", time.UTC)
	// Wednesday 2026-01-07 12:00 UTC.
	from := time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC)
	out, err := exporter.Render([]WeeklyEvent{
		{UID: "a-1", Summary: "Lesson", Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 10*60 + 30},
		{UID: "a-2", Summary: "Lesson", Weekday: time.Wednesday, StartMinute: 9 * 60, EndMinute: 10 * 60},
	}, from)
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, "FREQ=WEEKLY", events[0].GetProperty(ics.ComponentPropertyRrule).Value)

	// 09:00 on the same Wednesday has already passed, so the series starts a week later.
	start, err = events[1].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 14, 9, 0, 0, 0, time.UTC), start.UTC())
}

func TestICSExporterKeepsLocalWeekdayAcrossUTCDayBoundary(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+30*60)
	exporter := NewICSExporter("-//tutor-match//EN", tehran)
	from := time.Date(2026, 10, 21, 12, 0, 0, 0, tehran)
	out, err := exporter.Render([]WeeklyEvent{
		{UID: "a-1", Summary: "Lesson", Weekday: time.Monday, StartMinute: 2 * 60, EndMinute: 3 * 60},
	}, from)
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "DTSTART:20261025T223000Z")
	assert.NotContains(t, body, "BYDAY")

	cal, err := ics.ParseCalendar(bytes.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "FREQ=WEEKLY", events[0].GetProperty(ics.ComponentPropertyRrule).Value)

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, start.UTC().Weekday())
	// Every weekly repeat keeps the UTC offset, so it stays Monday 02:00 locally.
	for week := 0; week < 4; week++ {
		local := start.AddDate(0, 0, 7*week).In(tehran)
		assert.Equal(t, time.Monday, local.Weekday())
		assert.Equal(t, 2, local.Hour())
	}
}

func TestICSExporterRejectsEmptyAndInverted(t *testing.T) {
	exporter := NewICSExporter("x", nil)
	_, err := exporter.Render(nil, time.Now())
	assert.Error(t, err)
	_, err = exporter.Render([]WeeklyEvent{{UID: "x", StartMinute: 60, EndMinute: 60}}, time.Now())
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "assignments-2026-01-07.csv", Filename("assignments 2026/01/07", "csv"))
}
