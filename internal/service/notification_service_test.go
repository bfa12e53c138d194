package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
	"github.com/noah-isme/tutor-match-api/pkg/mail"
)

type queueStub struct {
	handlers map[string]jobs.Handler
	enqueued []jobs.Job
	full     bool
}

func (q *queueStub) Register(jobType string, handler jobs.Handler) {
	if q.handlers == nil {
		q.handlers = map[string]jobs.Handler{}
	}
	q.handlers[jobType] = handler
}

func (q *queueStub) Enqueue(job jobs.Job) (string, error) {
	if q.full {
		return "", errors.New("queue full")
	}
	q.enqueued = append(q.enqueued, job)
	return "job-1", nil
}

func (q *queueStub) run(t *testing.T) []error {
	t.Helper()
	errs := make([]error, 0, len(q.enqueued))
	for _, job := range q.enqueued {
		handler, ok := q.handlers[job.Type]
		require.True(t, ok, job.Type)
		errs = append(errs, handler(context.Background(), job))
	}
	return errs
}

type publisherStub struct {
	channel string
	events  []interface{}
	err     error
}

func (p *publisherStub) Publish(ctx context.Context, channel string, message interface{}) error {
	p.channel = channel
	p.events = append(p.events, message)
	return p.err
}

type mailerStub struct {
	sent []mail.Message
	err  error
}

func (m *mailerStub) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type calendarStub struct{}

func (calendarStub) Calendar(detail models.AssignmentDetail) (*ExportFile, error) {
	return &ExportFile{Filename: "assignment-" + detail.ID + ".ics", Data: []byte("BEGIN:VCALENDAR")}, nil
}

func (calendarStub) CalendarLink(id string) (string, time.Time, error) {
	return "https://match.example/api/v1/calendar/tok.ics", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), nil
}

func notificationDetail() models.AssignmentDetail {
	detail := sampleAssignment("a-1")
	studentEmail := "ana@example.com"
	teacherEmail := "kim@example.com"
	detail.StudentEmail = &studentEmail
	detail.TeacherEmail = &teacherEmail
	return detail
}

func TestNotifyCommittedPublishesAndEmails(t *testing.T) {
	queue := &queueStub{}
	publisher := &publisherStub{}
	mailer := &mailerStub{}
	svc := NewNotificationService(queue, publisher, mailer, calendarStub{}, "assignments.committed", NewMetricsService(), nil)

	require.NoError(t, svc.NotifyCommitted(context.Background(), notificationDetail()))
	require.Len(t, queue.enqueued, 2)
	assert.Equal(t, JobPublishAssignment, queue.enqueued[0].Type)
	assert.Equal(t, JobEmailAssignment, queue.enqueued[1].Type)

	for _, err := range queue.run(t) {
		assert.NoError(t, err)
	}

	assert.Equal(t, "assignments.committed", publisher.channel)
	require.Len(t, publisher.events, 1)
	event, ok := publisher.events[0].(dto.AssignmentNotification)
	require.True(t, ok)
	assert.Equal(t, "a-1", event.AssignmentID)
	assert.Len(t, event.Slots, 2)

	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	require.Len(t, msg.To, 2)
	assert.Equal(t, "ana@example.com", msg.To[0].Email)
	assert.Equal(t, "kim@example.com", msg.To[1].Email)
	assert.Contains(t, msg.Subject, "Ana with Mr. Kim")
	assert.Contains(t, msg.Text, "MONDAY 09:00-10:00")
	assert.Contains(t, msg.Text, "https://match.example/api/v1/calendar/tok.ics")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "text/calendar", msg.Attachments[0].ContentType)
}

func TestEmailJobSkipsWithoutAddresses(t *testing.T) {
	queue := &queueStub{}
	mailer := &mailerStub{}
	svc := NewNotificationService(queue, &publisherStub{}, mailer, calendarStub{}, "c", nil, nil)

	require.NoError(t, svc.NotifyCommitted(context.Background(), sampleAssignment("a-2")))
	for _, err := range queue.run(t) {
		assert.NoError(t, err)
	}
	assert.Empty(t, mailer.sent)
}

func TestNotificationFailuresSurfaceToQueue(t *testing.T) {
	queue := &queueStub{}
	publisher := &publisherStub{err: errors.New("redis down")}
	mailer := &mailerStub{err: errors.New("sendgrid 500")}
	NewNotificationService(queue, publisher, mailer, calendarStub{}, "c", nil, nil)

	queue.enqueued = []jobs.Job{
		{Type: JobPublishAssignment, Payload: notificationDetail()},
		{Type: JobEmailAssignment, Payload: notificationDetail()},
		{Type: JobEmailAssignment, Payload: "garbage"},
	}
	errs := queue.run(t)
	assert.EqualError(t, errs[0], "redis down")
	assert.EqualError(t, errs[1], "sendgrid 500")
	assert.Error(t, errs[2])
}

func TestNotifyCommittedReportsEnqueueFailure(t *testing.T) {
	queue := &queueStub{full: true}
	svc := NewNotificationService(queue, &publisherStub{}, &mailerStub{}, calendarStub{}, "c", nil, nil)
	assert.Error(t, svc.NotifyCommitted(context.Background(), notificationDetail()))

	var disabled *NotificationService
	assert.NoError(t, disabled.NotifyCommitted(context.Background(), notificationDetail()))
}
