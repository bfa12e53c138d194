package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/dto"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/jobs"
	"github.com/noah-isme/tutor-match-api/pkg/mail"
)

// Notification job types.
const (
	JobPublishAssignment = "assignment.publish"
	JobEmailAssignment   = "assignment.email"
)

type jobQueue interface {
	Register(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) (string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type assignmentCalendar interface {
	Calendar(detail models.AssignmentDetail) (*ExportFile, error)
	CalendarLink(assignmentID string) (string, time.Time, error)
}

// NotificationService fans committed assignments out to subscribers and
// participants. Delivery runs on the job queue and never affects the commit.
type NotificationService struct {
	queue     jobQueue
	publisher eventPublisher
	mailer    mail.Mailer
	calendar  assignmentCalendar
	channel   string
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewNotificationService wires handlers onto queue. A nil queue disables notifications.
func NewNotificationService(queue jobQueue, publisher eventPublisher, mailer mail.Mailer, calendar assignmentCalendar, channel string, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{
		queue:     queue,
		publisher: publisher,
		mailer:    mailer,
		calendar:  calendar,
		channel:   channel,
		metrics:   metrics,
		logger:    logger,
	}
	if queue != nil {
		queue.Register(JobPublishAssignment, svc.handlePublish)
		queue.Register(JobEmailAssignment, svc.handleEmail)
	}
	return svc
}

// NotifyCommitted schedules the publish and email jobs for a new assignment.
func (s *NotificationService) NotifyCommitted(_ context.Context, detail models.AssignmentDetail) error {
	if s == nil || s.queue == nil {
		return nil
	}
	var failed []string
	for _, jobType := range []string{JobPublishAssignment, JobEmailAssignment} {
		if _, err := s.queue.Enqueue(jobs.Job{Type: jobType, Payload: detail}); err != nil {
			s.logger.Warn("failed to enqueue notification",
				zap.String("type", jobType), zap.String("assignment_id", detail.ID), zap.Error(err))
			failed = append(failed, jobType)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("enqueue %s", strings.Join(failed, ", "))
	}
	return nil
}

func payload(job jobs.Job) (models.AssignmentDetail, error) {
	detail, ok := job.Payload.(models.AssignmentDetail)
	if !ok {
		return models.AssignmentDetail{}, fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	return detail, nil
}

func (s *NotificationService) handlePublish(ctx context.Context, job jobs.Job) error {
	detail, err := payload(job)
	if err != nil {
		return err
	}
	event := dto.AssignmentNotification{
		AssignmentID: detail.ID,
		TeacherID:    detail.TeacherID,
		StudentID:    detail.StudentID,
		ClassType:    detail.ClassType,
		Mode:         detail.Mode,
		Slots:        detail.ScheduledSlots,
		CommittedAt:  detail.CreatedAt,
	}
	err = s.publisher.Publish(ctx, s.channel, event)
	s.metrics.RecordNotification("pubsub", err)
	return err
}

func (s *NotificationService) handleEmail(ctx context.Context, job jobs.Job) error {
	detail, err := payload(job)
	if err != nil {
		return err
	}

	var to []mail.Address
	if detail.StudentEmail != nil && *detail.StudentEmail != "" {
		to = append(to, mail.Address{Name: detail.StudentName, Email: *detail.StudentEmail})
	}
	if detail.TeacherEmail != nil && *detail.TeacherEmail != "" {
		to = append(to, mail.Address{Name: detail.TeacherName, Email: *detail.TeacherEmail})
	}
	if len(to) == 0 {
		s.logger.Info("no contact address for assignment", zap.String("assignment_id", detail.ID))
		return nil
	}

	msg := mail.Message{
		To:      to,
		Subject: fmt.Sprintf("New %s class: %s with %s", detail.ClassType, detail.StudentName, detail.TeacherName),
		Text:    s.emailBody(detail),
	}
	if file, err := s.calendar.Calendar(detail); err == nil {
		msg.Attachments = append(msg.Attachments, mail.Attachment{Filename: file.Filename, ContentType: "text/calendar", Content: file.Data})
	} else {
		s.logger.Warn("calendar attachment skipped", zap.String("assignment_id", detail.ID), zap.Error(err))
	}

	err = s.mailer.Send(ctx, msg)
	s.metrics.RecordNotification("email", err)
	return err
}

func (s *NotificationService) emailBody(detail models.AssignmentDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s and %s have been matched for %s %s lessons.\n\n", detail.StudentName, detail.TeacherName, detail.Mode, detail.ClassType)
	b.WriteString("Weekly schedule:\n")
	for _, slot := range detail.ScheduledSlots {
		fmt.Fprintf(&b, "  - %s\n", slot)
	}
	if detail.Notes != nil {
		fmt.Fprintf(&b, "\nNotes: %s\n", *detail.Notes)
	}
	if link, expiresAt, err := s.calendar.CalendarLink(detail.ID); err == nil {
		fmt.Fprintf(&b, "\nAdd the lessons to your calendar: %s (link valid until %s)\n", link, expiresAt.UTC().Format("2 Jan 2006"))
	}
	return b.String()
}
