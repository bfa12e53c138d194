// Package mail sends transactional email through SendGrid, or logs messages
// when no API key is configured.
package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/pkg/config"
)

const (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// Address is a display name and email pair.
type Address struct {
	Name  string
	Email string
}

// Attachment is a file sent alongside a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	To          []Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid mailer when an API key is configured, otherwise a
// mailer that only logs.
func New(cfg config.MailConfig, appName string, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendgridAPIKey == "" {
		return &LogMailer{logger: logger}
	}
	return &SendgridMailer{
		key:        cfg.SendgridAPIKey,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		subjPrefix: "[" + appName + "] ",
		logger:     logger,
	}
}

// SendgridMailer posts messages to the SendGrid v3 API.
type SendgridMailer struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

// Send delivers msg. Any 4xx or 5xx answer is returned as an error so the
// caller's queue can retry it.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(m.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send email: status %d: %s", res.StatusCode, res.Body)
	}
	m.logger.Debug("email sent", zap.String("subject", msg.Subject), zap.Int("recipients", len(msg.To)))
	return nil
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Email))
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	for _, a := range msg.Attachments {
		v3.AddAttachment(&sgmail.Attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.ContentType,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}
	return v3
}

// LogMailer records messages in the log instead of sending them.
type LogMailer struct {
	logger *zap.Logger
}

// Send logs msg.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		recipients = append(recipients, to.Email)
	}
	m.logger.Info("email suppressed, no mail provider configured",
		zap.Strings("to", recipients),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
