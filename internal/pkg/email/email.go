package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// EmailService defines the interface for outgoing notifications
type EmailService interface {
	SendWelcomeEmail(toEmail, toName, username string) error
	SendDocumentReviewedEmail(toEmail, toName string, review ReviewNotice) error
}

// ReviewNotice describes a review decision on one document
type ReviewNotice struct {
	DocumentName string
	Decision     string // approved or rejected
	Remarks      string
	ReviewedBy   string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	PortalURL string
}

// Enabled reports whether mail can actually be sent
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailServiceImpl sends mail through gomail, or logs it when SMTP is not configured
type EmailServiceImpl struct {
	config SMTPConfig
	sender mailSender
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	s := &EmailServiceImpl{config: config, logger: logger}
	if config.Enabled() {
		s.sender = gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	}
	return s
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Welcome to the OAUSTECH registration portal</h2>
		<p>Hello {{.Name}},</p>
		<p>Your account <strong>{{.Username}}</strong> is ready. Sign in to upload the fifteen documents required for registration.</p>
		{{if .PortalURL}}<p><a href="{{.PortalURL}}">Open the portal</a></p>{{end}}
		<p>Best regards,<br>Student Registration Office</p>
	</div>
</body>
</html>`))

var reviewTemplate = template.Must(template.New("review").Parse(`<html>
<body>
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2 style="color: #333;">Document {{.Decision}}</h2>
		<p>Hello {{.Name}},</p>
		<p>Your <strong>{{.DocumentName}}</strong> has been <strong>{{.Decision}}</strong>{{if .ReviewedBy}} by {{.ReviewedBy}}{{end}}.</p>
		{{if .Remarks}}<p>Reviewer remarks: <em>{{.Remarks}}</em></p>
		<p>Please upload a corrected copy from your dashboard.</p>{{end}}
		{{if .PortalURL}}<p><a href="{{.PortalURL}}">Open the portal</a></p>{{end}}
		<p>Best regards,<br>Student Registration Office</p>
	</div>
</body>
</html>`))

// SendWelcomeEmail greets a newly registered student
func (s *EmailServiceImpl) SendWelcomeEmail(toEmail, toName, username string) error {
	body, err := render(welcomeTemplate, map[string]string{
		"Name":      toName,
		"Username":  username,
		"PortalURL": s.config.PortalURL,
	})
	if err != nil {
		return err
	}
	return s.send(toEmail, "Welcome to the OAUSTECH registration portal", body)
}

// SendDocumentReviewedEmail tells a student their document was approved or rejected
func (s *EmailServiceImpl) SendDocumentReviewedEmail(toEmail, toName string, review ReviewNotice) error {
	body, err := render(reviewTemplate, map[string]string{
		"Name":         toName,
		"DocumentName": review.DocumentName,
		"Decision":     review.Decision,
		"Remarks":      review.Remarks,
		"ReviewedBy":   review.ReviewedBy,
		"PortalURL":    s.config.PortalURL,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s: %s", review.DocumentName, review.Decision)
	return s.send(toEmail, subject, body)
}

func render(t *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

func (s *EmailServiceImpl) send(toEmail, subject, htmlBody string) error {
	if toEmail == "" {
		return nil
	}
	if s.sender == nil {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP not configured - email not sent")
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("toEmail", toEmail).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info().Str("toEmail", toEmail).Str("subject", subject).Msg("Email sent")
	return nil
}
