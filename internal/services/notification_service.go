// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/models"
)

// NotificationService sends transactional email through the configured SMTP
// provider. All sends are best-effort: a delivery failure never fails the
// request that triggered it.
type NotificationService struct {
	cfg *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{cfg: cfg}
}

func (s *NotificationService) SendContactAcknowledgment(contact *models.Contact) error {
	tmpl := s.getEmailTemplate("contact_ack")

	data := map[string]interface{}{
		"FullName":    contact.FullName,
		"ServiceType": contact.ServiceType,
		"FirmName":    s.cfg.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(contact.Email, tmpl.Subject, body)
}

func (s *NotificationService) SendSubmissionReceipt(email, applicantName, applicationNumber string, amount float64) error {
	if email == "" {
		return nil
	}

	tmpl := s.getEmailTemplate("submission_receipt")

	data := map[string]interface{}{
		"ApplicantName":     applicantName,
		"ApplicationNumber": applicationNumber,
		"Amount":            fmt.Sprintf("%.2f", amount),
		"FirmName":          s.cfg.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(email, tmpl.Subject, body)
}

// Helper methods
func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.cfg.Email.SMTPUsername == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Info("Email delivery skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Email.SMTPUsername, s.cfg.Email.SMTPPassword, s.cfg.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.Email.SMTPHost, s.cfg.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.cfg.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"contact_ack": {
			Subject: "We received your inquiry",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Thank you, {{.FullName}}</h2>
	<p>We received your {{.ServiceType}} inquiry and a member of our team will be in touch within one business day.</p>
	<p>Best regards,<br>{{.FirmName}}</p>
</body>
</html>`,
		},
		"submission_receipt": {
			Subject: "Your application has been submitted",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Application submitted</h2>
	<p>Hello {{.ApplicantName}},</p>
	<p>Your application {{.ApplicationNumber}} has been submitted for review. We recorded a filing fee of ${{.Amount}}.</p>
	<p>Best regards,<br>{{.FirmName}}</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
