package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"text/template"

	"authgate/internal/config"
	"authgate/internal/core/domain"
)

// MailAgent delivers a rendered notification to a recipient
type MailAgent interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// TemplateData is the substitution context for notification templates
type TemplateData struct {
	SiteName string
	ResetURL string
}

var notificationTemplates = map[string]*template.Template{
	"newuser": template.Must(template.New("newuser").Parse(
		"Welcome to {{.SiteName}}!\n\n" +
			"An account has been created for you. Set your password by\n" +
			"visiting the link below:\n\n" +
			"{{.ResetURL}}\n\n" +
			"If you did not expect this email you can ignore it.\n")),
	"reset": template.Must(template.New("reset").Parse(
		"Hello,\n\n" +
			"A password reset was requested for your {{.SiteName}} account.\n" +
			"Set a new password by visiting the link below:\n\n" +
			"{{.ResetURL}}\n\n" +
			"If you did not request this reset you can ignore this email.\n")),
}

var notificationSubjects = map[string]string{
	"newuser": "Your new %s account",
	"reset":   "Password reset for %s",
}

// NotificationService renders and sends account emails. Delivery
// failures are reported to the caller but never undo the state change
// that triggered them.
type NotificationService struct {
	agent MailAgent
	cfg   *config.Config
}

// NewNotificationService creates a new notification service
func NewNotificationService(agent MailAgent, cfg *config.Config) *NotificationService {
	return &NotificationService{agent: agent, cfg: cfg}
}

// SendReset sends the password-reset email carrying the redemption link
func (s *NotificationService) SendReset(ctx context.Context, recipient, resetCode string) error {
	return s.send(ctx, "reset", recipient, resetCode)
}

// SendNewUser sends the account-created email carrying the redemption link
func (s *NotificationService) SendNewUser(ctx context.Context, recipient, resetCode string) error {
	return s.send(ctx, "newuser", recipient, resetCode)
}

func (s *NotificationService) send(ctx context.Context, name, recipient, resetCode string) error {
	tmpl := notificationTemplates[name]
	data := TemplateData{
		SiteName: s.cfg.ServiceDomain,
		ResetURL: fmt.Sprintf("%s/password/reset/%s", s.cfg.SiteURL, resetCode),
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("%w: render %s: %v", domain.ErrNotification, name, err)
	}

	subject := fmt.Sprintf(notificationSubjects[name], s.cfg.ServiceDomain)
	if err := s.agent.Send(ctx, recipient, subject, body.String()); err != nil {
		log.Printf("mail delivery failed for %s notification: %v", name, err)
		return fmt.Errorf("%w: delivery failed", domain.ErrNotification)
	}
	return nil
}
