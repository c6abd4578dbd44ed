package utils

import (
	"fmt"
	"net/smtp"
	"time"

	"TRIPCRAFT_BACK-END/internal/config"
)

// EmailService handles email sending operations
type EmailService struct {
	config *config.EmailConfig
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		config: cfg,
	}
}

// SendTripInvitation sends a trip invitation link to the given address.
// The expiry wording follows the configured invitation TTL.
func (e *EmailService) SendTripInvitation(to, tripName, link string, ttl time.Duration) error {
	subject := fmt.Sprintf("You're invited to plan \"%s\" on TripCraft", tripName)
	return e.sendEmail(to, subject, invitationBody(tripName, link, ttl))
}

func invitationBody(tripName, link string, ttl time.Duration) string {
	return fmt.Sprintf(`
Hello,

You've been invited to help plan the trip "%s".

Join here: %s

This invitation link expires in %s.

If you didn't expect this, please ignore this email.

Best regards,
TripCraft Team
	`, tripName, link, humanizeTTL(ttl))
}

// humanizeTTL renders a duration in whole days when possible, hours
// otherwise.
func humanizeTTL(ttl time.Duration) string {
	if days := int(ttl.Hours()) / 24; days >= 1 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(ttl.Hours())
	if hours <= 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// sendEmail sends an email using SMTP
func (e *EmailService) sendEmail(to, subject, body string) error {
	// Check if credentials are set
	if e.config.SMTPUsername == "" || e.config.SMTPPassword == "" {
		return fmt.Errorf("email credentials not configured")
	}

	// Setup authentication
	auth := smtp.PlainAuth("", e.config.SMTPUsername, e.config.SMTPPassword, e.config.SMTPHost)

	// Compose message
	fromEmail := e.config.FromEmail
	if fromEmail == "" {
		fromEmail = e.config.SMTPUsername
	}

	message := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"\r\n"+
			"%s\r\n",
		e.config.FromName, fromEmail, to, subject, body))

	// Send email
	addr := e.config.SMTPHost + ":" + e.config.SMTPPort
	err := smtp.SendMail(addr, auth, fromEmail, []string{to}, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}

	return nil
}
