package service

import (
	"context"
	"fmt"
	"strings"

	"fitroomserver/internal/config"
	"fitroomserver/internal/email"
)

// EmailService sends transactional mail using the SMTP settings from the
// environment. It satisfies ResetMailer.
type EmailService struct {
	SMTP config.SMTPConfig
}

func (s *EmailService) SendPasswordReset(_ context.Context, toEmail, resetURL string) error {
	if !s.SMTP.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	subject := "Reset your FitRoom password"
	body := strings.Join([]string{
		"You requested a password reset.",
		"",
		"Reset your password using this link:",
		resetURL,
		"",
		"If you did not request this, you can ignore this email.",
	}, "\n")

	return email.SendSMTP(email.Settings{
		Host:     s.SMTP.Host,
		Port:     s.SMTP.Port,
		Username: s.SMTP.Username,
		Password: s.SMTP.Password,
		TLSMode:  s.SMTP.TLSMode,
	}, email.Message{
		FromName:  s.SMTP.FromName,
		FromEmail: s.SMTP.FromEmail,
		ToEmail:   toEmail,
		Subject:   subject,
		TextBody:  body,
	})
}
