package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fitroomserver/internal/auth"
	"fitroomserver/internal/domain"
)

type PasswordResetStore interface {
	CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error
}

// ResetMailer delivers the reset link. Wired to the SMTP sender in main.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, resetURL string) error
}

type PasswordResetService struct {
	Store     PasswordResetStore
	Users     UsersStore
	Mailer    ResetMailer
	PublicURL string
	TokenTTL  time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// RequestReset issues a reset token and mails the link. It never reveals
// whether the email belongs to an account.
func (s *PasswordResetService) RequestReset(ctx context.Context, emailAddr string) error {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.TokenTTL == 0 {
		s.TokenTTL = 2 * time.Hour
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" {
		return domain.NewValidationError(map[string]string{"email": "required"})
	}

	u, err := s.Users.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	if u.Status == domain.UserStatusDisabled {
		return nil
	}

	raw, tokenHash, err := newResetToken()
	if err != nil {
		return err
	}

	now := s.Now()
	if err := s.Store.CreateResetToken(ctx, domain.PasswordResetToken{
		UserID:      u.ID,
		TokenHash:   tokenHash,
		SentToEmail: emailAddr,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.TokenTTL),
	}); err != nil {
		return err
	}

	if s.Mailer == nil {
		return fmt.Errorf("reset mailer not configured")
	}
	resetURL := strings.TrimRight(s.PublicURL, "/") + "/reset-password?token=" + raw
	if err := s.Mailer.SendPasswordReset(ctx, emailAddr, resetURL); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	tokenHash := hashResetToken(rawToken)
	token, err := s.Store.GetResetTokenByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}
	if token.UsedAt != nil {
		return domain.ErrResetTokenInvalid
	}
	if token.ExpiresAt.Before(s.Now()) {
		return domain.ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Users.SetPasswordHash(ctx, token.UserID, hash); err != nil {
		return err
	}
	if err := s.Store.MarkResetTokenUsed(ctx, tokenHash, s.Now()); err != nil {
		return err
	}
	return nil
}

func newResetToken() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("read token: %w", err)
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashResetToken(raw), nil
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
