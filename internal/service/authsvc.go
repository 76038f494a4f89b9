package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitroomserver/internal/auth"
	"fitroomserver/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string, role domain.UserRole) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, domain.ExternalAccount, error)
	CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, username, passwordHash string, role domain.UserRole) (domain.User, domain.ExternalAccount, error)
	LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) (domain.ExternalAccount, error)
	SetLastLogin(ctx context.Context, userID string, when time.Time) error
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error
	DeleteUser(ctx context.Context, userID string) error
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	SessionTTL time.Duration
	Now        func() time.Time

	GoogleWebClientID   string
	AppleServiceID      string
	VerifyGoogleIDToken func(ctx context.Context, idToken, audience string) (*auth.ExternalTokenClaims, error)
	VerifyAppleIDToken  func(ctx context.Context, idToken, audience string) (*auth.ExternalTokenClaims, error)
}

func (s *AuthService) Register(ctx context.Context, email, username, password, role, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	userRole := domain.UserRole(strings.TrimSpace(strings.ToLower(role)))
	switch userRole {
	case domain.UserRoleTrainer, domain.UserRoleTrainee:
	case "":
		userRole = domain.UserRoleTrainee
	default:
		return domain.User{}, "", domain.NewValidationError(map[string]string{"role": "must be trainer or trainee"})
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.Users.CreateUser(ctx, email, username, passwordHash, userRole)
	if err != nil {
		return domain.User{}, "", err
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	return u, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, login, password, ip, userAgent string) (domain.User, string, error) {
	if s.Now == nil {
		s.Now = time.Now
	}

	login = strings.TrimSpace(login)

	u, err := s.Users.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.User{}, "", err
	}
	if !ok {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u.User, sessID, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	verify := s.VerifyGoogleIDToken
	if verify == nil {
		verify = auth.VerifyGoogleIDToken
	}
	return s.loginExternal(ctx, "google", idToken, s.GoogleWebClientID, verify, ip, userAgent)
}

func (s *AuthService) LoginWithApple(ctx context.Context, idToken, ip, userAgent string) (domain.User, string, error) {
	verify := s.VerifyAppleIDToken
	if verify == nil {
		verify = auth.VerifyAppleIDToken
	}
	return s.loginExternal(ctx, "apple", idToken, s.AppleServiceID, verify, ip, userAgent)
}

func (s *AuthService) loginExternal(ctx context.Context, provider, idToken, audience string,
	verify func(ctx context.Context, idToken, audience string) (*auth.ExternalTokenClaims, error),
	ip, userAgent string) (domain.User, string, error) {

	if s.Now == nil {
		s.Now = time.Now
	}
	if audience == "" {
		return domain.User{}, "", fmt.Errorf("%s sign-in is not configured", provider)
	}

	claims, err := verify(ctx, idToken, audience)
	if err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	email := strings.TrimSpace(strings.ToLower(claims.Email))

	u, _, err := s.Users.GetUserByExternalAccount(ctx, provider, claims.Subject)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		u, err = s.attachOrCreateExternal(ctx, provider, claims.Subject, email)
		if err != nil {
			return domain.User{}, "", err
		}
	default:
		return domain.User{}, "", err
	}

	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, "", domain.ErrUserDisabled
	}

	sessID, err := s.Sessions.CreateSession(ctx, u.ID, s.Now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}

	_ = s.Users.SetLastLogin(ctx, u.ID, s.Now())

	return u, sessID, nil
}

// attachOrCreateExternal links the external identity to an existing account
// with the same email, or provisions a fresh trainee account.
func (s *AuthService) attachOrCreateExternal(ctx context.Context, provider, providerID, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.ErrInvalidCredentials
	}

	existing, err := s.Users.GetUserByEmail(ctx, email)
	if err == nil {
		if _, err := s.Users.LinkExternalAccount(ctx, existing.ID, provider, providerID, email); err != nil {
			return domain.User{}, err
		}
		return existing.User, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	username, err := externalUsername(email)
	if err != nil {
		return domain.User{}, err
	}
	// Unusable placeholder hash; the account has no password login until
	// the user runs a password reset.
	passwordHash, err := auth.HashPassword(randomSecret())
	if err != nil {
		return domain.User{}, err
	}

	u, _, err := s.Users.CreateUserWithExternalAccount(ctx, provider, providerID, email, username, passwordHash, domain.UserRoleTrainee)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func externalUsername(email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > 18 {
		base = base[:18]
	}
	if base == "" {
		base = "user"
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate username suffix: %w", err)
	}
	return fmt.Sprintf("%s%x", base, suffix), nil
}

func randomSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return base64.RawStdEncoding.EncodeToString(buf)
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if s.Now == nil {
		s.Now = time.Now
	}

	return s.Sessions.RevokeSession(ctx, sessionID, s.Now())
}

func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if u.Status == domain.UserStatusDisabled {
		return domain.User{}, domain.ErrForbidden
	}

	return u, nil
}
