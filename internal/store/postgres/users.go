package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = "id, email, username, role, status, created_at, updated_at, last_login_at"

func (s *UsersStore) CreateUser(ctx context.Context, email, username, passwordHash string, role domain.UserRole) (domain.User, error) {
	const q = `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, q, nullIfEmpty(email), username, passwordHash, role))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	const q = `
		SELECT id, email, username, password_hash, role, status, created_at, updated_at, last_login_at
		FROM users
		WHERE username = $1 OR (email IS NOT NULL AND email = $1)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`

	u, err := scanUserWithPassword(s.pool.QueryRow(ctx, q, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by login: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	const q = `
		SELECT id, email, username, password_hash, role, status, created_at, updated_at, last_login_at
		FROM users
		WHERE email = $1
		LIMIT 1
	`

	u, err := scanUserWithPassword(s.pool.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2, updated_at = now()
		WHERE id = $1
	`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

func (s *UsersStore) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	const q = `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) GetUserByExternalAccount(ctx context.Context, provider, providerID string) (domain.User, domain.ExternalAccount, error) {
	const q = `
		SELECT u.id, u.email, u.username, u.role, u.status, u.created_at, u.updated_at, u.last_login_at,
		       e.id, e.provider, e.provider_id, e.email, e.created_at
		FROM users u
		JOIN external_accounts e ON e.user_id = u.id
		WHERE e.provider = $1 AND e.provider_id = $2
	`

	var (
		u           domain.User
		ext         domain.ExternalAccount
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
		extIDUUID   pgtype.UUID
		extEmail    pgtype.Text
	)
	err := s.pool.QueryRow(ctx, q, provider, providerID).Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
		&extIDUUID,
		&ext.Provider,
		&ext.ProviderID,
		&extEmail,
		&ext.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ExternalAccount{}, domain.ErrNotFound
		}
		return domain.User{}, domain.ExternalAccount{}, fmt.Errorf("get user by external account: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	ext.ID = uuidOrEmpty(extIDUUID)
	ext.UserID = u.ID
	ext.Email = textOrEmpty(extEmail)
	return u, ext, nil
}

func (s *UsersStore) CreateUserWithExternalAccount(ctx context.Context, provider, providerID, email, username, passwordHash string, role domain.UserRole) (domain.User, domain.ExternalAccount, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.User{}, domain.ExternalAccount{}, fmt.Errorf("begin create user with external account: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUser = `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(tx.QueryRow(ctx, insertUser, nullIfEmpty(email), username, passwordHash, role))
	if err != nil {
		return domain.User{}, domain.ExternalAccount{}, mapUserWriteError(err)
	}

	const insertExt = `
		INSERT INTO external_accounts (user_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var (
		ext       domain.ExternalAccount
		extIDUUID pgtype.UUID
	)
	if err := tx.QueryRow(ctx, insertExt, u.ID, provider, providerID, nullIfEmpty(email)).Scan(&extIDUUID, &ext.CreatedAt); err != nil {
		return domain.User{}, domain.ExternalAccount{}, mapExternalAccountWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, domain.ExternalAccount{}, fmt.Errorf("commit create user with external account: %w", err)
	}

	ext.ID = uuidOrEmpty(extIDUUID)
	ext.UserID = u.ID
	ext.Provider = provider
	ext.ProviderID = providerID
	ext.Email = email
	return u, ext, nil
}

func (s *UsersStore) LinkExternalAccount(ctx context.Context, userID, provider, providerID, email string) (domain.ExternalAccount, error) {
	const q = `
		INSERT INTO external_accounts (user_id, provider, provider_id, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var (
		ext       domain.ExternalAccount
		extIDUUID pgtype.UUID
	)
	err := s.pool.QueryRow(ctx, q, userID, provider, providerID, nullIfEmpty(email)).Scan(&extIDUUID, &ext.CreatedAt)
	if err != nil {
		return domain.ExternalAccount{}, mapExternalAccountWriteError(err)
	}

	ext.ID = uuidOrEmpty(extIDUUID)
	ext.UserID = userID
	ext.Provider = provider
	ext.ProviderID = providerID
	ext.Email = email
	return ext, nil
}

func (s *UsersStore) DeleteUser(ctx context.Context, userID string) error {
	const q = `DELETE FROM users WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func scanUserWithPassword(row rowScanner) (domain.UserWithPassword, error) {
	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.UserWithPassword{}, err
	}
	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq":
			return domain.ErrUsernameTaken
		case "users_email_uq":
			return domain.ErrEmailTaken
		default:
			return fmt.Errorf("unique violation (%s): %w", pgerr.ConstraintName, err)
		}
	}
	return fmt.Errorf("write user: %w", err)
}

func mapExternalAccountWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return domain.ErrExternalAccountExists
	}
	return fmt.Errorf("write external account: %w", err)
}
