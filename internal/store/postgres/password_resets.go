package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitroomserver/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordResetStore struct {
	pool *pgxpool.Pool
}

func NewPasswordResetStore(pool *pgxpool.Pool) *PasswordResetStore {
	return &PasswordResetStore{pool: pool}
}

func (s *PasswordResetStore) CreateResetToken(ctx context.Context, token domain.PasswordResetToken) error {
	const q = `
		INSERT INTO password_reset_tokens (user_id, token_hash, sent_to_email, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, q,
		token.UserID,
		token.TokenHash,
		token.SentToEmail,
		token.CreatedAt,
		token.ExpiresAt,
		token.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

func (s *PasswordResetStore) GetResetTokenByHash(ctx context.Context, tokenHash string) (domain.PasswordResetToken, error) {
	const q = `
		SELECT user_id, token_hash, sent_to_email, created_at, expires_at, used_at
		FROM password_reset_tokens
		WHERE token_hash = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		token      domain.PasswordResetToken
		userIDUUID pgtype.UUID
		usedAt     pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, tokenHash).Scan(
		&userIDUUID,
		&token.TokenHash,
		&token.SentToEmail,
		&token.CreatedAt,
		&token.ExpiresAt,
		&usedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PasswordResetToken{}, domain.ErrNotFound
		}
		return domain.PasswordResetToken{}, fmt.Errorf("get reset token: %w", err)
	}
	token.UserID = uuidOrEmpty(userIDUUID)
	token.UsedAt = timestamptzPtr(usedAt)
	return token, nil
}

func (s *PasswordResetStore) MarkResetTokenUsed(ctx context.Context, tokenHash string, when time.Time) error {
	const q = `
		UPDATE password_reset_tokens
		SET used_at = $2
		WHERE token_hash = $1
	`
	tag, err := s.pool.Exec(ctx, q, tokenHash, when)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
