// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velora/velora/internal/platform/dberr"
	"github.com/velora/velora/internal/platform/sec"
)

// userColumns is the select list shared by every user query, kept in one
// place so scanUser stays in sync with it.
const userColumns = `
	id, email, first_name, last_name, phone_number, hashed_password,
	is_active, is_verified, role,
	verification_code, verification_expires_at,
	pending_password_hash, password_change_token, password_change_expires_at,
	password_reset_token, password_reset_expires_at,
	created_at, updated_at`

// PostgresUserRepository implements UserRepository backed by pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a UserRepository backed by the given pool.
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			email, first_name, last_name, phone_number, hashed_password,
			is_active, is_verified, role,
			verification_code, verification_expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	var code *string
	var codeExpiry *time.Time
	if user.Verification != nil {
		code = &user.Verification.Code
		codeExpiry = &user.Verification.ExpiresAt
	}

	err := r.pool.QueryRow(ctx, query,
		user.Email, user.FirstName, user.LastName, user.PhoneNumber,
		user.HashedPassword, user.IsActive, user.IsVerified, string(user.Role),
		code, codeExpiry,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *PostgresUserRepository) FindByPasswordResetToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE password_reset_token = $1`
	return r.findOne(ctx, query, token)
}

func (r *PostgresUserRepository) FindByPasswordChangeToken(ctx context.Context, token string) (*User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE password_change_token = $1`
	return r.findOne(ctx, query, token)
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users SET
			email = $2,
			first_name = $3,
			last_name = $4,
			phone_number = $5,
			hashed_password = $6,
			is_active = $7,
			is_verified = $8,
			role = $9,
			verification_code = $10,
			verification_expires_at = $11,
			pending_password_hash = $12,
			password_change_token = $13,
			password_change_expires_at = $14,
			password_reset_token = $15,
			password_reset_expires_at = $16,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	var verifyCode *string
	var verifyExpiry *time.Time
	if user.Verification != nil {
		verifyCode = &user.Verification.Code
		verifyExpiry = &user.Verification.ExpiresAt
	}

	var changeHash, changeToken *string
	var changeExpiry *time.Time
	if user.PasswordChange != nil {
		changeHash = &user.PasswordChange.PasswordHash
		changeToken = &user.PasswordChange.Token
		changeExpiry = &user.PasswordChange.ExpiresAt
	}

	var resetToken *string
	var resetExpiry *time.Time
	if user.PasswordReset != nil {
		resetToken = &user.PasswordReset.Token
		resetExpiry = &user.PasswordReset.ExpiresAt
	}

	err := r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.PhoneNumber,
		user.HashedPassword, user.IsActive, user.IsVerified, string(user.Role),
		verifyCode, verifyExpiry,
		changeHash, changeToken, changeExpiry,
		resetToken, resetExpiry,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("postgres_user_repo_update_failed: %w", err)
	}

	return nil
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	return user, nil
}

// scanUser maps a row onto the aggregate, folding the nullable column
// groups back into their pending value types.
func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string

	var verifyCode *string
	var verifyExpiry *time.Time
	var changeHash, changeToken *string
	var changeExpiry *time.Time
	var resetToken *string
	var resetExpiry *time.Time

	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.PhoneNumber, &user.HashedPassword,
		&user.IsActive, &user.IsVerified, &role,
		&verifyCode, &verifyExpiry,
		&changeHash, &changeToken, &changeExpiry,
		&resetToken, &resetExpiry,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = sec.UserRole(role)

	if verifyCode != nil && verifyExpiry != nil {
		user.Verification = &PendingVerification{Code: *verifyCode, ExpiresAt: *verifyExpiry}
	}
	if changeHash != nil && changeToken != nil && changeExpiry != nil {
		user.PasswordChange = &PendingPasswordChange{
			PasswordHash: *changeHash,
			Token:        *changeToken,
			ExpiresAt:    *changeExpiry,
		}
	}
	if resetToken != nil && resetExpiry != nil {
		user.PasswordReset = &PendingPasswordReset{Token: *resetToken, ExpiresAt: *resetExpiry}
	}

	return &user, nil
}

// PostgresRefreshTokenRepository implements RefreshTokenRepository backed by
// pgx.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRefreshTokenRepository creates a RefreshTokenRepository backed
// by the given pool.
func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

func (r *PostgresRefreshTokenRepository) Save(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		token.UserID, token.TokenHash, token.ExpiresAt, token.Revoked,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_save_failed: %w", err)
	}

	return nil
}

func (r *PostgresRefreshTokenRepository) FindActive(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = FALSE`

	var token RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID, &token.UserID, &token.TokenHash,
		&token.ExpiresAt, &token.Revoked, &token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("postgres_refresh_token_repo_find_failed: %w", err)
	}

	return &token, nil
}

func (r *PostgresRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1 AND revoked = FALSE`

	if _, err := r.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_revoke_failed: %w", err)
	}

	return nil
}

func (r *PostgresRefreshTokenRepository) RevokeAll(ctx context.Context, userID int64) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("postgres_refresh_token_repo_revoke_all_failed: %w", err)
	}

	return nil
}

func (r *PostgresRefreshTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_refresh_token_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
