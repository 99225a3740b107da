// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/velora/internal/platform/apperr"
	"github.com/velora/velora/internal/platform/mail"
	"github.com/velora/velora/internal/platform/sec"
	"github.com/velora/velora/internal/users/auth"
)

// memUserRepo is a minimal in-memory auth.UserRepository for these tests.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]*auth.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (r *memUserRepo) FindByPasswordResetToken(_ context.Context, token string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordReset != nil && user.PasswordReset.Token == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (r *memUserRepo) FindByPasswordChangeToken(_ context.Context, token string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordChange != nil && user.PasswordChange.Token == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

// memTokenRepo is a minimal in-memory auth.RefreshTokenRepository.
type memTokenRepo struct {
	mu     sync.Mutex
	grants []*auth.RefreshToken
}

func (r *memTokenRepo) Save(_ context.Context, token *auth.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *token
	r.grants = append(r.grants, &clone)
	return nil
}

func (r *memTokenRepo) FindActive(_ context.Context, tokenHash string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, grant := range r.grants {
		if grant.TokenHash == tokenHash && !grant.Revoked {
			clone := *grant
			return &clone, nil
		}
	}
	return nil, auth.ErrTokenNotFound
}

func (r *memTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, grant := range r.grants {
		if grant.TokenHash == tokenHash {
			grant.Revoked = true
		}
	}
	return nil
}

func (r *memTokenRepo) RevokeAll(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, grant := range r.grants {
		if grant.UserID == userID {
			grant.Revoked = true
		}
	}
	return nil
}

func (r *memTokenRepo) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *memTokenRepo) activeCountFor(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, grant := range r.grants {
		if grant.UserID == userID && !grant.Revoked {
			count++
		}
	}
	return count
}

type memMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *memMailer) Enqueue(msg mail.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *memMailer) last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return mail.Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

type testStack struct {
	users   *memUserRepo
	grants  *memTokenRepo
	mailer  *memMailer
	tokens  *auth.TokenService
	service *Service
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	codec, err := sec.NewTokenCodec("test-secret-please-rotate", "HS256", "velora.shop", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	users := newMemUserRepo()
	grants := &memTokenRepo{}
	mailer := &memMailer{}
	logger := slog.New(slog.DiscardHandler)

	tokens := auth.NewTokenService(codec, grants, users, logger)
	service := NewService(users, tokens, mailer, "https://velora.shop", logger)

	return &testStack{users: users, grants: grants, mailer: mailer, tokens: tokens, service: service}
}

func (s *testStack) seedUser(t *testing.T, email, password string) *auth.User {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	user := &auth.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       "User",
		HashedPassword: hash,
		IsActive:       true,
		IsVerified:     true,
		Role:           sec.RoleCustomer,
	}
	require.NoError(t, s.users.Create(context.Background(), user))
	return user
}

func httpStatusOf(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperr.AppError
	require.True(t, errors.As(err, &appErr), "expected an AppError, got %v", err)
	return appErr.HTTPStatus
}

// # Profile

func TestProfileReturnsAccount(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "me@velora.shop", "password123")

	got, err := stack.service.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@velora.shop", got.Email)
}

func TestProfileTreatsMissingOrInactiveAsInvalidToken(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "gone@velora.shop", "password123")

	_, err := stack.service.Profile(context.Background(), user.ID+99)
	assert.Equal(t, http.StatusUnauthorized, httpStatusOf(t, err))

	user.IsActive = false
	require.NoError(t, stack.users.Update(context.Background(), user))

	_, err = stack.service.Profile(context.Background(), user.ID)
	assert.Equal(t, http.StatusUnauthorized, httpStatusOf(t, err))
}

// # Password change

func TestRequestPasswordChangeStagesWithoutApplying(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "stage@velora.shop", "old-password-1")

	err := stack.service.RequestPasswordChange(context.Background(), user.ID, "old-password-1", "new-password-2")
	require.NoError(t, err)

	stored, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	// Old password still in force until confirmed.
	assert.True(t, sec.CheckPasswordHash("old-password-1", stored.HashedPassword))
	require.NotNil(t, stored.PasswordChange)
	assert.True(t, sec.CheckPasswordHash("new-password-2", stored.PasswordChange.PasswordHash))

	msg, ok := stack.mailer.last()
	require.True(t, ok)
	assert.Contains(t, msg.HTMLBody, "confirm-password-change?token="+stored.PasswordChange.Token)
	assert.Contains(t, msg.HTMLBody, "deny-password-change?token="+stored.PasswordChange.Token)
}

func TestRequestPasswordChangeRejectsWrongPassword(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "wrongpw@velora.shop", "password123")

	err := stack.service.RequestPasswordChange(context.Background(), user.ID, "not-it", "new-password-2")
	assert.Equal(t, http.StatusUnauthorized, httpStatusOf(t, err))

	stored, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordChange)
}

func TestConfirmPasswordChangeAppliesAndKillsSessions(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "confirm@velora.shop", "old-password-1")

	_, err := stack.tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, 1, stack.grants.activeCountFor(user.ID))

	require.NoError(t, stack.service.RequestPasswordChange(context.Background(), user.ID, "old-password-1", "new-password-2"))
	stored, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	require.NoError(t, stack.service.ConfirmPasswordChange(context.Background(), stored.PasswordChange.Token))

	final, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("new-password-2", final.HashedPassword))
	assert.Nil(t, final.PasswordChange)
	assert.Equal(t, 0, stack.grants.activeCountFor(user.ID))

	// The confirmation link is single-use.
	err = stack.service.ConfirmPasswordChange(context.Background(), stored.PasswordChange.Token)
	assert.Equal(t, http.StatusBadRequest, httpStatusOf(t, err))
}

func TestConfirmPasswordChangeRejectsExpiredToken(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "late@velora.shop", "old-password-1")

	require.NoError(t, stack.service.RequestPasswordChange(context.Background(), user.ID, "old-password-1", "new-password-2"))
	stored, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	stack.service.now = func() time.Time { return time.Now().Add(auth.PasswordChangeTTL + time.Minute) }
	defer func() { stack.service.now = time.Now }()

	err = stack.service.ConfirmPasswordChange(context.Background(), stored.PasswordChange.Token)
	assert.Equal(t, http.StatusBadRequest, httpStatusOf(t, err))

	// The old password survives a failed confirmation.
	final, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("old-password-1", final.HashedPassword))
}

func TestDenyPasswordChangeWorksEvenAfterExpiry(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "deny@velora.shop", "old-password-1")

	// A live session that may belong to whoever requested the change.
	_, err := stack.tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, stack.service.RequestPasswordChange(context.Background(), user.ID, "old-password-1", "new-password-2"))
	stored, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)

	// Deny is honored long after the confirmation window closed.
	stack.service.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	defer func() { stack.service.now = time.Now }()

	require.NoError(t, stack.service.DenyPasswordChange(context.Background(), stored.PasswordChange.Token))

	final, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, final.PasswordChange)
	assert.True(t, sec.CheckPasswordHash("old-password-1", final.HashedPassword))

	// The requester may have been an attacker holding a session; denial
	// logs everyone out.
	assert.Equal(t, 0, stack.grants.activeCountFor(user.ID))

	msg, ok := stack.mailer.last()
	require.True(t, ok)
	assert.Contains(t, msg.Subject, "Security alert")
}

func TestDenyPasswordChangeUnknownToken(t *testing.T) {
	stack := newTestStack(t)
	stack.seedUser(t, "nochange@velora.shop", "password123")

	err := stack.service.DenyPasswordChange(context.Background(), strings.Repeat("z", 43))
	assert.Equal(t, http.StatusBadRequest, httpStatusOf(t, err))
}

// # Deactivation

func TestDeactivateRequiresPasswordAndKillsSessions(t *testing.T) {
	stack := newTestStack(t)
	user := stack.seedUser(t, "bye@velora.shop", "password123")

	_, err := stack.tokens.IssuePair(context.Background(), user)
	require.NoError(t, err)

	err = stack.service.Deactivate(context.Background(), user.ID, "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, httpStatusOf(t, err))

	require.NoError(t, stack.service.Deactivate(context.Background(), user.ID, "password123"))

	final, err := stack.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, final.IsActive)
	assert.Equal(t, 0, stack.grants.activeCountFor(user.ID))

	// A deactivated account reads as an invalid token from then on.
	_, err = stack.service.Profile(context.Background(), user.ID)
	assert.Equal(t, http.StatusUnauthorized, httpStatusOf(t, err))
}
