// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/velora/velora/internal/platform/mail"
	"github.com/velora/velora/internal/platform/sec"
)

// In-memory repository fakes shared by the service and token tests.

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, users: make(map[int64]*User)}
}

func (r *memUserRepo) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepo) FindByPasswordResetToken(_ context.Context, token string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordReset != nil && user.PasswordReset.Token == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepo) FindByPasswordChangeToken(_ context.Context, token string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.PasswordChange != nil && user.PasswordChange.Token == token {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	grants map[string]*RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{nextID: 1, grants: make(map[string]*RefreshToken)}
}

func (r *memTokenRepo) Save(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token.ID = r.nextID
	r.nextID++
	token.CreatedAt = time.Now()

	clone := *token
	r.grants[token.TokenHash] = &clone
	return nil
}

func (r *memTokenRepo) FindActive(_ context.Context, tokenHash string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	grant, ok := r.grants[tokenHash]
	if !ok || grant.Revoked {
		return nil, ErrTokenNotFound
	}
	clone := *grant
	return &clone, nil
}

func (r *memTokenRepo) Revoke(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if grant, ok := r.grants[tokenHash]; ok {
		grant.Revoked = true
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
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for hash, grant := range r.grants {
		if grant.ExpiresAt.Before(cutoff) {
			delete(r.grants, hash)
			deleted++
		}
	}
	return deleted, nil
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

type memLimiter struct {
	mu       sync.Mutex
	attempts map[string]int
	limit    int
}

func newMemLimiter(limit int) *memLimiter {
	return &memLimiter{attempts: make(map[string]int), limit: limit}
}

func (l *memLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.attempts[key]++
	return l.attempts[key] <= l.limit, nil
}

func (l *memLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, key)
	return nil
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

func (m *memMailer) sentTo(address string) []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []mail.Message
	for _, msg := range m.messages {
		if msg.To == address {
			out = append(out, msg)
		}
	}
	return out
}

// testStack bundles a fully wired service graph on in-memory fakes.
type testStack struct {
	users   *memUserRepo
	grants  *memTokenRepo
	limiter *memLimiter
	mailer  *memMailer
	codec   *sec.TokenCodec
	tokens  *TokenService
	service *Service
}

func newTestStack(t interface{ Fatalf(string, ...any) }) *testStack {
	codec, err := sec.NewTokenCodec("test-secret-please-rotate", "HS256", "velora.shop", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	users := newMemUserRepo()
	grants := newMemTokenRepo()
	limiter := newMemLimiter(MaxVerifyAttempts)
	mailer := &memMailer{}
	logger := slog.New(slog.DiscardHandler)

	tokens := NewTokenService(codec, grants, users, logger)
	service := NewService(users, tokens, limiter, mailer, "https://velora.shop", logger)

	return &testStack{
		users:   users,
		grants:  grants,
		limiter: limiter,
		mailer:  mailer,
		codec:   codec,
		tokens:  tokens,
		service: service,
	}
}

// mustRegisterVerified creates an account and short-circuits verification.
func (s *testStack) mustRegisterVerified(t interface{ Fatalf(string, ...any) }, email, password string) *User {
	user, err := s.service.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user.IsVerified = true
	user.Verification = nil
	if err := s.users.Update(context.Background(), user); err != nil {
		t.Fatalf("mark verified: %v", err)
	}
	return user
}
