// Package session keeps login sessions and one-time codes in Redis.
package session

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = apperr.Unauthorized("Invalid or expired session")
	ErrCodeMismatch    = apperr.Invalid("code", "Invalid code")
	ErrCodeExpired     = apperr.Invalid("code", "Code expired or was never requested")
	ErrTooManyAttempts = apperr.Forbidden("Too many attempts, request a new code")
)

// Purpose separates codes issued for different flows.
type Purpose string

const (
	PurposeLogin Purpose = "login"
	PurposeReset Purpose = "reset"
)

// Session is what a logged-in request resolves to.
type Session struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Email     string              `json:"email"`
	Category  models.UserCategory `json:"category"`
	CreatedAt time.Time           `json:"created_at"`
}

// NewClient returns a Redis client with short network timeouts.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type Store struct {
	client  *redis.Client
	ttl     time.Duration
	newCode func() (string, error)
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, newCode: randomCode}
}

// TTL is how long a session lives.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Create opens a new session for u.
func (s *Store) Create(ctx context.Context, u *models.User) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		Category:  u.Category,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session failed: %w", err)
	}

	userKey := fmt.Sprintf(keyUserSessions, u.ID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, fmt.Sprintf(keySession, sess.ID), data, s.ttl)
		p.SAdd(ctx, userKey, sess.ID)
		p.Expire(ctx, userKey, s.ttl)
		return nil
	})
	if err != nil {
		return nil, apperr.Unavailable("session.Create", err)
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(keySession, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("session.Get", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &sess, nil
}

// Delete ends one session. Deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, fmt.Sprintf(keySession, id))
		p.SRem(ctx, fmt.Sprintf(keyUserSessions, sess.UserID), id)
		return nil
	})
	if err != nil {
		return apperr.Unavailable("session.Delete", err)
	}
	return nil
}

// RevokeAll ends every session of the user.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	userKey := fmt.Sprintf(keyUserSessions, userID)
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return apperr.Unavailable("session.RevokeAll", err)
	}

	keys := []string{userKey}
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf(keySession, id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return apperr.Unavailable("session.RevokeAll", err)
	}
	return nil
}

// IssueCode stores a fresh 6 digit code for (purpose, email), replacing any
// earlier one, and returns it.
func (s *Store) IssueCode(ctx context.Context, purpose Purpose, email string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, fmt.Sprintf(keyCode, purpose, email), code, TTLCode)
		p.Del(ctx, fmt.Sprintf(keyCodeAttempts, purpose, email))
		return nil
	})
	if err != nil {
		return "", apperr.Unavailable("session.IssueCode", err)
	}
	return code, nil
}

// VerifyCode checks code for (purpose, email). With consume set, a correct
// code is deleted so it cannot be used again.
func (s *Store) VerifyCode(ctx context.Context, purpose Purpose, email, code string, consume bool) error {
	codeKey := fmt.Sprintf(keyCode, purpose, email)
	attemptsKey := fmt.Sprintf(keyCodeAttempts, purpose, email)

	stored, err := s.client.Get(ctx, codeKey).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return apperr.Unavailable("session.VerifyCode", err)
	}

	if stored != code {
		attempts, err := s.client.Incr(ctx, attemptsKey).Result()
		if err != nil {
			return apperr.Unavailable("session.VerifyCode", err)
		}
		s.client.Expire(ctx, attemptsKey, TTLCode)
		if attempts >= MaxCodeAttempts {
			s.client.Del(ctx, codeKey, attemptsKey)
			return ErrTooManyAttempts
		}
		return ErrCodeMismatch
	}

	if consume {
		if err := s.client.Del(ctx, codeKey, attemptsKey).Err(); err != nil {
			return apperr.Unavailable("session.VerifyCode", err)
		}
	}
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
