// Package redis stores auth sessions in Redis so any store driver can back
// the rest of the data.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/auth"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "loanlink:session"

type SessionRepository struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewSessionRepository(client goredis.UniversalClient) *SessionRepository {
	return &SessionRepository{
		client: client,
		prefix: defaultPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *SessionRepository) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

// Create stores the session until it expires.
func (r *SessionRepository) Create(ctx context.Context, s auth.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return apperr.Validation("session already expired")
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.ID), payload, ttl).Err(); err != nil {
		return apperr.Upstream("store session", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*auth.Session, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, apperr.NotFound("session not found")
	}
	if err != nil {
		return nil, apperr.Upstream("load session", err)
	}
	var s auth.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperr.Upstream("decode session", err)
	}
	return &s, nil
}

// Revoke marks the session revoked and keeps it until its original expiry so
// a replayed refresh token is still recognised.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	s, err := r.Get(ctx, sessionID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.RevokedAt != nil {
		return nil
	}
	now := r.now()
	s.RevokedAt = &now
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(sessionID), payload, goredis.KeepTTL).Err(); err != nil {
		return apperr.Upstream("revoke session", err)
	}
	return nil
}
