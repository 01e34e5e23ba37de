package memory

import (
	"context"
	"sync"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/auth"
)

type SessionRepository struct {
	mu       sync.Mutex
	sessions map[string]auth.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: map[string]auth.Session{}}
}

func (r *SessionRepository) Create(_ context.Context, s auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound("session not found")
	}
	return &s, nil
}

func (r *SessionRepository) Revoke(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	s.RevokedAt = &now
	r.sessions[sessionID] = s
	return nil
}
