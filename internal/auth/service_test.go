package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	identity *Identity
	err      error
}

func (s stubVerifier) VerifyIDToken(_ context.Context, _ string) (*Identity, error) {
	return s.identity, s.err
}

type sessionMap struct {
	mu sync.Mutex
	m  map[string]Session
}

func (s *sessionMap) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[sess.ID] = sess
	return nil
}

func (s *sessionMap) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, apperr.NotFound("session not found")
	}
	return &sess, nil
}

func (s *sessionMap) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	sess.RevokedAt = &now
	s.m[id] = sess
	return nil
}

type directory struct {
	users   map[string]*user.Entity
	callers []string
}

func (d *directory) Sync(_ context.Context, in user.SyncInput) (*user.Entity, bool, error) {
	d.callers = append(d.callers, in.Caller)
	if u, ok := d.users[in.Email]; ok {
		return u, false, nil
	}
	u := &user.Entity{ID: "u-" + in.Email, Email: in.Email, Name: in.Name, Role: user.RoleBorrower}
	d.users[in.Email] = u
	return u, true, nil
}

func (d *directory) GetByID(_ context.Context, id string) (*user.Entity, error) {
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func newAuthService(v IdentityVerifier) (*Service, *directory, *sessionMap) {
	dir := &directory{users: map[string]*user.Entity{}}
	sessions := &sessionMap{m: map[string]Session{}}
	svc := NewService(sessions, dir, NewJWTManager("loanlink", "loanlink-web", "test-key"), v, 15*time.Minute, time.Hour)
	return svc, dir, sessions
}

func TestLoginCreatesSession(t *testing.T) {
	svc, _, sessions := newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "a@example.com", EmailVerified: true, Name: "A"}})

	tokens, err := svc.Login(context.Background(), "id-token", "ua", "1.2.3.4")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "a@example.com", tokens.User.Email)

	stored, err := sessions.Get(context.Background(), tokens.SessionID)
	require.NoError(t, err)
	require.Equal(t, hashToken(tokens.RefreshToken), stored.RefreshTokenHash)
	require.Equal(t, "1.2.3.4", stored.IPAddress)
}

func TestLoginSyncsAsTheVerifiedIdentity(t *testing.T) {
	svc, dir, _ := newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "a@example.com", EmailVerified: true}})
	_, err := svc.Login(context.Background(), "id-token", "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"a@example.com"}, dir.callers)
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newAuthService(stubVerifier{err: errors.New("bad token")})
	_, err := svc.Login(context.Background(), "x", "", "")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	svc, _, _ = newAuthService(stubVerifier{identity: &Identity{Subject: "sub"}})
	_, err = svc.Login(context.Background(), "x", "", "")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	svc, _, _ = newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "u@example.com"}})
	_, err = svc.Login(context.Background(), "x", "", "")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized), "unverified email")

	svc, dir, _ := newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "s@example.com", EmailVerified: true}})
	dir.users["s@example.com"] = &user.Entity{ID: "u-s", Email: "s@example.com", Suspended: true}
	_, err = svc.Login(context.Background(), "x", "", "")
	require.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestRefreshRotatesAndPicksUpRoleChange(t *testing.T) {
	svc, dir, _ := newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "a@example.com", EmailVerified: true}})
	ctx := context.Background()
	first, err := svc.Login(ctx, "id-token", "", "")
	require.NoError(t, err)

	dir.users["a@example.com"].Role = user.RoleManager
	second, err := svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	claims, err := svc.jwt.Parse(second.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "manager", claims.Role)

	_, err = svc.Refresh(ctx, first.RefreshToken, "", "")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized), "old refresh token is revoked")

	_, err = svc.Refresh(ctx, second.AccessToken, "", "")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized), "access token cannot refresh")
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthService(stubVerifier{identity: &Identity{Subject: "sub", Email: "a@example.com", EmailVerified: true}})
	ctx := context.Background()
	tokens, err := svc.Login(ctx, "id-token", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
	stored, err := sessions.Get(ctx, tokens.SessionID)
	require.NoError(t, err)
	require.NotNil(t, stored.RevokedAt)

	require.NoError(t, svc.Logout(ctx, "garbage"))
}
