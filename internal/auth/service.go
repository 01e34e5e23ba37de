package auth

import (
	"context"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/domain/user"
	"golang.org/x/crypto/sha3"
)

type Session struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	RefreshTokenHash string     `json:"refreshTokenHash"`
	UserAgent        string     `json:"userAgent"`
	IPAddress        string     `json:"ipAddress"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Revoke(ctx context.Context, sessionID string) error
}

type UserDirectory interface {
	Sync(ctx context.Context, in user.SyncInput) (*user.Entity, bool, error)
	GetByID(ctx context.Context, id string) (*user.Entity, error)
}

type Service struct {
	sessions   SessionRepository
	users      UserDirectory
	jwt        *JWTManager
	verifier   IdentityVerifier
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	User         *user.Entity
}

func NewService(sessions SessionRepository, users UserDirectory, jwt *JWTManager, verifier IdentityVerifier, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		sessions:   sessions,
		users:      users,
		jwt:        jwt,
		verifier:   verifier,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login exchanges a provider ID token for a session. The verified email is
// synced into the user directory without touching the stored role.
func (s *Service) Login(ctx context.Context, idToken, userAgent, ipAddress string) (*AuthTokens, error) {
	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindUnauthorized, Message: "authentication failed", Err: err}
	}
	if strings.TrimSpace(identity.Email) == "" {
		return nil, apperr.Unauthorized("identity has no email")
	}
	if !identity.EmailVerified {
		return nil, apperr.Unauthorized("identity email is not verified")
	}

	u, _, err := s.users.Sync(ctx, user.SyncInput{
		Email:    identity.Email,
		Name:     identity.Name,
		PhotoURL: identity.Picture,
		Caller:   identity.Email,
	})
	if err != nil {
		return nil, err
	}
	if u.Suspended {
		return nil, apperr.Forbidden("account suspended")
	}

	return s.createSessionAndTokens(ctx, u, userAgent, ipAddress)
}

// Refresh rotates a refresh token. The old session is revoked and the user
// is reloaded so role changes take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*AuthTokens, error) {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	if claims.Type != TokenTypeRefresh {
		return nil, apperr.Unauthorized("invalid token type")
	}

	session, err := s.sessions.Get(ctx, claims.SessionID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("session not found")
	}
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, apperr.Unauthorized("session revoked")
	}
	if s.now().After(session.ExpiresAt) {
		return nil, apperr.Unauthorized("session expired")
	}
	if session.RefreshTokenHash != hashToken(refreshToken) {
		return nil, apperr.Unauthorized("refresh token mismatch")
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if u.Suspended {
		return nil, apperr.Forbidden("account suspended")
	}

	return s.createSessionAndTokens(ctx, u, userAgent, ipAddress)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil
	}
	if claims.Type != TokenTypeRefresh || claims.SessionID == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, claims.SessionID)
}

func (s *Service) Me(ctx context.Context, userID string) (*user.Entity, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) createSessionAndTokens(ctx context.Context, u *user.Entity, userAgent, ipAddress string) (*AuthTokens, error) {
	principal := Principal{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
	sessionID := uuid.NewString()

	accessToken, err := s.jwt.Mint(principal, sessionID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.Mint(principal, sessionID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.sessions.Create(ctx, Session{
		ID:               sessionID,
		UserID:           u.ID,
		RefreshTokenHash: hashToken(refreshToken),
		UserAgent:        userAgent,
		IPAddress:        ipAddress,
		ExpiresAt:        now.Add(s.refreshTTL),
		CreatedAt:        now,
	}); err != nil {
		return nil, err
	}

	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken, SessionID: sessionID, User: u}, nil
}

func hashToken(raw string) string {
	sum := sha3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func ClientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
