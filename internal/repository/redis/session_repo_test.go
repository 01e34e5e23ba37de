package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/auth"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionRepository(client), mr
}

func TestSessionCreateGetRevoke(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := repo.Create(ctx, auth.Session{ID: "s1", UserID: "u1", RefreshTokenHash: "h", ExpiresAt: now.Add(time.Hour), CreatedAt: now})
	require.NoError(t, err)
	require.True(t, mr.Exists("loanlink:session:s1"))
	require.InDelta(t, time.Hour.Seconds(), mr.TTL("loanlink:session:s1").Seconds(), 5)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.Nil(t, got.RevokedAt)

	require.NoError(t, repo.Revoke(ctx, "s1"))
	got, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	require.Greater(t, mr.TTL("loanlink:session:s1"), time.Duration(0))

	require.NoError(t, repo.Revoke(ctx, "missing"))
}

func TestSessionExpiresWithTTL(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, auth.Session{ID: "s2", UserID: "u1", ExpiresAt: now.Add(time.Minute), CreatedAt: now}))
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, "s2")
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSessionCreateRejectsExpired(t *testing.T) {
	repo, _ := newRepo(t)
	err := repo.Create(context.Background(), auth.Session{ID: "s3", ExpiresAt: time.Now().Add(-time.Second)})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSessionUnreachableRedisIsUpstream(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewSessionRepository(client)

	_, err := repo.Get(context.Background(), "s1")
	require.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}
