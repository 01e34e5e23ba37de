package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/apperr"
	"github.com/loanlink/backend/internal/auth"
	"github.com/loanlink/backend/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func accessCookie(t *testing.T, jwt *auth.JWTManager, role, tokenType string) *http.Cookie {
	t.Helper()
	tok, err := jwt.Mint(auth.Principal{UserID: "u1", Email: "a@example.com", Role: role}, "s1", tokenType, time.Minute)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.AccessCookieName, Value: tok}
}

func TestRequireAuthAndRole(t *testing.T) {
	jwt := auth.NewJWTManager("iss", "aud", "key")
	r := gin.New()
	r.GET("/manager", RequireAuth(jwt, nil), RequireRole("manager", "admin"), func(c *gin.Context) {
		p, ok := Principal(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Email)
	})

	cases := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"refresh token", accessCookie(t, jwt, "manager", auth.TokenTypeRefresh), http.StatusUnauthorized},
		{"garbage", &http.Cookie{Name: auth.AccessCookieName, Value: "x.y.z"}, http.StatusUnauthorized},
		{"borrower", accessCookie(t, jwt, "borrower", auth.TokenTypeAccess), http.StatusForbidden},
		{"manager", accessCookie(t, jwt, "manager", auth.TokenTypeAccess), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/manager", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwt := auth.NewJWTManager("iss", "aud", "key")
	r := gin.New()
	r.GET("/", OptionalAuth(jwt, nil), func(c *gin.Context) {
		if p, ok := Principal(c); ok {
			c.String(http.StatusOK, p.Role)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "anonymous", w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(accessCookie(t, jwt, "admin", auth.TokenTypeAccess))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "admin", w.Body.String())
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(discardLogger()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	require.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestCORSAllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
}

type routeRecorder struct{ routes []string }

func (r *routeRecorder) ObserveHTTP(route, method, status string, _ float64) {
	r.routes = append(r.routes, method+" "+route+" "+status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &routeRecorder{}
	r := gin.New()
	r.Use(Metrics(obs))
	r.GET("/loans/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/loans/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, []string{"GET /loans/:id 200", "GET unmatched 404"}, obs.routes)
}

type stubLimiter struct {
	allow bool
	err   error
}

func (s stubLimiter) Allow(context.Context, string) (bool, error) { return s.allow, s.err }

func TestRateLimit(t *testing.T) {
	for _, tc := range []struct {
		limiter stubLimiter
		want    int
	}{
		{stubLimiter{allow: true}, http.StatusOK},
		{stubLimiter{allow: false}, http.StatusTooManyRequests},
		{stubLimiter{allow: true, err: errors.New("redis down")}, http.StatusOK},
	} {
		r := gin.New()
		r.Use(RateLimit(tc.limiter, discardLogger()))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, tc.want, w.Code)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestBodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this body is too long")))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestOriginAllowList(t *testing.T) {
	l := NewOriginAllowList([]string{" https://app.example/ ", ""})
	require.True(t, l.Allows("https://app.example"))
	require.False(t, l.Allows("https://evil.example"))
	require.False(t, l.Allows(""))
}

type userTable map[string]*user.Entity

func (t userTable) GetByID(_ context.Context, id string) (*user.Entity, error) {
	if u, ok := t[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func TestRequireAuthReloadsCaller(t *testing.T) {
	jwt := auth.NewJWTManager("iss", "aud", "key")
	users := userTable{"u1": {ID: "u1", Email: "a@example.com", Role: user.RoleManager}}
	r := gin.New()
	r.GET("/manager", RequireAuth(jwt, users), RequireRole("manager", "admin"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserRole))
	})
	r.GET("/open", OptionalAuth(jwt, users), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	serve := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(accessCookie(t, jwt, "manager", auth.TokenTypeAccess))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, serve("/manager"))

	users["u1"].Role = user.RoleBorrower
	require.Equal(t, http.StatusForbidden, serve("/manager"), "demotion applies to live tokens")

	users["u1"].Role = user.RoleManager
	users["u1"].Suspended = true
	require.Equal(t, http.StatusForbidden, serve("/manager"))
	require.Equal(t, http.StatusForbidden, serve("/open"))

	delete(users, "u1")
	require.Equal(t, http.StatusUnauthorized, serve("/manager"))
}
