package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"artisan_storefront/internal/models"
	"artisan_storefront/internal/state"
	"artisan_storefront/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newRouter(registry *state.Registry, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{Session(NewCookieStore("0123456789abcdef0123456789abcdef", false), registry)}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"session_id": c.GetString(ContextSessionID),
			"role":       c.GetString(ContextRole),
		})
	})
	r.GET("/ping", chain...)
	return r
}

func TestSession_IssuesAndReusesCookie(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := newRouter(registry)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	assert.Empty(t, w2.Result().Cookies())
	assert.Equal(t, 1, registry.Len())
}

func loggedInSession(t *testing.T, registry *state.Registry, r *gin.Engine, token, role string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login-check", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	sid := w.Header().Get("X-Session")
	require.NotEmpty(t, sid)

	registry.Get(context.Background(), sid).DispatchAuth(context.Background(), state.LoginSucceeded{
		Session: models.AuthSession{Token: token, User: models.User{ID: "u1", Email: "a@b.in", Role: role}},
	})
	return cookies[0]
}

func authRouter(registry *state.Registry, secret []byte, extra ...gin.HandlerFunc) *gin.Engine {
	r := newRouter(registry, append([]gin.HandlerFunc{AuthRequired(secret)}, extra...)...)
	r.GET("/login-check", Session(NewCookieStore("0123456789abcdef0123456789abcdef", false), registry), func(c *gin.Context) {
		c.Header("X-Session", c.GetString(ContextSessionID))
		c.Status(http.StatusNoContent)
	})
	return r
}

func hit(r *gin.Engine, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_Anonymous(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := authRouter(registry, testSecret)

	w := hit(r, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Connexion requise")
}

func TestAuthRequired_ValidSignedToken(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := authRouter(registry, testSecret)

	token := signToken(t, jwt.MapClaims{"user_id": "u1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	cookie := loggedInSession(t, registry, r, token, "customer")

	w := hit(r, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)
}

func TestAuthRequired_ExpiredTokenLogsOut(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := authRouter(registry, nil)

	token := signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Minute).Unix()}, []byte("backend-only"))
	cookie := loggedInSession(t, registry, r, token, "customer")

	w := hit(r, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Session expirée")

	w = hit(r, cookie)
	assert.Contains(t, w.Body.String(), "Connexion requise")
}

func TestAuthRequired_BadSignature(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := authRouter(registry, testSecret)

	token := signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}, []byte("other"))
	cookie := loggedInSession(t, registry, r, token, "customer")

	assert.Equal(t, http.StatusUnauthorized, hit(r, cookie).Code)
}

func TestRequireAdmin(t *testing.T) {
	registry := state.NewRegistry(storage.NewMemoryBackend(), nil)
	r := authRouter(registry, nil, RequireAdmin)
	token := signToken(t, jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}, []byte("backend-only"))

	customer := loggedInSession(t, registry, r, token, "customer")
	assert.Equal(t, http.StatusForbidden, hit(r, customer).Code)

	admin := loggedInSession(t, registry, r, token, "admin")
	assert.Equal(t, http.StatusOK, hit(r, admin).Code)
}

func TestRateLimiter_LoginCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter := NewRateLimiter(client)

	r := gin.New()
	r.POST("/login", limiter.Login(), func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	})

	login := func() int {
		w := httptest.NewRecorder()
		body := bytes.NewBufferString(`{"email":"Asha@Example.in","password":"wrong"}`)
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", body))
		return w.Code
	}

	for i := 0; i < LoginMaxAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, login())
	}
	assert.Equal(t, http.StatusTooManyRequests, login())
	assert.True(t, mr.Exists("login_cooldown:asha@example.in"))
	assert.Equal(t, http.StatusTooManyRequests, login())
}

func TestRateLimiter_NilClientPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil)
	r := gin.New()
	r.GET("/search", limiter.Search(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < SearchMaxRequests+5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_SearchWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := gin.New()
	r.GET("/search", NewRateLimiter(client).Search(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < SearchMaxRequests; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	mr.FastForward(time.Minute + time.Second)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
