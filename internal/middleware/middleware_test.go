package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/config"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authed(t *testing.T, token string) (*echo.Echo, *httptest.ResponseRecorder, *model.Actor) {
	t.Helper()
	e := echo.New()
	var got model.Actor
	e.GET("/me", func(c echo.Context) error {
		a, ok := ActorFrom(c)
		require.True(t, ok)
		got = a
		return c.NoContent(http.StatusNoContent)
	}, JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return e, rec, &got
}

func TestJWTAuthAcceptsStringAndNumericSubject(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	for _, sub := range []any{"42", 42} {
		_, rec, actor := authed(t, sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "role": "staff", "exp": exp}))
		require.Equal(t, http.StatusNoContent, rec.Code, "sub=%v", sub)
		assert.Equal(t, model.Actor{UserID: 42, Role: model.RoleStaff}, *actor)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	cases := map[string]string{
		"missing":     "",
		"garbage":     "not-a-jwt",
		"expired":     sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no expiry":   sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "admin"}),
		"bad role":    sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1", "role": "root", "exp": exp}),
		"bad subject": sign(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "abc", "role": "user", "exp": exp}),
		"wrong alg":   sign(t, jwt.SigningMethodHS512, jwt.MapClaims{"sub": "1", "role": "user", "exp": exp}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, rec, _ := authed(t, tok)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)
		})
	}
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	rdb := newRedis(t)
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour, TTL: 5 * time.Hour, KeyStrategy: "ip", Prefix: "rl"}

	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") }, NewTokenBucket(cfg, rdb, nil))

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "rate_limited")
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") }, NewTokenBucket(config.RateLimitConfig{}, nil, nil))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func cacheConfig() config.CacheConfig {
	return config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, KeyStrategy: "route_query", Prefix: "cache", MaxBodyBytes: 1 << 20}
}

func TestRedisCacheHitMissAndPurge(t *testing.T) {
	rdb := newRedis(t)
	cfg := cacheConfig()
	var calls atomic.Int32

	e := echo.New()
	read := NewRedisCache(cfg, rdb, nil)
	e.GET("/items/:id", func(c echo.Context) error {
		calls.Add(1)
		return c.JSON(http.StatusOK, echo.Map{"id": c.Param("id")})
	}, read)
	e.PUT("/items/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewCachePurge(cfg, rdb, nil))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	first := get("/items/1")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/items/1")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, echo.MIMEApplicationJSON, second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "MISS", get("/items/2").Header().Get("X-Cache"), "path is part of the key")
	assert.Equal(t, int32(2), calls.Load())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/items/1", strings.NewReader("{}")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", get("/items/1").Header().Get("X-Cache"))
}

func TestRedisCacheSkipsErrorsAndLargeBodies(t *testing.T) {
	rdb := newRedis(t)
	cfg := cacheConfig()
	cfg.MaxBodyBytes = 8

	e := echo.New()
	e.GET("/big", func(c echo.Context) error { return c.String(http.StatusOK, strings.Repeat("x", 64)) }, NewRedisCache(cfg, rdb, nil))
	e.GET("/missing", func(c echo.Context) error { return c.String(http.StatusNotFound, "no") }, NewRedisCache(cfg, rdb, nil))

	for _, path := range []string{"/big", "/missing"} {
		for range 2 {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), path)
		}
	}
	big := httptest.NewRecorder()
	e.ServeHTTP(big, httptest.NewRequest(http.MethodGet, "/big", nil))
	assert.Len(t, big.Body.String(), 64, "client still gets the full body")
}

func TestSecureHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecureHeaders(false))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequestIDIsGenerated(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
