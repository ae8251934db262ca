// Package middleware holds the echo middleware shared by every route
// group: bearer authentication, rate limiting, response caching,
// security headers and request logging.
package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// Context keys set by JWTAuth.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyActor  = "actor"
)

// JWTAuth validates an HS256 bearer token and stores the caller's
// identity under KeyUserID, KeyRole and KeyActor. The sub claim may be
// a JSON string or number; role must be one of user, staff or admin.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	keyFunc := func(*jwt.Token) (any, error) { return []byte(secret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				return deny(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			}
			uid, ok := subject(claims["sub"])
			if !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized", "invalid subject claim")
			}
			roleStr, _ := claims["role"].(string)
			role := model.Role(roleStr)
			if !role.Valid() {
				return deny(c, http.StatusUnauthorized, "unauthorized", "invalid role claim")
			}

			c.Set(KeyUserID, uid)
			c.Set(KeyRole, role)
			c.Set(KeyActor, model.Actor{UserID: uid, Role: role})
			return next(c)
		}
	}
}

// subject accepts "42", 42 or json.Number("42").
func subject(v any) (uint64, bool) {
	var (
		id  uint64
		err error
	)
	switch t := v.(type) {
	case string:
		id, err = strconv.ParseUint(t, 10, 64)
	case float64:
		if t <= 0 || t != float64(uint64(t)) {
			return 0, false
		}
		id = uint64(t)
	case json.Number:
		id, err = strconv.ParseUint(t.String(), 10, 64)
	default:
		return 0, false
	}
	return id, err == nil && id > 0
}

func deny(c echo.Context, status int, kind, message string) error {
	return c.JSON(status, echo.Map{"error": echo.Map{"kind": kind, "message": message}})
}
