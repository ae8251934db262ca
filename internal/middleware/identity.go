package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

// ActorFrom returns the identity JWTAuth stored on the context.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	a, ok := c.Get(KeyActor).(model.Actor)
	return a, ok && a.UserID != 0
}

// userID renders the caller for rate-limit keys and logs; unauthenticated
// requests are "anon".
func userID(c echo.Context) string {
	if a, ok := ActorFrom(c); ok {
		return strconv.FormatUint(a.UserID, 10)
	}
	return "anon"
}
