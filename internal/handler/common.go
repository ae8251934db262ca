// Package handler adapts the service layer to HTTP. Handlers bind and
// validate the request, pull the caller's identity from the context set
// by middleware.JWTAuth and translate service errors into status codes.
package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/middleware"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error { return cv.v.Struct(i) }

// errorBody is the JSON shape of every failed response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(c echo.Context, status int, kind service.Kind, msg string) error {
	return c.JSON(status, errorBody{Error: errorDetail{Kind: string(kind), Message: msg}})
}

func badRequest(c echo.Context, format string, args ...any) error {
	return writeError(c, http.StatusBadRequest, service.KindValidation, fmt.Sprintf(format, args...))
}

// statusOf maps a business error kind to its HTTP status.
func statusOf(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindInvalidTransition, service.KindInvalidState, service.KindConflict, service.KindDuplicateTransaction:
		return http.StatusConflict
	case service.KindOverpayment:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Anything that is not a service.Error
// is logged and reported as a generic 500.
func fail(c echo.Context, log *slog.Logger, err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return writeError(c, statusOf(se.Kind), se.Kind, se.Message)
	}
	log.ErrorContext(c.Request().Context(), "request failed",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.Any("error", err),
	)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: errorDetail{Kind: "internal", Message: "internal server error"}})
}

// getActor extracts the authenticated caller. The actor set by JWTAuth
// is preferred; bare user_id/role values are accepted for handlers
// mounted behind a different authenticator.
func getActor(c echo.Context) (model.Actor, error) {
	if a, ok := middleware.ActorFrom(c); ok {
		return a, nil
	}
	id, err := getUserID(c)
	if err != nil {
		return model.Actor{}, err
	}
	a := model.Actor{UserID: id}
	switch r := c.Get(middleware.KeyRole).(type) {
	case model.Role:
		a.Role = r
	case string:
		a.Role = model.Role(r)
	}
	if !a.Role.Valid() {
		return model.Actor{}, errors.New("invalid role in context")
	}
	return a, nil
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.KeyUserID).(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

func unauthorized(c echo.Context) error {
	return writeError(c, http.StatusUnauthorized, service.KindUnauthorized, "unauthorized")
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bind decodes the body into dst and runs struct validation. The
// returned message is empty on success.
func bind(c echo.Context, dst any) string {
	if err := c.Bind(dst); err != nil {
		return "invalid request body"
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Param() != "" {
				return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		return err.Error()
	}
	return ""
}

// parseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates,
// which are taken as midnight UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// optionalTime parses a query parameter. Absent values yield nil.
func optionalTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// items wraps list responses.
type items[T any] struct {
	Items []T `json:"items"`
}

func list[T any](xs []T) items[T] {
	if xs == nil {
		xs = []T{}
	}
	return items[T]{Items: xs}
}
