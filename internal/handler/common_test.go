package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/middleware"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

func newContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestStatusOf(t *testing.T) {
	cases := map[service.Kind]int{
		service.KindValidation:           http.StatusBadRequest,
		service.KindNotFound:             http.StatusNotFound,
		service.KindForbidden:            http.StatusForbidden,
		service.KindUnauthorized:         http.StatusUnauthorized,
		service.KindInvalidTransition:    http.StatusConflict,
		service.KindInvalidState:         http.StatusConflict,
		service.KindConflict:             http.StatusConflict,
		service.KindDuplicateTransaction: http.StatusConflict,
		service.KindOverpayment:          http.StatusUnprocessableEntity,
		"":                               http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equalf(t, want, statusOf(kind), "kind %q", kind)
	}
}

func TestFailHidesInternalErrors(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	var logged strings.Builder
	log := slog.New(slog.NewTextHandler(&logged, nil))

	require.NoError(t, fail(c, log, errors.New("dial tcp 10.0.0.5:3306: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"kind":"internal","message":"internal server error"}}`, rec.Body.String())
	assert.Contains(t, logged.String(), "connection refused")
}

func TestFailWritesBusinessErrors(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	err := &service.Error{Kind: service.KindOverpayment, Message: "amount exceeds balance"}
	require.NoError(t, fail(c, slog.New(slog.NewTextHandler(io.Discard, nil)), err))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":{"kind":"overpayment","message":"amount exceeds balance"}}`, rec.Body.String())
}

func TestGetActor(t *testing.T) {
	c, _ := newContext(http.MethodGet, "")
	_, err := getActor(c)
	assert.Error(t, err)

	c.Set(middleware.KeyActor, model.Actor{UserID: 4, Role: model.RoleStaff})
	a, err := getActor(c)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{UserID: 4, Role: model.RoleStaff}, a)

	c, _ = newContext(http.MethodGet, "")
	c.Set(middleware.KeyUserID, "9")
	c.Set(middleware.KeyRole, "user")
	a, err = getActor(c)
	require.NoError(t, err)
	assert.Equal(t, model.Actor{UserID: 9, Role: model.RoleUser}, a)

	c.Set(middleware.KeyRole, "root")
	_, err = getActor(c)
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("2031-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseTime("2031-06-01T12:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2031, 6, 1, 10, 30, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())

	_, err = parseTime("01/06/2031")
	assert.Error(t, err)
}

func TestBindReportsJSONFieldNames(t *testing.T) {
	c, _ := newContext(http.MethodPost, `{"bookingId": 3, "taxRate": 150}`)
	var body quoteInvoiceRequest
	assert.Equal(t, "taxRate failed lte=100", bind(c, &body))

	c, _ = newContext(http.MethodPost, `{"bookingId": "three"}`)
	assert.Equal(t, "invalid request body", bind(c, &body))

	c, _ = newContext(http.MethodPost, `{"bookingId": 3, "taxRate": 18}`)
	assert.Empty(t, bind(c, &body))
	assert.Equal(t, 18.0, body.TaxRate)
}

func TestListNeverRendersNull(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	require.NoError(t, c.JSON(http.StatusOK, list[model.Payment](nil)))
	assert.JSONEq(t, `{"items":[]}`, rec.Body.String())
}
