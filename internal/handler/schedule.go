package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// ScheduleHandler serves /v1/schedule and /v1/staff/:id/schedule.
type ScheduleHandler struct {
	Schedule *service.ScheduleService
	Log      *slog.Logger
}

func NewScheduleHandler(schedule *service.ScheduleService, log *slog.Logger) *ScheduleHandler {
	if schedule == nil {
		panic("nil service passed to NewScheduleHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ScheduleHandler{Schedule: schedule, Log: log}
}

type createEntryRequest struct {
	BookingID *uint64 `json:"bookingId"`
	StaffID   uint64  `json:"staffId" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Duration  int     `json:"duration" validate:"required,gt=0,lte=1440"`
	Status    string  `json:"status"`
}

type conflictResponse struct {
	Conflict  bool             `json:"conflict"`
	Conflicts []model.Schedule `json:"conflicts"`
}

// Create handles POST /v1/schedule.
func (h *ScheduleHandler) Create(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var body createEntryRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	start, err := parseTime(body.Date)
	if err != nil {
		return badRequest(c, "%s", err.Error())
	}
	status := model.ScheduleStatus(body.Status)
	if status == "" {
		status = model.ScheduleScheduled
	}
	s, err := h.Schedule.CreateEntry(c.Request().Context(), actor, service.EntryInput{
		BookingID:       body.BookingID,
		StaffID:         body.StaffID,
		StartAt:         start,
		DurationMinutes: body.Duration,
		Status:          status,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// Conflicts handles GET /v1/schedule/conflicts?staffId=&date=&duration=.
func (h *ScheduleHandler) Conflicts(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	staffID, err := strconv.ParseUint(c.QueryParam("staffId"), 10, 64)
	if err != nil || staffID == 0 {
		return badRequest(c, "staffId is required")
	}
	start, err := parseTime(c.QueryParam("date"))
	if err != nil {
		return badRequest(c, "%s", err.Error())
	}
	duration, err := strconv.Atoi(c.QueryParam("duration"))
	if err != nil || duration <= 0 {
		return badRequest(c, "duration must be a positive number of minutes")
	}
	conflict, entries, err := h.Schedule.CheckConflict(c.Request().Context(), actor, staffID, start, duration)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if entries == nil {
		entries = []model.Schedule{}
	}
	return c.JSON(http.StatusOK, conflictResponse{Conflict: conflict, Conflicts: entries})
}

// StaffSchedule handles GET /v1/staff/:id/schedule?from=&to=.
func (h *ScheduleHandler) StaffSchedule(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	staffID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid staff id")
	}
	from, err := optionalTime(c, "from")
	if err != nil {
		return badRequest(c, "%s", err.Error())
	}
	to, err := optionalTime(c, "to")
	if err != nil {
		return badRequest(c, "%s", err.Error())
	}
	entries, err := h.Schedule.ListStaffSchedule(c.Request().Context(), actor, staffID, from, to)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, list(entries))
}

// UpdateStatus handles PATCH /v1/schedule/:id/status.
func (h *ScheduleHandler) UpdateStatus(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	var body statusRequest
	if msg := bind(c, &body); msg != "" {
		return badRequest(c, "%s", msg)
	}
	s, err := h.Schedule.UpdateEntryStatus(c.Request().Context(), actor, id, model.ScheduleStatus(body.Status))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Delete handles DELETE /v1/schedule/:id.
func (h *ScheduleHandler) Delete(c echo.Context) error {
	actor, err := getActor(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid schedule id")
	}
	if err := h.Schedule.DeleteEntry(c.Request().Context(), actor, id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
