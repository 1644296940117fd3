package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/attendance"
	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// AttendanceHandler serves check-in, check-out and the front-desk board.
type AttendanceHandler struct {
	Tracker      *attendance.Tracker
	Reservations ReservationReader
	Now          Clock
}

func NewAttendanceHandler(t *attendance.Tracker, rs ReservationReader, now Clock) *AttendanceHandler {
	return &AttendanceHandler{Tracker: t, Reservations: rs, Now: now}
}

type checkOutReq struct {
	Laps *int `json:"laps" validate:"required,min=0"`
}

// CheckIn records arrival for a reservation-hour.
func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	id := c.Param("id")
	if err := h.authorize(c, id); err != nil {
		return fail(c, err)
	}
	rec, err := h.Tracker.CheckIn(c.Request().Context(), id, h.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// CheckOut records departure and laps.
func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	id := c.Param("id")
	var req checkOutReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	if err := h.authorize(c, id); err != nil {
		return fail(c, err)
	}
	rec, err := h.Tracker.CheckOut(c.Request().Context(), id, *req.Laps, h.Now())
	if err != nil {
		return fail(c, err)
	}
	minutes, _ := rec.DurationMinutes()
	return c.JSON(http.StatusOK, echo.Map{
		"attendance":       rec,
		"duration_minutes": minutes,
		"meters":           rec.DistanceMeters(),
	})
}

// Today lists today's confirmed reservations with their attendance state.
func (h *AttendanceHandler) Today(c echo.Context) error {
	entries, err := h.Tracker.Board(c.Request().Context(), model.DateOf(h.Now()))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// authorize lets administrators act on any reservation and members on
// their own. Unknown ids pass through so the tracker reports them.
func (h *AttendanceHandler) authorize(c echo.Context, id string) error {
	if middleware.RoleOf(c) == model.RoleAdmin {
		return nil
	}
	r, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return nil
		}
		return apperr.Storage(err)
	}
	if r.UserID != middleware.MemberID(c) {
		return apperr.New(apperr.Forbidden, "reservation belongs to another member")
	}
	return nil
}
