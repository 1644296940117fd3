package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/booking"
	"github.com/iliyamo/pool-reservation/internal/ledger"
	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// ReservationReader is the reservation lookup the HTTP layer uses.
type ReservationReader interface {
	GetByID(ctx context.Context, id string) (model.Reservation, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
}

// BookingHandler serves availability, admission and admin booking
// management.
type BookingHandler struct {
	Bookings     *booking.Service
	Ledger       *ledger.Ledger
	Reservations ReservationReader
	Members      MemberStore
	Now          Clock
}

// NewBookingHandler panics if any dependency is nil.
func NewBookingHandler(svc *booking.Service, l *ledger.Ledger, rs ReservationReader, ms MemberStore, now Clock) *BookingHandler {
	if svc == nil || l == nil || rs == nil || ms == nil || now == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: svc, Ledger: l, Reservations: rs, Members: ms, Now: now}
}

type bookingReq struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartHour int    `json:"start_hour" validate:"min=0,max=23"`
	Duration  int    `json:"duration" validate:"required,min=1,max=24"`
	HeadCount int    `json:"head_count" validate:"required,min=1"`
	// MemberID lets an administrator book on behalf of a member.
	MemberID string `json:"member_id" validate:"omitempty,max=36"`
}

type createBookingReq struct {
	bookingReq
	BookingCode string `json:"booking_code" validate:"omitempty,max=32"`
}

type bookingResp struct {
	BookingCode  string              `json:"booking_code"`
	Lanes        []int               `json:"lanes"`
	Reservations []model.Reservation `json:"reservations"`
}

// Slots lists per-hour availability for ?date= (default today).
func (h *BookingHandler) Slots(c echo.Context) error {
	now := h.Now()
	date, err := dateParam(c, "date", now)
	if err != nil {
		return fail(c, err)
	}
	slots, err := h.Ledger.Slots(c.Request().Context(), date)
	if err != nil {
		return fail(c, apperr.Storage(err))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":  model.FormatDate(date),
		"open":  len(slots) > 0,
		"slots": slots,
	})
}

// Validate runs pre-validation and returns the lanes and code the booking
// would get, without writing anything.
func (h *BookingHandler) Validate(c echo.Context) error {
	var req bookingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	breq, err := h.request(ctx, c, req)
	if err != nil {
		return fail(c, err)
	}
	t, err := h.Bookings.PreValidate(ctx, breq)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Create pre-validates and commits a booking. A booking_code obtained from
// Validate is kept when it still matches the date and start hour.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	breq, err := h.request(ctx, c, req.bookingReq)
	if err != nil {
		return fail(c, err)
	}
	t, err := h.Bookings.PreValidate(ctx, breq)
	if err != nil {
		return fail(c, err)
	}
	if code := strings.ToUpper(strings.TrimSpace(req.BookingCode)); code != "" {
		if !h.Bookings.CodeMatches(code, breq) {
			return fail(c, apperr.New(apperr.Validation, "booking_code does not match date and start hour"))
		}
		t.Code = code
	}
	recs, err := h.Bookings.Commit(ctx, breq, t)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, bookingResp{BookingCode: t.Code, Lanes: t.Lanes, Reservations: recs})
}

// Mine lists the caller's reservations.
func (h *BookingHandler) Mine(c echo.Context) error {
	rs, err := h.Reservations.ListByUser(c.Request().Context(), middleware.MemberID(c))
	if err != nil {
		return fail(c, apperr.Storage(err))
	}
	return c.JSON(http.StatusOK, rs)
}

// ListByDate lists every reservation of ?date= for administrators.
func (h *BookingHandler) ListByDate(c echo.Context) error {
	date, err := dateParam(c, "date", h.Now())
	if err != nil {
		return fail(c, err)
	}
	rs, err := h.Reservations.ListByDate(c.Request().Context(), date)
	if err != nil {
		return fail(c, apperr.Storage(err))
	}
	return c.JSON(http.StatusOK, rs)
}

// Cancel cancels one reservation-hour.
func (h *BookingHandler) Cancel(c echo.Context) error {
	ev, err := h.Bookings.Cancel(c.Request().Context(), c.Param("id"), h.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": ev.ReservationID,
		"status":         model.StatusCancelled,
		"notified":       ev.OwnerContact != "",
	})
}

// Purge hard-deletes one reservation-hour and its attendance.
func (h *BookingHandler) Purge(c echo.Context) error {
	if err := h.Bookings.Purge(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// request resolves the booking owner and rejects hours that have already
// started on past dates or earlier today.
func (h *BookingHandler) request(ctx context.Context, c echo.Context, req bookingReq) (booking.Request, error) {
	now := h.Now()
	date, err := model.ParseDate(req.Date, now.Location())
	if err != nil {
		return booking.Request{}, apperr.New(apperr.Validation, "date must be YYYY-MM-DD")
	}
	today := model.DateOf(now)
	if date.Before(today) || (date.Equal(today) && req.StartHour < now.Hour()) {
		return booking.Request{}, apperr.New(apperr.Validation, "cannot book an hour in the past")
	}

	ownerID := middleware.MemberID(c)
	if req.MemberID != "" && req.MemberID != ownerID {
		if middleware.RoleOf(c) != model.RoleAdmin {
			return booking.Request{}, apperr.New(apperr.Forbidden, "only administrators book for other members")
		}
		ownerID = req.MemberID
	}
	m, err := h.Members.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return booking.Request{}, apperr.New(apperr.Validation, "unknown member")
		}
		return booking.Request{}, apperr.Storage(err)
	}
	return booking.Request{
		Date:      date,
		StartHour: req.StartHour,
		Duration:  req.Duration,
		HeadCount: req.HeadCount,
		UserID:    m.ID,
		UserName:  m.FullName,
		Role:      m.Role,
	}, nil
}
