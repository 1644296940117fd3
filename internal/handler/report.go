package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/stats"
)

// ReportHandler serves personal statistics, the leaderboard and the
// administrator reports.
type ReportHandler struct {
	Stats *stats.Aggregator
	Now   Clock
}

func NewReportHandler(a *stats.Aggregator, now Clock) *ReportHandler {
	return &ReportHandler{Stats: a, Now: now}
}

// Me returns the caller's week, month and year totals and best day.
func (h *ReportHandler) Me(c echo.Context) error {
	ps, err := h.Stats.PersonalStats(c.Request().Context(), middleware.MemberID(c), h.Now())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ps)
}

// Leaderboard returns the top swimmers by laps.
func (h *ReportHandler) Leaderboard(c echo.Context) error {
	entries, err := h.Stats.Leaderboard(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

// Occupancy returns the ?mode= (DAILY, WEEKLY, MONTHLY) report around
// ?date= (default today).
func (h *ReportHandler) Occupancy(c echo.Context) error {
	ref, err := dateParam(c, "date", h.Now())
	if err != nil {
		return fail(c, err)
	}
	mode := stats.ParseMode(c.QueryParam("mode"))
	if c.QueryParam("mode") == "" {
		mode = stats.Daily
	}
	rep, err := h.Stats.OccupancyReport(c.Request().Context(), mode, ref)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Weekdays returns confirmed head counts per operating weekday between
// ?from= and ?to=.
func (h *ReportHandler) Weekdays(c echo.Context) error {
	from, to, err := h.window(c)
	if err != nil {
		return fail(c, err)
	}
	counts, err := h.Stats.Weekdays(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, counts)
}

// ExportCSV streams attendance between ?from= and ?to= as CSV.
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	from, to, err := h.window(c)
	if err != nil {
		return fail(c, err)
	}
	ss, err := h.Stats.ExportRows(c.Request().Context(), from, to)
	if err != nil {
		return fail(c, err)
	}
	name := fmt.Sprintf("attendance_%s_%s.csv", model.FormatDate(from), model.FormatDate(to))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return stats.WriteCSV(c.Response(), ss, h.Now().Location())
}

func (h *ReportHandler) window(c echo.Context) (time.Time, time.Time, error) {
	now := h.Now()
	from, err := requiredDate(c, "from", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := requiredDate(c, "to", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperr.New(apperr.Validation, "to must not be before from")
	}
	return from, to, nil
}
