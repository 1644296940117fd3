package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/pool-reservation/internal/apperr"
)

// MemberHandler serves the front-desk member directory and account lookup.
type MemberHandler struct {
	Members MemberStore
}

func NewMemberHandler(ms MemberStore) *MemberHandler { return &MemberHandler{Members: ms} }

// Status looks a member up by ?phone= and reports whether the account
// exists, with its payment status for display.
func (h *MemberHandler) Status(c echo.Context) error {
	phone := strings.TrimSpace(c.QueryParam("phone"))
	if phone == "" {
		return fail(c, apperr.New(apperr.Validation, "phone is required"))
	}
	m, err := h.Members.GetByPhone(c.Request().Context(), phone)
	if errors.Is(err, apperr.ErrNoRecord) {
		return c.JSON(http.StatusOK, echo.Map{"exists": false})
	}
	if err != nil {
		return fail(c, apperr.Storage(err))
	}
	return c.JSON(http.StatusOK, echo.Map{"exists": true, "member": m})
}

// List returns the member directory for the front desk.
func (h *MemberHandler) List(c echo.Context) error {
	ms, err := h.Members.List(c.Request().Context())
	if err != nil {
		return fail(c, apperr.Storage(err))
	}
	return c.JSON(http.StatusOK, ms)
}
