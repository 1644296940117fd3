package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pool-reservation/internal/attendance"
	"github.com/iliyamo/pool-reservation/internal/booking"
	"github.com/iliyamo/pool-reservation/internal/config"
	"github.com/iliyamo/pool-reservation/internal/handler"
	"github.com/iliyamo/pool-reservation/internal/ledger"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/router"
	"github.com/iliyamo/pool-reservation/internal/schedule"
	"github.com/iliyamo/pool-reservation/internal/stats"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

const jwtSecret = "handler-test-secret"

// Tuesday 2024-06-04, 08:30 at the facility.
var now = time.Date(2024, 6, 4, 8, 30, 0, 0, time.UTC)

var day = model.DateOf(now)

type app struct {
	e        *echo.Echo
	res      *memReservations
	att      *memAttendance
	members  *memMembers
	notifier *recordingNotifier
}

func newApp(t *testing.T) *app {
	t.Helper()
	hash, err := utils.HashPassword("ana-password", 4)
	require.NoError(t, err)

	a := &app{
		res: &memReservations{},
		members: &memMembers{byID: map[string]model.Member{
			"m-admin": {ID: "m-admin", Username: "desk", FullName: "Front Desk", Role: model.RoleAdmin},
			"m-ana":   {ID: "m-ana", Username: "ana", FullName: "Ana Ruiz", Role: model.RolePrincipal, Phone: "+525511112222", PasswordHash: hash},
			"m-luis":  {ID: "m-luis", Username: "luis", FullName: "Luis Vega", Role: model.RoleIndividual},
		}},
		notifier: &recordingNotifier{},
	}
	a.att = &memAttendance{res: a.res, recs: map[string]model.AttendanceRecord{}}

	clock := handler.Clock(func() time.Time { return now })
	policy := schedule.NewPolicy(config.DefaultSchedule())
	svc := booking.NewService(a.res, policy, a.members,
		booking.WithNotifier(a.notifier),
		booking.WithCodeSuffix(func() (string, error) { return "AB12", nil }))
	cfg := config.Config{JWTSecret: jwtSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4, Location: time.UTC}

	a.e = echo.New()
	router.Register(a.e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, a.members, &memTokens{active: map[string]string{}}, clock),
		Bookings:   handler.NewBookingHandler(svc, ledger.New(a.res, policy), a.res, a.members, clock),
		Attendance: handler.NewAttendanceHandler(attendance.NewTracker(a.res, a.att), a.res, clock),
		Reports:    handler.NewReportHandler(stats.NewAggregator(a.att, policy), clock),
		Members:    handler.NewMemberHandler(a.members),
		Health:     handler.Health(nil),
	}, router.Guards{}, jwtSecret)
	return a
}

func (a *app) seed(id, userID string, hour, heads int) {
	m := a.members.byID[userID]
	a.res.rows = append(a.res.rows, model.Reservation{
		ID: id, UserID: userID, UserName: m.FullName, Role: m.Role, Date: day, Hour: hour,
		HeadCount: heads, Status: model.StatusConfirmed, Lanes: []int{1}, Code: "ALB-20240604-08-ZZ99",
	})
}

func token(t *testing.T, memberID string, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(jwtSecret, memberID, string(role), time.Hour, time.Now())
	require.NoError(t, err)
	return tok.Token
}

func (a *app) do(t *testing.T, method, target, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingBody(hour, duration, heads int) map[string]interface{} {
	return map[string]interface{}{"date": "2024-06-04", "start_hour": hour, "duration": duration, "head_count": heads}
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSlots(t *testing.T) {
	a := newApp(t)
	a.seed("r-1", "m-ana", 9, 12)
	rec := a.do(t, http.MethodGet, "/v1/slots?date=2024-06-04", token(t, "m-luis", model.RoleIndividual), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Open  bool          `json:"open"`
		Slots []ledger.Slot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Open)
	require.Len(t, body.Slots, 15)
	assert.Equal(t, 9, body.Slots[4].Hour)
	assert.Equal(t, 38, body.Slots[4].Remaining)
	assert.Equal(t, 3, body.Slots[4].NextLane)

	rec = a.do(t, http.MethodGet, "/v1/slots?date=2024-06-03", token(t, "m-luis", model.RoleIndividual), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["open"])

	rec = a.do(t, http.MethodGet, "/v1/slots?date=June", token(t, "m-luis", model.RoleIndividual), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateThenCreateKeepsCode(t *testing.T) {
	a := newApp(t)
	tok := token(t, "m-ana", model.RolePrincipal)

	rec := a.do(t, http.MethodPost, "/v1/bookings/validate", tok, bookingBody(9, 2, 3))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ticket := decode(t, rec)
	assert.Equal(t, "ALB-20240604-09-AB12", ticket["booking_code"])
	assert.Equal(t, []interface{}{float64(1)}, ticket["lanes"])
	assert.Empty(t, a.res.rows)

	body := bookingBody(9, 2, 3)
	body["booking_code"] = "ALB-20240604-09-XY77"
	rec = a.do(t, http.MethodPost, "/v1/bookings", tok, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "ALB-20240604-09-XY77", out["booking_code"])
	assert.Len(t, out["reservations"], 2)

	require.Len(t, a.res.rows, 2)
	for _, r := range a.res.rows {
		assert.Equal(t, "Ana Ruiz", r.UserName)
		assert.Equal(t, model.RolePrincipal, r.Role)
		assert.Equal(t, "ALB-20240604-09-XY77", r.Code)
	}

	rec = a.do(t, http.MethodGet, "/v1/my-reservations", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 2)
	assert.Equal(t, "2024-06-04", mine[0]["date"])
}

func TestCreateRejectsForeignCode(t *testing.T) {
	a := newApp(t)
	body := bookingBody(9, 1, 1)
	body["booking_code"] = "ALB-20240605-09-AB12"
	rec := a.do(t, http.MethodPost, "/v1/bookings", token(t, "m-ana", model.RolePrincipal), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, a.res.rows)
}

func TestBookingRuleErrors(t *testing.T) {
	cases := []struct {
		name   string
		member string
		role   model.Role
		body   map[string]interface{}
		status int
		code   string
	}{
		{"past hour today", "m-ana", model.RolePrincipal, bookingBody(7, 1, 1), http.StatusBadRequest, "VALIDATION"},
		{"zero heads", "m-ana", model.RolePrincipal, bookingBody(9, 1, 0), http.StatusBadRequest, "VALIDATION"},
		{"privileged hour", "m-luis", model.RoleIndividual, bookingBody(15, 1, 1), http.StatusBadRequest, "PRIVILEGED_HOUR"},
		{"past closing", "m-ana", model.RolePrincipal, bookingBody(19, 2, 1), http.StatusBadRequest, "PAST_CLOSING"},
		{"closed day", "m-ana", model.RolePrincipal,
			map[string]interface{}{"date": "2024-06-09", "start_hour": 9, "duration": 1, "head_count": 1},
			http.StatusBadRequest, "CLOSED_DAY"},
		{"over capacity", "m-ana", model.RolePrincipal, bookingBody(10, 1, 3), http.StatusConflict, "OVER_CAPACITY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newApp(t)
			a.seed("r-full", "m-luis", 10, 48)
			rec := a.do(t, http.MethodPost, "/v1/bookings", token(t, tc.member, tc.role), tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode(t, rec)["error"])
			assert.Len(t, a.res.rows, 1)
		})
	}
}

func TestOverCapacityReportsRemaining(t *testing.T) {
	a := newApp(t)
	a.seed("r-full", "m-luis", 10, 48)
	rec := a.do(t, http.MethodPost, "/v1/bookings/validate", token(t, "m-ana", model.RolePrincipal), bookingBody(10, 1, 3))
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(10), body["hour"])
	assert.Equal(t, float64(2), body["remaining"])
}

func TestOnlyAdminsBookForOthers(t *testing.T) {
	a := newApp(t)
	body := bookingBody(9, 1, 1)
	body["member_id"] = "m-ana"

	rec := a.do(t, http.MethodPost, "/v1/bookings", token(t, "m-luis", model.RoleIndividual), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/bookings", token(t, "m-admin", model.RoleAdmin), body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "m-ana", a.res.rows[0].UserID)
}

func TestCheckInCheckOutFlow(t *testing.T) {
	a := newApp(t)
	a.seed("r-8", "m-ana", 8, 2)
	tok := token(t, "m-ana", model.RolePrincipal)

	rec := a.do(t, http.MethodPost, "/v1/reservations/r-8/check-in", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-8/check-in", tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_CHECK_IN", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-8/check-out", tok, map[string]interface{}{"laps": 20})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, float64(1000), out["meters"])
	assert.Equal(t, float64(0), out["duration_minutes"])

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-8/check-out", tok, map[string]interface{}{"laps": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_CHECKED_OUT", decode(t, rec)["error"])

	rec = a.do(t, http.MethodGet, "/v1/stats/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/leaderboard", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
}

func TestCheckInRules(t *testing.T) {
	a := newApp(t)
	a.seed("r-8", "m-ana", 8, 1)
	a.seed("r-12", "m-ana", 12, 1)

	rec := a.do(t, http.MethodPost, "/v1/reservations/r-8/check-in", token(t, "m-luis", model.RoleIndividual), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-12/check-in", token(t, "m-ana", model.RolePrincipal), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FUTURE_CHECK_IN", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-8/check-out", token(t, "m-admin", model.RoleAdmin), map[string]interface{}{"laps": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CHECK_IN_MISSING", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/v1/reservations/r-8/check-out", token(t, "m-admin", model.RoleAdmin), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservations/nope/check-in", token(t, "m-admin", model.RoleAdmin), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "RESERVATION_NOT_FOUND", decode(t, rec)["error"])
}

func TestAdminCancelAndPurge(t *testing.T) {
	a := newApp(t)
	a.seed("r-9", "m-ana", 9, 2)
	a.seed("r-10", "m-luis", 10, 1)
	admin := token(t, "m-admin", model.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/v1/admin/reservations/r-9/cancel", token(t, "m-ana", model.RolePrincipal), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/admin/reservations/r-9/cancel", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["notified"])
	require.Len(t, a.notifier.events, 1)
	assert.Equal(t, "+525511112222", a.notifier.events[0].OwnerContact)

	rec = a.do(t, http.MethodPost, "/v1/admin/reservations/r-9/cancel", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESERVATION_CANCELLED", decode(t, rec)["error"])

	rec = a.do(t, http.MethodPost, "/v1/admin/reservations/r-10/cancel", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["notified"])
	assert.Len(t, a.notifier.events, 1)

	rec = a.do(t, http.MethodGet, "/v1/admin/reservations?date=2024-06-04", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	rec = a.do(t, http.MethodDelete, "/v1/admin/reservations/r-10", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = a.do(t, http.MethodDelete, "/v1/admin/reservations/r-10", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTodayBoard(t *testing.T) {
	a := newApp(t)
	a.seed("r-11", "m-luis", 11, 1)
	a.seed("r-8", "m-ana", 8, 1)
	admin := token(t, "m-admin", model.RoleAdmin)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/reservations/r-8/check-in", admin, nil).Code)

	rec := a.do(t, http.MethodGet, "/v1/attendance/today", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []attendance.BoardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "r-8", entries[0].Reservation.ID)
	assert.Equal(t, model.StateCheckedIn, entries[0].State)
	assert.Equal(t, model.StatePending, entries[1].State)
}

func TestReports(t *testing.T) {
	a := newApp(t)
	a.seed("r-8", "m-ana", 8, 3)
	admin := token(t, "m-admin", model.RoleAdmin)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/v1/reservations/r-8/check-in", admin, nil).Code)
	require.Equal(t, http.StatusOK,
		a.do(t, http.MethodPost, "/v1/reservations/r-8/check-out", admin, map[string]interface{}{"laps": 10}).Code)

	rec := a.do(t, http.MethodGet, "/v1/admin/reports/occupancy?mode=weekly&date=2024-06-04", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "WEEKLY", decode(t, rec)["mode"])

	rec = a.do(t, http.MethodGet, "/v1/admin/reports/occupancy?mode=yearly", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/reports/weekdays?from=2024-06-01&to=2024-06-30", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/v1/admin/reports/weekdays?from=2024-06-30&to=2024-06-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/attendance.csv?from=2024-06-01&to=2024-06-30", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "user_name,role,"))
	assert.Contains(t, lines[1], "Ana Ruiz")

	rec = a.do(t, http.MethodGet, "/v1/admin/attendance.csv", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberStatus(t *testing.T) {
	a := newApp(t)
	admin := token(t, "m-admin", model.RoleAdmin)

	rec := a.do(t, http.MethodGet, "/v1/members/status?phone=%2B525511112222", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, "Ana Ruiz", body["member"].(map[string]interface{})["name"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(t, http.MethodGet, "/v1/members/status?phone=000", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["exists"])

	rec = a.do(t, http.MethodGet, "/v1/members/status", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/admin/members", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 3)
	assert.Equal(t, "Ana Ruiz", all[0]["name"])
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "ana", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"username": "ANA", "password": "ana-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair struct {
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.Access.Token)

	rec = a.do(t, http.MethodGet, "/v1/me", pair.Access.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m-ana", decode(t, rec)["id"])

	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": pair.Refresh.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh_token": pair.Refresh.Token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterMember(t *testing.T) {
	a := newApp(t)
	admin := token(t, "m-admin", model.RoleAdmin)
	body := map[string]string{"username": "sofia", "name": "Sofia Paz", "password": "long-enough", "role": "DEPENDENT"}

	rec := a.do(t, http.MethodPost, "/v1/admin/members", token(t, "m-ana", model.RolePrincipal), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/admin/members", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "DEPENDENT", decode(t, rec)["role"])

	rec = a.do(t, http.MethodPost, "/v1/admin/members", admin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	body["role"] = "OWNER"
	body["username"] = "other"
	rec = a.do(t, http.MethodPost, "/v1/admin/members", admin, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
