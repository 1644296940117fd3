package handler_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/ledger"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/queue"
	"github.com/iliyamo/pool-reservation/internal/repository"
	"github.com/iliyamo/pool-reservation/internal/stats"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

type memReservations struct {
	mu   sync.Mutex
	rows []model.Reservation
}

func (m *memReservations) ListByDate(_ context.Context, date time.Time) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.rows {
		if model.SameDate(r.Date, date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) ListByUser(_ context.Context, userID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Reservation{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Reservation{}, apperr.ErrNoRecord
}

func (m *memReservations) InsertBooking(_ context.Context, rs []model.Reservation, maxPerHour int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rs {
		occ := ledger.Occupancy(m.rows, r.Date, r.Hour)
		if occ+r.HeadCount > maxPerHour {
			return apperr.Capacity(r.Hour, maxPerHour-occ)
		}
	}
	m.rows = append(m.rows, rs...)
	return nil
}

func (m *memReservations) Cancel(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].Confirmed() {
			m.rows[i].Status = model.StatusCancelled
			return true, nil
		}
	}
	return false, nil
}

func (m *memReservations) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNoRecord
}

type memAttendance struct {
	mu   sync.Mutex
	res  *memReservations
	recs map[string]model.AttendanceRecord
}

func (m *memAttendance) GetByReservation(_ context.Context, id string) (model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[id]; ok {
		return rec, nil
	}
	return model.AttendanceRecord{}, apperr.ErrNoRecord
}

func (m *memAttendance) ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	rs, _ := m.res.ListByDate(ctx, date)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AttendanceRecord
	for _, r := range rs {
		if rec, ok := m.recs[r.ID]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memAttendance) Insert(_ context.Context, rec model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[rec.ReservationID]; ok {
		return apperr.ErrDuplicate
	}
	m.recs[rec.ReservationID] = rec
	return nil
}

func (m *memAttendance) CompleteCheckOut(_ context.Context, id string, at time.Time, laps int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok || rec.CheckInTime == nil || rec.CheckOutTime != nil {
		return false, nil
	}
	rec.CheckOutTime = &at
	rec.Laps = laps
	m.recs[id] = rec
	return true, nil
}

// Sessions joins both stores the way the SQL report query does.
func (m *memAttendance) Sessions(_ context.Context, f stats.Filter) ([]stats.Session, error) {
	m.res.mu.Lock()
	rows := append([]model.Reservation(nil), m.res.rows...)
	m.res.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []stats.Session
	for _, r := range rows {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && r.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.Date.After(f.To) {
			continue
		}
		s := stats.Session{Reservation: r}
		if rec, ok := m.recs[r.ID]; ok {
			rec := rec
			s.Attendance = &rec
		}
		if f.AttendedOnly && s.Attendance == nil {
			continue
		}
		if f.CompletedOnly && !s.Completed() {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Reservation, out[j].Reservation
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Hour < b.Hour
	})
	return out, nil
}

type memMembers struct {
	mu   sync.Mutex
	byID map[string]model.Member
}

func (m *memMembers) find(match func(model.Member) bool) (model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.byID {
		if match(mem) {
			return mem, nil
		}
	}
	return model.Member{}, apperr.ErrNoRecord
}

func (m *memMembers) List(context.Context) ([]model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Member, 0, len(m.byID))
	for _, mem := range m.byID {
		out = append(out, mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memMembers) GetByID(_ context.Context, id string) (model.Member, error) {
	return m.find(func(mem model.Member) bool { return mem.ID == id })
}

func (m *memMembers) GetByUsername(_ context.Context, u string) (model.Member, error) {
	u = strings.ToLower(strings.TrimSpace(u))
	return m.find(func(mem model.Member) bool { return mem.Username == u })
}

func (m *memMembers) GetByPhone(_ context.Context, p string) (model.Member, error) {
	p = strings.ReplaceAll(p, " ", "")
	return m.find(func(mem model.Member) bool { return mem.Phone != "" && mem.Phone == p })
}

func (m *memMembers) Create(_ context.Context, in repository.NewMember, cost int) (string, error) {
	u := strings.ToLower(strings.TrimSpace(in.Username))
	if _, err := m.GetByUsername(context.Background(), u); err == nil {
		return "", repository.ErrUsernameExists
	}
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return "", err
	}
	id := "m-" + u
	m.mu.Lock()
	m.byID[id] = model.Member{ID: id, Username: u, FullName: in.FullName, PasswordHash: hash, Role: in.Role, Phone: in.Phone}
	m.mu.Unlock()
	return id, nil
}

type memTokens struct {
	mu     sync.Mutex
	active map[string]string
}

func (t *memTokens) StoreRefresh(_ context.Context, memberID, hash string, _ time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[hash] = memberID
	return nil
}

func (t *memTokens) ValidateRefresh(_ context.Context, hash string, _ time.Time) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.active[hash]; ok {
		return id, nil
	}
	return "", apperr.ErrNoRecord
}

func (t *memTokens) RevokeByHash(_ context.Context, hash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, hash)
	return nil
}

func (t *memTokens) RevokeAllForMember(_ context.Context, memberID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, id := range t.active {
		if id == memberID {
			delete(t.active, h)
		}
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.CancellationEvent
}

func (n *recordingNotifier) PublishReservationCancelled(_ context.Context, ev queue.CancellationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}
