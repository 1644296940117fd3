// Package booking admits reservation requests against the schedule and the
// hourly capacity, commits them one record per covered hour, and handles
// administrative cancellation.
package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/ledger"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/queue"
	"github.com/iliyamo/pool-reservation/internal/schedule"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

// Store is the reservation persistence used by admission and cancellation.
type Store interface {
	ListByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
	GetByID(ctx context.Context, id string) (model.Reservation, error)
	// InsertBooking writes every hour-record of one booking or none of them.
	// It re-checks capacity against maxPerHour under lock and returns an
	// OVER_CAPACITY *apperr.AppError when the slot filled up meanwhile.
	InsertBooking(ctx context.Context, rs []model.Reservation, maxPerHour int) error
	// Cancel flips a CONFIRMED record to CANCELLED. It reports false when
	// the record was not CONFIRMED anymore.
	Cancel(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// SlotGuard is an optional atomic per-slot counter shared by every server
// instance. Reserve must increment only when the result stays within max.
type SlotGuard interface {
	Reserve(ctx context.Context, date time.Time, hour, seed, heads, limit int) (ok bool, remaining int, err error)
	Release(ctx context.Context, date time.Time, hour, heads int) error
}

// MemberDirectory resolves reservation owners for cancellation notices.
type MemberDirectory interface {
	GetByID(ctx context.Context, id string) (model.Member, error)
}

// Notifier hands cancellation notices to the delivery side.
type Notifier interface {
	PublishReservationCancelled(ctx context.Context, ev queue.CancellationEvent) error
}

// Request is a booking request for HeadCount people over Duration hours
// starting at StartHour on Date.
type Request struct {
	Date      time.Time
	StartHour int
	Duration  int
	HeadCount int
	UserID    string
	UserName  string
	Role      model.Role
}

// Hours lists the covered hours in order.
func (r Request) Hours() []int {
	out := make([]int, 0, r.Duration)
	for h := r.StartHour; h < r.StartHour+r.Duration; h++ {
		out = append(out, h)
	}
	return out
}

// Ticket is the outcome of a successful pre-validation. It is carried to
// Commit unchanged.
type Ticket struct {
	StartLane int    `json:"start_lane"`
	EndLane   int    `json:"end_lane"`
	Lanes     []int  `json:"lanes"`
	Code      string `json:"booking_code"`
}

// Service implements admission and cancellation.
type Service struct {
	store    Store
	policy   *schedule.Policy
	guard    SlotGuard
	members  MemberDirectory
	notifier Notifier
	suffix   func() (string, error)
}

// Option customises a Service.
type Option func(*Service)

// WithSlotGuard enables the shared atomic slot counter.
func WithSlotGuard(g SlotGuard) Option { return func(s *Service) { s.guard = g } }

// WithNotifier sets the cancellation notice publisher.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithCodeSuffix overrides the random booking-code suffix generator.
func WithCodeSuffix(fn func() (string, error)) Option { return func(s *Service) { s.suffix = fn } }

// NewService wires a booking Service.
func NewService(store Store, policy *schedule.Policy, members MemberDirectory, opts ...Option) *Service {
	if store == nil || policy == nil {
		panic("nil dependency passed to booking.NewService")
	}
	s := &Service{
		store:   store,
		policy:  policy,
		members: members,
		suffix:  func() (string, error) { return utils.RandomCode(4) },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PreValidate checks req against the schedule and current occupancy and,
// when admissible, computes the lane band and booking code. Rules run in a
// fixed order and the first violation is returned.
func (s *Service) PreValidate(ctx context.Context, req Request) (Ticket, error) {
	if err := checkShape(req); err != nil {
		return Ticket{}, err
	}
	if err := s.checkCalendar(req); err != nil {
		return Ticket{}, err
	}
	rs, err := s.store.ListByDate(ctx, req.Date)
	if err != nil {
		log.Error().Err(err).Str("component", "booking").Msg("list reservations failed")
		return Ticket{}, apperr.Storage(err)
	}
	snap := ledger.ByHour(rs, req.Date)

	cfg := s.policy.Config()
	closing := s.policy.ClosingHour(req.Date)
	for _, h := range req.Hours() {
		if err := s.checkHour(h, closing, req.Role); err != nil {
			return Ticket{}, err
		}
		if snap[h]+req.HeadCount > cfg.MaxPerHour {
			return Ticket{}, apperr.Capacity(h, clamp(cfg.MaxPerHour-snap[h]))
		}
	}

	start, end := ledger.LaneRange(snap[req.StartHour], req.HeadCount, cfg.LaneSize)
	code, err := s.newCode(req)
	if err != nil {
		return Ticket{}, apperr.Storage(err)
	}
	return Ticket{StartLane: start, EndLane: end, Lanes: model.LaneRange(start, end), Code: code}, nil
}

// Commit writes one CONFIRMED reservation per covered hour, all sharing the
// ticket's lanes and code. The calendar rules are re-applied and capacity is
// re-checked atomically, so a booking is either wholly confirmed or absent.
func (s *Service) Commit(ctx context.Context, req Request, t Ticket) ([]model.Reservation, error) {
	if err := checkShape(req); err != nil {
		return nil, err
	}
	if err := s.checkCalendar(req); err != nil {
		return nil, err
	}
	closing := s.policy.ClosingHour(req.Date)
	for _, h := range req.Hours() {
		if err := s.checkHour(h, closing, req.Role); err != nil {
			return nil, err
		}
	}
	if t.Code == "" || len(t.Lanes) == 0 {
		return nil, apperr.New(apperr.Validation, "missing pre-validation result")
	}

	date := model.DateOf(req.Date)
	recs := make([]model.Reservation, 0, req.Duration)
	for _, h := range req.Hours() {
		recs = append(recs, model.Reservation{
			ID:        uuid.NewString(),
			UserID:    req.UserID,
			UserName:  req.UserName,
			Role:      req.Role,
			Date:      date,
			Hour:      h,
			HeadCount: req.HeadCount,
			Status:    model.StatusConfirmed,
			Lanes:     append([]int(nil), t.Lanes...),
			Code:      t.Code,
		})
	}

	held, err := s.hold(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertBooking(ctx, recs, s.policy.Config().MaxPerHour); err != nil {
		s.release(ctx, date, held, req.HeadCount)
		var ae *apperr.AppError
		if errors.As(err, &ae) {
			return nil, ae
		}
		log.Error().Err(err).Str("component", "booking").Str("code", t.Code).Msg("insert booking failed")
		return nil, apperr.Storage(err)
	}
	log.Info().Str("component", "booking").Str("code", t.Code).Str("user_id", req.UserID).
		Str("date", model.FormatDate(date)).Int("start_hour", req.StartHour).Int("hours", req.Duration).
		Int("head_count", req.HeadCount).Msg("booking committed")
	return recs, nil
}

// hold reserves capacity in the slot guard for every covered hour. Hours
// already taken are released again when a later hour fails.
func (s *Service) hold(ctx context.Context, req Request) ([]int, error) {
	if s.guard == nil {
		return nil, nil
	}
	rs, err := s.store.ListByDate(ctx, req.Date)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	snap := ledger.ByHour(rs, req.Date)
	limit := s.policy.Config().MaxPerHour
	held := make([]int, 0, req.Duration)
	for _, h := range req.Hours() {
		ok, remaining, err := s.guard.Reserve(ctx, req.Date, h, snap[h], req.HeadCount, limit)
		if err != nil {
			s.release(ctx, req.Date, held, req.HeadCount)
			log.Error().Err(err).Str("component", "booking").Int("hour", h).Msg("slot guard reserve failed")
			return nil, apperr.Storage(err)
		}
		if !ok {
			s.release(ctx, req.Date, held, req.HeadCount)
			return nil, apperr.Capacity(h, clamp(remaining))
		}
		held = append(held, h)
	}
	return held, nil
}

func (s *Service) release(ctx context.Context, date time.Time, hours []int, heads int) {
	if s.guard == nil {
		return
	}
	for _, h := range hours {
		if err := s.guard.Release(ctx, date, h, heads); err != nil {
			log.Warn().Err(err).Str("component", "booking").Int("hour", h).Msg("slot guard release failed")
		}
	}
}

func checkShape(req Request) error {
	switch {
	case req.Duration < 1:
		return apperr.New(apperr.Validation, "duration must be at least one hour")
	case req.HeadCount < 1:
		return apperr.New(apperr.Validation, "head count must be at least one")
	case req.StartHour < 0 || req.StartHour > 23:
		return apperr.New(apperr.Validation, "start hour out of range")
	case !req.Role.Valid():
		return apperr.New(apperr.Validation, "unknown role")
	case req.Date.IsZero():
		return apperr.New(apperr.Validation, "date is required")
	}
	return nil
}

func (s *Service) checkCalendar(req Request) error {
	if !s.policy.IsOperatingDay(req.Date) {
		return apperr.New(apperr.ClosedDay, "the pool is closed on "+req.Date.Weekday().String())
	}
	return nil
}

func (s *Service) checkHour(h, closing int, role model.Role) error {
	if h >= closing {
		return apperr.AtHour(apperr.PastClosing, h, fmt.Sprintf("the pool closes at %02d:00", closing))
	}
	if !s.policy.CanUseHour(h, role) {
		return apperr.AtHour(apperr.PrivilegedHour, h, fmt.Sprintf("%02d:00 is reserved for account holders", h))
	}
	return nil
}

func (s *Service) newCode(req Request) (string, error) {
	suffix, err := s.suffix()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%02d-%s", s.policy.Config().CodePrefix, model.CompactDate(req.Date), req.StartHour, suffix), nil
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]+-\d{8}-\d{2}-[A-Z0-9]{4}$`)

// CodeMatches reports whether code is a well-formed booking code for the
// date and start hour of req. Clients echo the code shown at pre-validation.
func (s *Service) CodeMatches(code string, req Request) bool {
	if !codePattern.MatchString(code) {
		return false
	}
	want := fmt.Sprintf("%s-%s-%02d-", s.policy.Config().CodePrefix, model.CompactDate(req.Date), req.StartHour)
	return len(code) == len(want)+4 && code[:len(want)] == want
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
