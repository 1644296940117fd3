package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/queue"
)

// Cancel marks one reservation-hour CANCELLED. Sibling hours sharing the
// booking code are left untouched. The returned event carries the owner's
// contact (empty when none is on file) and is published only when a
// contact exists.
func (s *Service) Cancel(ctx context.Context, id string, now time.Time) (queue.CancellationEvent, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return queue.CancellationEvent{}, err
	}
	if r.Status == model.StatusCancelled {
		return queue.CancellationEvent{}, apperr.New(apperr.Cancelled, "reservation is already cancelled")
	}
	ok, err := s.store.Cancel(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("component", "booking").Str("reservation_id", id).Msg("cancel failed")
		return queue.CancellationEvent{}, apperr.Storage(err)
	}
	if !ok {
		return queue.CancellationEvent{}, apperr.New(apperr.Cancelled, "reservation is already cancelled")
	}
	s.release(ctx, r.Date, []int{r.Hour}, r.HeadCount)

	ev := queue.CancellationEvent{
		ReservationID: r.ID,
		BookingCode:   r.Code,
		OwnerID:       r.UserID,
		OwnerName:     r.UserName,
		OwnerContact:  s.contactOf(ctx, r.UserID),
		Summary:       r.Summary(),
		CancelledAt:   now.UTC().Format(time.RFC3339),
	}
	if ev.OwnerContact != "" && s.notifier != nil {
		// the cancellation already happened; a lost notice is only logged
		if err := s.notifier.PublishReservationCancelled(ctx, ev); err != nil {
			log.Warn().Err(err).Str("component", "booking").Str("reservation_id", id).Msg("cancellation notice not published")
		}
	}
	log.Info().Str("component", "booking").Str("reservation_id", id).Str("code", r.Code).Msg("reservation cancelled")
	return ev, nil
}

// Purge hard-deletes a reservation and its attendance. Administrative only.
func (s *Service) Purge(ctx context.Context, id string) error {
	r, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return apperr.New(apperr.NotFound, "reservation not found")
		}
		log.Error().Err(err).Str("component", "booking").Str("reservation_id", id).Msg("purge failed")
		return apperr.Storage(err)
	}
	if r.Confirmed() {
		s.release(ctx, r.Date, []int{r.Hour}, r.HeadCount)
	}
	log.Info().Str("component", "booking").Str("reservation_id", id).Msg("reservation purged")
	return nil
}

func (s *Service) load(ctx context.Context, id string) (model.Reservation, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return model.Reservation{}, apperr.New(apperr.NotFound, "reservation not found")
		}
		return model.Reservation{}, apperr.Storage(err)
	}
	return r, nil
}

func (s *Service) contactOf(ctx context.Context, userID string) string {
	if s.members == nil {
		return ""
	}
	m, err := s.members.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNoRecord) {
			log.Warn().Err(err).Str("component", "booking").Str("user_id", userID).Msg("member lookup failed")
		}
		return ""
	}
	return m.Contact()
}
