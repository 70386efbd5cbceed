package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/payment"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReservationService creates and cancels reservations. It is the only
// writer of reservation rows, and every write happens under the event lock.
type ReservationService struct {
	deps Deps
}

// NewReservationService constructs a ReservationService.
func NewReservationService(deps Deps) *ReservationService {
	return &ReservationService{deps: deps.withDefaults()}
}

// ReservationResult is the outcome of a reservation attempt.
type ReservationResult struct {
	Reservation *model.Reservation `json:"reservation"`
	Waitlisted  bool               `json:"waitlisted"`
	Message     string             `json:"message"`
}

// CancelResult is the outcome of a cancellation.
type CancelResult struct {
	Reservation *model.Reservation  `json:"reservation"`
	Promoted    []model.Reservation `json:"promoted"`
}

// CreateReservation books guestCount seats for id, or waitlists them when
// the event is full and allows a waitlist.
//
// The duplicate check, the capacity check and the insert all run inside
// one transaction holding the event lock. Checking capacity first and
// writing afterwards in separate steps would let two concurrent requests
// both see the last seats as free.
func (s *ReservationService) CreateReservation(ctx context.Context, id model.Identity, req model.CreateReservationRequest) (_ *ReservationResult, err error) {
	ctx, span := tracer.Start(ctx, "ReservationService.CreateReservation")
	defer func() { finish(span, err) }()
	span.SetAttributes(attribute.String("event.id", req.EventID), attribute.Int("guest.count", req.GuestCount))

	if req.GuestCount < model.MinGuestCount || req.GuestCount > model.MaxGuestCount {
		return nil, apperr.New(apperr.CodeInvalidGuestCount,
			fmt.Sprintf("guestCount must be between %d and %d", model.MinGuestCount, model.MaxGuestCount))
	}
	if strings.TrimSpace(req.EventID) == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "eventId is required")
	}
	id, err = resolveIdentity(id, req.GuestInfo)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now().UTC()
	res := &model.Reservation{
		ID:                  repository.NewID(),
		EventID:             req.EventID,
		UserID:              id.UserID,
		GuestName:           strings.TrimSpace(id.Name),
		GuestEmail:          model.NormalizeEmail(id.Email),
		IdentityKey:         id.Key(),
		GuestCount:          req.GuestCount,
		DietaryRestrictions: uniq(req.DietaryRestrictions),
		SpecialRequests:     strings.TrimSpace(req.SpecialRequests),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	var event *model.Event
	err = s.deps.Store.WithEventLock(ctx, req.EventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if err := bookable(e, now); err != nil {
			return err
		}

		_, err := tx.FindActiveReservation(ctx, res.IdentityKey)
		switch {
		case err == nil:
			return apperr.ErrDuplicateReservation
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		ledger := NewLedger(tx)
		fits, err := ledger.HasAvailableSpots(ctx, res.GuestCount)
		if err != nil {
			return err
		}
		switch {
		case fits:
			res.Status = model.ReservationConfirmed
		case e.AllowWaitlist:
			res.Status = model.ReservationWaitlist
		default:
			return apperr.ErrEventFull
		}

		if err := tx.InsertReservation(ctx, res); err != nil {
			return err
		}
		if err := ledger.SyncStatus(ctx); err != nil {
			return err
		}
		event = tx.Event().Clone()
		return nil
	})
	if err != nil {
		return nil, translate(err, "event not found")
	}

	result := &ReservationResult{Reservation: res}
	kind := notify.ReservationConfirmed
	if res.Status == model.ReservationWaitlist {
		result.Waitlisted = true
		result.Message = "Event is full. You have been added to the waitlist."
		kind = notify.ReservationWaitlisted
	} else {
		result.Message = "Reservation confirmed."
	}
	s.deps.Notifier.Dispatch(ctx, reservationNotice(kind, event, res))

	s.deps.Log.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("event_id", res.EventID),
		zap.String("status", string(res.Status)),
		zap.Int("guest_count", res.GuestCount),
	)
	return result, nil
}

// CancelReservation cancels id's reservation and promotes waitlisted
// reservations, oldest first, into the seats that opened up. Promotion
// stops at the first waitlisted party that does not fit; later, smaller
// parties are not considered.
func (s *ReservationService) CancelReservation(ctx context.Context, reservationID string, id model.Identity) (_ *CancelResult, err error) {
	ctx, span := tracer.Start(ctx, "ReservationService.CancelReservation")
	defer func() { finish(span, err) }()

	if id.IsZero() {
		return nil, apperr.ErrUnauthenticated
	}

	// The unlocked read only finds which event to lock; everything is
	// re-read under the lock.
	found, err := s.deps.Store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, translate(err, "reservation not found")
	}
	span.SetAttributes(attribute.String("event.id", found.EventID))

	now := s.deps.Now().UTC()
	var (
		result CancelResult
		event  *model.Event
	)
	err = s.deps.Store.WithEventLock(ctx, found.EventID, func(tx repository.EventTx) error {
		res, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if !res.OwnedBy(id) {
			return apperr.New(apperr.CodeForbidden, "you can only cancel your own reservation")
		}
		if !res.Active() {
			return apperr.New(apperr.CodeReservationAlreadyCancelled, "reservation is already cancelled")
		}
		if !cancellable(tx.Event(), now, s.deps.CancelCutoff) {
			return apperr.New(apperr.CodeTooLateToCancel,
				fmt.Sprintf("reservations cannot be cancelled within %s of the event", humanDuration(s.deps.CancelCutoff)))
		}

		freed := 0
		if res.Status == model.ReservationConfirmed {
			freed = res.GuestCount
		}
		if err := tx.SetReservationStatus(ctx, res.ID, model.ReservationCancelled); err != nil {
			return err
		}
		res.Status = model.ReservationCancelled
		res.UpdatedAt = now
		result.Reservation = res

		promoted, err := promoteWaitlist(ctx, tx, freed)
		if err != nil {
			return err
		}
		result.Promoted = promoted

		if err := NewLedger(tx).SyncStatus(ctx); err != nil {
			return err
		}
		event = tx.Event().Clone()
		return nil
	})
	if err != nil {
		return nil, translate(err, "reservation not found")
	}

	notes := []notify.Notification{reservationNotice(notify.ReservationCancelled, event, result.Reservation)}
	for i := range result.Promoted {
		notes = append(notes, reservationNotice(notify.WaitlistPromoted, event, &result.Promoted[i]))
	}
	s.deps.Notifier.Dispatch(ctx, notes...)

	// Promoted parties belong to other guests.
	for i := range result.Promoted {
		result.Promoted[i] = result.Promoted[i].Public()
	}

	s.deps.Log.Info("reservation cancelled",
		zap.String("reservation_id", reservationID),
		zap.String("event_id", found.EventID),
		zap.Int("promoted", len(result.Promoted)),
	)
	return &result, nil
}

// promoteWaitlist confirms waitlisted reservations in FIFO order while
// they fit in the freed seats. A cancelled waitlist entry frees none.
func promoteWaitlist(ctx context.Context, tx repository.EventTx, freed int) ([]model.Reservation, error) {
	if freed <= 0 {
		return nil, nil
	}
	waitlist, err := tx.ListReservations(ctx, model.ReservationWaitlist)
	if err != nil {
		return nil, err
	}
	if len(waitlist) == 0 {
		return nil, nil
	}

	remaining, err := NewLedger(tx).Remaining(ctx)
	if err != nil {
		return nil, err
	}
	free := min(freed, remaining)

	var promoted []model.Reservation
	for _, r := range waitlist {
		if r.GuestCount > free {
			break
		}
		if err := tx.SetReservationStatus(ctx, r.ID, model.ReservationConfirmed); err != nil {
			return nil, err
		}
		free -= r.GuestCount
		r.Status = model.ReservationConfirmed
		promoted = append(promoted, r)
	}
	return promoted, nil
}

// ListMyReservations returns id's reservations with the derived canCancel
// flag and a payment link when the host takes Venmo.
func (s *ReservationService) ListMyReservations(ctx context.Context, id model.Identity) ([]model.ReservationSummary, error) {
	key := id.Key()
	if key == "" {
		return nil, apperr.ErrUnauthenticated
	}

	list, err := s.deps.Store.ListReservationsByIdentity(ctx, key)
	if err != nil {
		return nil, translate(err, "reservation not found")
	}

	now := s.deps.Now().UTC()
	for i := range list {
		sum := &list[i]
		event := &model.Event{Date: sum.EventDate, Status: sum.EventStatus}
		sum.CanCancel = sum.Active() && cancellable(event, now, s.deps.CancelCutoff) &&
			sum.EventStatus != model.EventCancelled && sum.EventStatus != model.EventCompleted
		if sum.Status == model.ReservationConfirmed {
			sum.PaymentLink = payment.VenmoLink(sum.HostVenmo,
				sum.PricePerPerson*float64(sum.GuestCount), sum.EventTitle)
		}
	}
	return list, nil
}

// resolveIdentity prefers the session user and falls back to the guest
// details supplied with the request.
func resolveIdentity(id model.Identity, guest *model.GuestInfo) (model.Identity, error) {
	if id.UserID != "" {
		return id, nil
	}
	if guest == nil {
		return model.Identity{}, apperr.ErrUnauthenticated
	}
	email := strings.TrimSpace(guest.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return model.Identity{}, apperr.New(apperr.CodeInvalidInput, "guestInfo.email must be a valid email address")
	}
	return model.Identity{Name: strings.TrimSpace(guest.Name), Email: email}, nil
}

// bookable rejects reservations the event cannot take at now.
func bookable(e *model.Event, now time.Time) error {
	if (e.Status != model.EventOpen && e.Status != model.EventFull) || e.Date == nil {
		return apperr.New(apperr.CodeEventNotBookable, "event is not accepting reservations")
	}
	if e.ReservationDeadline != nil && now.After(*e.ReservationDeadline) {
		return apperr.New(apperr.CodeReservationClosed, "reservations for this event have closed")
	}
	return nil
}

// cancellable reports whether a reservation for e may still be cancelled.
func cancellable(e *model.Event, now time.Time, cutoff time.Duration) bool {
	if e.Date == nil {
		return true
	}
	return e.Date.Sub(now) > cutoff
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}

func reservationNotice(kind notify.Kind, event *model.Event, r *model.Reservation) notify.Notification {
	return notify.Notification{
		Kind:          kind,
		EventID:       event.ID,
		EventTitle:    event.Title,
		EventDate:     event.Date,
		ReservationID: r.ID,
		UserID:        r.UserID,
		Email:         r.GuestEmail,
		Name:          r.GuestName,
		GuestCount:    r.GuestCount,
	}
}
