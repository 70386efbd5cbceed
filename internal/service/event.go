package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"go.uber.org/zap"
)

// EventService publishes, lists, and cancels events.
type EventService struct {
	deps Deps
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(deps Deps) *EventService {
	return &EventService{deps: deps.withDefaults()}
}

// CreateEvent validates the request and stores a new OPEN event hosted by
// hostID.
func (s *EventService) CreateEvent(ctx context.Context, hostID string, req model.CreateEventRequest) (_ *model.Event, err error) {
	ctx, span := tracer.Start(ctx, "EventService.CreateEvent")
	defer func() { finish(span, err) }()

	if hostID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "event title is required")
	}
	if req.MaxCapacity < 1 {
		return nil, apperr.New(apperr.CodeInvalidInput, "maxCapacity must be a positive integer")
	}
	if req.PricePerPerson < 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "pricePerPerson cannot be negative")
	}
	now := s.deps.Now().UTC()
	if req.Date != nil && !req.Date.After(now) {
		return nil, apperr.New(apperr.CodeInvalidInput, "event date must be in the future")
	}
	if req.ReservationDeadline != nil && req.Date != nil && req.ReservationDeadline.After(*req.Date) {
		return nil, apperr.New(apperr.CodeInvalidInput, "reservationDeadline must be before the event date")
	}

	event := &model.Event{
		ID:                    repository.NewID(),
		HostID:                hostID,
		Title:                 req.Title,
		Description:           strings.TrimSpace(req.Description),
		Location:              strings.TrimSpace(req.Location),
		CuisineTypes:          uniq(req.CuisineTypes),
		DietaryAccommodations: uniq(req.DietaryAccommodations),
		PricePerPerson:        req.PricePerPerson,
		HostVenmo:             strings.TrimSpace(req.HostVenmo),
		MaxCapacity:           req.MaxCapacity,
		Status:                model.EventOpen,
		Date:                  req.Date,
		AllowWaitlist:         req.AllowWaitlist,
		ReservationDeadline:   req.ReservationDeadline,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.deps.Store.CreateEvent(ctx, event); err != nil {
		return nil, translate(err, "event not found")
	}

	s.deps.Log.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("host_id", hostID),
		zap.Int("max_capacity", event.MaxCapacity),
	)
	return event, nil
}

// ListEvents returns events matching filter; OPEN only unless statuses are
// given.
func (s *EventService) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, apperr.New(apperr.CodeInvalidInput, "unknown status "+string(st))
		}
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, apperr.New(apperr.CodeInvalidInput, "dateTo must not be before dateFrom")
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "maxPrice cannot be negative")
	}

	events, err := s.deps.Store.ListEvents(ctx, filter)
	if err != nil {
		return nil, translate(err, "event not found")
	}
	return events, nil
}

// GetEvent returns a single event with its occupancy.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperr.New(apperr.CodeInvalidInput, "event id is required")
	}
	event, err := s.deps.Store.GetEvent(ctx, id)
	if err != nil {
		return nil, translate(err, "event not found")
	}
	return event, nil
}

// CancelEvent lets the host call off an event. An active poll is closed.
// Guests holding reservations are notified after commit.
func (s *EventService) CancelEvent(ctx context.Context, eventID, hostID string) (_ *model.Event, err error) {
	ctx, span := tracer.Start(ctx, "EventService.CancelEvent")
	defer func() { finish(span, err) }()

	var (
		event  *model.Event
		guests []model.Reservation
	)
	err = s.deps.Store.WithEventLock(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if !e.HostedBy(hostID) {
			return apperr.New(apperr.CodeForbidden, "only the host can cancel this event")
		}
		if e.Status == model.EventCancelled || e.Status == model.EventCompleted {
			return apperr.New(apperr.CodeEventNotBookable, "event is already "+strings.ToLower(string(e.Status)))
		}
		if err := tx.CancelEvent(ctx); err != nil {
			return err
		}

		// Only confirmed guests need telling; the waitlist never had a seat.
		confirmed, err := tx.ListReservations(ctx, model.ReservationConfirmed)
		if err != nil {
			return err
		}
		guests = confirmed
		event = tx.Event().Clone()
		return nil
	})
	if err != nil {
		return nil, translate(err, "event not found")
	}

	notes := make([]notify.Notification, 0, len(guests))
	for _, r := range guests {
		notes = append(notes, reservationNotice(notify.EventCancelled, event, &r))
	}
	s.deps.Notifier.Dispatch(ctx, notes...)

	s.deps.Log.Info("event cancelled", zap.String("event_id", eventID), zap.Int("notified", len(notes)))
	return event, nil
}
