// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	tracer   = otel.Tracer("github.com/Shivanand-hulikatti/supper-club/internal/service")
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Store is the persistence the services need. Every write that depends on
// capacity or poll state goes through WithEventLock.
type Store interface {
	CreateEvent(ctx context.Context, e *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, f model.EventFilter) ([]model.Event, error)
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ListReservationsByIdentity(ctx context.Context, identityKey string) ([]model.ReservationSummary, error)
	ListProposedDates(ctx context.Context, eventID string) ([]model.ProposedDate, error)
	ListResponses(ctx context.Context, eventID string) ([]model.AvailabilityResponse, error)
	WithEventLock(ctx context.Context, eventID string, fn func(repository.EventTx) error) error
}

// Notifier receives post-commit side effects.
type Notifier interface {
	Dispatch(ctx context.Context, ns ...notify.Notification)
}

// Deps bundles what every service is constructed from.
type Deps struct {
	Store    Store
	Notifier Notifier
	Log      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// Location is where proposed dates are interpreted. Defaults to UTC.
	Location *time.Location
	// CancelCutoff is how close to the event date a reservation stops being
	// cancellable. Defaults to 24h.
	CancelCutoff time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.CancelCutoff == 0 {
		d.CancelCutoff = 24 * time.Hour
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = discard{}
	}
	return d
}

type discard struct{}

func (discard) Dispatch(context.Context, ...notify.Notification) {}

// translate converts repository sentinels into domain errors and wraps
// anything unexpected as Internal.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperr.New(apperr.CodeNotFound, notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.ErrDuplicateReservation
	default:
		return apperr.Internal(err)
	}
}

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
	}
	span.End()
}

func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
