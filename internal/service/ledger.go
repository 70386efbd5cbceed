package service

import (
	"context"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
)

// Ledger answers capacity questions for one event. It is built from a
// locked transaction, so its answers stay true until that transaction ends.
type Ledger struct {
	tx repository.EventTx
}

// NewLedger returns the ledger for the event locked by tx.
func NewLedger(tx repository.EventTx) Ledger {
	return Ledger{tx: tx}
}

// ConfirmedGuestCount is the event's occupancy: the sum of guest counts
// over CONFIRMED reservations.
func (l Ledger) ConfirmedGuestCount(ctx context.Context) (int, error) {
	return l.tx.ConfirmedGuestCount(ctx)
}

// HasAvailableSpots reports whether requested more guests fit.
func (l Ledger) HasAvailableSpots(ctx context.Context, requested int) (bool, error) {
	confirmed, err := l.ConfirmedGuestCount(ctx)
	if err != nil {
		return false, err
	}
	return confirmed+requested <= l.tx.Event().MaxCapacity, nil
}

// Remaining is the number of seats not held by CONFIRMED reservations.
func (l Ledger) Remaining(ctx context.Context) (int, error) {
	confirmed, err := l.ConfirmedGuestCount(ctx)
	if err != nil {
		return 0, err
	}
	return max(l.tx.Event().MaxCapacity-confirmed, 0), nil
}

// SyncStatus moves the event between OPEN and FULL to match occupancy.
// Events in any other status are left alone.
func (l Ledger) SyncStatus(ctx context.Context) error {
	event := l.tx.Event()
	if event.Status != model.EventOpen && event.Status != model.EventFull {
		return nil
	}

	confirmed, err := l.ConfirmedGuestCount(ctx)
	if err != nil {
		return err
	}
	want := model.EventOpen
	if confirmed >= event.MaxCapacity {
		want = model.EventFull
	}
	if want == event.Status {
		return nil
	}
	return l.tx.SetEventStatus(ctx, want)
}
