package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerCountsOnlyConfirmedGuests(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 4, true)
	f.reserve(t, e.ID, "a", 3)
	f.reserve(t, e.ID, "b", 2) // waitlisted

	err := f.store.WithEventLock(context.Background(), e.ID, func(tx repository.EventTx) error {
		l := NewLedger(tx)

		n, err := l.ConfirmedGuestCount(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		rem, err := l.Remaining(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, rem)

		fits, err := l.HasAvailableSpots(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, fits)

		fits, err = l.HasAvailableSpots(context.Background(), 2)
		require.NoError(t, err)
		assert.False(t, fits)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerSyncStatus(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 2, false)
	ctx := context.Background()

	f.reserve(t, e.ID, "a", 2)
	assert.Equal(t, model.EventFull, f.reload(t, e.ID).Status)

	// Dropping the only reservation behind the ledger's back and resyncing
	// reopens the event.
	err := f.store.WithEventLock(ctx, e.ID, func(tx repository.EventTx) error {
		confirmed, err := tx.ListReservations(ctx, model.ReservationConfirmed)
		require.NoError(t, err)
		require.Len(t, confirmed, 1)
		require.NoError(t, tx.SetReservationStatus(ctx, confirmed[0].ID, model.ReservationCancelled))
		return NewLedger(tx).SyncStatus(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, model.EventOpen, f.reload(t, e.ID).Status)
}

func TestLedgerSyncStatusLeavesOtherStatusesAlone(t *testing.T) {
	f := newFixture(t)
	e := f.event(t, 2, false)
	ctx := context.Background()

	_, err := f.events.CancelEvent(ctx, e.ID, hostID)
	require.NoError(t, err)

	err = f.store.WithEventLock(ctx, e.ID, func(tx repository.EventTx) error {
		return NewLedger(tx).SyncStatus(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, model.EventCancelled, f.reload(t, e.ID).Status)
}
