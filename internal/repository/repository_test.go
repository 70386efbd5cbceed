package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow scans nothing and returns err.
type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

// fakeTx records how a transaction ended. Methods the store never calls
// fall through to the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	rowErr     error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row { return fakeRow{err: t.rowErr} }

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx    *fakeTx
	begun int
}

func (d *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (d *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: errors.New("unexpected QueryRow")}
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	d.begun++
	return d.tx, nil
}

func newFakeStore(rowErr error) (*PGStore, *fakeDB) {
	db := &fakeDB{tx: &fakeTx{rowErr: rowErr}}
	return &PGStore{db: db}, db
}

func TestWithEventLockCommits(t *testing.T) {
	store, db := newFakeStore(nil)

	called := false
	err := store.WithEventLock(context.Background(), uuid.NewString(), func(tx EventTx) error {
		called = true
		require.NotNil(t, tx.Event())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
}

func TestWithEventLockRollsBackOnError(t *testing.T) {
	store, db := newFakeStore(nil)
	boom := errors.New("boom")

	err := store.WithEventLock(context.Background(), uuid.NewString(), func(EventTx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, db.tx.committed)
	assert.True(t, db.tx.rolledBack)
}

func TestWithEventLockRollsBackOnPanic(t *testing.T) {
	store, db := newFakeStore(nil)

	assert.Panics(t, func() {
		_ = store.WithEventLock(context.Background(), uuid.NewString(), func(EventTx) error {
			panic("handler bug")
		})
	})
	assert.False(t, db.tx.committed)
	assert.True(t, db.tx.rolledBack)
}

func TestWithEventLockUnknownEvent(t *testing.T) {
	store, db := newFakeStore(pgx.ErrNoRows)

	err := store.WithEventLock(context.Background(), uuid.NewString(), func(EventTx) error {
		t.Fatal("fn must not run for a missing event")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, db.tx.rolledBack)

	err = store.WithEventLock(context.Background(), "not-a-uuid", func(EventTx) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, db.begun)
}
