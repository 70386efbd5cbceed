package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return s.err
}

func TestDispatcherDeliversAfterRequestContextEnds(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, zap.NewNop(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx,
		Notification{Kind: ReservationConfirmed, EventID: "evt-1"},
		Notification{Kind: WaitlistPromoted, EventID: "evt-1"},
	)
	d.Wait()

	require.Len(t, sender.sent, 2)
	assert.Equal(t, ReservationConfirmed, sender.sent[0].Kind)
	assert.False(t, sender.sent[0].CreatedAt.IsZero())
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, zap.New(core), time.Second)

	d.Dispatch(context.Background(), Notification{Kind: PollFinalized, EventID: "evt-2"})
	d.Wait()

	require.Equal(t, 1, logs.FilterMessage("notification failed").Len())
}

type panicSender struct{}

func (panicSender) Send(context.Context, Notification) error { panic("boom") }

func TestDispatcherSurvivesPanickingSender(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewDispatcher(panicSender{}, zap.New(core), time.Second)

	d.Dispatch(context.Background(), Notification{Kind: EventCancelled})
	d.Wait()

	failed := logs.FilterMessage("notification failed").All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ContextMap()["error"], "sender panicked: boom")
}

// fakeConn records commands sent through a redigo pool.
type fakeConn struct {
	mu   *sync.Mutex
	cmds *[][]any
	err  error
}

func (c fakeConn) Close() error { return nil }
func (c fakeConn) Err() error { return nil }

func (c fakeConn) Do(cmd string, args ...any) (any, error) {
	return c.DoContext(context.Background(), cmd, args...)
}

func (c fakeConn) DoContext(_ context.Context, cmd string, args ...any) (any, error) {
	if cmd == "" {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.cmds = append(*c.cmds, append([]any{cmd}, args...))
	if c.err != nil {
		return nil, c.err
	}
	return int64(1), nil
}

func (c fakeConn) Send(string, ...any) error { return nil }
func (c fakeConn) Flush() error { return nil }
func (c fakeConn) Receive() (any, error) { return nil, nil }
func (c fakeConn) ReceiveContext(context.Context) (any, error) { return nil, nil }

func newFakePool(err error) (*redis.Pool, *[][]any) {
	var (
		mu   sync.Mutex
		cmds [][]any
	)
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) {
			return fakeConn{mu: &mu, cmds: &cmds, err: err}, nil
		},
	}
	return pool, &cmds
}

func TestRedisQueuePushesJSON(t *testing.T) {
	pool, cmds := newFakePool(nil)
	q := NewRedisQueue(pool, "supperclub:notifications")

	err := q.Send(context.Background(), Notification{
		Kind:          WaitlistPromoted,
		EventID:       "evt-3",
		ReservationID: "res-9",
		Email:         "b@example.com",
	})
	require.NoError(t, err)

	var push []any
	for _, c := range *cmds {
		if c[0] == "LPUSH" {
			push = c
		}
	}
	require.NotNil(t, push)
	assert.Equal(t, "supperclub:notifications", push[1])

	var got Notification
	require.NoError(t, json.Unmarshal(push[2].([]byte), &got))
	assert.Equal(t, WaitlistPromoted, got.Kind)
	assert.Equal(t, "res-9", got.ReservationID)
}

func TestRedisQueueReportsErrors(t *testing.T) {
	pool, _ := newFakePool(errors.New("READONLY"))
	q := NewRedisQueue(pool, "q")

	err := q.Send(context.Background(), Notification{Kind: ReservationCancelled})
	assert.ErrorContains(t, err, "push notification")
	assert.Error(t, q.Ping(context.Background()))
}
