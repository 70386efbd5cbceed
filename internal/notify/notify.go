// Package notify delivers guest notifications after a reservation or poll
// transaction has committed. Delivery is best effort: failures are logged
// and never reach the caller.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind names what happened.
type Kind string

const (
	ReservationConfirmed  Kind = "reservation_confirmed"
	ReservationWaitlisted Kind = "reservation_waitlisted"
	ReservationCancelled  Kind = "reservation_cancelled"
	WaitlistPromoted      Kind = "waitlist_promoted"
	PollFinalized         Kind = "poll_finalized"
	EventCancelled        Kind = "event_cancelled"
)

// Notification is one message for one recipient. Rendering it into an
// email is left to whatever consumes the queue.
type Notification struct {
	Kind          Kind       `json:"kind"`
	EventID       string     `json:"eventId"`
	EventTitle    string     `json:"eventTitle"`
	EventDate     *time.Time `json:"eventDate,omitempty"`
	ReservationID string     `json:"reservationId,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name,omitempty"`
	GuestCount    int        `json:"guestCount,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Sender delivers a single notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log. It is the sender used when no
// queue is configured.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("event_id", n.EventID),
		zap.String("reservation_id", n.ReservationID),
		zap.String("user_id", n.UserID),
		zap.String("email", n.Email),
	)
	return nil
}

// Dispatcher sends notifications on background goroutines so the request
// that triggered them never waits on delivery.
type Dispatcher struct {
	sender  Sender
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher constructs a Dispatcher. Each send gets its own timeout.
func NewDispatcher(sender Sender, log *zap.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{sender: sender, log: log, timeout: timeout}
}

// Dispatch sends ns in the background. The request context's values are
// kept but its cancellation is not, so a finished request does not abort
// delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, ns ...Notification) {
	if len(ns) == 0 {
		return
	}
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, n := range ns {
			if n.CreatedAt.IsZero() {
				n.CreatedAt = time.Now().UTC()
			}
			sendCtx, cancel := context.WithTimeout(base, d.timeout)
			err := d.send(sendCtx, n)
			cancel()
			if err != nil {
				d.log.Warn("notification failed",
					zap.String("kind", string(n.Kind)),
					zap.String("event_id", n.EventID),
					zap.String("reservation_id", n.ReservationID),
					zap.Error(err),
				)
			}
		}
	}()
}

func (d *Dispatcher) send(ctx context.Context, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()
	return d.sender.Send(ctx, n)
}

// Wait blocks until every dispatched notification has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
