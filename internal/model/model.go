// Package model defines the core domain types for the supper club.
package model

import "time"

// EventStatus is the booking state of an event.
type EventStatus string

const (
	EventOpen       EventStatus = "OPEN"
	EventFull       EventStatus = "FULL"
	EventPollActive EventStatus = "POLL_ACTIVE"
	EventCompleted  EventStatus = "COMPLETED"
	EventCancelled  EventStatus = "CANCELLED"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case EventOpen, EventFull, EventPollActive, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// PollStatus is the availability-poll state of an event. The zero value
// means the event never had a poll.
type PollStatus string

const (
	PollNone      PollStatus = ""
	PollActive    PollStatus = "ACTIVE"
	PollFinalized PollStatus = "FINALIZED"
	PollClosed    PollStatus = "CLOSED"
)

// Event represents a dinner published by a host.
type Event struct {
	ID                    string      `json:"id"`
	HostID                string      `json:"hostId"`
	Title                 string      `json:"title"`
	Description           string      `json:"description"`
	Location              string      `json:"location"`
	CuisineTypes          []string    `json:"cuisineTypes"`
	DietaryAccommodations []string    `json:"dietaryAccommodations"`
	PricePerPerson        float64     `json:"pricePerPerson"`
	HostVenmo             string      `json:"hostVenmo,omitempty"`
	MaxCapacity           int         `json:"maxCapacity"`
	Status                EventStatus `json:"status"`
	Date                  *time.Time  `json:"date"`
	AllowWaitlist         bool        `json:"allowWaitlist"`
	ReservationDeadline   *time.Time  `json:"reservationDeadline"`
	PollEnabled           bool        `json:"pollEnabled"`
	PollStatus            PollStatus  `json:"pollStatus,omitempty"`
	PollDeadline          *time.Time  `json:"pollDeadline"`
	ConfirmedGuests       int         `json:"confirmedGuests"`
	WaitlistCount         int         `json:"waitlistCount"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
}

// HostedBy reports whether userID is the event's host.
func (e *Event) HostedBy(userID string) bool {
	return userID != "" && e.HostID == userID
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	c := *e
	c.CuisineTypes = cloneStrings(e.CuisineTypes)
	c.DietaryAccommodations = cloneStrings(e.DietaryAccommodations)
	c.Date = cloneTime(e.Date)
	c.ReservationDeadline = cloneTime(e.ReservationDeadline)
	c.PollDeadline = cloneTime(e.PollDeadline)
	return &c
}

// cloneStrings copies s, never returning nil so lists encode as [].
func cloneStrings(s []string) []string {
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// EventFilter narrows ListEvents. A nil or empty Statuses means OPEN only.
type EventFilter struct {
	Search       string
	CuisineTypes []string
	MaxPrice     *float64
	DateFrom     *time.Time
	DateTo       *time.Time
	Statuses     []EventStatus
}

// Response is the JSON envelope every endpoint writes.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
