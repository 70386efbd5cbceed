package model

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ProposedDate is one candidate date offered by a host during a poll.
// Rows are written once at poll creation and never updated.
type ProposedDate struct {
	ID        string    `json:"id"`
	EventID   string    `json:"eventId"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"createdAt"`
}

// StartsAt combines the calendar date and time of day in loc.
func (p ProposedDate) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, p.Date+" "+p.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("proposed date %s: %w", p.ID, err)
	}
	return t, nil
}

// AvailabilityResponse is one responder's answer for one proposed date.
type AvailabilityResponse struct {
	ID             string    `json:"id"`
	EventID        string    `json:"eventId"`
	ProposedDateID string    `json:"proposedDateId"`
	ResponderKey   string    `json:"-"`
	UserID         string    `json:"userId,omitempty"`
	GuestEmail     string    `json:"guestEmail,omitempty"`
	GuestName      string    `json:"guestName,omitempty"`
	Available      bool      `json:"available"`
	Tentative      bool      `json:"tentative"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Public returns r without the responder's contact details.
func (r AvailabilityResponse) Public() AvailabilityResponse {
	r.UserID = ""
	r.GuestEmail = ""
	return r
}

// DateTally counts responses for one proposed date.
type DateTally struct {
	ProposedDateID string `json:"proposedDateId"`
	Available      int    `json:"available"`
	Tentative      int    `json:"tentative"`
	Unavailable    int    `json:"unavailable"`
	Total          int    `json:"total"`
}

// Add folds a single response into the tally.
func (t *DateTally) Add(r AvailabilityResponse) {
	t.Total++
	switch {
	case r.Available && r.Tentative:
		t.Tentative++
	case r.Available:
		t.Available++
	default:
		t.Unavailable++
	}
}
