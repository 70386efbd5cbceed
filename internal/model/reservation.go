package model

import "time"

// ReservationStatus is the state of a single reservation.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationWaitlist  ReservationStatus = "WAITLIST"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

const (
	MinGuestCount = 1
	MaxGuestCount = 10
)

// Reservation represents one identity's seats at an event.
type Reservation struct {
	ID                  string            `json:"id"`
	EventID             string            `json:"eventId"`
	UserID              string            `json:"userId,omitempty"`
	GuestName           string            `json:"guestName,omitempty"`
	GuestEmail          string            `json:"guestEmail,omitempty"`
	IdentityKey         string            `json:"-"`
	GuestCount          int               `json:"guestCount"`
	DietaryRestrictions []string          `json:"dietaryRestrictions"`
	SpecialRequests     string            `json:"specialRequests,omitempty"`
	Status              ReservationStatus `json:"status"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
}

// Active reports whether the reservation still holds or awaits seats.
func (r *Reservation) Active() bool {
	return r.Status != ReservationCancelled
}

// OwnedBy reports whether id made this reservation.
func (r *Reservation) OwnedBy(id Identity) bool {
	key := id.Key()
	return key != "" && r.IdentityKey == key
}

// Clone returns a deep copy of r.
func (r *Reservation) Clone() *Reservation {
	c := *r
	c.DietaryRestrictions = cloneStrings(r.DietaryRestrictions)
	return &c
}

// Public returns a copy of r without the holder's contact details.
func (r Reservation) Public() Reservation {
	r.UserID = ""
	r.GuestEmail = ""
	r.DietaryRestrictions = cloneStrings(r.DietaryRestrictions)
	return r
}

// ReservationSummary is a reservation joined with the event it belongs to,
// as shown in "my reservations".
type ReservationSummary struct {
	Reservation
	EventTitle    string      `json:"eventTitle"`
	EventDate     *time.Time  `json:"eventDate"`
	EventLocation string      `json:"eventLocation"`
	EventStatus   EventStatus `json:"eventStatus"`
	CanCancel     bool        `json:"canCancel"`
	PaymentLink   string      `json:"paymentLink,omitempty"`

	HostVenmo      string  `json:"-"`
	PricePerPerson float64 `json:"-"`
}
