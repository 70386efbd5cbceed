package model

import (
	"strings"
	"time"
)

// CreateEventRequest is the payload for publishing a new event.
type CreateEventRequest struct {
	Title                 string     `json:"title" validate:"required,max=200"`
	Description           string     `json:"description" validate:"max=5000"`
	Location              string     `json:"location" validate:"max=500"`
	CuisineTypes          []string   `json:"cuisineTypes" validate:"max=20,dive,required,max=50"`
	DietaryAccommodations []string   `json:"dietaryAccommodations" validate:"max=20,dive,required,max=50"`
	PricePerPerson        float64    `json:"pricePerPerson" validate:"gte=0"`
	HostVenmo             string     `json:"hostVenmo" validate:"max=64"`
	MaxCapacity           int        `json:"maxCapacity" validate:"required,min=1,max=500"`
	Date                  *time.Time `json:"date"`
	AllowWaitlist         bool       `json:"allowWaitlist"`
	ReservationDeadline   *time.Time `json:"reservationDeadline"`
}

// GuestInfo identifies someone acting without an account.
type GuestInfo struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"max=200"`
}

// Normalize trims surrounding whitespace from the guest's details.
func (g *GuestInfo) Normalize() {
	if g == nil {
		return
	}
	g.Email = strings.TrimSpace(g.Email)
	g.Name = strings.TrimSpace(g.Name)
}

// CreateReservationRequest is the payload for reserving seats.
type CreateReservationRequest struct {
	EventID             string     `json:"eventId" validate:"required"`
	GuestCount          int        `json:"guestCount"`
	DietaryRestrictions []string   `json:"dietaryRestrictions" validate:"max=20,dive,required,max=100"`
	SpecialRequests     string     `json:"specialRequests" validate:"max=1000"`
	GuestInfo           *GuestInfo `json:"guestInfo"`
}

// Normalize trims the guest details before validation.
func (r *CreateReservationRequest) Normalize() { r.GuestInfo.Normalize() }

// ProposedDateInput is one candidate date in a poll creation request.
type ProposedDateInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,datetime=15:04"`
}

// CreatePollRequest is the payload for turning an event into a poll.
type CreatePollRequest struct {
	ProposedDates []ProposedDateInput `json:"proposedDates" validate:"min=2,max=30,dive"`
	PollDeadline  time.Time           `json:"pollDeadline" validate:"required"`
}

// ResponseInput is one responder's answer for one proposed date.
type ResponseInput struct {
	ProposedDateID string `json:"proposedDateId" validate:"required"`
	Available      bool   `json:"available"`
	Tentative      bool   `json:"tentative"`
}

// SubmitResponsesRequest is the payload for answering a poll.
type SubmitResponsesRequest struct {
	Responses []ResponseInput `json:"responses" validate:"min=1,max=30,dive"`
	GuestInfo *GuestInfo      `json:"guestInfo"`
}

// Normalize trims the guest details before validation.
func (r *SubmitResponsesRequest) Normalize() { r.GuestInfo.Normalize() }

// FinalizePollRequest is the payload for picking the winning date.
type FinalizePollRequest struct {
	SelectedProposedDateID string `json:"selectedProposedDateId" validate:"required"`
	HostID                 string `json:"hostId"`
}
