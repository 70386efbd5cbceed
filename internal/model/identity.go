package model

import "strings"

// Identity is whoever is acting: an authenticated user, or a guest known
// only by name and email.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// IsZero reports whether no identity was established.
func (i Identity) IsZero() bool {
	return i.UserID == "" && strings.TrimSpace(i.Email) == ""
}

// IsGuest reports whether the identity is an unauthenticated guest.
func (i Identity) IsGuest() bool {
	return i.UserID == "" && !i.IsZero()
}

// Key is the uniqueness key used for reservations and poll responses.
// Guest emails compare case-insensitively.
func (i Identity) Key() string {
	if i.UserID != "" {
		return "user:" + i.UserID
	}
	if email := NormalizeEmail(i.Email); email != "" {
		return "guest:" + email
	}
	return ""
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
