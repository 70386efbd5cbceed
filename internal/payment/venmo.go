// Package payment formats payment links. No money moves through this
// service; the link is handed to the guest as-is.
package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// VenmoLink returns a pay request link for handle, or "" when the host has
// no handle or nothing is owed.
func VenmoLink(handle string, amount float64, note string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" || amount <= 0 {
		return ""
	}

	q := url.Values{}
	q.Set("txn", "pay")
	q.Set("amount", fmt.Sprintf("%.2f", amount))
	if note = strings.TrimSpace(note); note != "" {
		q.Set("note", note)
	}
	return "https://venmo.com/" + url.PathEscape(handle) + "?" + q.Encode()
}
