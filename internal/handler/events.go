package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/go-chi/chi/v5"
)

// CreateEvent handles POST /events
// Publishes a new event hosted by the signed-in user.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateEventRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.events.CreateEvent(r.Context(), hostID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, event, "Event created.")
}

// ListEvents handles GET /events
// Supports search, cuisineTypes (comma separated or repeated), maxPrice,
// dateFrom, dateTo and status filters.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	events, err := h.events.ListEvents(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeData(w, http.StatusOK, events, "")
}

// GetEvent handles GET /events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, event, "")
}

// CancelEvent handles POST /events/{id}/cancel
func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	event, err := h.events.CancelEvent(r.Context(), chi.URLParam(r, "id"), hostID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, event, "Event cancelled.")
}

func parseEventFilter(r *http.Request) (model.EventFilter, error) {
	q := r.URL.Query()
	f := model.EventFilter{
		Search:       strings.TrimSpace(q.Get("search")),
		CuisineTypes: splitList(q["cuisineTypes"]),
	}
	for _, s := range splitList(q["status"]) {
		f.Statuses = append(f.Statuses, model.EventStatus(strings.ToUpper(s)))
	}

	if v := q.Get("maxPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, apperr.New(apperr.CodeInvalidInput, "maxPrice must be a number")
		}
		f.MaxPrice = &p
	}

	var err error
	if f.DateFrom, err = parseDateParam(q.Get("dateFrom"), false); err != nil {
		return f, err
	}
	if f.DateTo, err = parseDateParam(q.Get("dateTo"), true); err != nil {
		return f, err
	}
	return f, nil
}

// parseDateParam accepts RFC 3339 timestamps or bare YYYY-MM-DD dates. A
// bare dateTo covers the whole day.
func parseDateParam(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return nil, apperr.New(apperr.CodeInvalidInput, "dates must be YYYY-MM-DD or RFC 3339")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
