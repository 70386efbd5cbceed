package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/supper-club/internal/dategroup"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/go-chi/chi/v5"
)

// CreatePoll handles POST /events/{id}/poll
func (h *Handler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreatePollRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.polls.CreatePoll(r.Context(), chi.URLParam(r, "id"), hostID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, created, "Poll created.")
}

// GetPoll handles GET /events/{id}/poll
// Labels follow ?lang= when given, then Accept-Language. Only the host
// sees who responded by email.
func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	locale := dategroup.ResolveLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))

	view, err := h.polls.GetPoll(r.Context(), chi.URLParam(r, "id"), identity(r), locale)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if view.Responses == nil {
		view.Responses = []model.AvailabilityResponse{}
	}

	writeData(w, http.StatusOK, view, "")
}

// SubmitPollResponse handles POST /events/{id}/poll/respond
//
// The body is decoded without validation so that a submission after the
// deadline is reported as late even when its payload is malformed. The
// service checks the payload once the poll is known to be open.
func (h *Handler) SubmitPollResponse(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitResponsesRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.Normalize()
	if req.GuestInfo != nil && identity(r).UserID == "" {
		if err := h.validate.Struct(req.GuestInfo); err != nil {
			h.writeError(w, r, validationError(err))
			return
		}
	}

	saved, err := h.polls.SubmitResponse(r.Context(), chi.URLParam(r, "id"), identity(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, saved, "Availability saved.")
}

// FinalizePoll handles POST /events/{id}/poll/finalize
func (h *Handler) FinalizePoll(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req model.FinalizePollRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.polls.Finalize(r.Context(), chi.URLParam(r, "id"), hostID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, result, "Poll finalized.")
}
