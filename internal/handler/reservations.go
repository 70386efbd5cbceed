package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/go-chi/chi/v5"
)

// CreateReservation handles POST /reservations
// Signed-in users reserve as themselves; anyone else must send guestInfo.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReservationRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.reservations.CreateReservation(r.Context(), identity(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, res, res.Message)
}

// ListReservations handles GET /reservations
// Returns the signed-in user's reservations.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	list, err := h.reservations.ListMyReservations(r.Context(), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if list == nil {
		list = []model.ReservationSummary{}
	}

	writeData(w, http.StatusOK, list, "")
}

// CancelReservation handles DELETE /reservations/{id}
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	res, err := h.reservations.CancelReservation(r.Context(), chi.URLParam(r, "id"), identity(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if res.Promoted == nil {
		res.Promoted = []model.Reservation{}
	}

	writeData(w, http.StatusOK, res, "Reservation cancelled.")
}
