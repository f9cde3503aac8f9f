package handler

import (
	"net/http"

	"lecturer-booking-api/internal/manager"
	"lecturer-booking-api/internal/middleware"
	"lecturer-booking-api/internal/model"
)

func (h *Handler) listLecturers(w http.ResponseWriter, r *http.Request) {
	lecturers, err := h.lecturers.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lecturers)
}

func (h *Handler) getLecturer(w http.ResponseWriter, r *http.Request) {
	l, err := h.lecturers.Get(r.Context(), manager.Identity{UUID: r.PathValue("uuid")})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if l == nil {
		h.writeJSON(w, http.StatusNotFound, errorBody{Error: "lecturer not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

func (h *Handler) createLecturer(w http.ResponseWriter, r *http.Request) {
	var draft model.LecturerDraft
	if err := decode(r, &draft); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	l, err := h.lecturers.Create(r.Context(), &draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) editLecturer(w http.ResponseWriter, r *http.Request) {
	uuid := r.PathValue("uuid")
	// lecturers may only edit themselves
	if middleware.LecturerUUID(r.Context()) != uuid {
		h.writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return
	}

	var draft model.LecturerDraft
	if err := decode(r, &draft); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	l, err := h.lecturers.Edit(r.Context(), manager.Identity{UUID: uuid}, &draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

func (h *Handler) deleteLecturer(w http.ResponseWriter, r *http.Request) {
	uuid := r.PathValue("uuid")
	if middleware.LecturerUUID(r.Context()) != uuid {
		h.writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
		return
	}

	if err := h.lecturers.Delete(r.Context(), manager.Identity{UUID: uuid}); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}

type bookingRequest struct {
	Reservation string            `json:"reservation,omitempty"`
	Appointment model.Appointment `json:"appointment"`
}

// bookAppointment is the public booking endpoint: anyone can request a slot
// with a lecturer; the scheduler decides.
func (h *Handler) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decode(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	l, err := h.lecturers.AddAppointment(r.Context(),
		manager.Identity{UUID: r.PathValue("uuid")}, req.Reservation, req.Appointment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, l.Reservations)
}
