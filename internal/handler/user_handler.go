package handler

import (
	"net/http"

	"lecturer-booking-api/internal/manager"
	"lecturer-booking-api/internal/middleware"
	"lecturer-booking-api/internal/model"
)

// me returns the session lecturer's own profile.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	l, err := h.lecturers.Get(r.Context(), manager.Identity{UUID: middleware.LecturerUUID(r.Context())})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if l == nil {
		h.writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

func (h *Handler) editMe(w http.ResponseWriter, r *http.Request) {
	var draft model.LecturerDraft
	if err := decode(r, &draft); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	l, err := h.lecturers.Edit(r.Context(),
		manager.Identity{UUID: middleware.LecturerUUID(r.Context())}, &draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

// exportAppointments serves the session lecturer's calendar as an .ics file.
func (h *Handler) exportAppointments(w http.ResponseWriter, r *http.Request) {
	l, err := h.lecturers.Get(r.Context(), manager.Identity{UUID: middleware.LecturerUUID(r.Context())})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if l == nil {
		h.writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var appts []model.Appointment
	for _, resv := range l.Reservations {
		appts = append(appts, resv.Appointments...)
	}
	if len(appts) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", "attachment; filename=events.ics")
	writeICS(w, appts)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var draft model.UserDraft
	if err := decode(r, &draft); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	u, err := h.users.Create(r.Context(), &draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) editUser(w http.ResponseWriter, r *http.Request) {
	var draft model.UserDraft
	if err := decode(r, &draft); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body"})
		return
	}

	u, err := h.users.Edit(r.Context(), manager.Identity{UUID: r.PathValue("uuid")}, &draft)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), manager.Identity{UUID: r.PathValue("uuid")}); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusNoContent, nil)
}
