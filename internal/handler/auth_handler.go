package handler

import (
	"net/http"

	"lecturer-booking-api/internal/auth"
	"lecturer-booking-api/internal/manager"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	UUID  string `json:"uuid"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil || req.Username == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "username and password required"})
		return
	}

	lecturer, err := h.lecturers.Get(r.Context(), manager.Identity{Username: req.Username})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if lecturer == nil || !auth.CheckPassword(lecturer.Password, req.Password) {
		h.writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	tok, err := auth.MakeToken(lecturer.UUID, h.secret)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loginResponse{Token: tok, UUID: lecturer.UUID})
}
