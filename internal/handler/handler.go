// Package handler is the HTTP JSON boundary. It decodes requests, calls the
// managers and maps the error taxonomy onto status codes; it holds no
// business rules of its own.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lecturer-booking-api/internal/apperr"
	"lecturer-booking-api/internal/manager"
	"lecturer-booking-api/internal/middleware"
)

type Handler struct {
	lecturers *manager.LecturerManager
	users     *manager.UserManager
	secret    string
	log       *zap.Logger
}

func New(lecturers *manager.LecturerManager, users *manager.UserManager, secret string, log *zap.Logger) *Handler {
	return &Handler{lecturers: lecturers, users: users, secret: secret, log: log.Named("http")}
}

func (h *Handler) Routes(rl *middleware.RateLimiter) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.Auth(h.secret)
	limited := middleware.RateLimit(rl)

	mux.Handle("POST /api/auth/login", limited(http.HandlerFunc(h.login)))

	mux.HandleFunc("GET /api/lecturers", h.listLecturers)
	mux.HandleFunc("POST /api/lecturers", h.createLecturer)
	mux.HandleFunc("GET /api/lecturers/{uuid}", h.getLecturer)
	mux.Handle("PATCH /api/lecturers/{uuid}", authed(http.HandlerFunc(h.editLecturer)))
	mux.Handle("DELETE /api/lecturers/{uuid}", authed(http.HandlerFunc(h.deleteLecturer)))
	mux.HandleFunc("POST /api/lecturers/{uuid}/appointments", h.bookAppointment)

	mux.Handle("GET /api/user/@me", authed(http.HandlerFunc(h.me)))
	mux.Handle("PATCH /api/user/@me", authed(http.HandlerFunc(h.editMe)))
	mux.Handle("GET /api/user/@me/appointments", authed(http.HandlerFunc(h.exportAppointments)))

	mux.Handle("GET /api/users", authed(http.HandlerFunc(h.listUsers)))
	mux.Handle("POST /api/users", authed(http.HandlerFunc(h.createUser)))
	mux.Handle("PATCH /api/users/{uuid}", authed(http.HandlerFunc(h.editUser)))
	mux.Handle("DELETE /api/users/{uuid}", authed(http.HandlerFunc(h.deleteUser)))

	return mux
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps manager failures onto HTTP statuses. Validation and
// conflict errors arrive here unmodified from the managers.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	body := errorBody{Error: "internal error"}
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindMissingRequiredValue, apperr.KindBelowMinimumLength,
		apperr.KindAboveMaximumLength, apperr.KindInvalidValueType,
		apperr.KindInvalidValueLength, apperr.KindInvalidDateRange:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAlreadyExists, apperr.KindTimeConflict:
		status = http.StatusConflict
	case apperr.KindStoreDesync:
		h.log.Error("store desync", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, body)
		return
	default:
		h.log.Error("request failed", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, body)
		return
	}

	if errors.As(err, &ae) {
		body.Error = ae.Kind.String()
		body.Field = ae.Field
	}
	h.writeJSON(w, status, body)
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
