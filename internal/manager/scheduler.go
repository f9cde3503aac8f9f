package manager

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lecturer-booking-api/internal/apperr"
	"lecturer-booking-api/internal/model"
	"lecturer-booking-api/internal/sanitize"
)

// checkConflict validates a candidate slot against every appointment the
// entity already holds, across all of its reservations. Intervals are
// half-open, so a slot starting exactly when another ends is fine.
func checkConflict(resvs []model.Reservation, cand model.Appointment) error {
	if !cand.Start.Before(cand.End) {
		return apperr.InvalidDateRange()
	}
	for _, r := range resvs {
		for _, a := range r.Appointments {
			if a.Overlaps(cand) {
				return apperr.TimeConflict()
			}
		}
	}
	return nil
}

// placeAppointment appends the candidate to the reservation with the given
// uuid, or to a fresh reservation when no target matches.
func placeAppointment(resvs []model.Reservation, target string, cand model.Appointment) []model.Reservation {
	for i, r := range resvs {
		if target != "" && r.UUID == target {
			resvs[i].Appointments = append(resvs[i].Appointments, cand)
			return resvs
		}
	}
	return append(resvs, model.Reservation{
		UUID:         uuid.NewString(),
		Appointments: []model.Appointment{cand},
	})
}

// cleanAppointment sanitizes the visitor-supplied contact fields. The
// identifier is always minted server-side; submitted uuids are discarded.
func cleanAppointment(a model.Appointment) model.Appointment {
	a.FirstName = sanitize.Clean(a.FirstName)
	a.LastName = sanitize.Clean(a.LastName)
	a.Location = sanitize.Clean(a.Location)
	a.Email = sanitize.Clean(a.Email)
	a.PhoneNumber = sanitize.Clean(a.PhoneNumber)
	a.Message = sanitize.Clean(a.Message)
	a.UUID = uuid.NewString()
	return a
}

// AddAppointment books a slot against a lecturer. The whole
// check-then-append sequence runs under the lecturer's identity lock, so two
// concurrent bookings cannot both pass the conflict check on a stale
// snapshot.
func (m *LecturerManager) AddAppointment(ctx context.Context, id Identity, reservationUUID string, appt model.Appointment) (*model.Lecturer, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("lecturer")
	}

	unlock := m.locks.lock("lecturer:" + current.UUID)
	defer unlock()

	current, err = m.Get(ctx, Identity{UUID: current.UUID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("lecturer")
	}

	if err := checkConflict(current.Reservations, appt); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Reservations = placeAppointment(next.Reservations, reservationUUID, cleanAppointment(appt))

	row, err := lecturerRow(next)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateLecturer(ctx, row); err != nil {
		return nil, err
	}

	m.cache.Upsert(next)
	m.log.Debug("booked appointment",
		zap.String("lecturer", next.UUID),
		zap.Time("start", appt.Start),
		zap.Time("end", appt.End))
	return next, nil
}

// AddAppointment books a slot against a user's own calendar.
func (m *UserManager) AddAppointment(ctx context.Context, id Identity, reservationUUID string, appt model.Appointment) (*model.User, error) {
	m.inflight.Add(1)
	defer m.inflight.Done()

	current, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("user")
	}

	unlock := m.locks.lock("user:" + current.UUID)
	defer unlock()

	current, err = m.Get(ctx, Identity{UUID: current.UUID})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFound("user")
	}

	if err := checkConflict(current.Reservations, appt); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Reservations = placeAppointment(next.Reservations, reservationUUID, cleanAppointment(appt))

	row, err := userRow(next)
	if err != nil {
		return nil, err
	}
	if err := m.store.UpdateUser(ctx, row); err != nil {
		return nil, err
	}

	m.cache.Upsert(next)
	m.log.Debug("booked appointment",
		zap.String("user", next.UUID),
		zap.Time("start", appt.Start),
		zap.Time("end", appt.End))
	return next, nil
}
