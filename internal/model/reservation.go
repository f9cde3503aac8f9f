package model

import "time"

// Reservation bundles appointments booked against one entity.
type Reservation struct {
	UUID         string        `json:"uuid"`
	Appointments []Appointment `json:"appointments,omitempty"`
}

// Appointment is a single booked time slot with the visitor's contact data.
// The interval is half-open: [Start, End).
type Appointment struct {
	UUID        string    `json:"uuid"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Location    string    `json:"location,omitempty"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// Overlaps reports whether the half-open intervals of a and b intersect.
// Back-to-back appointments (a.End == b.Start) do not conflict.
func (a Appointment) Overlaps(b Appointment) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func CloneReservations(resvs []Reservation) []Reservation {
	if resvs == nil {
		return nil
	}
	out := make([]Reservation, len(resvs))
	for i, r := range resvs {
		out[i] = r
		out[i].Appointments = append([]Appointment(nil), r.Appointments...)
	}
	return out
}
