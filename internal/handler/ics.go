package handler

import (
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"lecturer-booking-api/internal/model"
)

// writeICS renders appointments as a VCALENDAR document.
func writeICS(w io.Writer, appts []model.Appointment) {
	cal := ics.NewCalendar()
	cal.SetProductId("-//lecturer-booking-api//EN")

	now := time.Now().UTC()
	for _, a := range appts {
		ev := cal.AddEvent(a.UUID)
		ev.SetDtStampTime(now)
		ev.SetStartAt(a.Start.UTC())
		ev.SetEndAt(a.End.UTC())
		ev.SetSummary(strings.TrimSpace(a.FirstName + " " + a.LastName))
		if a.Location != "" {
			ev.SetLocation(a.Location)
		}
		if a.Message != "" {
			ev.SetDescription(a.Message)
		}
	}

	_ = cal.SerializeTo(w)
}
