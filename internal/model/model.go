package model

import "time"

type UserType string

const (
	UserTypeAdmin UserType = "admin"
	UserTypeUser  UserType = "user"
)

// User is a directory account. Identified by uuid, with username and email
// as alternate unique keys.
type User struct {
	UUID         string        `json:"uuid"`
	Type         UserType      `json:"type"`
	Username     string        `json:"username"`
	Email        string        `json:"email,omitempty"`
	Password     string        `json:"-"` // bcrypt digest, never exposed
	CreatedAt    time.Time     `json:"created_at"`
	Reservations []Reservation `json:"reservations,omitempty"`
}

func (u *User) PrimaryKey() string { return u.UUID }

func (u *User) AlternateKeys() []string { return []string{u.Username, u.Email} }

func (u *User) Clone() *User {
	c := *u
	c.Reservations = CloneReservations(u.Reservations)
	return &c
}

// Lecturer is a bookable profile. Identified by uuid, with username as the
// alternate unique key. Reservations are embedded; they never outlive the
// lecturer in storage.
type Lecturer struct {
	UUID         string        `json:"uuid"`
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	TitleBefore  string        `json:"title_before,omitempty"`
	FirstName    string        `json:"first_name"`
	MiddleName   string        `json:"middle_name,omitempty"`
	LastName     string        `json:"last_name"`
	TitleAfter   string        `json:"title_after,omitempty"`
	PictureURL   string        `json:"picture_url,omitempty"`
	Location     string        `json:"location,omitempty"`
	Claim        string        `json:"claim,omitempty"`
	Bio          string        `json:"bio,omitempty"`
	PricePerHour string        `json:"price_per_hour,omitempty"`
	Tags         []Tag         `json:"tags,omitempty"`
	Contact      *Contact      `json:"contact,omitempty"`
	Reservations []Reservation `json:"reservations,omitempty"`
}

func (l *Lecturer) PrimaryKey() string { return l.UUID }

func (l *Lecturer) AlternateKeys() []string { return []string{l.Username} }

// Clone returns a deep copy, so edits can be validated without touching the
// cached instance.
func (l *Lecturer) Clone() *Lecturer {
	c := *l
	c.Tags = append([]Tag(nil), l.Tags...)
	if l.Contact != nil {
		contact := Contact{
			Emails:           append([]string(nil), l.Contact.Emails...),
			TelephoneNumbers: append([]string(nil), l.Contact.TelephoneNumbers...),
		}
		c.Contact = &contact
	}
	c.Reservations = CloneReservations(l.Reservations)
	return &c
}

// Tag is a lecturer skill/topic label, unique by name.
type Tag struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func (t *Tag) PrimaryKey() string { return t.UUID }

func (t *Tag) AlternateKeys() []string { return []string{t.Name} }

type Contact struct {
	Emails           []string `json:"emails,omitempty"`
	TelephoneNumbers []string `json:"telephone_numbers,omitempty"`
}
