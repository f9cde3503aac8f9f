package model

// LecturerDraft is a raw profile submission. The same shape serves create and
// edit; on edit an empty field means "leave unchanged".
type LecturerDraft struct {
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	TitleBefore  string        `json:"title_before"`
	FirstName    string        `json:"first_name"`
	MiddleName   string        `json:"middle_name"`
	LastName     string        `json:"last_name"`
	TitleAfter   string        `json:"title_after"`
	PictureURL   string        `json:"picture_url"`
	Location     string        `json:"location"`
	Claim        string        `json:"claim"`
	Bio          string        `json:"bio"`
	PricePerHour string        `json:"price_per_hour"`
	Tags         []TagDraft    `json:"tags"`
	Contact      *ContactDraft `json:"contact"`
}

// TagDraft references a tag by name only; the uuid is resolved or minted
// during processing.
type TagDraft struct {
	Name string `json:"name"`
}

type ContactDraft struct {
	Emails           []string `json:"emails"`
	TelephoneNumbers []string `json:"telephone_numbers"`
}

// UserDraft is a raw account submission.
type UserDraft struct {
	Type     UserType `json:"type"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
}
