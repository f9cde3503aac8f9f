package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LecturerRow is a lecturer as stored: tag uuids and contact lists are
// comma-joined text, reservations an embedded JSON blob.
type LecturerRow struct {
	UUID             string
	Username         string
	Password         string
	TitleBefore      string
	FirstName        string
	MiddleName       string
	LastName         string
	TitleAfter       string
	PictureURL       string
	Location         string
	Claim            string
	Bio              string
	PricePerHour     string
	Tags             string
	Emails           string
	TelephoneNumbers string
	Reservations     []byte
}

const lecturerColumns = `uuid, username, password, title_before, first_name, middle_name,
	 last_name, title_after, picture_url, location, claim, bio, price_per_hour,
	 tags, emails, telephone_numbers, reservations`

func scanLecturer(row pgx.Row) (*LecturerRow, error) {
	r := &LecturerRow{}
	err := row.Scan(
		&r.UUID, &r.Username, &r.Password, &r.TitleBefore, &r.FirstName, &r.MiddleName,
		&r.LastName, &r.TitleAfter, &r.PictureURL, &r.Location, &r.Claim, &r.Bio,
		&r.PricePerHour, &r.Tags, &r.Emails, &r.TelephoneNumbers, &r.Reservations,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindLecturer matches by uuid or username; (nil, nil) when no row matches.
func (s *Store) FindLecturer(ctx context.Context, uuid, username string) (*LecturerRow, error) {
	r, err := scanLecturer(s.pool.QueryRow(ctx,
		`SELECT `+lecturerColumns+` FROM lecturers WHERE uuid = $1 OR username = $2`,
		nullable(uuid), nullable(username),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lecturer: %w", err)
	}
	return r, nil
}

func (s *Store) AllLecturers(ctx context.Context) ([]LecturerRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+lecturerColumns+` FROM lecturers ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	defer rows.Close()

	var out []LecturerRow
	for rows.Next() {
		r, err := scanLecturer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) InsertLecturer(ctx context.Context, r *LecturerRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lecturers (`+lecturerColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		r.UUID, r.Username, r.Password, r.TitleBefore, r.FirstName, r.MiddleName,
		r.LastName, r.TitleAfter, r.PictureURL, r.Location, r.Claim, r.Bio,
		r.PricePerHour, r.Tags, r.Emails, r.TelephoneNumbers, r.Reservations,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateLecturer rewrites every column except uuid and username; username is
// immutable after creation.
func (s *Store) UpdateLecturer(ctx context.Context, r *LecturerRow) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE lecturers SET password=$1, title_before=$2, first_name=$3, middle_name=$4,
		 last_name=$5, title_after=$6, picture_url=$7, location=$8, claim=$9, bio=$10,
		 price_per_hour=$11, tags=$12, emails=$13, telephone_numbers=$14, reservations=$15
		 WHERE uuid=$16`,
		r.Password, r.TitleBefore, r.FirstName, r.MiddleName, r.LastName, r.TitleAfter,
		r.PictureURL, r.Location, r.Claim, r.Bio, r.PricePerHour, r.Tags, r.Emails,
		r.TelephoneNumbers, r.Reservations, r.UUID,
	)
	return err
}

// DeleteLecturer returns the affected row count; the manager treats anything
// but exactly one as a desync.
func (s *Store) DeleteLecturer(ctx context.Context, uuid string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lecturers WHERE uuid = $1`, uuid)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
