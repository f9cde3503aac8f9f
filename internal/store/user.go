package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type UserRow struct {
	UUID         string
	Type         string
	Username     string
	Email        string
	Password     string
	CreatedAt    time.Time
	Reservations []byte
}

const userColumns = `uuid, type, username, email, password, created_at, reservations`

func scanUser(row pgx.Row) (*UserRow, error) {
	r := &UserRow{}
	err := row.Scan(&r.UUID, &r.Type, &r.Username, &r.Email, &r.Password, &r.CreatedAt, &r.Reservations)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindUser matches by uuid, username or email; (nil, nil) when no row matches.
func (s *Store) FindUser(ctx context.Context, uuid, username, email string) (*UserRow, error) {
	r, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE uuid = $1 OR username = $2 OR email = $3`,
		nullable(uuid), nullable(username), nullable(email),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return r, nil
}

func (s *Store) AllUsers(ctx context.Context) ([]UserRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []UserRow
	for rows.Next() {
		r, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) InsertUser(ctx context.Context, r *UserRow) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.UUID, r.Type, r.Username, r.Email, r.Password, r.CreatedAt, r.Reservations,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) UpdateUser(ctx context.Context, r *UserRow) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET type=$1, email=$2, password=$3, reservations=$4 WHERE uuid=$5`,
		r.Type, r.Email, r.Password, r.Reservations, r.UUID,
	)
	// an email change can collide with the partial unique index
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) DeleteUser(ctx context.Context, uuid string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE uuid = $1`, uuid)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
