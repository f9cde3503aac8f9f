package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type TagRow struct {
	UUID string
	Name string
}

// FindTag matches by uuid or name; (nil, nil) when no row matches.
func (s *Store) FindTag(ctx context.Context, uuid, name string) (*TagRow, error) {
	r := &TagRow{}
	err := s.pool.QueryRow(ctx,
		`SELECT uuid, name FROM tags WHERE uuid = $1 OR name = $2`,
		nullable(uuid), nullable(name),
	).Scan(&r.UUID, &r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return r, nil
}

func (s *Store) AllTags(ctx context.Context) ([]TagRow, error) {
	rows, err := s.pool.Query(ctx, `SELECT uuid, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []TagRow
	for rows.Next() {
		var r TagRow
		if err := rows.Scan(&r.UUID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) InsertTag(ctx context.Context, r *TagRow) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO tags (uuid, name) VALUES ($1,$2)`, r.UUID, r.Name)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}
