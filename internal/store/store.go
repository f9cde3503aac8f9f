// Package store is the Postgres adapter. It deals in flat rows; entity
// reconstruction (tag resolution, reservation decoding) is the managers' job.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate wraps Postgres unique violations. The constraint is the
// authoritative guard against create races; the managers' pre-flight
// existence check is only a fast path.
var ErrDuplicate = errors.New("duplicate key")

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// nullable keeps empty lookup keys out of OR-matching WHERE clauses:
// NULL never compares equal, an empty string might.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
