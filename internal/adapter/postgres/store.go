package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads the relay's own tables plus the tracker's reference tables.
// It implements settings.Reader and tracker.Directory.
type Store struct {
	pool    *pgxpool.Pool
	baseURL string
}

// NewStore creates a Store backed by the given connection pool. baseURL is
// the tracker's public URL, used to build issue links.
func NewStore(pool *pgxpool.Pool, baseURL string) *Store {
	return &Store{pool: pool, baseURL: baseURL}
}
