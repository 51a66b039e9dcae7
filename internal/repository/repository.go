package repository

import "github.com/jackc/pgx/v5/pgxpool"

// Repository is the read side of the catalog: interaction facts and
// book views with eagerly attached metadata. The recommendation engine
// never sees anything below these methods.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}
