package repository

import (
	"context"
	"fmt"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// GetUserRatings returns the user's {book_id: rating} map.
func (r *Repository) GetUserRatings(ctx context.Context, userID int64) (map[int64]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT book_id, rating FROM ratings WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	ratings := make(map[int64]float64)
	for rows.Next() {
		var bookID int64
		var rating float64
		if err := rows.Scan(&bookID, &rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings[bookID] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// UsersWithRatings returns every user id that has rated at least one
// book, excluding the given user.
func (r *Repository) UsersWithRatings(ctx context.Context, excludeUserID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM ratings WHERE user_id <> $1 ORDER BY user_id`, excludeUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("query users with ratings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

// UserExists checks the users table so handlers can 404 cleanly.
func (r *Repository) UserExists(ctx context.Context, userID int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("query user id=%d: %w", userID, err)
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

// CountBooks returns the total number of books in the catalog.
func (r *Repository) CountBooks(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return total, nil
}
