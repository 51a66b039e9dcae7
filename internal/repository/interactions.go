package repository

import (
	"context"
	"fmt"
)

// LikedBookIDs returns the ids of books the user has liked.
func (r *Repository) LikedBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.bookIDsFor(ctx, `SELECT book_id FROM likes WHERE user_id = $1`, userID, "likes")
}

// FavoritedBookIDs returns the ids of books the user has favorited.
func (r *Repository) FavoritedBookIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.bookIDsFor(ctx, `SELECT book_id FROM favorites WHERE user_id = $1`, userID, "favorites")
}

func (r *Repository) bookIDsFor(ctx context.Context, query string, userID int64, relation string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query %s for user %d: %w", relation, userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s book id: %w", relation, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", relation, err)
	}
	return ids, nil
}
