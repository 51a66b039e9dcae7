package repository

import (
	"context"
	"fmt"

	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

// YearRange bounds candidate books by publication year. Zero means
// unbounded on that side.
type YearRange struct {
	Min int
	Max int
}

// BooksByIDs loads full read views for the given ids: rating aggregates
// plus authors, categories and tags in three stitch queries, so the
// scorers never trigger per-book lookups.
func (r *Repository) BooksByIDs(ctx context.Context, ids []int64) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.title, COALESCE(b.year, 0),
		        COALESCE(AVG(rt.rating), 0), COUNT(rt.id)
		 FROM books b
		 LEFT JOIN ratings rt ON rt.book_id = b.id
		 WHERE b.id = ANY($1)
		 GROUP BY b.id`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]*domain.Book, len(ids))
	var books []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Year, &b.MeanRating, &b.RatingsCount); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	for i := range books {
		index[books[i].ID] = &books[i]
	}

	if err := r.attachAuthors(ctx, ids, index); err != nil {
		return nil, err
	}
	if err := r.attachCategories(ctx, ids, index); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, ids, index); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *Repository) attachAuthors(ctx context.Context, ids []int64, index map[int64]*domain.Book) error {
	rows, err := r.pool.Query(ctx,
		`SELECT ba.book_id, a.id, a.name
		 FROM book_authors ba
		 JOIN authors a ON a.id = ba.author_id
		 WHERE ba.book_id = ANY($1)
		 ORDER BY ba.book_id, a.id`, ids,
	)
	if err != nil {
		return fmt.Errorf("query book authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var a domain.Author
		if err := rows.Scan(&bookID, &a.ID, &a.Name); err != nil {
			return fmt.Errorf("scan book author: %w", err)
		}
		if b, ok := index[bookID]; ok {
			b.Authors = append(b.Authors, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate book authors: %w", err)
	}
	return nil
}

func (r *Repository) attachCategories(ctx context.Context, ids []int64, index map[int64]*domain.Book) error {
	rows, err := r.pool.Query(ctx,
		`SELECT bc.book_id, c.id, c.name
		 FROM book_categories bc
		 JOIN categories c ON c.id = bc.category_id
		 WHERE bc.book_id = ANY($1)
		 ORDER BY bc.book_id, c.id`, ids,
	)
	if err != nil {
		return fmt.Errorf("query book categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var c domain.Category
		if err := rows.Scan(&bookID, &c.ID, &c.Name); err != nil {
			return fmt.Errorf("scan book category: %w", err)
		}
		if b, ok := index[bookID]; ok {
			b.Categories = append(b.Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate book categories: %w", err)
	}
	return nil
}

func (r *Repository) attachTags(ctx context.Context, ids []int64, index map[int64]*domain.Book) error {
	rows, err := r.pool.Query(ctx,
		`SELECT bt.book_id, t.id, t.name
		 FROM book_tags bt
		 JOIN tags t ON t.id = bt.tag_id
		 WHERE bt.book_id = ANY($1)
		 ORDER BY bt.book_id, t.id`, ids,
	)
	if err != nil {
		return fmt.Errorf("query book tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID int64
		var t domain.Tag
		if err := rows.Scan(&bookID, &t.ID, &t.Name); err != nil {
			return fmt.Errorf("scan book tag: %w", err)
		}
		if b, ok := index[bookID]; ok {
			b.Tags = append(b.Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate book tags: %w", err)
	}
	return nil
}

// CandidateBookIDs returns a pool of candidate ids the user has not
// interacted with, best-rated first, bounded by the year range.
func (r *Repository) CandidateBookIDs(ctx context.Context, exclude []int64, years YearRange, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id
		 FROM books b
		 LEFT JOIN ratings rt ON rt.book_id = b.id
		 WHERE NOT (b.id = ANY($1))
		   AND ($2 = 0 OR b.year >= $2)
		   AND ($3 = 0 OR b.year <= $3)
		 GROUP BY b.id
		 ORDER BY COALESCE(AVG(rt.rating), 0) DESC, b.id
		 LIMIT $4`,
		exclude, years.Min, years.Max, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidate books: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// PopularBookIDs returns candidate ids with enough rating volume and a
// high enough mean rating to qualify for popularity ranking.
func (r *Repository) PopularBookIDs(ctx context.Context, exclude []int64, minRating float64, minRatingsCount int, years YearRange, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id
		 FROM books b
		 JOIN ratings rt ON rt.book_id = b.id
		 WHERE NOT (b.id = ANY($1))
		   AND ($2 = 0 OR b.year >= $2)
		   AND ($3 = 0 OR b.year <= $3)
		 GROUP BY b.id
		 HAVING COUNT(rt.id) >= $4 AND AVG(rt.rating) >= $5
		 ORDER BY AVG(rt.rating) DESC, b.id
		 LIMIT $6`,
		exclude, years.Min, years.Max, minRatingsCount, minRating, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query popular books: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BookIDsByAuthors restricts the candidate pool to books by the given
// authors.
func (r *Repository) BookIDsByAuthors(ctx context.Context, authorIDs, exclude []int64, years YearRange, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT b.id
		 FROM books b
		 JOIN book_authors ba ON ba.book_id = b.id
		 WHERE ba.author_id = ANY($1)
		   AND NOT (b.id = ANY($2))
		   AND ($3 = 0 OR b.year >= $3)
		   AND ($4 = 0 OR b.year <= $4)
		 ORDER BY b.id
		 LIMIT $5`,
		authorIDs, exclude, years.Min, years.Max, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query books by authors: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BookIDsByCategories restricts the candidate pool to books in the
// given categories.
func (r *Repository) BookIDsByCategories(ctx context.Context, categoryIDs, exclude []int64, years YearRange, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT b.id
		 FROM books b
		 JOIN book_categories bc ON bc.book_id = b.id
		 WHERE bc.category_id = ANY($1)
		   AND NOT (b.id = ANY($2))
		   AND ($3 = 0 OR b.year >= $3)
		   AND ($4 = 0 OR b.year <= $4)
		 ORDER BY b.id
		 LIMIT $5`,
		categoryIDs, exclude, years.Min, years.Max, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query books by categories: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// BookIDsByTags restricts the candidate pool to books carrying the
// given tags.
func (r *Repository) BookIDsByTags(ctx context.Context, tagIDs, exclude []int64, years YearRange, limit int) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT b.id
		 FROM books b
		 JOIN book_tags bt ON bt.book_id = b.id
		 WHERE bt.tag_id = ANY($1)
		   AND NOT (b.id = ANY($2))
		   AND ($3 = 0 OR b.year >= $3)
		   AND ($4 = 0 OR b.year <= $4)
		 ORDER BY b.id
		 LIMIT $5`,
		tagIDs, exclude, years.Min, years.Max, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query books by tags: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book ids: %w", err)
	}
	return ids, nil
}
