package seeds

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	userCount     = 20
	authorCount   = 12
	categoryCount = 6
	tagCount      = 15
	bookCount     = 60
	ratingCount   = 300
	likeCount     = 80
	favoriteCount = 40
)

func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	rng := rand.New(rand.NewSource(42))

	// Truncate existing data before insert
	log.Println("[seed] truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE favorites, likes, ratings, book_tags, book_categories, book_authors,
		         books, tags, categories, authors, users RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Println("[seed] inserting users")
	if err := seedUsers(ctx, pool, userCount); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	log.Println("[seed] inserting catalog metadata")
	if err := seedAuthors(ctx, pool); err != nil {
		return fmt.Errorf("seed authors: %w", err)
	}
	if err := seedCategories(ctx, pool); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if err := seedTags(ctx, pool); err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}

	log.Println("[seed] inserting books")
	if err := seedBooks(ctx, pool, rng, bookCount); err != nil {
		return fmt.Errorf("seed books: %w", err)
	}

	log.Println("[seed] inserting interactions")
	if err := seedRatings(ctx, pool, rng, ratingCount); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}
	if err := seedPairs(ctx, pool, rng, "likes", likeCount); err != nil {
		return fmt.Errorf("seed likes: %w", err)
	}
	if err := seedPairs(ctx, pool, rng, "favorites", favoriteCount); err != nil {
		return fmt.Errorf("seed favorites: %w", err)
	}

	log.Println("[seed] seeding complete")
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, n int) error {
	rows := []string{}
	args := []any{}

	for i := 0; i < n; i++ {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, fmt.Sprintf("reader%02d", i+1), fmt.Sprintf("reader%02d@example.com", i+1))
	}

	query := "INSERT INTO users (username, email) VALUES " + strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedAuthors(ctx context.Context, pool *pgxpool.Pool) error {
	names := []string{
		"Ursula K. Le Guin", "Isaac Asimov", "Agatha Christie", "Fyodor Dostoevsky",
		"Jane Austen", "Stanislaw Lem", "Terry Pratchett", "Octavia E. Butler",
		"Haruki Murakami", "Italo Calvino", "Margaret Atwood", "Jorge Luis Borges",
	}
	return insertNames(ctx, pool, "authors", names[:authorCount])
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) error {
	names := []string{
		"Science Fiction", "Mystery", "Classics", "Fantasy", "Literary Fiction", "Dystopia",
	}
	return insertNames(ctx, pool, "categories", names[:categoryCount])
}

func seedTags(ctx context.Context, pool *pgxpool.Pool) error {
	names := []string{
		"space", "detective", "philosophy", "humor", "time-travel",
		"romance", "politics", "ai", "short-stories", "translated",
		"award-winner", "series", "classic", "dark", "adventure",
	}
	return insertNames(ctx, pool, "tags", names[:tagCount])
}

func insertNames(ctx context.Context, pool *pgxpool.Pool, table string, names []string) error {
	rows := []string{}
	args := []any{}
	for _, name := range names {
		rows = append(rows, fmt.Sprintf("($%d)", len(args)+1))
		args = append(args, name)
	}
	query := fmt.Sprintf("INSERT INTO %s (name) VALUES %s", table, strings.Join(rows, ", "))
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedBooks(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, n int) error {
	rows := []string{}
	args := []any{}

	for i := 0; i < n; i++ {
		year := 1950 + rng.Intn(75)
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, fmt.Sprintf("Book %02d", i+1), year)
	}

	query := "INSERT INTO books (title, year) VALUES " + strings.Join(rows, ", ")
	if _, err := pool.Exec(ctx, query, args...); err != nil {
		return err
	}

	// Every book gets one author and one category, roughly a third get
	// a second author; 1-3 tags each.
	authorRows := []string{}
	authorArgs := []any{}
	addAuthor := func(bookID, authorID int64) {
		base := len(authorArgs)
		authorRows = append(authorRows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		authorArgs = append(authorArgs, bookID, authorID)
	}
	categoryRows := []string{}
	categoryArgs := []any{}
	tagRows := []string{}
	tagArgs := []any{}

	for i := 0; i < n; i++ {
		bookID := int64(i + 1)
		primary := int64(rng.Intn(authorCount) + 1)
		addAuthor(bookID, primary)
		if rng.Float64() < 0.3 {
			second := int64(rng.Intn(authorCount) + 1)
			if second != primary {
				addAuthor(bookID, second)
			}
		}

		base := len(categoryArgs)
		categoryRows = append(categoryRows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		categoryArgs = append(categoryArgs, bookID, int64(rng.Intn(categoryCount)+1))

		seen := map[int64]bool{}
		for j, m := 0, 1+rng.Intn(3); j < m; j++ {
			tagID := int64(rng.Intn(tagCount) + 1)
			if seen[tagID] {
				continue
			}
			seen[tagID] = true
			tagBase := len(tagArgs)
			tagRows = append(tagRows, fmt.Sprintf("($%d, $%d)", tagBase+1, tagBase+2))
			tagArgs = append(tagArgs, bookID, tagID)
		}
	}

	if _, err := pool.Exec(ctx,
		"INSERT INTO book_authors (book_id, author_id) VALUES "+strings.Join(authorRows, ", "), authorArgs...); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx,
		"INSERT INTO book_categories (book_id, category_id) VALUES "+strings.Join(categoryRows, ", "), categoryArgs...); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx,
		"INSERT INTO book_tags (book_id, tag_id) VALUES "+strings.Join(tagRows, ", "), tagArgs...); err != nil {
		return err
	}
	return nil
}

func seedRatings(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, n int) error {
	seen := make(map[[2]int64]bool)

	rows := []string{}
	args := []any{}

	for j := 0; j < n; j++ {
		userID := powerLawID(rng, 1.5, userCount)
		bookID := powerLawID(rng, 1.3, bookCount)

		key := [2]int64{userID, bookID}
		if seen[key] {
			continue
		}
		seen[key] = true

		// Skew toward positive ratings, like real catalogs.
		rating := float64(rng.Intn(3) + 3)
		if rng.Float64() < 0.25 {
			rating = float64(rng.Intn(2) + 1)
		}

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, userID, bookID, rating)
	}

	if len(rows) == 0 {
		return nil
	}
	query := "INSERT INTO ratings (user_id, book_id, rating) VALUES " + strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedPairs(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, table string, n int) error {
	seen := make(map[[2]int64]bool)

	rows := []string{}
	args := []any{}

	for j := 0; j < n; j++ {
		userID := powerLawID(rng, 1.5, userCount)
		bookID := powerLawID(rng, 1.3, bookCount)

		key := [2]int64{userID, bookID}
		if seen[key] {
			continue
		}
		seen[key] = true

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, userID, bookID)
	}

	if len(rows) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO %s (user_id, book_id) VALUES %s", table, strings.Join(rows, ", "))
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func powerLawID(rng *rand.Rand, exponent float64, max int) int64 {
	id := int64(math.Ceil(math.Pow(rng.Float64(), exponent) * float64(max)))
	if id < 1 {
		return 1
	}
	if id > int64(max) {
		return int64(max)
	}
	return id
}
