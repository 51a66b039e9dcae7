package service

import (
	"context"
	"sort"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// collaborativeReadyThreshold is the rating count at which the
// similarity scan has enough signal to be worth running.
const collaborativeReadyThreshold = 5

// GetRecommendationStats summarizes a user's readiness for each
// strategy: history size, average rating, and the facets of books they
// rated highly.
func (s *Service) GetRecommendationStats(ctx context.Context, userID int64) (*domain.RecommendationStats, error) {
	if err := s.store.UserExists(ctx, userID); err != nil {
		return nil, err
	}

	ratings, err := s.store.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalBooks, err := s.store.CountBooks(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.RecommendationStats{
		UserID:             userID,
		RatedBooksCount:    len(ratings),
		TotalBooksCount:    totalBooks,
		FavoriteAuthors:    []string{},
		FavoriteCategories: []string{},
		FavoriteTags:       []string{},
	}
	if len(ratings) == 0 {
		return stats, nil
	}

	var sum float64
	for _, rating := range ratings {
		sum += rating
	}
	stats.AvgRating = sum / float64(len(ratings))

	ids := make([]int64, 0, len(ratings))
	for bookID := range ratings {
		ids = append(ids, bookID)
	}
	books, err := s.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	authors := make(map[string]struct{})
	categories := make(map[string]struct{})
	tags := make(map[string]struct{})
	for i := range books {
		book := &books[i]
		if ratings[book.ID] < 4 {
			continue
		}
		for _, a := range book.Authors {
			authors[a.Name] = struct{}{}
		}
		for _, c := range book.Categories {
			categories[c.Name] = struct{}{}
		}
		for _, t := range book.Tags {
			tags[t.Name] = struct{}{}
		}
	}
	stats.FavoriteAuthors = sortedNames(authors)
	stats.FavoriteCategories = sortedNames(categories)
	stats.FavoriteTags = sortedNames(tags)

	stats.IsCollaborativeReady = stats.RatedBooksCount >= collaborativeReadyThreshold
	stats.IsContentReady = len(stats.FavoriteAuthors) > 0 ||
		len(stats.FavoriteCategories) > 0 ||
		len(stats.FavoriteTags) > 0
	return stats, nil
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
