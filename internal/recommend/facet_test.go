package recommend

import (
	"math"
	"testing"

	"github.com/booksportal/recommendation-service/internal/domain"
)

func TestCollectFavorites(t *testing.T) {
	ratings := map[int64]float64{1: 5, 2: 3}
	books := []domain.Book{
		{
			ID:         1,
			Authors:    []domain.Author{{ID: 100, Name: "X"}},
			Categories: []domain.Category{{ID: 200, Name: "SF"}},
			Tags:       []domain.Tag{{ID: 300, Name: "space"}},
		},
		{
			// Rated 3, below the favorite floor.
			ID:      2,
			Authors: []domain.Author{{ID: 101, Name: "Y"}},
		},
	}

	fav := CollectFavorites(ratings, books)
	if _, ok := fav.AuthorIDs[100]; !ok {
		t.Error("expected author 100 among favorites")
	}
	if _, ok := fav.AuthorIDs[101]; ok {
		t.Error("author of a 3-star book should not be a favorite")
	}
	if len(fav.CategoryIDs) != 1 || len(fav.TagIDs) != 1 {
		t.Errorf("expected 1 category and 1 tag, got %d and %d", len(fav.CategoryIDs), len(fav.TagIDs))
	}
}

func TestScoreFacetAuthor(t *testing.T) {
	profile := &Profile{
		AuthorWeights: map[int64]float64{100: 0.8},
		AuthorNames:   map[int64]string{100: "X"},
	}
	book := domain.Book{
		ID:           7,
		Title:        "Late Work",
		Authors:      []domain.Author{{ID: 100, Name: "X"}},
		MeanRating:   4.0,
		RatingsCount: 12,
	}

	rec := ScoreFacet(profile, &book, domain.TypeAuthor)

	want := 0.8*0.7 + 0.75*0.3
	if math.Abs(rec.Score-want) > 1e-9 {
		t.Errorf("expected score %f, got %f", want, rec.Score)
	}
	if rec.Reason != "By an author you rated highly: X" {
		t.Errorf("unexpected reason %q", rec.Reason)
	}
	if rec.RecommendationType != domain.TypeAuthor {
		t.Errorf("expected author type, got %s", rec.RecommendationType)
	}
}

func TestScoreFacetUnweightedFallsBackToPopularity(t *testing.T) {
	profile := &Profile{CategoryWeights: map[int64]float64{}}
	book := domain.Book{
		ID:           8,
		Categories:   []domain.Category{{ID: 999, Name: "Other"}},
		MeanRating:   5,
		RatingsCount: 4,
	}

	rec := ScoreFacet(profile, &book, domain.TypeCategory)
	if math.Abs(rec.Score-0.3) > 1e-9 {
		t.Errorf("expected popularity-only score 0.3, got %f", rec.Score)
	}
	if rec.Reason != "In a category you rated highly" {
		t.Errorf("expected generic reason, got %q", rec.Reason)
	}
}
