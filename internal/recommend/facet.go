package recommend

import (
	"fmt"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// favoriteRatingFloor is the rating at which a book counts toward a
// user's favorite authors/categories/tags.
const favoriteRatingFloor = 4.0

// FavoriteFacets collects the facet ids attached to books the user
// rated at or above the favorite floor.
type FavoriteFacets struct {
	AuthorIDs   map[int64]struct{}
	CategoryIDs map[int64]struct{}
	TagIDs      map[int64]struct{}
}

// CollectFavorites walks the user's rated books and keeps the facets of
// every book rated ≥ 4.
func CollectFavorites(ratings map[int64]float64, books []domain.Book) FavoriteFacets {
	fav := FavoriteFacets{
		AuthorIDs:   make(map[int64]struct{}),
		CategoryIDs: make(map[int64]struct{}),
		TagIDs:      make(map[int64]struct{}),
	}
	for i := range books {
		book := &books[i]
		if ratings[book.ID] < favoriteRatingFloor {
			continue
		}
		for _, a := range book.Authors {
			fav.AuthorIDs[a.ID] = struct{}{}
		}
		for _, c := range book.Categories {
			fav.CategoryIDs[c.ID] = struct{}{}
		}
		for _, t := range book.Tags {
			fav.TagIDs[t.ID] = struct{}{}
		}
	}
	return fav
}

// ScoreFacet rates one candidate book against a single facet of the
// profile: facet_weight·0.7 + normalized_mean_rating·0.3. The candidate
// universe is assumed to be pre-restricted to the facet (the repository
// only returns books matching the user's favorites), so a zero facet
// weight still yields a popularity-backed score.
func ScoreFacet(p *Profile, book *domain.Book, facet domain.RecommendationType) domain.BookRecommendation {
	var weight float64
	var reason string

	switch facet {
	case domain.TypeAuthor:
		var matched string
		for _, a := range book.Authors {
			if w := p.AuthorWeights[a.ID]; w > weight {
				weight = w
				matched = a.Name
			}
		}
		reason = "By an author you rated highly"
		if matched != "" {
			reason = fmt.Sprintf("By an author you rated highly: %s", matched)
		}
	case domain.TypeCategory:
		var matched string
		for _, c := range book.Categories {
			if w := p.CategoryWeights[c.ID]; w > weight {
				weight = w
				matched = c.Name
			}
		}
		reason = "In a category you rated highly"
		if matched != "" {
			reason = fmt.Sprintf("In a category you rated highly: %s", matched)
		}
	case domain.TypeTag:
		var matched string
		for _, t := range book.Tags {
			if w := p.TagWeights[t.ID]; w > weight {
				weight = w
				matched = t.Name
			}
		}
		reason = "Tagged with something you like"
		if matched != "" {
			reason = fmt.Sprintf("Tagged with something you like: %s", matched)
		}
	}

	score := weight*contentBlendWeight + NormalizedMeanRating(book.MeanRating)*popularityBlendWeight
	return domain.BookRecommendation{
		BookID:             book.ID,
		Title:              book.Title,
		AuthorNames:        book.AuthorNames(),
		Category:           book.PrimaryCategory(),
		Year:               book.Year,
		Score:              score,
		Reason:             reason,
		RecommendationType: facet,
	}
}
