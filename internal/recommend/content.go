package recommend

import (
	"fmt"
	"strings"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// Facet sub-weights inside the content score, and the blend between
// content relevance and statistical popularity.
const (
	authorFacetWeight   = 0.4
	categoryFacetWeight = 0.3
	tagFacetWeight      = 0.3

	contentBlendWeight    = 0.7
	popularityBlendWeight = 0.3
)

// ScoreContent rates one candidate book against a preference profile:
//
//	content = author·0.4 + category·0.3 + avg(tag)·0.3
//	final   = content·0.7 + min(mean_rating/5, 1)·0.3
//
// The reason string names the facets that actually contributed; a
// generic reason is used when none did.
func ScoreContent(p *Profile, book *domain.Book) domain.BookRecommendation {
	var authorScore float64
	var matchedAuthor string
	for _, a := range book.Authors {
		if w := p.AuthorWeights[a.ID]; w > authorScore {
			authorScore = w
			matchedAuthor = a.Name
		}
	}

	var categoryScore float64
	var matchedCategory string
	for _, c := range book.Categories {
		if w := p.CategoryWeights[c.ID]; w > categoryScore {
			categoryScore = w
			matchedCategory = c.Name
		}
	}

	var tagSum, topTagWeight float64
	var topTag string
	for _, t := range book.Tags {
		w := p.TagWeights[t.ID]
		tagSum += w
		if w > topTagWeight {
			topTagWeight = w
			topTag = t.Name
		}
	}
	var tagScore float64
	if len(book.Tags) > 0 {
		tagScore = tagSum / float64(len(book.Tags))
	}

	contentScore := authorScore*authorFacetWeight + categoryScore*categoryFacetWeight + tagScore*tagFacetWeight
	final := contentScore*contentBlendWeight + NormalizedMeanRating(book.MeanRating)*popularityBlendWeight

	var reasonParts []string
	if authorScore > 0 && matchedAuthor != "" {
		reasonParts = append(reasonParts, fmt.Sprintf("by author %s", matchedAuthor))
	}
	if categoryScore > 0 && matchedCategory != "" {
		reasonParts = append(reasonParts, fmt.Sprintf("in category %s", matchedCategory))
	}
	if topTagWeight > 0 && topTag != "" {
		reasonParts = append(reasonParts, fmt.Sprintf("tagged %s", topTag))
	}

	reason := "Similar to books you like"
	if len(reasonParts) > 0 {
		reason = "Similar to books you like: " + strings.Join(reasonParts, ", ")
	}

	return domain.BookRecommendation{
		BookID:             book.ID,
		Title:              book.Title,
		AuthorNames:        book.AuthorNames(),
		Category:           book.PrimaryCategory(),
		Year:               book.Year,
		Score:              final,
		Reason:             reason,
		RecommendationType: domain.TypeContent,
	}
}

// NormalizedMeanRating maps a 0–5 mean rating into [0, 1].
func NormalizedMeanRating(mean float64) float64 {
	norm := mean / 5
	if norm > 1 {
		return 1
	}
	if norm < 0 {
		return 0
	}
	return norm
}
