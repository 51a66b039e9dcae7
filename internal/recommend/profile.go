package recommend

import "github.com/booksportal/recommendation-service/internal/domain"

// Profile is a user's normalized preference distribution over book
// facets. Each map's values sum to 1.0, or the map is empty when the
// user has no positive history on that facet.
type Profile struct {
	AuthorWeights   map[int64]float64
	CategoryWeights map[int64]float64
	TagWeights      map[int64]float64

	// Display names for reason strings, keyed the same as the weights.
	AuthorNames   map[int64]string
	CategoryNames map[int64]string
	TagNames      map[int64]string
}

// Empty reports whether the profile carries no signal at all.
func (p *Profile) Empty() bool {
	return len(p.AuthorWeights) == 0 && len(p.CategoryWeights) == 0 && len(p.TagWeights) == 0
}

// BuildProfile accumulates facet weights from the user's rated books.
// Each book contributes w = (rating − 1) / 4 to every author, category
// and tag attached to it; each facet map is then L1-normalized so it
// reads as a probability-like distribution.
func BuildProfile(ratings map[int64]float64, books []domain.Book) *Profile {
	p := &Profile{
		AuthorWeights:   make(map[int64]float64),
		CategoryWeights: make(map[int64]float64),
		TagWeights:      make(map[int64]float64),
		AuthorNames:     make(map[int64]string),
		CategoryNames:   make(map[int64]string),
		TagNames:        make(map[int64]string),
	}

	for i := range books {
		book := &books[i]
		rating, ok := ratings[book.ID]
		if !ok {
			continue
		}
		w := (rating - 1) / 4
		if w <= 0 {
			continue
		}
		for _, a := range book.Authors {
			p.AuthorWeights[a.ID] += w
			p.AuthorNames[a.ID] = a.Name
		}
		for _, c := range book.Categories {
			p.CategoryWeights[c.ID] += w
			p.CategoryNames[c.ID] = c.Name
		}
		for _, t := range book.Tags {
			p.TagWeights[t.ID] += w
			p.TagNames[t.ID] = t.Name
		}
	}

	normalize(p.AuthorWeights)
	normalize(p.CategoryWeights)
	normalize(p.TagWeights)
	return p
}

func normalize(weights map[int64]float64) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return
	}
	for k := range weights {
		weights[k] /= sum
	}
}
