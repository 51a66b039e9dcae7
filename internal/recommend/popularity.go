package recommend

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/booksportal/recommendation-service/internal/domain"
)

const (
	// DefaultMinRatingsCount is the evidence floor for popularity
	// candidates.
	DefaultMinRatingsCount = 5
	// popularityMinMeanRating keeps low-quality books out of the
	// popularity list regardless of volume.
	popularityMinMeanRating = 4.0
)

// PopularityScorer ranks books by mean rating adjusted for rating
// volume. Rand supplies the tie-diversifying jitter; a nil Rand makes
// the scorer fully deterministic.
type PopularityScorer struct {
	Rand *rand.Rand

	// mu guards Rand; *rand.Rand is not safe for concurrent use and
	// batch requests score in parallel.
	mu sync.Mutex
}

// Score filters and ranks candidates by mean_rating·(1+log10(count)).
// Books below minRatingsCount ratings or below the 4.0 mean floor (or
// the caller's stricter minRating) never appear. Scores are the rank
// keys normalized by the maximum into [0, 1], with a 0.95–1.05
// multiplicative jitter applied per entry and the result clamped.
func (s *PopularityScorer) Score(candidates []domain.Book, minRating float64, minRatingsCount int) []domain.BookRecommendation {
	if minRatingsCount <= 0 {
		minRatingsCount = DefaultMinRatingsCount
	}
	floor := popularityMinMeanRating
	if minRating > floor {
		floor = minRating
	}

	type ranked struct {
		book *domain.Book
		key  float64
	}
	var kept []ranked
	var maxKey float64
	for i := range candidates {
		book := &candidates[i]
		if book.RatingsCount < minRatingsCount || book.MeanRating < floor {
			continue
		}
		key := book.MeanRating * (1 + math.Log10(float64(book.RatingsCount)))
		kept = append(kept, ranked{book: book, key: key})
		if key > maxKey {
			maxKey = key
		}
	}
	if maxKey == 0 {
		return nil
	}

	var jitter []float64
	if s.Rand != nil {
		jitter = make([]float64, len(kept))
		s.mu.Lock()
		for i := range jitter {
			jitter[i] = 0.95 + s.Rand.Float64()*0.1
		}
		s.mu.Unlock()
	}

	recs := make([]domain.BookRecommendation, 0, len(kept))
	for i, r := range kept {
		score := r.key / maxKey
		if jitter != nil {
			score *= jitter[i]
		}
		if score > 1 {
			score = 1
		}
		recs = append(recs, domain.BookRecommendation{
			BookID:             r.book.ID,
			Title:              r.book.Title,
			AuthorNames:        r.book.AuthorNames(),
			Category:           r.book.PrimaryCategory(),
			Year:               r.book.Year,
			Score:              score,
			Reason:             "Popular highly rated book",
			RecommendationType: domain.TypePopularity,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].BookID < recs[j].BookID
	})
	return recs
}
