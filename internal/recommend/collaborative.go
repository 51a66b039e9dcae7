package recommend

import (
	"sort"

	"github.com/booksportal/recommendation-service/internal/domain"
)

const (
	// topNeighbors caps how many similar users contribute to predictions.
	topNeighbors = 10
	// minNeighborSimilarity discards weak neighbors as noise.
	minNeighborSimilarity = 0.1
	// attachedNeighbors is how many contributing neighbors are surfaced
	// on each collaborative recommendation for transparency.
	attachedNeighbors = 3
)

// Neighbor pairs a ranked similar user with that user's full rating map.
type Neighbor struct {
	User    domain.SimilarUser
	Ratings map[int64]float64
}

// Prediction is a collaboratively predicted rating for one unseen book,
// normalized into [0, 1].
type Prediction struct {
	BookID       int64
	Score        float64
	Contributors []domain.SimilarUser
}

// PredictRatings aggregates neighbor ratings on books the target user
// has not interacted with, weighted by similarity:
//
//	predicted = Σ(rating_v · sim_uv) / Σ(sim_uv)
//
// Only the top 10 neighbors with similarity ≥ 0.1 participate. The
// 1–5 prediction maps to score = (predicted − 1) / 4. Up to three
// contributing neighbors ride along per prediction, strongest first.
func PredictRatings(neighbors []Neighbor, exclude map[int64]struct{}) []Prediction {
	if len(neighbors) > topNeighbors {
		neighbors = neighbors[:topNeighbors]
	}

	type accum struct {
		weighted     float64
		totalSim     float64
		contributors []domain.SimilarUser
	}
	byBook := make(map[int64]*accum)

	for _, n := range neighbors {
		if n.User.Similarity < minNeighborSimilarity {
			continue
		}
		for bookID, rating := range n.Ratings {
			if _, seen := exclude[bookID]; seen {
				continue
			}
			a, ok := byBook[bookID]
			if !ok {
				a = &accum{}
				byBook[bookID] = a
			}
			a.weighted += rating * n.User.Similarity
			a.totalSim += n.User.Similarity
			a.contributors = append(a.contributors, n.User)
		}
	}

	predictions := make([]Prediction, 0, len(byBook))
	for bookID, a := range byBook {
		if a.totalSim == 0 {
			continue
		}
		predicted := a.weighted / a.totalSim
		score := (predicted - 1) / 4
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}

		sort.Slice(a.contributors, func(i, j int) bool {
			return a.contributors[i].Similarity > a.contributors[j].Similarity
		})
		contributors := a.contributors
		if len(contributors) > attachedNeighbors {
			contributors = contributors[:attachedNeighbors]
		}

		predictions = append(predictions, Prediction{
			BookID:       bookID,
			Score:        score,
			Contributors: contributors,
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].Score != predictions[j].Score {
			return predictions[i].Score > predictions[j].Score
		}
		return predictions[i].BookID < predictions[j].BookID
	})
	return predictions
}

// CollaborativeRecommendation builds the output DTO for one predicted
// book.
func CollaborativeRecommendation(book *domain.Book, p Prediction) domain.BookRecommendation {
	return domain.BookRecommendation{
		BookID:             book.ID,
		Title:              book.Title,
		AuthorNames:        book.AuthorNames(),
		Category:           book.PrimaryCategory(),
		Year:               book.Year,
		Score:              p.Score,
		Reason:             "Recommended by similar users",
		RecommendationType: domain.TypeCollaborative,
		SimilarUsers:       p.Contributors,
	}
}
