package recommend

import (
	"math"
	"testing"

	"github.com/booksportal/recommendation-service/internal/domain"
)

func TestPredictRatingsWeightedAverage(t *testing.T) {
	neighbors := []Neighbor{
		{
			User:    domain.SimilarUser{UserID: 2, Similarity: 0.8},
			Ratings: map[int64]float64{10: 5},
		},
		{
			User:    domain.SimilarUser{UserID: 3, Similarity: 0.4},
			Ratings: map[int64]float64{10: 3},
		},
	}

	predictions := PredictRatings(neighbors, nil)
	if len(predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(predictions))
	}

	// predicted = (5*0.8 + 3*0.4) / (0.8+0.4) = 5.2/1.2
	predicted := 5.2 / 1.2
	want := (predicted - 1) / 4
	if math.Abs(predictions[0].Score-want) > 1e-9 {
		t.Errorf("expected score %f, got %f", want, predictions[0].Score)
	}
}

func TestPredictRatingsDiscardsWeakNeighbors(t *testing.T) {
	neighbors := []Neighbor{
		{
			User:    domain.SimilarUser{UserID: 2, Similarity: 0.05},
			Ratings: map[int64]float64{10: 5},
		},
	}
	if predictions := PredictRatings(neighbors, nil); len(predictions) != 0 {
		t.Errorf("expected no predictions from sub-threshold neighbors, got %d", len(predictions))
	}
}

func TestPredictRatingsExcludesSeenBooks(t *testing.T) {
	neighbors := []Neighbor{
		{
			User:    domain.SimilarUser{UserID: 2, Similarity: 0.9},
			Ratings: map[int64]float64{10: 5, 11: 4},
		},
	}
	exclude := map[int64]struct{}{10: {}}

	predictions := PredictRatings(neighbors, exclude)
	if len(predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(predictions))
	}
	if predictions[0].BookID != 11 {
		t.Errorf("expected book 11, got %d", predictions[0].BookID)
	}
}

func TestPredictRatingsScoreRange(t *testing.T) {
	neighbors := []Neighbor{
		{
			User:    domain.SimilarUser{UserID: 2, Similarity: 1.0},
			Ratings: map[int64]float64{10: 5, 11: 1, 12: 3},
		},
	}
	for _, p := range PredictRatings(neighbors, nil) {
		if p.Score < 0 || p.Score > 1 {
			t.Errorf("score %f for book %d outside [0,1]", p.Score, p.BookID)
		}
	}
}

func TestPredictRatingsContributorCap(t *testing.T) {
	neighbors := make([]Neighbor, 5)
	for i := range neighbors {
		neighbors[i] = Neighbor{
			User:    domain.SimilarUser{UserID: int64(i + 2), Similarity: 0.9 - float64(i)*0.1},
			Ratings: map[int64]float64{10: 4},
		}
	}

	predictions := PredictRatings(neighbors, nil)
	if len(predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(predictions))
	}
	if len(predictions[0].Contributors) != 3 {
		t.Errorf("expected 3 attached contributors, got %d", len(predictions[0].Contributors))
	}
	if predictions[0].Contributors[0].UserID != 2 {
		t.Errorf("expected strongest contributor first, got user %d", predictions[0].Contributors[0].UserID)
	}
}
