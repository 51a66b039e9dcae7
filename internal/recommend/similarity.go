package recommend

import (
	"math"
	"sort"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// DefaultMinCommonRatings is the floor on co-rated books before two
// users are compared at all. Below it cosine similarity is too noisy
// to mean anything.
const DefaultMinCommonRatings = 3

// CosineSimilarity computes the cosine of the angle between two rating
// vectors. Returns 0 for mismatched lengths, empty vectors, or a zero
// norm on either side.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankSimilarUsers scans every other user's ratings and ranks them by
// cosine similarity over the books both users rated. Users sharing
// fewer than minCommon books, or with non-positive similarity, are
// dropped. Results are sorted by similarity descending.
//
// This is a full O(U) scan doing O(common) work per user. There is no
// pre-indexed similarity matrix, so it only holds up for small user
// populations.
func RankSimilarUsers(target map[int64]float64, others map[int64]map[int64]float64, minCommon int) []domain.SimilarUser {
	if len(target) == 0 {
		return nil
	}
	if minCommon <= 0 {
		minCommon = DefaultMinCommonRatings
	}

	var similar []domain.SimilarUser
	for userID, ratings := range others {
		var common []int64
		for bookID := range target {
			if _, ok := ratings[bookID]; ok {
				common = append(common, bookID)
			}
		}
		if len(common) < minCommon {
			continue
		}

		vecA := make([]float64, len(common))
		vecB := make([]float64, len(common))
		for i, bookID := range common {
			vecA[i] = target[bookID]
			vecB[i] = ratings[bookID]
		}

		sim := CosineSimilarity(vecA, vecB)
		if sim <= 0 {
			continue
		}
		similar = append(similar, domain.SimilarUser{
			UserID:      userID,
			Similarity:  sim,
			CommonBooks: len(common),
		})
	}

	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Similarity != similar[j].Similarity {
			return similar[i].Similarity > similar[j].Similarity
		}
		return similar[i].UserID < similar[j].UserID
	})
	return similar
}
