package recommend

import (
	"sort"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// Blend weights for the two primary sources at the hybrid level.
const (
	collaborativeWeight = 0.6
	contentWeight       = 0.4
)

const hybridReasonSuffix = " [hybrid recommendation]"

// BlendHybrid merges collaborative and content results into one ranked,
// de-duplicated list. A book present in only one source keeps that
// source's weighted score; a book present in both gets the average of
// the two weighted contributions. When the merged set is short of
// limit, facet strategy results backfill in the order given, skipping
// books already selected. Folded entries keep their origin's reason
// with a hybrid suffix.
func BlendHybrid(collaborative, content []domain.BookRecommendation, backfill [][]domain.BookRecommendation, limit int) []domain.BookRecommendation {
	type merged struct {
		rec       domain.BookRecommendation
		collab    float64
		contentSc float64
		inCollab  bool
		inContent bool
	}
	byBook := make(map[int64]*merged)

	for _, rec := range collaborative {
		byBook[rec.BookID] = &merged{rec: rec, collab: rec.Score, inCollab: true}
	}
	for _, rec := range content {
		if m, ok := byBook[rec.BookID]; ok {
			m.contentSc = rec.Score
			m.inContent = true
			continue
		}
		byBook[rec.BookID] = &merged{rec: rec, contentSc: rec.Score, inContent: true}
	}

	results := make([]domain.BookRecommendation, 0, len(byBook))
	for _, m := range byBook {
		rec := m.rec
		switch {
		case m.inCollab && m.inContent:
			rec.Score = (m.collab*collaborativeWeight + m.contentSc*contentWeight) / 2
		case m.inCollab:
			rec.Score = m.collab * collaborativeWeight
			rec.Reason += hybridReasonSuffix
		default:
			rec.Score = m.contentSc * contentWeight
			rec.Reason += hybridReasonSuffix
		}
		rec.RecommendationType = domain.TypeHybrid
		results = append(results, rec)
	}

	sortByScore(results)

	if len(results) < limit {
		selected := make(map[int64]struct{}, len(results))
		for _, rec := range results {
			selected[rec.BookID] = struct{}{}
		}
	fill:
		for _, source := range backfill {
			for _, rec := range source {
				if _, ok := selected[rec.BookID]; ok {
					continue
				}
				rec.Reason += hybridReasonSuffix
				rec.RecommendationType = domain.TypeHybrid
				results = append(results, rec)
				selected[rec.BookID] = struct{}{}
				if len(results) >= limit {
					break fill
				}
			}
		}
		sortByScore(results)
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func sortByScore(recs []domain.BookRecommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].BookID < recs[j].BookID
	})
}

// TruncateSorted sorts recommendations by score descending and caps the
// list at limit.
func TruncateSorted(recs []domain.BookRecommendation, limit int) []domain.BookRecommendation {
	sortByScore(recs)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
