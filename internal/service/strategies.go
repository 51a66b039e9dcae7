package service

import (
	"context"
	"log"

	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/booksportal/recommendation-service/internal/recommend"
)

// collaborativeRecommendations predicts ratings from similar users'
// histories. The full neighbor scan runs here, so latency grows with
// the rater population.
func (s *Service) collaborativeRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	others, err := s.neighborRatings(ctx, st.userID)
	if err != nil {
		return nil, err
	}

	similar := recommend.RankSimilarUsers(st.ratings, others, recommend.DefaultMinCommonRatings)
	if len(similar) == 0 {
		return nil, nil
	}

	neighbors := make([]recommend.Neighbor, 0, len(similar))
	for _, u := range similar {
		neighbors = append(neighbors, recommend.Neighbor{User: u, Ratings: others[u.UserID]})
	}

	predictions := recommend.PredictRatings(neighbors, st.exclude)
	if len(predictions) == 0 {
		return nil, nil
	}
	// Fetch a pool beyond the limit so the rating filter below does not
	// starve the result.
	pool := st.params.Limit * facetCandidateFactor
	if len(predictions) > pool {
		predictions = predictions[:pool]
	}

	ids := make([]int64, 0, len(predictions))
	for _, p := range predictions {
		ids = append(ids, p.BookID)
	}
	books, err := s.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := indexBooks(books)

	recs := make([]domain.BookRecommendation, 0, len(predictions))
	for _, p := range predictions {
		book, ok := byID[p.BookID]
		if !ok {
			log.Printf("[service] skipping book %d for user %d: not materialized", p.BookID, st.userID)
			continue
		}
		if !passesRatingFilter(book, st.params.MinRating) || !withinYears(book, st.params) {
			continue
		}
		recs = append(recs, recommend.CollaborativeRecommendation(book, p))
	}
	return recs, nil
}

// contentRecommendations scores a candidate pool against the user's
// preference profile.
func (s *Service) contentRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	profile, err := s.loadProfile(ctx, st)
	if err != nil {
		return nil, err
	}
	if profile.Empty() {
		return nil, nil
	}

	candidateIDs, err := s.store.CandidateBookIDs(ctx, st.excludeIDs, st.params.years(), candidatePoolSize)
	if err != nil {
		return nil, err
	}
	books, err := s.store.BooksByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.BookRecommendation, 0, len(books))
	for i := range books {
		book := &books[i]
		if !passesRatingFilter(book, st.params.MinRating) {
			continue
		}
		recs = append(recs, recommend.ScoreContent(profile, book))
	}
	return recs, nil
}

// popularityRecommendations needs no user history at all.
func (s *Service) popularityRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	floor := st.params.MinRating
	ids, err := s.store.PopularBookIDs(ctx, st.excludeIDs, floor, st.params.MinRatingsCount, st.params.years(), st.params.Limit*popularityPoolFactor)
	if err != nil {
		return nil, err
	}
	books, err := s.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.popularity.Score(books, st.params.MinRating, st.params.MinRatingsCount), nil
}

func (s *Service) authorRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	return s.facetRecommendations(ctx, st, domain.TypeAuthor)
}

func (s *Service) categoryRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	return s.facetRecommendations(ctx, st, domain.TypeCategory)
}

func (s *Service) tagRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	return s.facetRecommendations(ctx, st, domain.TypeTag)
}

// facetRecommendations restricts the candidate universe to a single
// facet of the user's favorites. An empty result is a legitimate "you
// have no favorites here yet", not an error.
func (s *Service) facetRecommendations(ctx context.Context, st *requestState, facet domain.RecommendationType) ([]domain.BookRecommendation, error) {
	ratedBooks, err := s.loadRatedBooks(ctx, st)
	if err != nil {
		return nil, err
	}
	favorites := recommend.CollectFavorites(st.ratings, ratedBooks)

	var facetIDs map[int64]struct{}
	switch facet {
	case domain.TypeAuthor:
		facetIDs = favorites.AuthorIDs
	case domain.TypeCategory:
		facetIDs = favorites.CategoryIDs
	default:
		facetIDs = favorites.TagIDs
	}
	if len(facetIDs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(facetIDs))
	for id := range facetIDs {
		ids = append(ids, id)
	}

	poolLimit := st.params.Limit * facetCandidateFactor
	var candidateIDs []int64
	switch facet {
	case domain.TypeAuthor:
		candidateIDs, err = s.store.BookIDsByAuthors(ctx, ids, st.excludeIDs, st.params.years(), poolLimit)
	case domain.TypeCategory:
		candidateIDs, err = s.store.BookIDsByCategories(ctx, ids, st.excludeIDs, st.params.years(), poolLimit)
	default:
		candidateIDs, err = s.store.BookIDsByTags(ctx, ids, st.excludeIDs, st.params.years(), poolLimit)
	}
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, st)
	if err != nil {
		return nil, err
	}
	books, err := s.store.BooksByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	recs := make([]domain.BookRecommendation, 0, len(books))
	for i := range books {
		book := &books[i]
		if !passesRatingFilter(book, st.params.MinRating) {
			continue
		}
		recs = append(recs, recommend.ScoreFacet(profile, book, facet))
	}
	return recs, nil
}

// hybridRecommendations blends collaborative and content results,
// backfilling from the facet strategies when the merge comes up short.
func (s *Service) hybridRecommendations(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error) {
	collaborative, err := s.collaborativeRecommendations(ctx, st)
	if err != nil {
		return nil, err
	}
	collaborative = recommend.TruncateSorted(collaborative, st.params.Limit)

	content, err := s.contentRecommendations(ctx, st)
	if err != nil {
		return nil, err
	}
	content = recommend.TruncateSorted(content, st.params.Limit)

	var backfill [][]domain.BookRecommendation
	if mergedCount(collaborative, content) < st.params.Limit {
		for _, facet := range []domain.RecommendationType{domain.TypeAuthor, domain.TypeCategory, domain.TypeTag} {
			recs, err := s.facetRecommendations(ctx, st, facet)
			if err != nil {
				return nil, err
			}
			backfill = append(backfill, recommend.TruncateSorted(recs, st.params.Limit))
		}
	}

	return recommend.BlendHybrid(collaborative, content, backfill, st.params.Limit), nil
}

func mergedCount(collaborative, content []domain.BookRecommendation) int {
	seen := make(map[int64]struct{}, len(collaborative)+len(content))
	for _, rec := range collaborative {
		seen[rec.BookID] = struct{}{}
	}
	for _, rec := range content {
		seen[rec.BookID] = struct{}{}
	}
	return len(seen)
}

func indexBooks(books []domain.Book) map[int64]*domain.Book {
	byID := make(map[int64]*domain.Book, len(books))
	for i := range books {
		byID[books[i].ID] = &books[i]
	}
	return byID
}

// passesRatingFilter drops rated books below the caller's floor.
// Unrated books pass; they carry no popularity component anyway.
func passesRatingFilter(book *domain.Book, minRating float64) bool {
	return book.RatingsCount == 0 || book.MeanRating >= minRating
}

func withinYears(book *domain.Book, p Params) bool {
	if p.MinYear != 0 && book.Year < p.MinYear {
		return false
	}
	if p.MaxYear != 0 && book.Year > p.MaxYear {
		return false
	}
	return true
}
