package service

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/booksportal/recommendation-service/internal/cache"
	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/booksportal/recommendation-service/internal/recommend"
	"github.com/booksportal/recommendation-service/internal/repository"
)

const (
	defaultLimit         = 10
	maxLimit             = 20
	defaultMinRating     = 3.0
	candidatePoolSize    = 100
	popularityPoolFactor = 3
	facetCandidateFactor = 2
	defaultSimilarUsers  = 10
)

// Store is the read side the engine depends on. *repository.Repository
// implements it; tests swap in an in-memory fake.
type Store interface {
	GetUserRatings(ctx context.Context, userID int64) (map[int64]float64, error)
	UsersWithRatings(ctx context.Context, excludeUserID int64) ([]int64, error)
	LikedBookIDs(ctx context.Context, userID int64) ([]int64, error)
	FavoritedBookIDs(ctx context.Context, userID int64) ([]int64, error)
	UserExists(ctx context.Context, userID int64) error
	CountBooks(ctx context.Context) (int, error)
	BooksByIDs(ctx context.Context, ids []int64) ([]domain.Book, error)
	CandidateBookIDs(ctx context.Context, exclude []int64, years repository.YearRange, limit int) ([]int64, error)
	PopularBookIDs(ctx context.Context, exclude []int64, minRating float64, minRatingsCount int, years repository.YearRange, limit int) ([]int64, error)
	BookIDsByAuthors(ctx context.Context, authorIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error)
	BookIDsByCategories(ctx context.Context, categoryIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error)
	BookIDsByTags(ctx context.Context, tagIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error)
}

// RecommendationCache is the cache-aside collaborator. Errors on either
// side are recovered locally and never fail a request.
type RecommendationCache interface {
	Get(ctx context.Context, key cache.Key) ([]domain.BookRecommendation, bool, error)
	Set(ctx context.Context, key cache.Key, recs []domain.BookRecommendation) error
}

// Params are the per-request knobs of GetUserRecommendations.
type Params struct {
	Limit           int
	MinRating       float64
	MinYear         int
	MaxYear         int
	MinRatingsCount int
	Type            domain.RecommendationType
	UseCache        bool
}

// DefaultParams returns Params with every documented default applied.
func DefaultParams() Params {
	return Params{
		Limit:           defaultLimit,
		MinRating:       defaultMinRating,
		MinRatingsCount: recommend.DefaultMinRatingsCount,
		Type:            domain.TypeHybrid,
		UseCache:        true,
	}
}

func (p *Params) normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	} else if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.MinRating <= 0 {
		p.MinRating = defaultMinRating
	}
	if p.MinRatingsCount <= 0 {
		p.MinRatingsCount = recommend.DefaultMinRatingsCount
	}
	if p.Type == "" {
		p.Type = domain.TypeHybrid
	}
}

func (p Params) years() repository.YearRange {
	return repository.YearRange{Min: p.MinYear, Max: p.MaxYear}
}

type strategyFunc func(ctx context.Context, st *requestState) ([]domain.BookRecommendation, error)

// Service is the recommendation engine facade: cache lookup, strategy
// dispatch, filtering and truncation.
type Service struct {
	store      Store
	cache      RecommendationCache
	popularity recommend.PopularityScorer
	strategies map[domain.RecommendationType]strategyFunc
}

func NewService(store Store, recCache RecommendationCache) *Service {
	s := &Service{
		store: store,
		cache: recCache,
	}
	s.popularity.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	s.strategies = map[domain.RecommendationType]strategyFunc{
		domain.TypeHybrid:        s.hybridRecommendations,
		domain.TypeCollaborative: s.collaborativeRecommendations,
		domain.TypeContent:       s.contentRecommendations,
		domain.TypePopularity:    s.popularityRecommendations,
		domain.TypeAuthor:        s.authorRecommendations,
		domain.TypeCategory:      s.categoryRecommendations,
		domain.TypeTag:           s.tagRecommendations,
	}
	return s
}

// SetPopularityRand replaces the jitter source for popularity scoring.
// Tests pass a seeded source for repeatability, or nil to disable the
// jitter entirely.
func (s *Service) SetPopularityRand(r *rand.Rand) {
	s.popularity.Rand = r
}

// requestState carries the per-request data every strategy needs, with
// lazy loading for the pieces only some strategies touch. It lives for
// one request and is discarded with the response.
type requestState struct {
	userID  int64
	params  Params
	ratings map[int64]float64
	exclude map[int64]struct{}
	// excludeIDs mirrors exclude as a slice for SQL ANY(); always
	// non-nil so pgx encodes an empty array rather than NULL.
	excludeIDs []int64

	ratedBooks       []domain.Book
	ratedBooksLoaded bool
	profile          *recommend.Profile
}

// GetUserRecommendations is the main entry point. The bool result
// reports whether the response came from cache.
func (s *Service) GetUserRecommendations(ctx context.Context, userID int64, params Params) ([]domain.BookRecommendation, bool, error) {
	params.normalize()

	key := cache.Key{
		UserID:          userID,
		Type:            params.Type,
		Limit:           params.Limit,
		MinRating:       params.MinRating,
		MinYear:         params.MinYear,
		MaxYear:         params.MaxYear,
		MinRatingsCount: params.MinRatingsCount,
	}
	if params.UseCache && s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("[service] cache get error for user %d: %v", userID, err)
		}
		if found {
			return cached, true, nil
		}
	}

	ratings, err := s.store.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, false, &domain.ComputationError{Strategy: params.Type, UserID: userID, Err: err}
	}
	if len(ratings) == 0 && params.Type != domain.TypePopularity {
		return nil, false, domain.ErrNotEnoughData
	}

	st, err := s.newRequestState(ctx, userID, params, ratings)
	if err != nil {
		return nil, false, &domain.ComputationError{Strategy: params.Type, UserID: userID, Err: err}
	}

	strategy, ok := s.strategies[params.Type]
	if !ok {
		strategy = s.hybridRecommendations
	}
	recs, err := strategy(ctx, st)
	if err != nil {
		if errors.Is(err, domain.ErrNotEnoughData) {
			return nil, false, err
		}
		return nil, false, &domain.ComputationError{Strategy: params.Type, UserID: userID, Err: err}
	}

	recs = recommend.TruncateSorted(recs, params.Limit)
	if recs == nil {
		recs = []domain.BookRecommendation{}
	}

	if params.UseCache && s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, recs); cacheErr != nil {
			log.Printf("[service] cache set error for user %d: %v", userID, cacheErr)
		}
	}
	return recs, false, nil
}

// GetSimilarUsers ranks other users by rating similarity.
func (s *Service) GetSimilarUsers(ctx context.Context, userID int64, limit, minCommonRatings int) ([]domain.SimilarUser, error) {
	if limit <= 0 {
		limit = defaultSimilarUsers
	}
	if minCommonRatings <= 0 {
		minCommonRatings = recommend.DefaultMinCommonRatings
	}

	ratings, err := s.store.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return []domain.SimilarUser{}, nil
	}

	others, err := s.neighborRatings(ctx, userID)
	if err != nil {
		return nil, err
	}
	similar := recommend.RankSimilarUsers(ratings, others, minCommonRatings)
	if len(similar) > limit {
		similar = similar[:limit]
	}
	if similar == nil {
		similar = []domain.SimilarUser{}
	}
	return similar, nil
}

func (s *Service) newRequestState(ctx context.Context, userID int64, params Params, ratings map[int64]float64) (*requestState, error) {
	liked, err := s.store.LikedBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	favorited, err := s.store.FavoritedBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	exclude := make(map[int64]struct{}, len(ratings)+len(liked)+len(favorited))
	for bookID := range ratings {
		exclude[bookID] = struct{}{}
	}
	for _, bookID := range liked {
		exclude[bookID] = struct{}{}
	}
	for _, bookID := range favorited {
		exclude[bookID] = struct{}{}
	}

	excludeIDs := make([]int64, 0, len(exclude))
	for bookID := range exclude {
		excludeIDs = append(excludeIDs, bookID)
	}

	return &requestState{
		userID:     userID,
		params:     params,
		ratings:    ratings,
		exclude:    exclude,
		excludeIDs: excludeIDs,
	}, nil
}

// loadRatedBooks fetches the full views of the user's rated books once
// per request.
func (s *Service) loadRatedBooks(ctx context.Context, st *requestState) ([]domain.Book, error) {
	if st.ratedBooksLoaded {
		return st.ratedBooks, nil
	}
	ids := make([]int64, 0, len(st.ratings))
	for bookID := range st.ratings {
		ids = append(ids, bookID)
	}
	books, err := s.store.BooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	st.ratedBooks = books
	st.ratedBooksLoaded = true
	return books, nil
}

func (s *Service) loadProfile(ctx context.Context, st *requestState) (*recommend.Profile, error) {
	if st.profile != nil {
		return st.profile, nil
	}
	books, err := s.loadRatedBooks(ctx, st)
	if err != nil {
		return nil, err
	}
	st.profile = recommend.BuildProfile(st.ratings, books)
	return st.profile, nil
}

// neighborRatings fetches every other rater's full rating map. One
// round trip per user, sequentially, inside the request's context; fine
// for small populations, a known scalability wall beyond that.
func (s *Service) neighborRatings(ctx context.Context, userID int64) (map[int64]map[int64]float64, error) {
	userIDs, err := s.store.UsersWithRatings(ctx, userID)
	if err != nil {
		return nil, err
	}
	others := make(map[int64]map[int64]float64, len(userIDs))
	for _, otherID := range userIDs {
		ratings, err := s.store.GetUserRatings(ctx, otherID)
		if err != nil {
			return nil, err
		}
		if len(ratings) > 0 {
			others[otherID] = ratings
		}
	}
	return others, nil
}
