package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"

	"github.com/booksportal/recommendation-service/internal/cache"
	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/booksportal/recommendation-service/internal/repository"
)

// fakeStore serves a small fixed catalog from memory.
type fakeStore struct {
	users     map[int64]struct{}
	ratings   map[int64]map[int64]float64
	books     map[int64]domain.Book
	liked     map[int64][]int64
	favorited map[int64][]int64
}

func (f *fakeStore) GetUserRatings(_ context.Context, userID int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(f.ratings[userID]))
	for bookID, rating := range f.ratings[userID] {
		out[bookID] = rating
	}
	return out, nil
}

func (f *fakeStore) UsersWithRatings(_ context.Context, excludeUserID int64) ([]int64, error) {
	var ids []int64
	for userID, ratings := range f.ratings {
		if userID != excludeUserID && len(ratings) > 0 {
			ids = append(ids, userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) LikedBookIDs(_ context.Context, userID int64) ([]int64, error) {
	return f.liked[userID], nil
}

func (f *fakeStore) FavoritedBookIDs(_ context.Context, userID int64) ([]int64, error) {
	return f.favorited[userID], nil
}

func (f *fakeStore) UserExists(_ context.Context, userID int64) error {
	if _, ok := f.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

func (f *fakeStore) CountBooks(_ context.Context) (int, error) {
	return len(f.books), nil
}

func (f *fakeStore) BooksByIDs(_ context.Context, ids []int64) ([]domain.Book, error) {
	books := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		if book, ok := f.books[id]; ok {
			books = append(books, book)
		}
	}
	return books, nil
}

func (f *fakeStore) CandidateBookIDs(_ context.Context, exclude []int64, years repository.YearRange, limit int) ([]int64, error) {
	return f.selectIDs(exclude, years, limit, func(domain.Book) bool { return true }), nil
}

func (f *fakeStore) PopularBookIDs(_ context.Context, exclude []int64, minRating float64, minRatingsCount int, years repository.YearRange, limit int) ([]int64, error) {
	return f.selectIDs(exclude, years, limit, func(b domain.Book) bool {
		return b.RatingsCount >= minRatingsCount && b.MeanRating >= minRating
	}), nil
}

func (f *fakeStore) BookIDsByAuthors(_ context.Context, authorIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error) {
	return f.selectIDs(exclude, years, limit, func(b domain.Book) bool {
		for _, a := range b.Authors {
			for _, id := range authorIDs {
				if a.ID == id {
					return true
				}
			}
		}
		return false
	}), nil
}

func (f *fakeStore) BookIDsByCategories(_ context.Context, categoryIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error) {
	return f.selectIDs(exclude, years, limit, func(b domain.Book) bool {
		for _, c := range b.Categories {
			for _, id := range categoryIDs {
				if c.ID == id {
					return true
				}
			}
		}
		return false
	}), nil
}

func (f *fakeStore) BookIDsByTags(_ context.Context, tagIDs, exclude []int64, years repository.YearRange, limit int) ([]int64, error) {
	return f.selectIDs(exclude, years, limit, func(b domain.Book) bool {
		for _, t := range b.Tags {
			for _, id := range tagIDs {
				if t.ID == id {
					return true
				}
			}
		}
		return false
	}), nil
}

func (f *fakeStore) selectIDs(exclude []int64, years repository.YearRange, limit int, keep func(domain.Book) bool) []int64 {
	excluded := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var ids []int64
	for id, book := range f.books {
		if _, ok := excluded[id]; ok {
			continue
		}
		if years.Min != 0 && book.Year < years.Min {
			continue
		}
		if years.Max != 0 && book.Year > years.Max {
			continue
		}
		if keep(book) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if f.books[ids[i]].MeanRating != f.books[ids[j]].MeanRating {
			return f.books[ids[i]].MeanRating > f.books[ids[j]].MeanRating
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

// fakeRecCache round-trips payloads through JSON the way the real cache
// does, so cached and fresh responses stay interchangeable. Batch
// requests hit it concurrently, hence the mutex.
type fakeRecCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	gets    int
	sets    int
}

func newFakeRecCache() *fakeRecCache {
	return &fakeRecCache{entries: make(map[string][]byte)}
}

func (c *fakeRecCache) Get(_ context.Context, key cache.Key) ([]domain.BookRecommendation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	raw, ok := c.entries[key.String()]
	if !ok {
		return nil, false, nil
	}
	var recs []domain.BookRecommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, false, err
	}
	return recs, true, nil
}

func (c *fakeRecCache) Set(_ context.Context, key cache.Key, recs []domain.BookRecommendation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	raw, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	c.entries[key.String()] = raw
	return nil
}

func newFixtureStore() *fakeStore {
	author := func(id int64, name string) domain.Author { return domain.Author{ID: id, Name: name} }
	category := func(id int64, name string) domain.Category { return domain.Category{ID: id, Name: name} }
	tag := func(id int64, name string) domain.Tag { return domain.Tag{ID: id, Name: name} }

	iris := author(1, "Iris Vane")
	tom := author(2, "Tom Hale")
	sf := category(1, "Science Fiction")
	mystery := category(2, "Mystery")
	space := tag(1, "space")
	noir := tag(2, "noir")

	books := map[int64]domain.Book{
		1:  {ID: 1, Title: "First Orbit", Year: 2001, MeanRating: 4.5, RatingsCount: 10, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}, Tags: []domain.Tag{space}},
		2:  {ID: 2, Title: "Second Orbit", Year: 2005, MeanRating: 4.2, RatingsCount: 8, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}, Tags: []domain.Tag{space}},
		3:  {ID: 3, Title: "Dark Alley", Year: 2010, MeanRating: 3.8, RatingsCount: 6, Authors: []domain.Author{tom}, Categories: []domain.Category{mystery}, Tags: []domain.Tag{noir}},
		4:  {ID: 4, Title: "Cold Case", Year: 1995, MeanRating: 3.5, RatingsCount: 5, Authors: []domain.Author{tom}, Categories: []domain.Category{mystery}, Tags: []domain.Tag{noir}},
		5:  {ID: 5, Title: "Far Shore", Year: 2015, MeanRating: 4.0, RatingsCount: 12, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}},
		6:  {ID: 6, Title: "Liked Already", Year: 2018, MeanRating: 4.6, RatingsCount: 20, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}, Tags: []domain.Tag{space}},
		7:  {ID: 7, Title: "Favorited Already", Year: 2012, MeanRating: 4.4, RatingsCount: 15, Authors: []domain.Author{tom}, Categories: []domain.Category{mystery}, Tags: []domain.Tag{noir}},
		8:  {ID: 8, Title: "New Horizon", Year: 2020, MeanRating: 4.8, RatingsCount: 30, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}, Tags: []domain.Tag{space}},
		9:  {ID: 9, Title: "Low Tide", Year: 2019, MeanRating: 4.3, RatingsCount: 9, Authors: []domain.Author{iris}, Categories: []domain.Category{sf}, Tags: []domain.Tag{space}},
		10: {ID: 10, Title: "Last Witness", Year: 2021, MeanRating: 4.1, RatingsCount: 7, Authors: []domain.Author{tom}, Categories: []domain.Category{mystery}, Tags: []domain.Tag{noir}},
	}

	return &fakeStore{
		users: map[int64]struct{}{1: {}, 2: {}, 3: {}, 4: {}},
		ratings: map[int64]map[int64]float64{
			1: {1: 5, 2: 4, 3: 4, 4: 2, 5: 5},
			2: {1: 5, 2: 4, 3: 4, 8: 5, 9: 4},
			3: {1: 4, 2: 5, 3: 3, 10: 4},
		},
		books:     books,
		liked:     map[int64][]int64{1: {6}},
		favorited: map[int64][]int64{1: {7}},
	}
}

func TestGetUserRecommendationsNotEnoughData(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	params := DefaultParams()
	params.Type = domain.TypeCollaborative

	_, _, err := svc.GetUserRecommendations(context.Background(), 4, params)
	if !errors.Is(err, domain.ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData for user without ratings, got %v", err)
	}
}

func TestGetUserRecommendationsPopularityForNewUser(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())
	svc.SetPopularityRand(nil)

	params := DefaultParams()
	params.Type = domain.TypePopularity

	recs, cacheHit, err := svc.GetUserRecommendations(context.Background(), 4, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cacheHit {
		t.Error("first request should not hit the cache")
	}
	if len(recs) == 0 {
		t.Fatal("expected popularity results for a user without ratings")
	}
	for _, rec := range recs {
		if rec.RecommendationType != domain.TypePopularity {
			t.Errorf("book %d has type %s, want popularity", rec.BookID, rec.RecommendationType)
		}
		if rec.Score < 0 || rec.Score > 1 {
			t.Errorf("book %d score %f outside [0,1]", rec.BookID, rec.Score)
		}
		book := newFixtureStore().books[rec.BookID]
		if book.RatingsCount < 5 || book.MeanRating < 4.0 {
			t.Errorf("book %d should not qualify as popular (%d ratings, mean %.1f)", rec.BookID, book.RatingsCount, book.MeanRating)
		}
	}
}

func TestGetUserRecommendationsExcludesInteractedBooks(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	recs, _, err := svc.GetUserRecommendations(context.Background(), 1, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected hybrid results")
	}

	// Books 1-5 are rated, 6 is liked, 7 is favorited.
	for _, rec := range recs {
		if rec.BookID <= 7 {
			t.Errorf("book %d was already rated, liked or favorited", rec.BookID)
		}
		if rec.RecommendationType != domain.TypeHybrid {
			t.Errorf("book %d has type %s, want hybrid", rec.BookID, rec.RecommendationType)
		}
	}
}

func TestGetUserRecommendationsRespectsLimit(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	params := DefaultParams()
	params.Limit = 2

	recs, _, err := svc.GetUserRecommendations(context.Background(), 1, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) > 2 {
		t.Errorf("expected at most 2 recommendations, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
}

func TestGetUserRecommendationsYearFilter(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	params := DefaultParams()
	params.Type = domain.TypeCollaborative
	params.MinYear = 2020

	recs, _, err := svc.GetUserRecommendations(context.Background(), 1, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range recs {
		if rec.Year < 2020 {
			t.Errorf("book %d from %d passed the min_year filter", rec.BookID, rec.Year)
		}
	}
}

func TestGetUserRecommendationsCacheRoundTrip(t *testing.T) {
	recCache := newFakeRecCache()
	svc := NewService(newFixtureStore(), recCache)

	first, hit, err := svc.GetUserRecommendations(context.Background(), 1, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("first request should miss")
	}
	if recCache.sets != 1 {
		t.Errorf("expected 1 cache write, got %d", recCache.sets)
	}

	second, hit, err := svc.GetUserRecommendations(context.Background(), 1, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Error("second identical request should hit the cache")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached response diverges from computed one:\n%+v\n%+v", first, second)
	}
	if recCache.sets != 1 {
		t.Errorf("cache hit should not rewrite the entry, got %d writes", recCache.sets)
	}
}

func TestGetUserRecommendationsCacheErrorTreatedAsMiss(t *testing.T) {
	recCache := newFakeRecCache()
	recCache.getErr = errors.New("connection refused")
	svc := NewService(newFixtureStore(), recCache)

	recs, hit, err := svc.GetUserRecommendations(context.Background(), 1, DefaultParams())
	if err != nil {
		t.Fatalf("cache failure must not fail the request, got %v", err)
	}
	if hit {
		t.Error("errored cache lookup must count as a miss")
	}
	if len(recs) == 0 {
		t.Error("expected freshly computed recommendations")
	}
}

func TestGetUserRecommendationsSkipsCacheWhenDisabled(t *testing.T) {
	recCache := newFakeRecCache()
	svc := NewService(newFixtureStore(), recCache)

	params := DefaultParams()
	params.UseCache = false

	if _, _, err := svc.GetUserRecommendations(context.Background(), 1, params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recCache.gets != 0 || recCache.sets != 0 {
		t.Errorf("cache touched with use_cache=false: %d gets, %d sets", recCache.gets, recCache.sets)
	}
}

func TestGetSimilarUsers(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	similar, err := svc.GetSimilarUsers(context.Background(), 1, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(similar) != 2 {
		t.Fatalf("expected 2 similar users, got %d", len(similar))
	}
	// User 2 matches user 1 exactly on the three common books.
	if similar[0].UserID != 2 {
		t.Errorf("expected user 2 first, got %d", similar[0].UserID)
	}
	if similar[0].Similarity < similar[1].Similarity {
		t.Error("similar users not sorted descending")
	}
	for _, u := range similar {
		if u.CommonBooks != 3 {
			t.Errorf("user %d has %d common books, want 3", u.UserID, u.CommonBooks)
		}
	}

	limited, err := svc.GetSimilarUsers(context.Background(), 1, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to cap the list at 1, got %d", len(limited))
	}
}

func TestGetSimilarUsersEmptyHistory(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	similar, err := svc.GetSimilarUsers(context.Background(), 4, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if similar == nil || len(similar) != 0 {
		t.Errorf("expected empty non-nil list, got %v", similar)
	}
}

func TestGetRecommendationStats(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	stats, err := svc.GetRecommendationStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RatedBooksCount != 5 {
		t.Errorf("rated books count %d, want 5", stats.RatedBooksCount)
	}
	if stats.TotalBooksCount != 10 {
		t.Errorf("total books count %d, want 10", stats.TotalBooksCount)
	}
	if stats.AvgRating != 4.0 {
		t.Errorf("avg rating %f, want 4.0", stats.AvgRating)
	}
	// Books rated >= 4 cover both authors and both categories.
	wantAuthors := []string{"Iris Vane", "Tom Hale"}
	if !reflect.DeepEqual(stats.FavoriteAuthors, wantAuthors) {
		t.Errorf("favorite authors %v, want %v", stats.FavoriteAuthors, wantAuthors)
	}
	wantCategories := []string{"Mystery", "Science Fiction"}
	if !reflect.DeepEqual(stats.FavoriteCategories, wantCategories) {
		t.Errorf("favorite categories %v, want %v", stats.FavoriteCategories, wantCategories)
	}
	if !stats.IsCollaborativeReady {
		t.Error("5 ratings should make the user collaborative-ready")
	}
	if !stats.IsContentReady {
		t.Error("favorites present should make the user content-ready")
	}
}

func TestGetRecommendationStatsEmptyHistory(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	stats, err := svc.GetRecommendationStats(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.RatedBooksCount != 0 || stats.AvgRating != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
	if stats.IsCollaborativeReady || stats.IsContentReady {
		t.Error("user without ratings cannot be ready for any strategy")
	}
	if stats.FavoriteAuthors == nil || stats.FavoriteCategories == nil || stats.FavoriteTags == nil {
		t.Error("favorite lists must be empty, not nil")
	}
}

func TestGetRecommendationStatsUnknownUser(t *testing.T) {
	svc := NewService(newFixtureStore(), newFakeRecCache())

	if _, err := svc.GetRecommendationStats(context.Background(), 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
