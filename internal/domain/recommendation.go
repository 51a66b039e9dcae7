package domain

import "fmt"

// RecommendationType selects the strategy used to rank candidate books.
type RecommendationType string

const (
	TypeHybrid        RecommendationType = "hybrid"
	TypeCollaborative RecommendationType = "collaborative"
	TypeContent       RecommendationType = "content"
	TypePopularity    RecommendationType = "popularity"
	TypeAuthor        RecommendationType = "author"
	TypeCategory      RecommendationType = "category"
	TypeTag           RecommendationType = "tag"
)

// ParseRecommendationType validates a query-string value. The empty
// string maps to the hybrid default.
func ParseRecommendationType(s string) (RecommendationType, error) {
	switch RecommendationType(s) {
	case "":
		return TypeHybrid, nil
	case TypeHybrid, TypeCollaborative, TypeContent, TypePopularity, TypeAuthor, TypeCategory, TypeTag:
		return RecommendationType(s), nil
	}
	return "", fmt.Errorf("unknown recommendation type %q", s)
}

// SimilarUser is one neighbor found by the similarity scan.
// Similarity is cosine similarity over co-rated books, in (0, 1].
type SimilarUser struct {
	UserID      int64   `json:"user_id"`
	Similarity  float64 `json:"similarity"`
	CommonBooks int     `json:"common_books"`
}

// BookRecommendation is the output DTO for every strategy. Score is
// always in [0, 1]. SimilarUsers carries the top contributing neighbors
// for collaborative results and is empty otherwise.
type BookRecommendation struct {
	BookID             int64              `json:"book_id"`
	Title              string             `json:"title"`
	AuthorNames        []string           `json:"author_names"`
	Category           string             `json:"category,omitempty"`
	Year               int                `json:"year,omitempty"`
	Score              float64            `json:"score"`
	Reason             string             `json:"reason"`
	RecommendationType RecommendationType `json:"recommendation_type"`
	SimilarUsers       []SimilarUser      `json:"similar_users,omitempty"`
}

// RecommendationStats summarizes how ready each strategy is for a user.
type RecommendationStats struct {
	UserID               int64    `json:"user_id"`
	RatedBooksCount      int      `json:"rated_books_count"`
	TotalBooksCount      int      `json:"total_books_count"`
	AvgRating            float64  `json:"avg_rating"`
	FavoriteAuthors      []string `json:"favorite_authors"`
	FavoriteCategories   []string `json:"favorite_categories"`
	FavoriteTags         []string `json:"favorite_tags"`
	IsCollaborativeReady bool     `json:"is_collaborative_ready"`
	IsContentReady       bool     `json:"is_content_ready"`
}
