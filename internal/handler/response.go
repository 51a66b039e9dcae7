package handler

import "github.com/booksportal/recommendation-service/internal/domain"

type RecommendationMeta struct {
	CacheHit    bool   `json:"cache_hit"`
	GeneratedAt string `json:"generated_at"`
	TotalCount  int    `json:"total_count"`
}

type RecommendationResponse struct {
	UserID          int64                       `json:"user_id"`
	Recommendations []domain.BookRecommendation `json:"recommendations"`
	Metadata        RecommendationMeta          `json:"metadata"`
}

type SimilarUsersResponse struct {
	UserID       int64                `json:"user_id"`
	SimilarUsers []domain.SimilarUser `json:"similar_users"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
