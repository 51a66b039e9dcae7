package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/booksportal/recommendation-service/internal/service"
	"github.com/go-chi/chi/v5"
)

// GET /users/{userID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	params := service.DefaultParams()
	q := r.URL.Query()

	if limitStr := q.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 20 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		params.Limit = parsed
	}
	recType, err := domain.ParseRecommendationType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid type parameter")
		return
	}
	params.Type = recType

	if minRatingStr := q.Get("min_rating"); minRatingStr != "" {
		parsed, err := strconv.ParseFloat(minRatingStr, 64)
		if err != nil || parsed < 1 || parsed > 5 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid min_rating parameter")
			return
		}
		params.MinRating = parsed
	}
	if minYearStr := q.Get("min_year"); minYearStr != "" {
		parsed, err := strconv.Atoi(minYearStr)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid min_year parameter")
			return
		}
		params.MinYear = parsed
	}
	if maxYearStr := q.Get("max_year"); maxYearStr != "" {
		parsed, err := strconv.Atoi(maxYearStr)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid max_year parameter")
			return
		}
		params.MaxYear = parsed
	}
	if minCountStr := q.Get("min_ratings_count"); minCountStr != "" {
		parsed, err := strconv.Atoi(minCountStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid min_ratings_count parameter")
			return
		}
		params.MinRatingsCount = parsed
	}
	if useCacheStr := q.Get("use_cache"); useCacheStr != "" {
		parsed, err := strconv.ParseBool(useCacheStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid use_cache parameter")
			return
		}
		params.UseCache = parsed
	}

	recs, cacheHit, err := h.service.GetUserRecommendations(r.Context(), userID, params)
	if err != nil {
		h.writeRecommendationError(w, userID, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationResponse{
		UserID:          userID,
		Recommendations: recs,
		Metadata: RecommendationMeta{
			CacheHit:    cacheHit,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(recs),
		},
	})
}

// GET /users/{userID}/recommendations/stats
func (h *Handler) GetRecommendationStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetRecommendationStats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found",
				fmt.Sprintf("User with ID %d does not exist", userID))
			return
		}
		h.writeRecommendationError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GET /users/{userID}/similar-users
func (h *Handler) GetSimilarUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 50 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}
	minCommon := 3
	if minCommonStr := r.URL.Query().Get("min_common_ratings"); minCommonStr != "" {
		parsed, err := strconv.Atoi(minCommonStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid min_common_ratings parameter")
			return
		}
		minCommon = parsed
	}

	similar, err := h.service.GetSimilarUsers(r.Context(), userID, limit, minCommon)
	if err != nil {
		h.writeRecommendationError(w, userID, err)
		return
	}
	writeJSON(w, http.StatusOK, SimilarUsersResponse{
		UserID:       userID,
		SimilarUsers: similar,
	})
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return 0, false
	}
	return userID, true
}

func (h *Handler) writeRecommendationError(w http.ResponseWriter, userID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrNotEnoughData):
		writeError(w, http.StatusUnprocessableEntity, "not_enough_data",
			"Not enough interaction history yet, rate some books first")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found",
			fmt.Sprintf("User with ID %d does not exist", userID))
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
