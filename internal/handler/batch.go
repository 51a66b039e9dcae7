package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/booksportal/recommendation-service/internal/domain"
	"github.com/booksportal/recommendation-service/internal/service"
)

// maxBatchSize caps how many users one batch request may carry.
const maxBatchSize = 50

type BatchRequest struct {
	UserIDs []int64 `json:"user_ids"`
	Limit   int     `json:"limit,omitempty"`
	Type    string  `json:"type,omitempty"`
}

type BatchUserResult struct {
	UserID          int64                       `json:"user_id"`
	Recommendations []domain.BookRecommendation `json:"recommendations,omitempty"`
	Error           string                      `json:"error,omitempty"`
}

type BatchResponse struct {
	Results []BatchUserResult `json:"results"`
}

// POST /recommendations/batch
func (h *Handler) BatchRecommendations(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid request body")
		return
	}
	if len(req.UserIDs) == 0 || len(req.UserIDs) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "user_ids must contain between 1 and 50 entries")
		return
	}
	for _, userID := range req.UserIDs {
		if userID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
			return
		}
	}

	params := service.DefaultParams()
	if req.Limit != 0 {
		if req.Limit < 1 || req.Limit > 20 {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		params.Limit = req.Limit
	}
	recType, err := domain.ParseRecommendationType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid type parameter")
		return
	}
	params.Type = recType

	results := h.service.GetBatchRecommendations(r.Context(), req.UserIDs, params)

	resp := BatchResponse{Results: make([]BatchUserResult, 0, len(results))}
	for _, res := range results {
		out := BatchUserResult{UserID: res.UserID, Recommendations: res.Recommendations}
		if res.Err != nil {
			out.Error = batchErrorCode(res.Err)
			out.Recommendations = nil
		}
		resp.Results = append(resp.Results, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func batchErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotEnoughData):
		return "not_enough_data"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return "request_timeout"
	default:
		return "internal_error"
	}
}
