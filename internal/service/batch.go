package service

import (
	"context"
	"sync"

	"github.com/booksportal/recommendation-service/internal/domain"
)

// batchWorkers bounds how many users are processed concurrently in one
// batch request.
const batchWorkers = 5

// BatchResult is one user's outcome within a batch request. Err is
// per-user; one user failing never fails the batch.
type BatchResult struct {
	UserID          int64
	Recommendations []domain.BookRecommendation
	Err             error
}

// GetBatchRecommendations computes recommendations for several users
// with a bounded worker pool. Results come back in input order.
func (s *Service) GetBatchRecommendations(ctx context.Context, userIDs []int64, params Params) []BatchResult {
	results := make([]BatchResult, len(userIDs))
	sem := make(chan struct{}, batchWorkers)
	var wg sync.WaitGroup

	for i, userID := range userIDs {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			recs, _, err := s.GetUserRecommendations(ctx, userID, params)
			results[i] = BatchResult{UserID: userID, Recommendations: recs, Err: err}
		}(i, userID)
	}
	wg.Wait()
	return results
}
