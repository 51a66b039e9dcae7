package domain

import (
	"errors"
	"fmt"
)

// ErrNotEnoughData means the user has no interaction history to build
// recommendations from. Callers should prompt the user to rate some
// books first; this is not a system failure.
var ErrNotEnoughData = errors.New("not enough data for recommendations")

// ErrUserNotFound is returned when the requested user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ComputationError wraps an unexpected failure inside a scoring
// strategy. The cause is preserved for logs; callers get a generic
// failure.
type ComputationError struct {
	Strategy RecommendationType
	UserID   int64
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("recommendation computation failed (user=%d strategy=%s): %v", e.UserID, e.Strategy, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// IsComputationError reports whether err is (or wraps) a ComputationError.
func IsComputationError(err error) bool {
	var target *ComputationError
	return errors.As(err, &target)
}
