// Package scorer defines the sentiment scoring collaborator contract
// and the ordered fallback chain the dispatcher walks through.
package scorer

import (
	"context"
	"errors"
)

// ErrScoringUnavailable signals a backend timeout or error. The
// dispatcher owns retry and fallback; a scorer is stateless per call.
var ErrScoringUnavailable = errors.New("scoring unavailable")

// Result is one bounded sentiment score.
type Result struct {
	Value      float64
	Confidence *float64
	Model      string
}

// Scorer scores a piece of text in [-1, 1].
type Scorer interface {
	// Score must honor ctx cancellation and deadlines.
	Score(ctx context.Context, text string) (Result, error)
	// Model identifies the backend for whitelisting and logging.
	Model() string
}
