package scorer

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"
)

// Chain tries each backend in order and returns the first valid bounded
// score. The winning backend id travels in the Result. When every
// backend fails it returns ErrScoringUnavailable.
type Chain struct {
	backends []Scorer
	timeout  time.Duration
}

// NewChain builds a fallback chain. timeout applies per backend call;
// a backend that does not answer in time is a failed backend, not a
// hang.
func NewChain(timeout time.Duration, backends ...Scorer) *Chain {
	return &Chain{backends: backends, timeout: timeout}
}

func (c *Chain) Score(ctx context.Context, text string) (Result, error) {
	for _, b := range c.backends {
		bctx, cancel := context.WithTimeout(ctx, c.timeout)
		res, err := b.Score(bctx, text)
		cancel()

		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if err != nil {
			logger.WithError(err).WithField("model", b.Model()).Warn("scorer backend failed, trying next")
			continue
		}
		if res.Value < -1 || res.Value > 1 {
			logger.WithFields(logger.Fields{
				"model": b.Model(),
				"score": res.Value,
			}).Warn("scorer backend returned out-of-range score, trying next")
			continue
		}

		res.Model = b.Model()
		return res, nil
	}
	return Result{}, ErrScoringUnavailable
}

// Model reports the primary backend; the effective model is carried per
// result.
func (c *Chain) Model() string {
	if len(c.backends) == 0 {
		return ""
	}
	return c.backends[0].Model()
}
