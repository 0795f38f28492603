package cache

import (
	"context"
	"time"

	"sentimentpipeline/src/model"
)

// Reader is the trading-side view of the cache: read-only, with the
// staleness rule applied before an entry is trusted.
type Reader struct {
	client    *Client
	threshold time.Duration
	now       func() time.Time
}

func NewReader(client *Client, threshold time.Duration) *Reader {
	return &Reader{
		client:    client,
		threshold: threshold,
		now:       time.Now,
	}
}

// Fresh returns the entry for pair only when it is younger than the
// staleness threshold. Absent and stale entries both come back as
// ErrNotFound: a stale score must be treated the same as no score.
func (r *Reader) Fresh(ctx context.Context, pair string) (*model.SentimentEntry, error) {
	entry, err := r.client.GetSignal(ctx, pair)
	if err != nil {
		return nil, err
	}
	if entry.IsStale(r.now().UTC(), r.threshold) {
		return nil, ErrNotFound
	}
	return entry, nil
}
