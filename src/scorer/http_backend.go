package scorer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPBackend calls a model server exposing POST /score with
// {"text": ...} and returning {"score": s, "confidence": c}. Retries
// are the chain's and the dispatcher's job, so the client does none.
type HTTPBackend struct {
	model string
	http  *resty.Client
}

func NewHTTPBackend(model, baseURL string, timeout time.Duration) *HTTPBackend {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &HTTPBackend{
		model: model,
		http:  httpClient,
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Score      float64  `json:"score"`
	Confidence *float64 `json:"confidence,omitempty"`
}

func (b *HTTPBackend) Score(ctx context.Context, text string) (Result, error) {
	var out scoreResponse

	resp, err := b.http.R().
		SetContext(ctx).
		SetBody(scoreRequest{Text: text}).
		SetResult(&out).
		Post("/score")
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrScoringUnavailable, b.model, err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("%w: %s: unexpected status %d", ErrScoringUnavailable, b.model, resp.StatusCode())
	}

	return Result{Value: out.Score, Confidence: out.Confidence, Model: b.model}, nil
}

func (b *HTTPBackend) Model() string {
	return b.model
}
