package connectors

import (
	"context"
	"fmt"
	"time"

	"sentimentpipeline/src/model"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// NewsSource is one configured feed endpoint.
type NewsSource struct {
	Name    string
	FeedURL string
}

// NewsClient polls JSON article feeds. Transport-level retry lives in
// the resty client; schedule-level backoff is the ingestor's job.
type NewsClient struct {
	http *resty.Client
}

func NewNewsClient(timeout time.Duration) *NewsClient {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(4 * time.Second)

	return &NewsClient{http: httpClient}
}

type feedResponse struct {
	Status   string        `json:"status"`
	Articles []feedArticle `json:"articles"`
}

type feedArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary"`
}

// FetchArticles pulls the source's current articles. Articles are raw;
// dedup and validation happen in the ingestor.
func (c *NewsClient) FetchArticles(ctx context.Context, src NewsSource) ([]model.RawNewsMessage, error) {
	var decoded feedResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetResult(&decoded).
		Get(src.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s feed: %w", src.Name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s feed: unexpected status %d", src.Name, resp.StatusCode())
	}
	if decoded.Status != "ok" && decoded.Status != "" {
		return nil, fmt.Errorf("fetch %s feed: unexpected status field %q", src.Name, decoded.Status)
	}

	logger.WithFields(logger.Fields{
		"source":   src.Name,
		"articles": len(decoded.Articles),
	}).Debug("fetched news feed")

	out := make([]model.RawNewsMessage, 0, len(decoded.Articles))
	for _, a := range decoded.Articles {
		out = append(out, model.RawNewsMessage{
			Timestamp: a.PublishedAt.UTC(),
			Source:    src.Name,
			Title:     a.Title,
			URL:       a.URL,
			Body:      a.Summary,
		})
	}
	return out, nil
}
