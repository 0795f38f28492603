package executors

import (
	"context"
	"sort"
	"sync"
	"time"

	"sentimentpipeline/src/backoff"
	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/connectors"
	"sentimentpipeline/src/dedup"
	"sentimentpipeline/src/metrics"
	"sentimentpipeline/src/model"
	"sentimentpipeline/src/ops"
	"sentimentpipeline/src/schema"

	logger "github.com/sirupsen/logrus"
)

// NewsFetcher pulls the current articles of one source.
type NewsFetcher interface {
	FetchArticles(ctx context.Context, src connectors.NewsSource) ([]model.RawNewsMessage, error)
}

const newsComponent = "news_ingestor"

// NewsIngestor polls every configured source on its own schedule,
// deduplicates by URL content-address, validates at the boundary and
// publishes to raw_news_data.
type NewsIngestor struct {
	Config NewsIngestorConfig
	Client NewsFetcher
	Broker Publisher
	Health *ops.Health

	Log   *logger.Entry
	dedup *dedup.Set
}

func (n *NewsIngestor) Start(ctx context.Context) error {
	if n.Log == nil {
		n.Log = logger.WithField("component", newsComponent)
	}
	n.dedup = dedup.New(n.Config.DedupCapacity)

	sources := n.sources()
	if len(sources) == 0 {
		n.Log.Warn("no news feeds configured, nothing to do")
		<-ctx.Done()
		return nil
	}

	n.Log.WithField("sources", len(sources)).Info("news ingestor started")

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src connectors.NewsSource) {
			defer wg.Done()
			n.pollLoop(ctx, src)
		}(src)
	}
	wg.Wait()

	n.Log.Info("news ingestor stopped")
	return nil
}

func (n *NewsIngestor) sources() []connectors.NewsSource {
	out := make([]connectors.NewsSource, 0, len(n.Config.Feeds))
	for name, feedURL := range n.Config.Feeds {
		if _, ok := schema.AllowedNewsDomains[name]; !ok {
			n.Log.WithField("source", name).Warn("configured feed is not whitelisted, skipping")
			continue
		}
		out = append(out, connectors.NewsSource{Name: name, FeedURL: feedURL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (n *NewsIngestor) pollLoop(ctx context.Context, src connectors.NewsSource) {
	ticker := time.NewTicker(n.Config.PollPeriod)
	defer ticker.Stop()

	n.pollSource(ctx, src)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.pollSource(ctx, src)
		}
	}
}

func (n *NewsIngestor) pollSource(ctx context.Context, src connectors.NewsSource) {
	var articles []model.RawNewsMessage
	err := backoff.Retry(ctx, n.Config.FeedRetryPolicy(), func() error {
		var ferr error
		articles, ferr = n.Client.FetchArticles(ctx, src)
		return ferr
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		n.Log.WithError(err).WithField("source", src.Name).Error("news feed failed after retries")
		metrics.FeedFailures.WithLabelValues(src.Name).Inc()
		if n.Health != nil {
			n.Health.SetDegraded(newsComponent, "feed "+src.Name+" unreachable")
		}
		return
	}
	if n.Health != nil {
		n.Health.SetHealthy(newsComponent)
	}

	for _, article := range articles {
		n.publishArticle(ctx, article)
	}
}

func (n *NewsIngestor) publishArticle(ctx context.Context, article model.RawNewsMessage) {
	fingerprint, err := dedup.Fingerprint(article.URL)
	if err != nil {
		n.Log.WithError(err).WithField("source", article.Source).Warn("dropping article with unusable url")
		metrics.ArticlesRejected.WithLabelValues(article.Source).Inc()
		return
	}
	if n.dedup.Seen(fingerprint) {
		metrics.ArticlesDeduplicated.WithLabelValues(article.Source).Inc()
		return
	}

	// whitelist and anti-spoofing checks happen here, at the boundary
	if err := schema.ValidateNews(article); err != nil {
		n.Log.WithError(err).WithField("source", article.Source).Warn("dropping invalid article")
		metrics.ArticlesRejected.WithLabelValues(article.Source).Inc()
		return
	}

	err = backoff.Retry(ctx, n.Config.FeedRetryPolicy(), func() error {
		return n.Broker.Publish(ctx, broker.QueueRawNewsData, article)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		n.Log.WithError(err).WithFields(logger.Fields{
			"source": article.Source,
			"url":    article.URL,
		}).Error("failed to publish article after retries, article lost")
		if n.Health != nil {
			n.Health.SetDegraded(newsComponent, "broker publish failing")
		}
		return
	}

	metrics.ArticlesPublished.WithLabelValues(article.Source).Inc()
}
