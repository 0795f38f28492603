// Package dispatcher wires the sentiment dispatcher: scorer fallback
// chain, instrument matcher, broker consumer and the ops surface.
package dispatcher

import (
	"context"
	"fmt"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/executors"
	"sentimentpipeline/src/matching"
	"sentimentpipeline/src/ops"
	"sentimentpipeline/src/schema"
	"sentimentpipeline/src/scorer"

	logger "github.com/sirupsen/logrus"
)

type Dispatcher struct {
	Log *logger.Entry
}

func (d *Dispatcher) Start(ctx context.Context) error {
	if d.Log == nil {
		d.Log = logger.WithField("cmd", "dispatcher")
	}

	cfg := executors.GetDispatcherConfig()

	chain, err := buildChain(cfg)
	if err != nil {
		return err
	}

	health := ops.NewHealth()
	opsSrv := ops.StartServer(ops.GetConfig().Addr, health)
	defer func() { _ = opsSrv.Close() }()

	client, err := broker.Connect(ctx, broker.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	for _, queue := range []string{broker.QueueRawNewsData, broker.QueueSentimentSignals} {
		if err := client.DeclareQueue(ctx, queue); err != nil {
			return err
		}
	}

	disp := &executors.SentimentDispatcher{
		Scorer:  chain,
		Matcher: matching.NewKeywordMatcher(matching.DefaultKeywords()),
		Broker:  client,
		Log:     d.Log,
	}
	return client.Consume(ctx, broker.QueueRawNewsData, disp.Handle)
}

// buildChain assembles the ordered fallback chain from configuration,
// refusing unknown model ids so a typo cannot route articles to an
// unvetted backend.
func buildChain(cfg executors.DispatcherConfig) (*scorer.Chain, error) {
	backends := make([]scorer.Scorer, 0, len(cfg.ScorerOrder))
	for _, id := range cfg.ScorerOrder {
		if _, ok := schema.AllowedScorerModels[id]; !ok {
			return nil, fmt.Errorf("scorer %q is not whitelisted", id)
		}
		baseURL, ok := cfg.BackendURLs[id]
		if !ok {
			return nil, fmt.Errorf("scorer %q has no backend url configured", id)
		}
		backends = append(backends, scorer.NewHTTPBackend(id, baseURL, cfg.ScoreTimeout))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no scorer backends configured")
	}
	return scorer.NewChain(cfg.ScoreTimeout, backends...), nil
}
