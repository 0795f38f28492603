// Package newsingestor wires the news ingestor: feed client, broker
// publisher and the ops surface.
package newsingestor

import (
	"context"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/connectors"
	"sentimentpipeline/src/executors"
	"sentimentpipeline/src/ops"

	logger "github.com/sirupsen/logrus"
)

type NewsIngestor struct {
	Log *logger.Entry
}

func (n *NewsIngestor) Start(ctx context.Context) error {
	if n.Log == nil {
		n.Log = logger.WithField("cmd", "newsingestor")
	}

	cfg := executors.GetNewsIngestorConfig()

	health := ops.NewHealth()
	opsSrv := ops.StartServer(ops.GetConfig().Addr, health)
	defer func() { _ = opsSrv.Close() }()

	client, err := broker.Connect(ctx, broker.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.DeclareQueue(ctx, broker.QueueRawNewsData); err != nil {
		return err
	}

	ingestor := &executors.NewsIngestor{
		Config: cfg,
		Client: connectors.NewNewsClient(cfg.FetchTimeout),
		Broker: client,
		Health: health,
		Log:    n.Log,
	}
	return ingestor.Start(ctx)
}
