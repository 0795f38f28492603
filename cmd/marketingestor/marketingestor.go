// Package marketingestor wires the market data ingestor: exchange
// feed, broker publisher, optional candle archive and the ops surface.
package marketingestor

import (
	"context"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/connectors"
	"sentimentpipeline/src/database"
	"sentimentpipeline/src/executors"
	"sentimentpipeline/src/ops"
	"sentimentpipeline/src/repository"

	logger "github.com/sirupsen/logrus"
)

type MarketIngestor struct {
	Log *logger.Entry
}

func (m *MarketIngestor) Start(ctx context.Context) error {
	if m.Log == nil {
		m.Log = logger.WithField("cmd", "marketingestor")
	}

	cfg := executors.GetMarketIngestorConfig()

	health := ops.NewHealth()
	opsSrv := ops.StartServer(ops.GetConfig().Addr, health)
	defer func() { _ = opsSrv.Close() }()

	client, err := broker.Connect(ctx, broker.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.DeclareQueue(ctx, broker.QueueRawMarketData); err != nil {
		return err
	}

	var archive *repository.CandleRepository
	if dbCfg := database.GetConfig(); dbCfg.EnableArchive {
		db, err := database.Connect(dbCfg)
		if err != nil {
			return err
		}
		archive = repository.NewCandleRepository(db)
	}

	ingestor := &executors.MarketIngestor{
		Config:  cfg,
		Source:  connectors.NewExchangeClient(),
		Stream:  connectors.NewKlineStream(cfg.Pairs),
		Broker:  client,
		Health:  health,
		Archive: archive,
		Log:     m.Log,
	}
	return ingestor.Start(ctx)
}
