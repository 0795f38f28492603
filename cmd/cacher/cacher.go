// Package cacher wires the signal cacher: cache client, optional
// signal archive, broker consumer and the ops surface.
package cacher

import (
	"context"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/cache"
	"sentimentpipeline/src/database"
	"sentimentpipeline/src/executors"
	"sentimentpipeline/src/ops"
	"sentimentpipeline/src/repository"

	logger "github.com/sirupsen/logrus"
)

type Cacher struct {
	Log *logger.Entry
}

func (c *Cacher) Start(ctx context.Context) error {
	if c.Log == nil {
		c.Log = logger.WithField("cmd", "cacher")
	}

	store, err := cache.New(cache.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	health := ops.NewHealth()
	opsSrv := ops.StartServer(ops.GetConfig().Addr, health)
	defer func() { _ = opsSrv.Close() }()

	client, err := broker.Connect(ctx, broker.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.DeclareQueue(ctx, broker.QueueSentimentSignals); err != nil {
		return err
	}

	var archive executors.SignalArchiver
	if dbCfg := database.GetConfig(); dbCfg.EnableArchive {
		db, err := database.Connect(dbCfg)
		if err != nil {
			return err
		}
		archive = repository.NewSignalRepository(db)
	}

	cacher := &executors.SignalCacher{
		Store:   store,
		Archive: archive,
		Log:     c.Log,
	}
	return client.Consume(ctx, broker.QueueSentimentSignals, cacher.Handle)
}
