package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sentimentpipeline/cmd/cacher"
	"sentimentpipeline/cmd/dispatcher"
	"sentimentpipeline/cmd/marketingestor"
	"sentimentpipeline/cmd/newsingestor"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	SetupLogger()
	_ = godotenv.Load()
	defer handlePanic()

	app := cli.NewApp()
	app.Name = "sentimentpipeline"
	app.Usage = "market news sentiment pipeline components"
	app.Version = Version

	app.Commands = []cli.Command{
		marketIngestorCMD,
		newsIngestorCMD,
		dispatcherCMD,
		cacherCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

var (
	marketIngestorCMD = cli.Command{
		Name:        "marketingestor",
		Usage:       "run the market data ingestor",
		Action:      marketIngestorAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Poll or stream exchange candles and publish them to raw_market_data`,
	}
	newsIngestorCMD = cli.Command{
		Name:        "newsingestor",
		Usage:       "run the news ingestor",
		Action:      newsIngestorAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Poll whitelisted news feeds and publish deduplicated articles to raw_news_data`,
	}
	dispatcherCMD = cli.Command{
		Name:        "dispatcher",
		Usage:       "run the sentiment dispatcher",
		Action:      dispatcherAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Consume raw_news_data, score articles and publish sentiment_signals`,
	}
	cacherCMD = cli.Command{
		Name:        "cacher",
		Usage:       "run the signal cacher",
		Action:      cacherAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Consume sentiment_signals and maintain the per-instrument cache`,
	}
)

func marketIngestorAction(_ *cli.Context) error {
	logger.Info("Starting market ingestor CMD")
	return runComponent(func(ctx context.Context) error {
		m := &marketingestor.MarketIngestor{}
		return m.Start(ctx)
	})
}

func newsIngestorAction(_ *cli.Context) error {
	logger.Info("Starting news ingestor CMD")
	return runComponent(func(ctx context.Context) error {
		n := &newsingestor.NewsIngestor{}
		return n.Start(ctx)
	})
}

func dispatcherAction(_ *cli.Context) error {
	logger.Info("Starting dispatcher CMD")
	return runComponent(func(ctx context.Context) error {
		d := &dispatcher.Dispatcher{}
		return d.Start(ctx)
	})
}

func cacherAction(_ *cli.Context) error {
	logger.Info("Starting cacher CMD")
	return runComponent(func(ctx context.Context) error {
		c := &cacher.Cacher{}
		return c.Start(ctx)
	})
}

// runComponent runs one long-lived component until SIGINT/SIGTERM.
func runComponent(run func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error("Application panic")
	}
	//nolint
	time.Sleep(time.Second)
}
