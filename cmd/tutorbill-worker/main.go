package main

import (
	"golang.org/x/sync/errgroup"

	"tutorbill/internal/amqp"
	"tutorbill/internal/cli"
	"tutorbill/internal/log"
	"tutorbill/internal/storage"
	"tutorbill/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting tutorbill-worker")
	cli.Must(logger, "Configuration validation failed", cfg.ValidateWorker())

	ledger, err := storage.NewSQLiteRepository(cfg.LedgerDBPath)
	cli.Must(logger, "Failed to initialize ledger database", err, "path", cfg.LedgerDBPath)
	defer ledger.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	cli.Must(logger, "Failed to initialize AMQP client", err)
	defer client.Close()

	ctx, stop := cli.ShutdownContext()
	defer stop()

	w := worker.NewEventWorker(ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming billing events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return cli.IgnoreCanceled(client.Consume(gctx, w.HandleEvent))
	})

	cli.Must(logger, "Message consumption failed", g.Wait())
	logger.Info("Worker shutdown complete")
}
