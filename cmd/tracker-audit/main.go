package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	"tracker/internal/log"
	"tracker/internal/worker"
)

const statsInterval = 5 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout).WithComponent(log.ComponentAudit)

	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is required for tracker-audit")
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	logger.Info("Starting tracker-audit", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	client, err := amqp.Connect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 0, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	w := worker.NewAuditWorker(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := client.Consume(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				w.LogStats(gctx)
			}
		}
	})

	err = g.Wait()
	w.LogStats(context.Background())
	if err != nil {
		return fmt.Errorf("consume ledger events: %w", err)
	}
	logger.Info("tracker-audit stopped", log.FieldOperation, log.OpShutdown)
	return nil
}
