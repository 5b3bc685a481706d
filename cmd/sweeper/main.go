package main

import (
	"context"
	"log"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geodrop/internal/adapters/nats"
	"github.com/samirrijal/geodrop/internal/bootstrap"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/core/usecases"
	"github.com/samirrijal/geodrop/internal/pkg/config"
	"github.com/samirrijal/geodrop/internal/pkg/logging"
	"github.com/samirrijal/geodrop/internal/workflows"
)

func main() {
	cfg, err := config.Load("geodrop-sweeper")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logCloser := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logCloser.Close()

	ctx := context.Background()

	store, err := bootstrap.OpenStore(ctx, cfg.Database, false)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer store.Close()

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, sweep events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	sweeper := usecases.NewSweeper(events)
	sweeper.Register(usecases.KindOffers, store.Offers, nil)
	sweeper.Register(usecases.KindNotes, store.Notes, nil)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Sweeper.TemporalHost,
		Namespace: cfg.Sweeper.TemporalNamespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// One cron workflow per namespace; a second start is rejected as a duplicate.
	_, err = c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    workflows.SweepWorkflowID,
		TaskQueue:             cfg.Sweeper.TaskQueue,
		CronSchedule:          cfg.Sweeper.Schedule,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.SweepWorkflow)
	if err != nil {
		slog.Info("sweep workflow not started", "reason", err)
	}

	w := worker.New(c, cfg.Sweeper.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.SweepWorkflow)
	w.RegisterActivity(&workflows.SweepActivities{Sweeper: sweeper})

	slog.Info("sweeper worker started", "queue", cfg.Sweeper.TaskQueue, "schedule", cfg.Sweeper.Schedule)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
