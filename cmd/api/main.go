package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geodrop/internal/adapters/http"
	natsadapter "github.com/samirrijal/geodrop/internal/adapters/nats"
	"github.com/samirrijal/geodrop/internal/adapters/valkey"
	"github.com/samirrijal/geodrop/internal/bootstrap"
	"github.com/samirrijal/geodrop/internal/core/domain"
	"github.com/samirrijal/geodrop/internal/core/ports"
	"github.com/samirrijal/geodrop/internal/core/usecases"
	"github.com/samirrijal/geodrop/internal/pkg/config"
	"github.com/samirrijal/geodrop/internal/pkg/idgen"
	"github.com/samirrijal/geodrop/internal/pkg/logging"
	"github.com/samirrijal/geodrop/internal/pkg/scheduler"
	"github.com/samirrijal/geodrop/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geodrop-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	store, err := bootstrap.OpenStore(ctx, cfg.Database, true)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer store.Close()
	store.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{DB: store}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS
	var events ports.EventPublisher
	var sub *natsadapter.Subscriber
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}

		// Raw NATS connection for WebSocket relay
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
			deps.NATS = natsConn
		}

		if cache != nil {
			if sub, err = natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
				slog.Warn("nats subscriber unavailable", "error", err)
			} else {
				defer sub.Close()
			}
		}
	}

	// Use cases
	ids, err := idgen.New(cfg.Server.NodeID)
	if err != nil {
		log.Fatalf("id generator: %v", err)
	}
	policy := domain.ExpiryPolicy{
		OfferTTL:           cfg.Offers.TTL(),
		MinValidityMinutes: cfg.Offers.MinValidityMinutes,
	}
	opts := []usecases.Option{
		usecases.WithIDGenerator(ids),
		usecases.WithExpiryPolicy(policy),
		usecases.WithCacheTTL(cfg.Offers.CacheTTL),
	}

	sweeper := usecases.NewSweeper(events)
	deps.Offers = usecases.NewOfferService(store.Offers, sweeper, cache, events, opts...)
	deps.Notes = usecases.NewNoteService(store.Notes, sweeper, events, opts...)

	// Cross-replica cache invalidation
	if sub != nil {
		err := sub.SubscribeOfferChanges(ctx, func(ctx context.Context, offerID int64) error {
			deps.Offers.Invalidate(ctx, offerID)
			return nil
		})
		if err != nil {
			slog.Warn("offer change subscription failed", "error", err)
		}
	}

	// Background sweeps; temporal mode runs in cmd/sweeper instead.
	var sched *scheduler.Scheduler
	if cfg.Sweeper.Mode == config.SweeperCron {
		sched = scheduler.New(30 * time.Second)
		err := sched.Add(cfg.Sweeper.Schedule, "expiry-sweep", func(ctx context.Context) error {
			_, err := sweeper.SweepAll(ctx, time.Now().UTC())
			return err
		})
		if err != nil {
			log.Fatalf("sweeper: %v", err)
		}
		sched.Start()
		slog.Info("cron sweeper started", "schedule", cfg.Sweeper.Schedule)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "geodrop API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps, http.RouterConfig{
		RateLimit:      cfg.Server.RateLimit,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "driver", store.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			slog.Warn("sweeper stop", "error", err)
		}
	}

	slog.Info("server stopped")
}
