package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"supportly-be/internal/bootstrap"
	"supportly-be/internal/config"
	"supportly-be/internal/tracer"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	container, err := bootstrap.NewContainer(cfg, bootstrap.RoleWorker)
	if err != nil {
		log.Fatalf("Unable to bootstrap worker: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.Telemetry, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Health endpoint so the platform keeps the worker alive.
	health := fiber.New(fiber.Config{DisableStartupMessage: true})
	container.HealthController.RegisterRoutes(health)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.Logger.Info("WORKER", "Health server listening", map[string]interface{}{"port": cfg.App.WorkerPort})
		return health.Listen(":" + cfg.App.WorkerPort)
	})
	g.Go(func() error {
		container.Logger.Info("WORKER", "Worker started", map[string]interface{}{
			"concurrency": cfg.Queue.Concurrency,
			"queue":       cfg.Queue.Driver,
		})
		return container.IngestionService.Consume(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return health.Shutdown()
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("WORKER", "Worker stopped with error", map[string]interface{}{"error": err.Error()})
	}
	container.Logger.Info("WORKER", "Worker stopped", nil)
}
