package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"supportly-be/internal/bootstrap"
	"supportly-be/internal/config"
	"supportly-be/internal/server"
	"supportly-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, bootstrap.RoleAPI)
	if err != nil {
		log.Fatalf("Unable to bootstrap API: %v", err)
	}
	defer container.Close()

	// 3. Tracing
	shutdownTracer := tracer.InitTracer(cfg.Telemetry, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	// With QUEUE_DRIVER=memory the queue lives in this process, so its
	// consumers must too.
	if container.IngestionService != nil {
		g.Go(func() error {
			return container.IngestionService.Consume(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		container.Logger.Info("SERVER", "Shutting down", nil)
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error("SERVER", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
