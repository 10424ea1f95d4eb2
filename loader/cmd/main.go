package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"interview/config"
	"interview/loader/internal"
	"interview/loader/service"
	"interview/model"
	"interview/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPostgresStore(ctx, cfg.DSN(), cfg.EmbeddingDim)
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			slog.Error("error closing pool", "error", err)
		}
	}()

	if err := pool.Init(ctx); err != nil {
		slog.Error("error to create tables", "error", err)
		return
	}

	embedder, err := model.NewEmbedder(ctx, cfg)
	if err != nil {
		slog.Error("error to create embedder", "error", err)
		return
	}

	loaderCfg := cfg.LoaderConfig()
	loader, err := internal.NewPDFLoader(loaderCfg, embedder)
	if err != nil {
		slog.Error("error to create loader", "error", err)
		return
	}

	if err := service.New(pool, loader, loaderCfg.Watch).Run(ctx); err != nil {
		slog.Error("loader failed", "error", err)
	}
}
