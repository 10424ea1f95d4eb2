package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"interview/app/server"
	"interview/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}
	config.SetupLogging(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ProviderTimeout)
	s, err := server.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal("Error starting server: ", err)
	}

	go func() {
		if err := s.Run(); err != nil {
			os.Exit(1)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	slog.Info("Received shutdown signal, shutting down server...")
	s.Stop()
}
