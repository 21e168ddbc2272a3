package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/askdb/askdb/internal/demo"
)

func main() {
	cfg, err := demo.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	inserted, err := demo.Seed(context.Background(), cfg)
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("sample database ready",
		slog.String("path", cfg.Path),
		slog.Int("students", inserted),
	)
}
