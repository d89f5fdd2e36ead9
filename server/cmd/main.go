package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rockfall/server"
	"rockfall/server/handler"
	"rockfall/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "9090")

	cfg := handler.GameConfig{
		ArenaWidth:    utils.GetEnvIntDefault("ARENA_WIDTH", 1000),
		ArenaHeight:   utils.GetEnvIntDefault("ARENA_HEIGHT", 600),
		TickRate:      utils.GetEnvIntDefault("TICK_RATE", 60),
		SpawnInterval: time.Duration(utils.GetEnvIntDefault("SPAWN_INTERVAL_MS", 500)) * time.Millisecond,
	}

	mux := server.Route(cfg)
	s := server.NewServer(fmt.Sprintf("%s:%s", addr, port), mux)

	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	slog.InfoContext(ctx, "server listening",
		"addr", s.Addr(),
		"arenaWidth", cfg.ArenaWidth,
		"arenaHeight", cfg.ArenaHeight,
		"tickRate", cfg.TickRate,
		"spawnInterval", cfg.SpawnInterval,
	)

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.ErrorContext(ctx, "forced close failed", "error", err)
		}
	}
	slog.InfoContext(ctx, "server shutdown complete")
}
