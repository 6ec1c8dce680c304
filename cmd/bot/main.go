package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gil9red/telegram--farguscovers-bot/internal/bot"
	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
	"github.com/gil9red/telegram--farguscovers-bot/internal/db"
	"github.com/gil9red/telegram--farguscovers-bot/internal/logger"
)

const restartBackoff = 15 * time.Second

func run(ctx context.Context, cfg config.Config, lg *logger.Logger) error {
	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	repo := catalog.NewRepo(gdb)

	b, err := bot.New(cfg, lg, repo)
	if err != nil {
		return err
	}

	b.Start(ctx)
	return nil
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Restart on failure until the process is asked to stop.
	for {
		err := run(ctx, cfg, lg)
		if ctx.Err() != nil {
			return
		}
		lg.Error("bot crashed, restarting", "err", err, "backoff", restartBackoff.String())

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartBackoff):
		}
	}
}
