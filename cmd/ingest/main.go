package main

import (
	"context"
	"log"

	"github.com/gil9red/telegram--farguscovers-bot/internal/catalog"
	"github.com/gil9red/telegram--farguscovers-bot/internal/config"
	"github.com/gil9red/telegram--farguscovers-bot/internal/db"
)

// One-shot loader of the exported community-wall dump into the catalog.
func main() {
	cfg := config.Load()

	gdb, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	repo := catalog.NewRepo(gdb)

	ctx := context.Background()
	if err := repo.Ingest(ctx, cfg.DumpFile); err != nil {
		log.Fatalf("ingest: %v", err)
	}

	counts, err := repo.TableCounts(ctx)
	if err != nil {
		log.Fatalf("counts: %v", err)
	}
	log.Printf("done: covers=%d games=%d game_series=%d authors=%d",
		counts.Covers, counts.Games, counts.GameSeries, counts.Authors)
}
