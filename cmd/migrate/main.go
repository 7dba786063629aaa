package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/sundaydrive/sundaydrive/internal/adapters/postgres"
	"github.com/sundaydrive/sundaydrive/internal/core/domain"
	"github.com/sundaydrive/sundaydrive/internal/pkg/config"
	"github.com/sundaydrive/sundaydrive/internal/pkg/logging"
)

const seedBatchSize = 500

var migrations = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_places.sql",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate up | migrate seed <places.json>")
	}

	cfg, err := config.LoadDatabase("sundaydrive-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("sundaydrive-migrate", "info", "text")

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db)
	case "seed":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate seed <places.json>")
		}
		seedPlaces(ctx, db, os.Args[2], cfg.MinSimilarity)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	for _, f := range migrations {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	slog.Info("all migrations applied")
}

// seedPlaces loads a JSON array of places into the gazetteer.
func seedPlaces(ctx context.Context, db *postgres.DB, path string, minSimilarity float64) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	var places []domain.Place
	if err := json.Unmarshal(data, &places); err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	valid := places[:0]
	for _, p := range places {
		if p.PlaceID == "" || p.Name == "" || !p.Location.Valid() {
			slog.Warn("skipping invalid place", "place_id", p.PlaceID, "name", p.Name)
			continue
		}
		valid = append(valid, p)
	}

	repo := postgres.NewPlaceRepo(db, minSimilarity)
	for start := 0; start < len(valid); start += seedBatchSize {
		end := min(start+seedBatchSize, len(valid))
		if err := repo.UpsertBatch(ctx, valid[start:end]); err != nil {
			log.Fatalf("upsert places %d-%d: %v", start, end, err)
		}
	}

	slog.Info("gazetteer seeded", "places", len(valid), "skipped", len(places)-len(valid))
}
