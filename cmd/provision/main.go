// Command provision creates the areas table and installs the default
// facility layout. Safe to run repeatedly; existing areas are left alone.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	occstore "urec/internal/occupancy/store"
	"urec/internal/platform/config"
	"urec/internal/platform/logger"
	"urec/internal/platform/postgres"
	registrystore "urec/internal/registry/store"
)

func main() {
	verify := flag.Bool("verify", false, "list provisioned areas and exit")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	areas := registrystore.NewPostgres(db)

	if *verify {
		list, err := areas.List(ctx)
		if err != nil {
			log.Error("list areas failed", "error", err)
			os.Exit(1)
		}
		counters := occstore.NewPostgres(db)
		for _, area := range list {
			state, err := counters.Get(ctx, area.ID)
			if err != nil {
				log.Error("read occupancy state failed", "area_id", area.ID, "error", err)
				os.Exit(1)
			}
			log.Info("area",
				"area_id", area.ID,
				"name", area.Name,
				"max_capacity", area.MaxCapacity,
				"is_open", area.IsOpen,
				"current_count", state.CurrentCount,
			)
		}
		return
	}

	if _, err := db.ExecContext(ctx, registrystore.Schema); err != nil {
		log.Error("create schema failed", "error", err)
		os.Exit(1)
	}
	log.Info("schema applied")

	created, err := registrystore.SeedDefaultAreas(ctx, areas, occstore.NewPostgres(db), time.Now().UTC())
	if err != nil {
		log.Error("seed default areas failed", "error", err)
		os.Exit(1)
	}
	log.Info("default areas seeded", "created", created, "skipped", len(registrystore.DefaultAreas)-created)
}
