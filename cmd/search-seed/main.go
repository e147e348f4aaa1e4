// Command search-seed loads a YAML forum fixture into the configured store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"forum_search_backend/internal/search/repository"
	"forum_search_backend/platform/config"
	"forum_search_backend/platform/db"
	"forum_search_backend/platform/logger"
)

func main() {
	fixturePath := flag.String("fixture", "cmd/search-seed/testdata/forum.yaml", "path to the YAML forum fixture")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	file, err := os.Open(*fixturePath)
	if err != nil {
		log.Error("failed to open fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}
	fixture, err := repository.ParseFixture(file)
	_ = file.Close()
	if err != nil {
		log.Error("failed to parse fixture", "path", *fixturePath, "error", err)
		os.Exit(1)
	}

	if cfg.StoreDriver == config.StoreDriverPostgres {
		applied, err := db.RunMigrations(ctx, cfg)
		if err != nil {
			log.Error("failed to run database migrations", "error", err)
			os.Exit(1)
		}
		log.Info("database migrations complete", "applied", len(applied))
	}

	backend, err := repository.Open(ctx, cfg, db.PoolOptions{MaxConns: 2})
	if err != nil {
		log.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	if err := backend.Seeder.Seed(ctx, fixture); err != nil {
		log.Error("failed to seed store", "driver", backend.Driver, "error", err)
		backend.Close()
		os.Exit(1)
	}

	log.Info("fixture loaded",
		"driver", backend.Driver,
		"categories", len(fixture.Categories),
		"users", len(fixture.Users),
		"topics", len(fixture.Topics),
	)
}
