package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hostboard/internal/config"
	"github.com/dropDatabas3/hostboard/internal/store/pg"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (vacío = solo env)")
		dryRun     = flag.Bool("dry-run", false, "lista las migraciones embebidas y termina")
	)
	flag.Parse()

	m := pg.NewMigrator()
	if *dryRun {
		migs, err := m.ParseMigrations()
		if err != nil {
			log.Fatalf("parse migrations: %v", err)
		}
		for _, mg := range migs {
			log.Printf("%04d %s", mg.Version, mg.Name)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.Backend.Driver != "postgres" {
		log.Fatalf("backend.driver=%q: migrations only apply to postgres", cfg.Backend.Driver)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Backend.Postgres.PrimaryDSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	res, err := m.Run(ctx, pool)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("applied=%v skipped=%v in %s", res.Applied, res.Skipped, res.Duration)
}
