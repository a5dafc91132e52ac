package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/mapframe/internal/adapters/postgres"
	"github.com/samirrijal/mapframe/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|purge>")
	}

	cfg, err := config.Load("mapframe-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Cache.Postgres.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, db)
	case "purge":
		purgeExpired(ctx, db)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, db *postgres.DB) {
	files := []string{
		"migrations/001_cache_entries.sql",
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = db.Pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

// purgeExpired is cheap enough for a cron entry; the cache reads already
// filter on expiry, so this only reclaims disk.
func purgeExpired(ctx context.Context, db *postgres.DB) {
	n, err := postgres.NewCacheRepo(db).PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("purge: %v", err)
	}
	log.Printf("purged %d expired cache entries", n)
}
