package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ignite/constituent-service/internal/config"
	"github.com/ignite/constituent-service/internal/repository/sqlstore"
)

func main() {
	configPath := "config/config.yaml"
	listOnly := false
	for _, a := range os.Args[1:] {
		if a == "--list" {
			listOnly = true
		} else {
			configPath = a
		}
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	db, dialect, err := sqlstore.Open(ctx, sqlstore.OptionsFromConfig(cfg.Database))
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()
	log.Printf("Connected to %s database", dialect)

	if listOnly {
		exists, err := sqlstore.TableExists(ctx, db, dialect)
		if err != nil {
			log.Fatal(err)
		}
		if !exists {
			fmt.Println("  constituents: missing")
			return
		}
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM constituents").Scan(&n); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  constituents: %d rows\n", n)
		return
	}

	created, err := sqlstore.EnsureSchema(ctx, db, dialect)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if created {
		log.Printf("Created constituents table with %d seed rows", len(sqlstore.SeedConstituents))
	} else {
		log.Println("constituents table already exists, nothing to do")
	}
}
