package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/samirrijal/geodrop/internal/bootstrap"
	"github.com/samirrijal/geodrop/internal/pkg/config"
)

const usage = "usage: migrate <up|down|version|force N>"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("geodrop-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	// SQLite migrates on open, so "down" against SQLite starts from the latest version.
	store, err := bootstrap.OpenStore(ctx, cfg.Database, false)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer store.Close()

	m, err := store.Migrator()
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		// reported below
	case "force":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		v, convErr := strconv.Atoi(os.Args[2])
		if convErr != nil {
			log.Fatalf("force: bad version %q", os.Args[2])
		}
		err = m.Force(v)
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("%s: %v", os.Args[1], err)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		fmt.Printf("%s: no migrations applied\n", store.Driver)
	case err != nil:
		log.Fatalf("version: %v", err)
	default:
		fmt.Printf("%s: schema version %d (dirty=%t)\n", store.Driver, version, dirty)
	}
}
