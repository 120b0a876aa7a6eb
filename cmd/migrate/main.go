package main

import (
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"habita/internal/config"
)

func main() {
	var (
		dir  = flag.String("dir", "db/migrations", "migrations directory")
		down = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	m, err := migrate.New("file://"+*dir, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("FATAL: open migrations: %v", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("INFO: no migrations to apply")
		return
	}
	if err != nil {
		log.Fatalf("FATAL: migrate: %v", err)
	}
	log.Println("INFO: migrations applied")
}
