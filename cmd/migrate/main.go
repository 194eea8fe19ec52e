package main

import (
	"errors"
	"flag"
	"fmt"

	"karya/internal/config"
	"karya/internal/logger"
	"karya/internal/store/postgres"

	"github.com/golang-migrate/migrate/v4"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back)")
	show := flag.Bool("version", false, "print the current schema version")
	flag.Parse()

	cfg := config.Load(config.KeyDatabaseURL)
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	m, err := postgres.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init migrations", "error", err)
	}
	defer m.Close()

	switch {
	case *show:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			logger.Fatal("read version", "error", err)
		}
		fmt.Printf("version %d dirty=%t\n", v, dirty)
		return
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("schema up to date")
		return
	}
	if err != nil {
		logger.Fatal("migration failed", "error", err)
	}
	logger.Info("migrations applied")
}
