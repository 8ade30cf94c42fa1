package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"consult-scheduler/internal/store"
	"consult-scheduler/pkg/logging"
)

// usage: migrate [up | down | force <version>]
func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL"))

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	cmd := "up"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "force":
		if len(os.Args) < 3 {
			logger.Error("force needs a version")
			os.Exit(2)
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			logger.Error("invalid version", "error", err)
			os.Exit(2)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force version", "error", err)
			os.Exit(1)
		}
		fmt.Printf("forced version to %d\n", version)
	case "down":
		if err := m.Steps(-1); err != nil {
			logger.Error("migrate down", "error", err)
			os.Exit(1)
		}
		fmt.Println("rolled back one migration")
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Error("migrate up", "error", err)
			os.Exit(1)
		}
		fmt.Println("migrations complete")
	default:
		logger.Error("unknown command", "command", cmd)
		os.Exit(2)
	}
}
