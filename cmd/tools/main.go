package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"weatherdash/internal/config"
	"weatherdash/internal/db"
	"weatherdash/internal/logging"
)

const usage = `usage: %s <command>
  migrate  apply pending schema migrations
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg, "dev", "weatherdash-tools")

	switch os.Args[1] {
	case "migrate":
		if err := runMigrate(cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}
}

func runMigrate(cfg config.Config, logger *slog.Logger) error {
	conn, applied, err := db.OpenMigrated(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	if closeErr := db.Close(conn); closeErr != nil {
		logger.Error("db close", "error", closeErr)
	}
	fmt.Printf("migrations applied: %d\n", applied)
	return nil
}
