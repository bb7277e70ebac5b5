// Package main runs database migrations from the command line.
package main

import (
	"fmt"
	"os"

	"balcao/internal/config"
	"balcao/internal/infrastructure/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = postgres.Migrate(cfg.DatabaseURL)
	case "down":
		err = postgres.MigrateDown(cfg.DatabaseURL)
	default:
		fmt.Printf("usage: migrate [up|down]\n")
		os.Exit(2)
	}

	if err != nil {
		fmt.Printf("migration failed: %v\n", err)
		os.Exit(1)
	}
}
