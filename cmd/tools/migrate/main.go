package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	source := flag.String("source", "file://db/migrations", "migration source URL")
	down := flag.Bool("down", false, "roll back one migration instead of applying all")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New(*source, dbURL)
	if err != nil {
		log.Fatalf("Failed to init migrate: %v", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Printf("close source: %v", srcErr)
		}
		if dbErr != nil {
			log.Printf("close database: %v", dbErr)
		}
	}()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("No pending migrations")
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		log.Fatalf("Failed to read version: %v", err)
	}
	fmt.Printf("Schema at version %d (dirty=%v)\n", version, dirty)
}
