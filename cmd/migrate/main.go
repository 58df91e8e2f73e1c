// cmd/migrate/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/unclebandit/wa-router/internal/config"
	"github.com/unclebandit/wa-router/internal/db"
	"github.com/unclebandit/wa-router/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()
	seedFiles := flag.Args()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close(conn, logger)

	if err := db.Migrate(conn, logger); err != nil {
		log.Fatal(err)
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("failed to read %s: %v", file, err)
		}

		if _, err := conn.Exec(string(content)); err != nil {
			log.Fatalf("failed to execute %s: %v", file, err)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database migration completed successfully!")
}
