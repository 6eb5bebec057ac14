// Command seed loads exams from a YAML fixture into the configured database.
package main

import (
	"context"
	"flag"
	"os"

	"exambuilder/config"
	"exambuilder/logger"
	"exambuilder/seed"
	"exambuilder/services"
)

func main() {
	file := flag.String("file", "exams.yaml", "YAML fixture to load")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("failed to load configuration: %v", err)
	}
	log, err := logger.New(cfg.Environment)
	if err != nil {
		config.Exitf("failed to init logger: %v", err)
	}
	defer log.Sync()

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}

	fh, err := os.Open(*file)
	if err != nil {
		log.Fatal("Failed to open fixture", "file", *file, "error", err)
	}
	defer fh.Close()

	fixture, err := seed.Parse(fh)
	if err != nil {
		log.Fatal("Failed to read fixture", "file", *file, "error", err)
	}

	ids, err := seed.Load(context.Background(), services.NewExamService(db, log), fixture)
	if err != nil {
		log.Fatal("Failed to seed exams", "loaded", ids, "error", err)
	}
	log.Info("Seeded exams", "count", len(ids), "ids", ids)
}
