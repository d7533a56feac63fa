// Command import-schedules ingests raw train schedule CSV exports into the
// distance graph store. Each file is one batch: parsed, reduced to station
// pairs, and upserted in a single transaction.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Kashyap4060/parcelbridge-sub001/internal/repository"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/routegraph"
	"github.com/Kashyap4060/parcelbridge-sub001/internal/schedule"
)

func main() {
	dbPath := flag.String("db", "data/parcelbridge.db", "Path to SQLite database")
	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "Postgres URL (overrides -db)")
	scheduleDir := flag.String("schedule-dir", "", "Directory of schedule CSV files (alternative to file args)")
	flag.Parse()

	files := flag.Args()
	if *scheduleDir != "" {
		entries, err := os.ReadDir(*scheduleDir)
		if err != nil {
			log.Fatalf("Failed to read schedule directory: %v", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
				continue
			}
			files = append(files, filepath.Join(*scheduleDir, entry.Name()))
		}
	}
	if len(files) == 0 {
		log.Fatal("No schedule files given. Pass CSV paths as arguments or use -schedule-dir.")
	}

	ctx := context.Background()

	var store repository.Store
	var err error
	if *databaseURL != "" {
		store, err = repository.NewPostgresStore(ctx, *databaseURL)
	} else {
		store, err = repository.NewSQLiteStore(ctx, *dbPath)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	failures := 0
	for _, path := range files {
		if err := importFile(ctx, store, path); err != nil {
			log.Printf("ERROR importing %s: %v", path, err)
			failures++
			continue
		}
		log.Printf("SUCCESS: %s imported", path)
	}

	if failures > 0 {
		log.Fatalf("%d of %d files failed to import", failures, len(files))
	}
}

func importFile(ctx context.Context, store repository.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stops, stats, err := schedule.NewReader(f).ReadAll()
	if errors.Is(err, schedule.ErrNoValidRows) {
		log.Printf("  %s: %d rows, %d malformed, 0 parsed", path, stats.Rows, stats.Malformed)
		return err
	}
	if err != nil {
		return err
	}
	if stats.Malformed > 0 {
		log.Printf("  Warning: %d of %d rows malformed and skipped", stats.Malformed, stats.Rows)
	}

	g := routegraph.Build(stops)
	log.Printf("  Parsed %d stops into %d stations, %d distance pairs",
		stats.Parsed, len(g.Stations), len(g.Pairs))

	return store.SaveGraph(ctx, g)
}
