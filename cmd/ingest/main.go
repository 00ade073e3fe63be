// Command ingest loads a monthly climate CSV into the SQLite store for one
// location. Rows that fail to parse are reported and skipped.
//
// Usage:
//
//	go run ./cmd/ingest -csv data/lisbon.csv -location Lisbon -db climate.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/climate-anomaly-service/internal/ingest"
	"github.com/couchcryptid/climate-anomaly-service/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "path to monthly CSV (date,pr,tasmax,tasmin,year,month)")
	location := flag.String("location", "", "location name the records belong to")
	dbPath := flag.String("db", "climate.db", "SQLite database path")
	flag.Parse()

	if *csvPath == "" || *location == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv, -location")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	res, err := ingest.ParseCSV(f, *location)
	if err != nil {
		return fmt.Errorf("parse %s: %w", *csvPath, err)
	}
	for _, skipped := range res.Skipped {
		log.Printf("skipping invalid row: %v", skipped)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("no valid records in %s", *csvPath)
	}

	ctx := context.Background()
	store, err := sqlite.New(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.InsertRecords(ctx, res.Records)
	if err != nil {
		return err
	}
	log.Printf("ingested %d records for %s (%d rows skipped)", n, *location, len(res.Skipped))
	return nil
}
