// Command genmock writes a deterministic synthetic monthly climate CSV for
// tests and local runs. Values follow a seasonal cycle with Gaussian noise;
// a configurable number of outliers is injected so the detectors have
// something to find.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/lisbon_monthly.csv -start 1990 -end 2020 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

type row struct {
	year, month        int
	pr, tasmax, tasmin float64
	outlier            string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	start := flag.Int("start", 1990, "first year")
	end := flag.Int("end", 2020, "last year (inclusive)")
	seed := flag.Uint64("seed", 42, "random seed")
	outliers := flag.Int("outliers", 3, "number of injected outlier months")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *start > *end {
		return fmt.Errorf("-start %d is after -end %d", *start, *end)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	rows := generate(rng, *start, *end)
	injectOutliers(rng, rows, *outliers)

	if err := writeCSV(*out, rows); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d rows to %s", len(rows), *out)

	printStats(rows)
	return nil
}

// generate produces one row per month with a northern-hemisphere seasonal
// cycle peaking in July.
func generate(rng *rand.Rand, start, end int) []row {
	rows := make([]row, 0, (end-start+1)*12)
	for y := start; y <= end; y++ {
		for m := 1; m <= 12; m++ {
			season := math.Sin(2 * math.Pi * float64(m-4) / 12)
			tasmax := 22 + 8*season + rng.NormFloat64()
			tasmin := tasmax - 9 + 0.8*rng.NormFloat64()
			pr := math.Max(0, 70-50*season+12*rng.NormFloat64())
			rows = append(rows, row{year: y, month: m, pr: round2(pr), tasmax: round2(tasmax), tasmin: round2(tasmin)})
		}
	}
	return rows
}

// injectOutliers alternates heat waves, cold snaps and cloudbursts on
// randomly chosen months.
func injectOutliers(rng *rand.Rand, rows []row, n int) {
	for i := range min(n, len(rows)) {
		r := &rows[rng.IntN(len(rows))]
		switch i % 3 {
		case 0:
			r.tasmax = round2(r.tasmax + 8)
			r.outlier = "heat"
		case 1:
			r.tasmin = round2(r.tasmin - 8)
			r.outlier = "cold"
		default:
			r.pr = round2(r.pr*3 + 100)
			r.outlier = "rain"
		}
	}
}

func writeCSV(path string, rows []row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "pr", "tasmax", "tasmin", "year", "month"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			fmt.Sprintf("%04d-%02d-01", r.year, r.month),
			formatFloat(r.pr),
			formatFloat(r.tasmax),
			formatFloat(r.tasmin),
			strconv.Itoa(r.year),
			strconv.Itoa(r.month),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printStats(rows []row) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(rows))
	if len(rows) == 0 {
		return
	}
	fmt.Printf("Years: %d-%d\n", rows[0].year, rows[len(rows)-1].year)
	for _, r := range rows {
		if r.outlier == "" {
			continue
		}
		fmt.Printf("Outlier %-4s %d-%02d: pr=%.2f tasmax=%.2f tasmin=%.2f\n",
			r.outlier, r.year, r.month, r.pr, r.tasmax, r.tasmin)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
