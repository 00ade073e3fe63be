// Command validate runs integrity checks on a monthly climate CSV before it is
// ingested: parseability, duplicate months, physical plausibility, and whether
// each calendar month has enough years for extreme-event detection. It ends
// with a dry run of the detectors so fixture changes can be eyeballed.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/lisbon_monthly.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/couchcryptid/climate-anomaly-service/internal/ingest"
)

// phase tracks pass/fail for a validation phase. Warnings are reported but
// do not fail the run.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to monthly CSV")
	location := flag.String("location", "validate", "location label used for record IDs")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *location); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, location string) int {
	fmt.Println("=== Climate Data Integrity Validation ===")
	fmt.Println()

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open csv: %v\n", err)
		return 1
	}
	defer f.Close()

	res, err := ingest.ParseCSV(f, location)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse csv: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateParse(res),
		validateUniqueness(res.Records),
		validatePlausibility(res.Records),
		validateCoverage(res.Records),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d parsed, %d skipped\n", len(res.Records), len(res.Skipped))

	// Print detailed errors and warnings.
	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  warn: %s\n", w)
		}
	}

	printDetectionPreview(res.Records)

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Parse ──

func validateParse(res ingest.Result) *phase {
	p := &phase{name: "Phase 1: Parse (CSV rows)"}
	for _, s := range res.Skipped {
		p.errorf("%v", s)
	}
	if len(res.Records) == 0 {
		p.errorf("no valid rows")
	}
	return p
}

// ── Phase 2: Uniqueness ──
// Each (year, month) must appear once; the store would silently keep the last.

type yearMonth struct {
	year, month int
}

func validateUniqueness(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Phase 2: Uniqueness (year, month)"}
	seen := make(map[yearMonth]int, len(records))
	for _, r := range records {
		seen[yearMonth{r.Year, r.Month}]++
	}
	for _, r := range records {
		key := yearMonth{r.Year, r.Month}
		if n := seen[key]; n > 1 {
			p.errorf("%d-%02d appears %d times", r.Year, r.Month, n)
			seen[key] = 0
		}
	}
	return p
}

// ── Phase 3: Plausibility ──

func validatePlausibility(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Phase 3: Plausibility (values)"}
	for _, r := range records {
		if r.Precipitation < 0 {
			p.errorf("%d-%02d: negative precipitation %.2f", r.Year, r.Month, r.Precipitation)
		}
		if r.MinTemp > r.MaxTemp {
			p.errorf("%d-%02d: tasmin %.2f above tasmax %.2f", r.Year, r.Month, r.MinTemp, r.MaxTemp)
		}
		if r.MaxTemp > 60 || r.MinTemp < -90 {
			p.warnf("%d-%02d: temperature outside observed records (%.2f / %.2f)", r.Year, r.Month, r.MaxTemp, r.MinTemp)
		}
	}
	return p
}

// ── Phase 4: Coverage ──
// Months below the extreme-event minimum are skipped by that detector;
// missing months shift nothing but are worth knowing about.

func validateCoverage(records []domain.WeatherRecord) *phase {
	p := &phase{name: "Phase 4: Coverage (samples per month)"}
	if len(records) == 0 {
		return p
	}

	perMonth := make(map[int]int, 12)
	present := make(map[yearMonth]bool, len(records))
	first, last := records[0].Year, records[0].Year
	for _, r := range records {
		perMonth[r.Month]++
		present[yearMonth{r.Year, r.Month}] = true
		first, last = min(first, r.Year), max(last, r.Year)
	}

	for m := 1; m <= 12; m++ {
		if n := perMonth[m]; n < domain.MinExtremeSamples {
			p.warnf("%s has %d samples; extreme-event detection needs %d",
				time.Month(m), n, domain.MinExtremeSamples)
		}
	}

	var missing int
	for y := first; y <= last; y++ {
		for m := 1; m <= 12; m++ {
			if !present[yearMonth{y, m}] {
				missing++
			}
		}
	}
	if missing > 0 {
		p.warnf("%d months missing between %d and %d", missing, first, last)
	}
	return p
}

// printDetectionPreview runs the detectors without persisting anything.
func printDetectionPreview(records []domain.WeatherRecord) {
	if len(records) == 0 {
		return
	}
	now := time.Now().UTC()
	zscore := domain.DetectZScoreAnomalies(records, now)
	extreme := domain.DetectExtremeEvents(records, now)
	unique, dropped := domain.Deduplicate(append(append([]domain.Anomaly{}, zscore...), extreme...))
	moving := domain.DetectMovingAverageAnomalies(records, domain.DefaultMovingAverageWindow, now)

	fmt.Println("\n=== Detection preview ===")
	fmt.Printf("Z-score anomalies: %d\n", len(zscore))
	fmt.Printf("Extreme events: %d\n", len(extreme))
	fmt.Printf("Stored after dedup: %d (%d duplicates)\n", len(unique), dropped)
	fmt.Printf("Moving average anomalies (window %d): %d\n", domain.DefaultMovingAverageWindow, len(moving))

	bySeverity := map[domain.Severity]int{}
	for _, a := range unique {
		bySeverity[a.Severity]++
	}
	fmt.Printf("By severity: low=%d, medium=%d, high=%d, extreme=%d\n",
		bySeverity[domain.SeverityLow], bySeverity[domain.SeverityMedium],
		bySeverity[domain.SeverityHigh], bySeverity[domain.SeverityExtreme])
}
