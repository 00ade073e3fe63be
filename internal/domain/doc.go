// Package domain models monthly-aggregated climate records and the anomaly
// detection engine that runs over them.
//
// # Data Source
//
// Records are monthly aggregates per location, ingested from CSV exports with
// the columns date, pr, tasmax, tasmin, year, month. One row describes one
// calendar month of one year:
//
//	pr      total precipitation for the month, millimetres
//	tasmax  mean of daily maximum near-surface air temperature, °C
//	tasmin  mean of daily minimum near-surface air temperature, °C
//	tas     mean temperature, derived at ingest as (tasmax + tasmin) / 2
//
// Records are immutable once ingested. Their IDs are deterministic hashes of
// location|year|month so that re-ingesting the same file replaces rather than
// duplicates rows. See [GenerateRecordID].
//
// # Detection
//
// Three detectors run over the full record set of a single location:
//
//	z-score       per-month baseline, per-month anomaly std, |z| >= 2 flagged
//	extreme       calendar-month record highs/lows, >= 10 samples, |z| >= 2
//	moving avg    centered rolling window over tas, interior points only
//
// Baselines are leave-one-in: the record under test contributes to its own
// monthly mean. The baseline pass (mean of raw values) and the anomaly-std
// pass (std of deviations) are separate and must stay that way.
//
// Zero variance is not an error. [ZScore] returns 0 when the std is 0, so a
// month whose values never vary can never produce a significant anomaly.
//
// # Severity
//
// Severity is a pure function of |z|:
//
//	>= 2.5 extreme | >= 2.0 high | >= 1.5 medium | < 1.5 low
//
// The z-score path only emits |z| >= 2, so medium and low are unreachable
// there. Extreme events are always classified extreme regardless of |z|.
package domain
