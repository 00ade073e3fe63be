package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
)

const recordColumns = `id, location, year, month, pr_total, tasmax_avg, tasmin_avg, tas_avg, ingested_at`

// InsertRecords upserts records by ID in a single transaction and returns the
// number written. Records without an ID get a deterministic one.
func (s *Store) InsertRecords(ctx context.Context, records []domain.WeatherRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	err := s.tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO weather_records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range records {
			id := r.ID
			if id == "" {
				id = domain.GenerateRecordID(r.Location, r.Year, r.Month)
			}
			ingestedAt := r.IngestedAt
			if ingestedAt.IsZero() {
				ingestedAt = now
			}
			var avg sql.NullFloat64
			if r.AvgTemp != nil {
				avg = sql.NullFloat64{Float64: *r.AvgTemp, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, id, r.Location, r.Year, r.Month,
				r.Precipitation, r.MaxTemp, r.MinTemp, avg, ingestedAt); err != nil {
				return fmt.Errorf("record %s %d-%02d: %w", r.Location, r.Year, r.Month, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert records: %w", err)
	}
	return len(records), nil
}

// FetchRecords returns all records for a location ordered by year ascending,
// then month, then ID.
func (s *Store) FetchRecords(ctx context.Context, location string) ([]domain.WeatherRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM weather_records
		WHERE location = ? ORDER BY year, month, id`, location)
}

// RecordsByYearRange returns a location's records with start <= year <= end.
func (s *Store) RecordsByYearRange(ctx context.Context, location string, start, end int) ([]domain.WeatherRecord, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM weather_records
		WHERE location = ? AND year BETWEEN ? AND ? ORDER BY year, month, id`, location, start, end)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]domain.WeatherRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.WeatherRecord
	for rows.Next() {
		var r domain.WeatherRecord
		var avg sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Location, &r.Year, &r.Month,
			&r.Precipitation, &r.MaxTemp, &r.MinTemp, &avg, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		if avg.Valid {
			v := avg.Float64
			r.AvgTemp = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary aggregates the whole record table.
func (s *Store) Summary(ctx context.Context) (domain.DataSummary, error) {
	var (
		summary  domain.DataSummary
		minYear  sql.NullInt64
		maxYear  sql.NullInt64
		avgTemp  sql.NullFloat64
		avgPrecp sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(year), MAX(year), AVG(tas_avg), AVG(pr_total)
		FROM weather_records`,
	).Scan(&summary.TotalRecords, &minYear, &maxYear, &avgTemp, &avgPrecp)
	if err != nil {
		return domain.DataSummary{}, fmt.Errorf("summarize records: %w", err)
	}
	summary.StartYear = int(minYear.Int64)
	summary.EndYear = int(maxYear.Int64)
	summary.AvgTemperature = avgTemp.Float64
	summary.AvgPrecipitation = avgPrecp.Float64

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT location FROM weather_records ORDER BY location`)
	if err != nil {
		return domain.DataSummary{}, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	summary.Locations = []string{}
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return domain.DataSummary{}, fmt.Errorf("scan location: %w", err)
		}
		summary.Locations = append(summary.Locations, loc)
	}
	return summary, rows.Err()
}
