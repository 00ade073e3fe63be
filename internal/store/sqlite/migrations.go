package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is a versioned schema change applied inside a transaction.
type migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

func migrations() []migration {
	return []migration{
		{
			Version:     1,
			Description: "create weather_records and anomalies",
			Up: execAll(
				`CREATE TABLE IF NOT EXISTS weather_records (
					id           TEXT PRIMARY KEY,
					location     TEXT NOT NULL,
					year         INTEGER NOT NULL,
					month        INTEGER NOT NULL CHECK (month BETWEEN 1 AND 12),
					pr_total     REAL NOT NULL,
					tasmax_avg   REAL NOT NULL,
					tasmin_avg   REAL NOT NULL,
					tas_avg      REAL,
					ingested_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_weather_records_location_year ON weather_records(location, year)`,

				`CREATE TABLE IF NOT EXISTS anomalies (
					id                      TEXT PRIMARY KEY,
					record_id               TEXT NOT NULL,
					location                TEXT NOT NULL,
					anomaly_type            TEXT NOT NULL,
					metric_type             TEXT NOT NULL DEFAULT '',
					source                  TEXT NOT NULL,
					severity                TEXT NOT NULL,
					value                   REAL NOT NULL,
					expected_value          REAL NOT NULL,
					deviation               REAL NOT NULL,
					z_score                 REAL NOT NULL,
					is_significant          INTEGER NOT NULL DEFAULT 0,
					monthly_historical_avg  REAL NOT NULL DEFAULT 0,
					monthly_anomaly_std     REAL NOT NULL DEFAULT 0,
					description             TEXT NOT NULL DEFAULT '',
					detected_at             DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_anomalies_location ON anomalies(location)`,
				`CREATE INDEX IF NOT EXISTS idx_anomalies_detected ON anomalies(detected_at)`,
			),
		},
	}
}

func execAll(stmts ...string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// migrate applies migrations not yet recorded in _migrations, in order.
func (s *Store) migrate(ctx context.Context, ms []migration) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range ms {
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM _migrations WHERE version = ?", m.Version,
		).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		err := s.tx(ctx, func(tx *sql.Tx) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO _migrations (version, description) VALUES (?, ?)",
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}
