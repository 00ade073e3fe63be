package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/couchcryptid/climate-anomaly-service/internal/domain"
	"github.com/google/uuid"
)

const (
	defaultAnomalyLimit = 50
	maxAnomalyLimit     = 100
)

const anomalyColumns = `id, record_id, location, anomaly_type, metric_type, source, severity,
	value, expected_value, deviation, z_score, is_significant,
	monthly_historical_avg, monthly_anomaly_std, description, detected_at`

// DeleteAnomalies removes every stored anomaly for a location and returns the
// number deleted.
func (s *Store) DeleteAnomalies(ctx context.Context, location string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM anomalies WHERE location = ?`, location)
	if err != nil {
		return 0, fmt.Errorf("delete anomalies: %w", err)
	}
	return res.RowsAffected()
}

// InsertAnomalies bulk-inserts anomalies in one transaction. Either all rows
// are written or none are. Anomalies without an ID are assigned a UUID.
func (s *Store) InsertAnomalies(ctx context.Context, anomalies []domain.Anomaly) (int, error) {
	if len(anomalies) == 0 {
		return 0, nil
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO anomalies (`+anomalyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, a := range anomalies {
			id := a.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := stmt.ExecContext(ctx,
				id, a.RecordID, a.Location, string(a.Kind), string(a.Metric), string(a.Source),
				string(a.Severity), a.Value, a.Expected, a.Deviation, a.ZScore, a.Significant,
				a.MonthlyBaseline, a.MonthlyAnomalyStd, a.Description, a.DetectedAt.UTC(),
			); err != nil {
				return fmt.Errorf("anomaly for record %s: %w", a.RecordID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert anomalies: %w", err)
	}
	return len(anomalies), nil
}

// QueryAnomalies returns a location's anomalies, most recent detection first.
// Within one detection run rows keep their insertion order. Limit defaults to
// 50 and is capped at 100.
func (s *Store) QueryAnomalies(ctx context.Context, q domain.AnomalyQuery) ([]domain.Anomaly, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultAnomalyLimit
	}
	limit = min(limit, maxAnomalyLimit)

	query := `SELECT ` + anomalyColumns + ` FROM anomalies WHERE location = ?`
	args := []any{q.Location}
	if q.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(q.Severity))
	}
	query += ` ORDER BY detected_at DESC, rowid ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var anomalies []domain.Anomaly
	for rows.Next() {
		a, err := scanAnomaly(rows)
		if err != nil {
			return nil, err
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, rows.Err()
}

// GetAnomaly returns a single anomaly by ID, or domain.ErrNotFound.
func (s *Store) GetAnomaly(ctx context.Context, id string) (domain.Anomaly, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+anomalyColumns+` FROM anomalies WHERE id = ?`, id)
	a, err := scanAnomaly(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Anomaly{}, fmt.Errorf("anomaly %s: %w", id, domain.ErrNotFound)
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnomaly(row scanner) (domain.Anomaly, error) {
	var (
		a                              domain.Anomaly
		kind, metric, source, severity string
	)
	err := row.Scan(&a.ID, &a.RecordID, &a.Location, &kind, &metric, &source, &severity,
		&a.Value, &a.Expected, &a.Deviation, &a.ZScore, &a.Significant,
		&a.MonthlyBaseline, &a.MonthlyAnomalyStd, &a.Description, &a.DetectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Anomaly{}, err
	}
	if err != nil {
		return domain.Anomaly{}, fmt.Errorf("scan anomaly row: %w", err)
	}
	a.Kind = domain.VariableKind(kind)
	a.Metric = domain.Metric(metric)
	a.Source = domain.Source(source)
	a.Severity = domain.Severity(severity)
	return a, nil
}
