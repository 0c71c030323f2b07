package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// Repository is a Postgres implementation of the occupancy record source.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over the migrated schema.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LoadRecords counts samples per status for every charge point inside window.
// Points without samples in the window are returned with zero counts.
func (r *Repository) LoadRecords(ctx context.Context, window occupancy.ResolvedWindow) ([]occupancy.ChargePointRecord, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("occupancy repo: nil db")
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	query := `
SELECT
	p.id,
	p.longitude,
	p.latitude,
	p.charge_point_type,
	p.address,
	COUNT(s.status) FILTER (WHERE s.status = 'fully_occupied'),
	COUNT(s.status) FILTER (WHERE s.status = 'partially_occupied'),
	COUNT(s.status) FILTER (WHERE s.status = 'out_of_service'),
	COUNT(s.status) FILTER (WHERE s.status = 'out_of_contact')
FROM charge_points p
LEFT JOIN charge_point_status_samples s
	ON s.charge_point_id = p.id
	AND s.sampled_at >= $1
	AND s.sampled_at < $2
	AND (EXTRACT(HOUR FROM s.sampled_at AT TIME ZONE 'UTC') * 60
		+ EXTRACT(MINUTE FROM s.sampled_at AT TIME ZONE 'UTC'))::int BETWEEN $3 AND $4
GROUP BY p.id, p.longitude, p.latitude, p.charge_point_type, p.address
ORDER BY p.id ASC`

	rows, err := r.db.QueryContext(ctx, query,
		window.StartDate.UTC(),
		window.EndDate.UTC().AddDate(0, 0, 1),
		window.StartTime.MinutesSinceMidnight(),
		window.EndTime.MinutesSinceMidnight(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []occupancy.ChargePointRecord
	for rows.Next() {
		var record occupancy.ChargePointRecord
		var category string
		if err := rows.Scan(
			&record.ID,
			&record.Location.Longitude,
			&record.Location.Latitude,
			&category,
			&record.Address,
			&record.Counts.FullyOccupied,
			&record.Counts.PartiallyOccupied,
			&record.Counts.OutOfService,
			&record.Counts.OutOfContact,
		); err != nil {
			return nil, err
		}
		record.Category = occupancy.Category(category)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DatasetBounds returns the dates of the first and last stored sample.
func (r *Repository) DatasetBounds(ctx context.Context) (occupancy.DatasetBounds, error) {
	if r == nil || r.db == nil {
		return occupancy.DatasetBounds{}, errors.New("occupancy repo: nil db")
	}

	query := `SELECT MIN(sampled_at), MAX(sampled_at) FROM charge_point_status_samples`
	var minAt, maxAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&minAt, &maxAt); err != nil {
		return occupancy.DatasetBounds{}, err
	}
	if !minAt.Valid || !maxAt.Valid {
		return occupancy.DatasetBounds{}, occupancy.ErrNoData
	}
	return occupancy.DatasetBounds{
		MinDate: dayOf(minAt.Time),
		MaxDate: dayOf(maxAt.Time),
	}, nil
}

// UpsertChargePoints registers or updates charge points.
func (r *Repository) UpsertChargePoints(ctx context.Context, points []occupancy.ChargePoint) error {
	if r == nil || r.db == nil {
		return errors.New("occupancy repo: nil db")
	}
	if len(points) == 0 {
		return nil
	}

	query := `
INSERT INTO charge_points (
	id,
	charge_point_type,
	longitude,
	latitude,
	address
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (id)
DO UPDATE SET
	charge_point_type = EXCLUDED.charge_point_type,
	longitude = EXCLUDED.longitude,
	latitude = EXCLUDED.latitude,
	address = EXCLUDED.address,
	updated_at = NOW()`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, point := range points {
		if err := point.Validate(); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			point.ID,
			string(point.Category),
			point.Location.Longitude,
			point.Location.Latitude,
			point.Address,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// InsertSamples upserts status samples aligned to their tick start.
func (r *Repository) InsertSamples(ctx context.Context, samples []occupancy.StatusSample) error {
	if r == nil || r.db == nil {
		return errors.New("occupancy repo: nil db")
	}
	if len(samples) == 0 {
		return nil
	}

	query := `
INSERT INTO charge_point_status_samples (
	charge_point_id,
	sampled_at,
	status
) VALUES (
	$1, $2, $3
)
ON CONFLICT (charge_point_id, sampled_at)
DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = NOW()`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, sample := range samples {
		valid, err := sample.Validate()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, valid.ChargePointID, valid.SampledAt, string(valid.Status)); err != nil {
			_ = tx.Rollback()
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", occupancy.ErrUnknownChargePoint, valid.ChargePointID)
			}
			return err
		}
	}
	return tx.Commit()
}

// MissingChargePoints returns the ids that are not registered.
func (r *Repository) MissingChargePoints(ctx context.Context, ids []string) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("occupancy repo: nil db")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM charge_points WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
