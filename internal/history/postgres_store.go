package history

import (
	"context"
	"database/sql"

	"github.com/pkale/glucorisk/internal/tier"
)

// PostgresStore persists scoring events in PostgreSQL. Append order is the
// BIGSERIAL id order; the 0-based ordinal is the count of earlier rows,
// which stays stable because rows are never deleted.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed history store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the scoring_events table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scoring_events (
			id             BIGSERIAL PRIMARY KEY,
			recorded_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			name           TEXT NOT NULL DEFAULT '',
			patient_id     TEXT NOT NULL DEFAULT '',
			pregnancies    DOUBLE PRECISION NOT NULL,
			glucose        DOUBLE PRECISION NOT NULL,
			bloodpressure  DOUBLE PRECISION NOT NULL,
			skinthickness  DOUBLE PRECISION NOT NULL,
			insulin        DOUBLE PRECISION NOT NULL,
			bmi            DOUBLE PRECISION NOT NULL,
			dpf            DOUBLE PRECISION NOT NULL,
			age            DOUBLE PRECISION NOT NULL,
			probability    NUMERIC(5,2) NOT NULL CHECK (probability >= 0 AND probability <= 100),
			risk_level     TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_scoring_events_recorded_at
			ON scoring_events (recorded_at);
	`)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, record *Record) (int64, error) {
	record.Probability = tier.Round2(record.Probability)

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scoring_events (
			recorded_at, name, patient_id,
			pregnancies, glucose, bloodpressure, skinthickness,
			insulin, bmi, dpf, age,
			probability, risk_level
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		record.Timestamp, record.Name, record.PatientID,
		record.Features.Pregnancies, record.Features.Glucose,
		record.Features.BloodPressure, record.Features.SkinThickness,
		record.Features.Insulin, record.Features.BMI,
		record.Features.DPF, record.Features.Age,
		record.Probability, string(record.RiskLevel),
	).Scan(&id)
	if err != nil {
		return 0, &StoreError{Op: "append", Err: err}
	}

	// Ordinal = number of rows appended before this one.
	var ordinal int64
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) - 1 FROM scoring_events WHERE id <= $1`, id,
	).Scan(&ordinal)
	if err != nil {
		return 0, &StoreError{Op: "append", Err: err}
	}

	record.Seq = ordinal
	return ordinal, nil
}

func (s *PostgresStore) ReadAll(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, name, patient_id,
		       pregnancies, glucose, bloodpressure, skinthickness,
		       insulin, bmi, dpf, age,
		       probability, risk_level
		FROM scoring_events
		ORDER BY id
	`)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	defer func() { _ = rows.Close() }()

	records := []*Record{}
	for seq := int64(0); rows.Next(); seq++ {
		rec, err := scanRecord(rows, seq)
		if err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	return records, nil
}

func (s *PostgresStore) ReadAt(ctx context.Context, index int64) (*Record, error) {
	if index < 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, name, patient_id,
		       pregnancies, glucose, bloodpressure, skinthickness,
		       insulin, bmi, dpf, age,
		       probability, risk_level
		FROM scoring_events
		ORDER BY id
		OFFSET $1 LIMIT 1
	`, index)
	if err != nil {
		return nil, &StoreError{Op: "read", Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, &StoreError{Op: "read", Err: err}
		}
		return nil, ErrNotFound
	}
	return scanRecord(rows, index)
}

func scanRecord(rows *sql.Rows, seq int64) (*Record, error) {
	var (
		rec       Record
		riskLevel string
	)
	err := rows.Scan(
		&rec.Timestamp, &rec.Name, &rec.PatientID,
		&rec.Features.Pregnancies, &rec.Features.Glucose,
		&rec.Features.BloodPressure, &rec.Features.SkinThickness,
		&rec.Features.Insulin, &rec.Features.BMI,
		&rec.Features.DPF, &rec.Features.Age,
		&rec.Probability, &riskLevel,
	)
	if err != nil {
		return nil, err
	}
	rec.Seq = seq
	rec.RiskLevel = tier.Tier(riskLevel)
	return &rec, nil
}
