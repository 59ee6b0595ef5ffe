package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/pkg/metrics"
)

// PGStore is a Postgres-backed Store implementation.
//
// The one-active-event invariant is enforced by the database itself:
// a partial unique index over (patient_id, event_type) WHERE
// status='active' makes the find-or-create an atomic upsert instead
// of a race-prone check-then-act.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an existing database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// OpenPGStore connects to Postgres with the given DSN and verifies
// the connection.
func OpenPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS vitals_readings (
	reading_id   TEXT PRIMARY KEY,
	patient_id   TEXT NOT NULL,
	heart_rate   DOUBLE PRECISION NOT NULL,
	spo2         DOUBLE PRECISION NOT NULL,
	temperature  DOUBLE PRECISION NOT NULL,
	systolic_bp  DOUBLE PRECISION,
	diastolic_bp DOUBLE PRECISION,
	sugar        DOUBLE PRECISION,
	cholesterol  DOUBLE PRECISION,
	status       TEXT NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vitals_readings_patient
	ON vitals_readings (patient_id, recorded_at DESC);

CREATE TABLE IF NOT EXISTS emergency_events (
	event_id               TEXT PRIMARY KEY,
	patient_id             TEXT NOT NULL,
	status                 TEXT NOT NULL,
	event_type             TEXT NOT NULL,
	location               TEXT NOT NULL DEFAULT '',
	latitude               DOUBLE PRECISION,
	longitude              DOUBLE PRECISION,
	alert_sent             BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged           BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged_at        TIMESTAMPTZ,
	acknowledged_by        TEXT NOT NULL DEFAULT '',
	notification_retries   INTEGER NOT NULL DEFAULT 0,
	last_notification_sent TIMESTAMPTZ,
	created_at             TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_emergency
	ON emergency_events (patient_id, event_type)
	WHERE status = 'active';
`

// Migrate creates the tables and the partial unique index backing the
// one-active-event invariant.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// AppendReading inserts a classified reading.
func (s *PGStore) AppendReading(ctx context.Context, r model.VitalsReading) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	const query = `
		INSERT INTO vitals_readings (
			reading_id, patient_id, heart_rate, spo2, temperature,
			systolic_bp, diastolic_bp, sugar, cholesterol, status, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ReadingID, r.PatientID, r.HeartRate, r.SpO2, r.Temperature,
		optFloat(r.SystolicBP), optFloat(r.DiastolicBP), optFloat(r.Sugar), optFloat(r.Cholesterol),
		string(r.Status), r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append reading: %w", err)
	}
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *PGStore) RecentReadings(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	const query = `
		SELECT reading_id, patient_id, heart_rate, spo2, temperature,
			systolic_bp, diastolic_bp, sugar, cholesterol, status, recorded_at
		FROM vitals_readings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []model.VitalsReading
	for rows.Next() {
		var r model.VitalsReading
		var sys, dia, sugar, chol sql.NullFloat64
		var status string
		if err := rows.Scan(
			&r.ReadingID, &r.PatientID, &r.HeartRate, &r.SpO2, &r.Temperature,
			&sys, &dia, &sugar, &chol, &status, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.SystolicBP = nullFloat(sys)
		r.DiastolicBP = nullFloat(dia)
		r.Sugar = nullFloat(sugar)
		r.Cholesterol = nullFloat(chol)
		r.Status = model.Status(status)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

// ReadingCount returns the number of readings stored overall.
func (s *PGStore) ReadingCount(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vitals_readings`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// FindOrCreateActive upserts the active event for (patient, type).
// The insert targets the partial unique index, so when an active
// event already exists the insert is a no-op and the existing row is
// returned.
func (s *PGStore) FindOrCreateActive(ctx context.Context, proto model.EmergencyEvent) (model.EmergencyEvent, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	const insert = `
		INSERT INTO emergency_events (
			event_id, patient_id, status, event_type, location,
			latitude, longitude, alert_sent, acknowledged, acknowledged_by,
			notification_retries, created_at
		) VALUES ($1, $2, 'active', $3, $4, $5, $6, FALSE, FALSE, '', 0, $7)
		ON CONFLICT (patient_id, event_type) WHERE status = 'active' DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, insert,
		proto.EventID, proto.PatientID, string(proto.Type), proto.Location,
		optFloat(proto.Latitude), optFloat(proto.Longitude), proto.Timestamp,
	)
	if err != nil {
		return model.EmergencyEvent{}, false, fmt.Errorf("upsert emergency: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return model.EmergencyEvent{}, false, fmt.Errorf("upsert emergency: %w", err)
	}

	const query = selectEvent + `
		WHERE patient_id = $1 AND event_type = $2 AND status = 'active'
	`
	e, err := s.scanEvent(s.db.QueryRowContext(ctx, query, proto.PatientID, string(proto.Type)))
	if err != nil {
		return model.EmergencyEvent{}, false, err
	}
	return e, inserted == 1, nil
}

const selectEvent = `
	SELECT event_id, patient_id, status, event_type, location,
		latitude, longitude, alert_sent, acknowledged, acknowledged_at,
		acknowledged_by, notification_retries, last_notification_sent, created_at
	FROM emergency_events
`

// Event returns an event by id.
func (s *PGStore) Event(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	const query = selectEvent + ` WHERE event_id = $1`
	return s.scanEvent(s.db.QueryRowContext(ctx, query, eventID))
}

// UpdateEvent persists mutated notification and lifecycle state.
func (s *PGStore) UpdateEvent(ctx context.Context, e model.EmergencyEvent) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	const query = `
		UPDATE emergency_events SET
			status = $2,
			location = $3,
			latitude = $4,
			longitude = $5,
			alert_sent = $6,
			acknowledged = $7,
			acknowledged_at = $8,
			acknowledged_by = $9,
			notification_retries = $10,
			last_notification_sent = $11
		WHERE event_id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		e.EventID, string(e.Status), e.Location,
		optFloat(e.Latitude), optFloat(e.Longitude),
		e.AlertSent, e.Acknowledged, optTime(e.AcknowledgedAt), e.AcknowledgedBy,
		e.NotificationRetries, optTime(e.LastNotificationSent),
	)
	if err != nil {
		return fmt.Errorf("update emergency: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update emergency: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventsFor lists a patient's events, newest first.
func (s *PGStore) EventsFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	query := selectEvent + ` WHERE patient_id = $1`
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("query emergencies: %w", err)
	}
	defer rows.Close()

	var out []model.EmergencyEvent
	for rows.Next() {
		e, err := s.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emergencies: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PGStore) scanEvent(row rowScanner) (model.EmergencyEvent, error) {
	var e model.EmergencyEvent
	var status, eventType string
	var lat, lon sql.NullFloat64
	var ackAt, lastSent sql.NullTime
	err := row.Scan(
		&e.EventID, &e.PatientID, &status, &eventType, &e.Location,
		&lat, &lon, &e.AlertSent, &e.Acknowledged, &ackAt,
		&e.AcknowledgedBy, &e.NotificationRetries, &lastSent, &e.Timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EmergencyEvent{}, ErrNotFound
	}
	if err != nil {
		return model.EmergencyEvent{}, fmt.Errorf("scan emergency: %w", err)
	}
	e.Status = model.EmergencyStatus(status)
	e.Type = model.EmergencyType(eventType)
	e.Latitude = nullFloat(lat)
	e.Longitude = nullFloat(lon)
	e.AcknowledgedAt = nullTime(ackAt)
	e.LastNotificationSent = nullTime(lastSent)
	return e, nil
}

func optFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func optTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
