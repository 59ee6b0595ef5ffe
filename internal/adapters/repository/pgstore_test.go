package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/medreach/vitalguard/internal/adapters/repository"
	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*repository.PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewPGStore(db), mock
}

func eventColumns() []string {
	return []string{
		"event_id", "patient_id", "status", "event_type", "location",
		"latitude", "longitude", "alert_sent", "acknowledged", "acknowledged_at",
		"acknowledged_by", "notification_retries", "last_notification_sent", "created_at",
	}
}

func TestPGStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS vitals_readings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Migrate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_AppendReading(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()
	reading := model.VitalsReading{
		ReadingID:   "reading-1",
		PatientID:   "patient-1",
		HeartRate:   72,
		SpO2:        97,
		Temperature: 36.6,
		Status:      model.StatusNormal,
		Timestamp:   ts,
	}

	mock.ExpectExec("INSERT INTO vitals_readings").
		WithArgs("reading-1", "patient-1", 72.0, 97.0, 36.6,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"normal", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.AppendReading(context.Background(), reading)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_RecentReadings(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"reading_id", "patient_id", "heart_rate", "spo2", "temperature",
		"systolic_bp", "diastolic_bp", "sugar", "cholesterol", "status", "recorded_at",
	}).
		AddRow("reading-2", "patient-1", 80.0, 96.0, 36.8, nil, nil, nil, nil, "normal", ts).
		AddRow("reading-1", "patient-1", 72.0, 97.0, 36.6, 120.0, 80.0, nil, nil, "normal", ts.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM vitals_readings").
		WithArgs("patient-1", 10).
		WillReturnRows(rows)

	readings, err := store.RecentReadings(context.Background(), "patient-1", 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "reading-2", readings[0].ReadingID)
	assert.Nil(t, readings[0].SystolicBP)
	require.NotNil(t, readings[1].SystolicBP)
	assert.Equal(t, 120.0, *readings[1].SystolicBP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_RecentReadingsInvalidLimit(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.RecentReadings(context.Background(), "patient-1", 0)
	assert.ErrorIs(t, err, repository.ErrInvalidLimit)
}

func TestPGStore_FindOrCreateActive_Creates(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()
	proto := model.EmergencyEvent{
		EventID:   "event-1",
		PatientID: "patient-1",
		Type:      model.EmergencyAITriggered,
		Timestamp: ts,
	}

	mock.ExpectExec("INSERT INTO emergency_events").
		WithArgs("event-1", "patient-1", "AI_TRIGGERED", "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT (.+) FROM emergency_events").
		WithArgs("patient-1", "AI_TRIGGERED").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow("event-1", "patient-1", "active", "AI_TRIGGERED", "",
				nil, nil, false, false, nil, "", 0, nil, ts))

	event, created, err := store.FindOrCreateActive(context.Background(), proto)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "event-1", event.EventID)
	assert.Equal(t, model.EmergencyActive, event.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_FindOrCreateActive_ReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()
	proto := model.EmergencyEvent{
		EventID:   "event-2",
		PatientID: "patient-1",
		Type:      model.EmergencyAITriggered,
		Timestamp: ts,
	}

	// Conflict with the partial unique index: no row inserted.
	mock.ExpectExec("INSERT INTO emergency_events").
		WithArgs("event-2", "patient-1", "AI_TRIGGERED", "",
			sqlmock.AnyArg(), sqlmock.AnyArg(), ts).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT (.+) FROM emergency_events").
		WithArgs("patient-1", "AI_TRIGGERED").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow("event-1", "patient-1", "active", "AI_TRIGGERED", "",
				nil, nil, true, false, nil, "", 0, nil, ts))

	event, created, err := store.FindOrCreateActive(context.Background(), proto)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "event-1", event.EventID)
	assert.True(t, event.AlertSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_Event(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()
	ackAt := ts.Add(time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM emergency_events").
		WithArgs("event-1").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow("event-1", "patient-1", "active", "PATIENT_MANUAL", "home",
				12.5, 55.3, true, true, ackAt, "doctor-1", 1, ts, ts))

	event, err := store.Event(context.Background(), "event-1")
	require.NoError(t, err)
	assert.Equal(t, model.EmergencyPatientManual, event.Type)
	assert.Equal(t, "home", event.Location)
	require.NotNil(t, event.Latitude)
	assert.Equal(t, 12.5, *event.Latitude)
	assert.True(t, event.Acknowledged)
	assert.Equal(t, "doctor-1", event.AcknowledgedBy)
	require.NotNil(t, event.LastNotificationSent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_EventNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM emergency_events").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventColumns()))

	_, err := store.Event(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_UpdateEvent(t *testing.T) {
	store, mock := newMockStore(t)

	event := model.EmergencyEvent{
		EventID:   "event-1",
		PatientID: "patient-1",
		Type:      model.EmergencyAITriggered,
		Status:    model.EmergencyResolved,
		AlertSent: true,
	}

	mock.ExpectExec("UPDATE emergency_events").
		WithArgs("event-1", "resolved", "",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			true, false, sqlmock.AnyArg(), "", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateEvent(context.Background(), event)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_UpdateEventNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	event := model.EmergencyEvent{
		EventID:   "missing",
		PatientID: "patient-1",
		Type:      model.EmergencyAITriggered,
		Status:    model.EmergencyCancelled,
	}

	mock.ExpectExec("UPDATE emergency_events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateEvent(context.Background(), event)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_EventsFor(t *testing.T) {
	store, mock := newMockStore(t)

	ts := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM emergency_events").
		WithArgs("patient-1").
		WillReturnRows(sqlmock.NewRows(eventColumns()).
			AddRow("event-2", "patient-1", "active", "AI_TRIGGERED", "",
				nil, nil, false, false, nil, "", 0, nil, ts).
			AddRow("event-1", "patient-1", "resolved", "AI_TRIGGERED", "",
				nil, nil, true, true, ts, "doctor-1", 1, ts, ts.Add(-time.Hour)))

	events, err := store.EventsFor(context.Background(), "patient-1", false)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "event-2", events[0].EventID)
	assert.Equal(t, model.EmergencyResolved, events[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStore_ReadingCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	assert.Equal(t, 42, store.ReadingCount(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
