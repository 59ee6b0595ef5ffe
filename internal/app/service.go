// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medreach/vitalguard/internal/adapters/directory"
	readingqueue "github.com/medreach/vitalguard/internal/adapters/mq/queue"
	workerpool "github.com/medreach/vitalguard/internal/adapters/mq/worker"
	"github.com/medreach/vitalguard/internal/adapters/notifier"
	repository "github.com/medreach/vitalguard/internal/adapters/repository"
	"github.com/medreach/vitalguard/internal/domain/dedupe"
	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/internal/domain/notify"
	"github.com/medreach/vitalguard/internal/domain/risk"
	"github.com/medreach/vitalguard/internal/domain/vitals"
	"github.com/medreach/vitalguard/pkg/logger"
	"github.com/medreach/vitalguard/pkg/metrics"
)

// Service implements the API dependencies for the vitals monitoring
// system: reading intake, risk prediction and emergency handling.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	deduper      dedupe.Deduper
	readingQueue readingqueue.Queue
	classifier   *vitals.TableClassifier
	predictor    *risk.Predictor
	policy       *notify.Policy
	directory    directory.Directory
	notifier     notifier.Notifier
	workerPool   *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	historyWindow int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the reading queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistoryWindow sets how many readings risk prediction considers.
func WithHistoryWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyWindow = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore overrides the default in-memory store, e.g. with the
// Postgres-backed one.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDirectory sets the recipient directory consulted for alerts.
func WithDirectory(d directory.Directory) Option {
	return func(s *Service) {
		if d != nil {
			s.directory = d
		}
	}
}

// WithNotifier sets the alert delivery transport.
func WithNotifier(n notifier.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotificationPolicy overrides the default retry/backoff policy.
func WithNotificationPolicy(p *notify.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithPredictor overrides the default risk predictor.
func WithPredictor(p *risk.Predictor) Option {
	return func(s *Service) {
		if p != nil {
			s.predictor = p
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:     100000,               // Default queue size
		dedupeSize:    50000,                // Default dedupe cache size
		historyWindow: 30,
		stopCh:        make(chan struct{}),
		logger:        nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting vitals monitoring service...")

	// Initialize components not injected via options
	if s.store == nil {
		s.store = repository.NewMemStore()
		s.logger.Info(ctx, "using in-memory store")
	}
	if s.directory == nil {
		s.directory = directory.NewInMemoryDirectory()
	}
	if s.notifier == nil {
		s.notifier = notifier.NewLogNotifier(s.logger)
	}
	if s.policy == nil {
		s.policy = notify.New()
	}
	if s.predictor == nil {
		s.predictor = risk.New(risk.WithWindowSize(s.historyWindow))
	}
	s.classifier = vitals.New()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.readingQueue = readingqueue.NewInMemoryQueue(
		readingqueue.WithCapacity(s.queueSize),
		readingqueue.WithBufferSize(s.queueSize),
	)

	// Create and start worker pool; the service itself is the
	// escalation hook for critical classifications
	s.workerPool = workerpool.NewPool(s.workerCount, s.readingQueue, s.classifier, s.store, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "vitals monitoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("historyWindow", s.historyWindow),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping vitals monitoring service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close store
	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	// Close queue
	if q, ok := s.readingQueue.(*readingqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "vitals monitoring service stopped")
}

// SeenAndRecord atomically checks if a reading id was seen and records it if not.
// Returns true if the reading was already seen, false if it was newly recorded.
// This is the ONLY method for deduplication - thread-safe and atomic.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordReadingDuplicate()
	}
	return seen
}

// Unrecord removes a reading ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// SubmitReading hands a validated reading to the asynchronous
// pipeline. Returns false when the queue refused it, in which case
// the caller should surface backpressure and unrecord the id.
func (s *Service) SubmitReading(ctx context.Context, r model.VitalsReading) bool { //nolint:gocritic // hugeParam: reading is passed by value into the queue
	if r.ReadingID == "" {
		r.ReadingID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	s.logger.Debug(ctx, "enqueueing reading",
		logger.String("readingID", r.ReadingID),
		logger.String("patientID", r.PatientID),
	)

	success := s.readingQueue.Enqueue(ctx, r)
	if success {
		metrics.RecordReadingAccepted()
		metrics.UpdateQueueSize(s.readingQueue.Len(ctx))
	}
	return success
}

// History returns up to limit readings for the patient, newest first.
func (s *Service) History(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error) {
	return s.store.RecentReadings(ctx, patientID, limit)
}

// Predict computes the patient's current risk assessment from the
// recent reading window. A High or Critical assessment escalates to
// an AI-triggered emergency, subject to the notification policy.
func (s *Service) Predict(ctx context.Context, patientID string) (model.RiskAssessment, error) {
	history, err := s.store.RecentReadings(ctx, patientID, s.predictor.WindowSize())
	if err != nil {
		return model.RiskAssessment{}, err
	}

	assessment := s.predictor.Assess(history)
	metrics.RecordRiskAssessment(string(assessment.RiskLevel))

	if assessment.Escalates() {
		s.escalate(ctx, patientID)
	}

	return assessment, nil
}

// EscalateCritical is the worker pool's hook for critically
// classified readings. It never fails the reading pipeline; escalation
// errors are logged and the next critical reading retries.
func (s *Service) EscalateCritical(ctx context.Context, r model.VitalsReading) { //nolint:gocritic // hugeParam: matches the worker escalator contract
	s.logger.Warn(ctx, "critical reading detected",
		logger.String("readingID", r.ReadingID),
		logger.String("patientID", r.PatientID),
	)
	s.escalate(ctx, r.PatientID)
}

// escalate ensures an active AI-triggered emergency for the patient
// and runs the gated notification path against it.
func (s *Service) escalate(ctx context.Context, patientID string) {
	event, created, err := s.store.FindOrCreateActive(ctx, model.EmergencyEvent{
		EventID:   uuid.NewString(),
		PatientID: patientID,
		Status:    model.EmergencyActive,
		Type:      model.EmergencyAITriggered,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error(ctx, "failed to open emergency event",
			logger.String("patientID", patientID),
			logger.Error(err),
		)
		return
	}
	if created {
		metrics.RecordEmergencyOpened(string(model.EmergencyAITriggered))
		s.logger.Warn(ctx, "emergency event opened",
			logger.String("eventID", event.EventID),
			logger.String("patientID", patientID),
			logger.String("type", string(event.Type)),
		)
	}

	s.notifyIfAllowed(ctx, &event)
}

// TriggerManualEmergency opens (or returns) the active manual
// emergency for the patient. A newly created event is dispatched
// immediately. Re-triggering an existing active event is idempotent
// on the event itself; whether it re-sends is up to the retry gate,
// so an alert lost to a notifier outage gets another attempt.
func (s *Service) TriggerManualEmergency(ctx context.Context, patientID, location string, lat, lon *float64) (model.EmergencyEvent, bool, error) {
	event, created, err := s.store.FindOrCreateActive(ctx, model.EmergencyEvent{
		EventID:   uuid.NewString(),
		PatientID: patientID,
		Status:    model.EmergencyActive,
		Type:      model.EmergencyPatientManual,
		Location:  location,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return model.EmergencyEvent{}, false, err
	}

	if created {
		metrics.RecordEmergencyOpened(string(model.EmergencyPatientManual))
		s.logger.Warn(ctx, "manual emergency triggered",
			logger.String("eventID", event.EventID),
			logger.String("patientID", patientID),
			logger.String("location", location),
		)
		// A button press bypasses the retry gate: exactly one
		// immediate dispatch for the fresh event.
		s.dispatch(ctx, &event)
	} else {
		s.notifyIfAllowed(ctx, &event)
	}

	return event, created, nil
}

// Acknowledge marks the event acknowledged by userID, which stops all
// further notifications for it.
func (s *Service) Acknowledge(ctx context.Context, eventID, userID string) (model.EmergencyEvent, error) {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return model.EmergencyEvent{}, err
	}

	s.policy.Acknowledge(&event, userID)
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return model.EmergencyEvent{}, err
	}

	s.logger.Info(ctx, "emergency acknowledged",
		logger.String("eventID", eventID),
		logger.String("userID", userID),
	)
	return event, nil
}

// Resolve transitions the event to the terminal resolved state.
func (s *Service) Resolve(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	return s.closeEvent(ctx, eventID, model.EmergencyResolved)
}

// Cancel transitions the event to the terminal cancelled state, e.g.
// for an accidental button press.
func (s *Service) Cancel(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	return s.closeEvent(ctx, eventID, model.EmergencyCancelled)
}

func (s *Service) closeEvent(ctx context.Context, eventID string, status model.EmergencyStatus) (model.EmergencyEvent, error) {
	event, err := s.store.Event(ctx, eventID)
	if err != nil {
		return model.EmergencyEvent{}, err
	}

	event.Status = status
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return model.EmergencyEvent{}, err
	}

	metrics.RecordEmergencyClosed(string(status))
	s.logger.Info(ctx, "emergency closed",
		logger.String("eventID", eventID),
		logger.String("status", string(status)),
	)
	return event, nil
}

// EmergenciesFor lists a patient's events, newest first.
func (s *Service) EmergenciesFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error) {
	return s.store.EventsFor(ctx, patientID, activeOnly)
}

// notifyIfAllowed consults the retry policy before dispatching. A
// suppressed alert is normal operation, not an error.
func (s *Service) notifyIfAllowed(ctx context.Context, e *model.EmergencyEvent) {
	if !s.policy.ShouldNotify(e) {
		metrics.RecordNotificationSuppressed()
		s.logger.Debug(ctx, "notification suppressed by policy",
			logger.String("eventID", e.EventID),
			logger.Bool("acknowledged", e.Acknowledged),
			logger.Int("retries", e.NotificationRetries),
		)
		return
	}
	s.dispatch(ctx, e)
}

// dispatch assembles recipients, sends the alert and records the
// attempt on success. A failed send is logged but never recorded so
// the policy retries it on the next evaluation.
func (s *Service) dispatch(ctx context.Context, e *model.EmergencyEvent) {
	patientName := e.PatientID
	patient, err := s.directory.Patient(ctx, e.PatientID)
	if err != nil {
		// Unknown patients still get alerted on, addressed by id.
		s.logger.Warn(ctx, "patient not found in directory",
			logger.String("patientID", e.PatientID),
		)
		patient = directory.Contact{ID: e.PatientID, Name: e.PatientID, Role: directory.RolePatient}
	} else {
		patientName = patient.Name
	}

	caregivers, err := s.directory.CaregiversFor(ctx, e.PatientID)
	if err != nil {
		s.logger.Warn(ctx, "caregiver lookup failed", logger.Error(err))
	}
	doctors, err := s.directory.Doctors(ctx)
	if err != nil {
		s.logger.Warn(ctx, "doctor lookup failed", logger.Error(err))
	}

	alert := notifier.Alert{
		Event:      *e,
		Patient:    patient,
		Caregivers: caregivers,
		Doctors:    doctors,
		Message:    notifier.Message(patientName, e.Type),
		SentAt:     time.Now().UTC(),
	}

	if err := s.notifier.Send(ctx, alert); err != nil {
		metrics.RecordNotificationFailed()
		s.logger.Error(ctx, "alert delivery failed",
			logger.String("eventID", e.EventID),
			logger.Error(err),
		)
		return
	}

	s.policy.RecordSent(e)
	if err := s.store.UpdateEvent(ctx, *e); err != nil {
		s.logger.Error(ctx, "failed to persist notification state",
			logger.String("eventID", e.EventID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotificationSent(string(e.Type))
	s.logger.Info(ctx, "alert sent",
		logger.String("eventID", e.EventID),
		logger.String("patientID", e.PatientID),
		logger.Int("retries", e.NotificationRetries),
	)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"historyWindow": s.historyWindow,
	}

	if s.started {
		queueLen := s.readingQueue.Len(ctx)
		totalReadings := s.store.ReadingCount(ctx)

		stats["queueLength"] = queueLen
		stats["totalReadings"] = totalReadings

		// Update metrics
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalReadings(totalReadings)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
