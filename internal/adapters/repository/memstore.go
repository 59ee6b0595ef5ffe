package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/pkg/metrics"
)

// Default in-memory store configuration constants.
const (
	defaultShardCount = 32
	defaultMaxHistory = 1000
)

// MemStore is an in-memory Store implementation.
//
// Per-patient state is serialized with striped locks keyed by patient
// id: every write for one patient goes through the same stripe, which
// makes lookup-then-create on emergencies atomic and upholds the
// one-active-event-per-(patient,type) invariant under concurrent
// submissions from the same patient.
type MemStore struct {
	shardCount int
	maxHistory int
	stripes    []sync.Mutex

	mu        sync.RWMutex
	readings  map[string][]model.VitalsReading // patientID -> newest first
	events    map[string]*model.EmergencyEvent // eventID -> event
	active    map[activeKey]string             // (patient, type) -> active eventID
	byPatient map[string][]string              // patientID -> eventIDs, newest first

	readingCount atomic.Int64
}

type activeKey struct {
	patientID string
	eventType model.EmergencyType
}

// NewMemStore creates an in-memory store with configuration options.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		shardCount: defaultShardCount,
		maxHistory: defaultMaxHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stripes = make([]sync.Mutex, s.shardCount)
	s.readings = make(map[string][]model.VitalsReading)
	s.events = make(map[string]*model.EmergencyEvent)
	s.active = make(map[activeKey]string)
	s.byPatient = make(map[string][]string)
	return s
}

// stripe returns the serialization point for a patient.
func (s *MemStore) stripe(patientID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(patientID))
	return &s.stripes[h.Sum32()%uint32(s.shardCount)]
}

// AppendReading stores a classified reading, newest first, trimming
// history beyond the per-patient bound.
func (s *MemStore) AppendReading(ctx context.Context, r model.VitalsReading) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	st := s.stripe(r.PatientID)
	st.Lock()
	defer st.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.readings[r.PatientID]
	history = append([]model.VitalsReading{r}, history...)
	if len(history) > s.maxHistory {
		history = history[:s.maxHistory]
	}
	s.readings[r.PatientID] = history
	s.readingCount.Add(1)
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *MemStore) RecentReadings(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.readings[patientID]
	if len(history) > limit {
		history = history[:limit]
	}
	out := make([]model.VitalsReading, len(history))
	copy(out, history)
	return out, nil
}

// ReadingCount returns the number of readings appended overall.
func (s *MemStore) ReadingCount(ctx context.Context) int {
	return int(s.readingCount.Load())
}

// FindOrCreateActive returns the active event for (patient, type),
// creating proto when none exists. The lookup-then-create sequence
// runs under the patient's stripe, so concurrent triggers for the
// same patient cannot create duplicate active events.
func (s *MemStore) FindOrCreateActive(ctx context.Context, proto model.EmergencyEvent) (model.EmergencyEvent, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	st := s.stripe(proto.PatientID)
	st.Lock()
	defer st.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := activeKey{patientID: proto.PatientID, eventType: proto.Type}
	if id, ok := s.active[key]; ok {
		if e := s.events[id]; e != nil && e.IsActive() {
			return *e, false, nil
		}
	}

	e := proto
	e.Status = model.EmergencyActive
	s.events[e.EventID] = &e
	s.active[key] = e.EventID
	s.byPatient[e.PatientID] = append([]string{e.EventID}, s.byPatient[e.PatientID]...)
	return e, true, nil
}

// Event returns an event by id.
func (s *MemStore) Event(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[eventID]
	if !ok {
		return model.EmergencyEvent{}, ErrNotFound
	}
	return *e, nil
}

// UpdateEvent persists mutated event state and releases the active
// slot when the event reaches a terminal status.
func (s *MemStore) UpdateEvent(ctx context.Context, e model.EmergencyEvent) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	st := s.stripe(e.PatientID)
	st.Lock()
	defer st.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.EventID]; !ok {
		return ErrNotFound
	}
	stored := e
	s.events[e.EventID] = &stored

	key := activeKey{patientID: e.PatientID, eventType: e.Type}
	if !stored.IsActive() && s.active[key] == e.EventID {
		delete(s.active, key)
	}
	return nil
}

// EventsFor lists a patient's events, newest first.
func (s *MemStore) EventsFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byPatient[patientID]
	out := make([]model.EmergencyEvent, 0, len(ids))
	for _, id := range ids {
		e := s.events[id]
		if e == nil {
			continue
		}
		if activeOnly && !e.IsActive() {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}
