package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medreach/vitalguard/internal/adapters/http/api"
	repository "github.com/medreach/vitalguard/internal/adapters/repository"
	"github.com/medreach/vitalguard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(ctx context.Context, id string) {
	if m.seen != nil {
		delete(m.seen, id)
	}
}

func (m *mockDeduper) Size() int64 {
	return int64(len(m.seen))
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

// mockDependencies bundles everything the handlers need.
type mockDependencies struct {
	*mockDeduper

	submitSuccess bool
	submitted     []model.VitalsReading

	history    []model.VitalsReading
	historyErr error

	assessment model.RiskAssessment
	predictErr error

	events    []model.EmergencyEvent
	eventsErr error

	triggered    model.EmergencyEvent
	triggeredNew bool
	triggerErr   error

	lifecycleEvent model.EmergencyEvent
	lifecycleErr   error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		mockDeduper:   &mockDeduper{},
		submitSuccess: true,
	}
}

func (m *mockDependencies) SubmitReading(ctx context.Context, r model.VitalsReading) bool {
	if !m.submitSuccess {
		return false
	}
	m.submitted = append(m.submitted, r)
	return true
}

func (m *mockDependencies) History(ctx context.Context, patientID string, limit int) ([]model.VitalsReading, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

func (m *mockDependencies) Predict(ctx context.Context, patientID string) (model.RiskAssessment, error) {
	if m.predictErr != nil {
		return model.RiskAssessment{}, m.predictErr
	}
	return m.assessment, nil
}

func (m *mockDependencies) EmergenciesFor(ctx context.Context, patientID string, activeOnly bool) ([]model.EmergencyEvent, error) {
	if m.eventsErr != nil {
		return nil, m.eventsErr
	}
	return m.events, nil
}

func (m *mockDependencies) TriggerManualEmergency(ctx context.Context, patientID, location string, lat, lon *float64) (model.EmergencyEvent, bool, error) {
	if m.triggerErr != nil {
		return model.EmergencyEvent{}, false, m.triggerErr
	}
	return m.triggered, m.triggeredNew, nil
}

func (m *mockDependencies) Acknowledge(ctx context.Context, eventID, userID string) (model.EmergencyEvent, error) {
	if m.lifecycleErr != nil {
		return model.EmergencyEvent{}, m.lifecycleErr
	}
	e := m.lifecycleEvent
	e.Acknowledged = true
	e.AcknowledgedBy = userID
	return e, nil
}

func (m *mockDependencies) Resolve(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	if m.lifecycleErr != nil {
		return model.EmergencyEvent{}, m.lifecycleErr
	}
	e := m.lifecycleEvent
	e.Status = model.EmergencyResolved
	return e, nil
}

func (m *mockDependencies) Cancel(ctx context.Context, eventID string) (model.EmergencyEvent, error) {
	if m.lifecycleErr != nil {
		return model.EmergencyEvent{}, m.lifecycleErr
	}
	e := m.lifecycleEvent
	e.Status = model.EmergencyCancelled
	return e, nil
}

func newTestMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux, deps)
	return mux
}

const validReadingBody = `{
	"readingId": "reading-1",
	"patientId": "patient-1",
	"heartRate": 72,
	"spo2": 98,
	"temperature": 36.6
}`

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When registering routes", func() {
			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And readings endpoint should reject an empty body", func() {
				req := httptest.NewRequest("POST", "/readings", strings.NewReader(`{}`))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And unknown endpoints should 404", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestReadingsEndpoint(t *testing.T) {
	Convey("Given the readings endpoint", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps)

		Convey("When posting a valid reading", func() {
			req := httptest.NewRequest("POST", "/readings", strings.NewReader(validReadingBody))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].PatientID, ShouldEqual, "patient-1")
				So(deps.submitted[0].HeartRate, ShouldEqual, 72)

				var resp map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "accepted")
				So(resp["readingId"], ShouldEqual, "reading-1")
			})
		})

		Convey("When posting the same reading id twice", func() {
			first := httptest.NewRecorder()
			mux.ServeHTTP(first, httptest.NewRequest("POST", "/readings", strings.NewReader(validReadingBody)))
			second := httptest.NewRecorder()
			mux.ServeHTTP(second, httptest.NewRequest("POST", "/readings", strings.NewReader(validReadingBody)))

			Convey("Then the second submission is reported as duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				var resp map[string]interface{}
				So(json.Unmarshal(second.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["duplicate"], ShouldEqual, true)
				So(len(deps.submitted), ShouldEqual, 1)
			})
		})

		Convey("When posting without a reading id", func() {
			body := `{"patientId": "patient-2", "heartRate": 80, "spo2": 97, "temperature": 37.0}`
			req := httptest.NewRequest("POST", "/readings", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then an id is generated for the accepted reading", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["readingId"], ShouldNotBeEmpty)
			})
		})

		Convey("When posting with a missing required metric", func() {
			body := `{"patientId": "patient-3", "heartRate": 80, "temperature": 37.0}`
			req := httptest.NewRequest("POST", "/readings", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When posting with an invalid timestamp", func() {
			body := `{"patientId": "p", "heartRate": 80, "spo2": 97, "temperature": 37.0, "timestamp": "yesterday"}`
			req := httptest.NewRequest("POST", "/readings", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue applies backpressure", func() {
			deps.submitSuccess = false
			req := httptest.NewRequest("POST", "/readings", strings.NewReader(validReadingBody))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 429 and unrecord the id", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When using the wrong method", func() {
			req := httptest.NewRequest("GET", "/readings", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestPatientEndpoints(t *testing.T) {
	Convey("Given the patient endpoints", t, func() {
		deps := newMockDependencies()
		deps.history = []model.VitalsReading{
			{ReadingID: "r2", PatientID: "patient-1", HeartRate: 80, SpO2: 97, Temperature: 36.8, Status: model.StatusNormal, Timestamp: time.Now()},
			{ReadingID: "r1", PatientID: "patient-1", HeartRate: 72, SpO2: 98, Temperature: 36.6, Status: model.StatusNormal, Timestamp: time.Now().Add(-time.Minute)},
		}
		deps.assessment = model.RiskAssessment{
			RiskLevel:    model.RiskLow,
			FutureIssues: []string{},
			Confidence:   0.07,
			Explanation:  "LOW: Vitals are within acceptable ranges.",
		}
		deps.events = []model.EmergencyEvent{
			{EventID: "e1", PatientID: "patient-1", Status: model.EmergencyActive, Type: model.EmergencyAITriggered},
		}
		mux := newTestMux(deps)

		Convey("When fetching reading history", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/readings?limit=10", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the readings", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var readings []model.VitalsReading
				So(json.Unmarshal(w.Body.Bytes(), &readings), ShouldBeNil)
				So(len(readings), ShouldEqual, 2)
				So(readings[0].ReadingID, ShouldEqual, "r2")
			})
		})

		Convey("When fetching history with an invalid limit", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/readings?limit=0", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching history above the maximum limit", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/readings?limit=1000", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching the risk assessment", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/risk", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the assessment", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got model.RiskAssessment
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.RiskLevel, ShouldEqual, model.RiskLow)
			})
		})

		Convey("When fetching emergencies", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/emergencies?active=true", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return the events", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var events []model.EmergencyEvent
				So(json.Unmarshal(w.Body.Bytes(), &events), ShouldBeNil)
				So(len(events), ShouldEqual, 1)
			})
		})

		Convey("When the path is malformed", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the subresource is unknown", func() {
			req := httptest.NewRequest("GET", "/patients/patient-1/scores", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestEmergencyEndpoints(t *testing.T) {
	Convey("Given the emergency endpoints", t, func() {
		deps := newMockDependencies()
		deps.triggered = model.EmergencyEvent{
			EventID:   "event-1",
			PatientID: "patient-1",
			Status:    model.EmergencyActive,
			Type:      model.EmergencyPatientManual,
		}
		deps.lifecycleEvent = deps.triggered
		mux := newTestMux(deps)

		Convey("When triggering a new manual emergency", func() {
			deps.triggeredNew = true
			body := `{"patientId": "patient-1", "location": "Home"}`
			req := httptest.NewRequest("POST", "/emergencies", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 201 with the event", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var event model.EmergencyEvent
				So(json.Unmarshal(w.Body.Bytes(), &event), ShouldBeNil)
				So(event.Type, ShouldEqual, model.EmergencyPatientManual)
			})
		})

		Convey("When re-triggering with an active event in place", func() {
			deps.triggeredNew = false
			body := `{"patientId": "patient-1"}`
			req := httptest.NewRequest("POST", "/emergencies", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should return 200 with the existing event", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When triggering without a patient id", func() {
			req := httptest.NewRequest("POST", "/emergencies", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When acknowledging an event", func() {
			body := `{"userId": "doctor-1"}`
			req := httptest.NewRequest("POST", "/emergencies/event-1/acknowledge", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the event should come back acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var event model.EmergencyEvent
				So(json.Unmarshal(w.Body.Bytes(), &event), ShouldBeNil)
				So(event.Acknowledged, ShouldBeTrue)
				So(event.AcknowledgedBy, ShouldEqual, "doctor-1")
			})
		})

		Convey("When acknowledging without a user id", func() {
			req := httptest.NewRequest("POST", "/emergencies/event-1/acknowledge", strings.NewReader(`{}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When resolving an event", func() {
			req := httptest.NewRequest("POST", "/emergencies/event-1/resolve", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the event should come back resolved", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var event model.EmergencyEvent
				So(json.Unmarshal(w.Body.Bytes(), &event), ShouldBeNil)
				So(event.Status, ShouldEqual, model.EmergencyResolved)
			})
		})

		Convey("When cancelling an event", func() {
			req := httptest.NewRequest("POST", "/emergencies/event-1/cancel", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the event should come back cancelled", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var event model.EmergencyEvent
				So(json.Unmarshal(w.Body.Bytes(), &event), ShouldBeNil)
				So(event.Status, ShouldEqual, model.EmergencyCancelled)
			})
		})

		Convey("When the event does not exist", func() {
			deps.lifecycleErr = repository.ErrNotFound
			req := httptest.NewRequest("POST", "/emergencies/missing/resolve", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the lifecycle verb is unknown", func() {
			req := httptest.NewRequest("POST", "/emergencies/event-1/escalate", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
