package notifier_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medreach/vitalguard/internal/adapters/directory"
	"github.com/medreach/vitalguard/internal/adapters/notifier"
	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func testAlert() notifier.Alert {
	return notifier.Alert{
		Event: model.EmergencyEvent{
			EventID:   "event-1",
			PatientID: "patient-1",
			Type:      model.EmergencyAITriggered,
			Status:    model.EmergencyActive,
		},
		Patient: directory.Contact{ID: "patient-1", Name: "Ada Lovelace", Role: directory.RolePatient},
		Doctors: []directory.Contact{
			{ID: "doctor-1", Name: "Dr. Hamilton", Role: directory.RoleDoctor},
		},
		Message: notifier.Message("Ada Lovelace", model.EmergencyAITriggered),
		SentAt:  time.Now().UTC(),
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	convey.Convey("Given a webhook notifier against a gateway", t, func() {
		convey.Convey("When the gateway accepts the alert", func() {
			var received notifier.Alert
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &received)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			n := notifier.NewWebhookNotifier(server.URL)
			err := n.Send(context.Background(), testAlert())

			convey.Convey("Then the alert is delivered as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(received.Event.EventID, convey.ShouldEqual, "event-1")
				convey.So(received.Patient.Name, convey.ShouldEqual, "Ada Lovelace")
				convey.So(len(received.Doctors), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the gateway rejects the alert", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			n := notifier.NewWebhookNotifier(server.URL, notifier.WithRetryCount(0))
			err := n.Send(context.Background(), testAlert())

			convey.Convey("Then Send reports a failure", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "notification send failed")
			})
		})

		convey.Convey("When the gateway is unreachable", func() {
			n := notifier.NewWebhookNotifier("http://127.0.0.1:1",
				notifier.WithRetryCount(0),
				notifier.WithTimeout(200*time.Millisecond))
			err := n.Send(context.Background(), testAlert())

			convey.Convey("Then Send reports a failure", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestLogNotifier_Send(t *testing.T) {
	convey.Convey("Given a log-backed notifier", t, func() {
		n := notifier.NewLogNotifier(nil)

		convey.Convey("When sending an alert", func() {
			err := n.Send(context.Background(), testAlert())

			convey.Convey("Then delivery always succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestMessage(t *testing.T) {
	convey.Convey("Given the alert message builder", t, func() {
		convey.Convey("When the emergency was triggered manually", func() {
			msg := notifier.Message("Ada Lovelace", model.EmergencyPatientManual)

			convey.Convey("Then the text names the patient action", func() {
				convey.So(msg, convey.ShouldContainSubstring, "Ada Lovelace")
				convey.So(msg, convey.ShouldContainSubstring, "emergency button")
			})
		})

		convey.Convey("When the emergency was AI detected", func() {
			msg := notifier.Message("Ada Lovelace", model.EmergencyAITriggered)

			convey.Convey("Then the text names the detection", func() {
				convey.So(msg, convey.ShouldContainSubstring, "Ada Lovelace")
				convey.So(msg, convey.ShouldContainSubstring, "AI-DETECTED")
			})
		})
	})
}
