package notifier

import (
	"context"

	"github.com/medreach/vitalguard/pkg/logger"
)

// LogNotifier writes alerts to the structured log. It is the default
// transport when no webhook is configured.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Get().Named("notifier")
	}
	return &LogNotifier{logger: l}
}

// Send logs the alert with its full recipient list.
func (n *LogNotifier) Send(ctx context.Context, a Alert) error {
	n.logger.Info(ctx, "emergency notification",
		logger.String("eventID", a.Event.EventID),
		logger.String("patientID", a.Event.PatientID),
		logger.String("emergencyType", string(a.Event.Type)),
		logger.String("message", a.Message),
		logger.String("location", a.Event.Location),
		logger.Int("caregivers", len(a.Caregivers)),
		logger.Int("doctors", len(a.Doctors)),
	)
	return nil
}
