// Package notify implements the emergency notification control
// policy: bounded retries with a minimum backoff, terminated by
// acknowledgement. The policy is a pure decision function over
// persisted event state; backoff is evaluated lazily against the
// wall clock, never via timers or background jobs.
package notify

import (
	"time"

	"github.com/medreach/vitalguard/internal/domain/model"
)

// Default policy parameters: at most two retries after the first
// send, spaced at least five minutes apart.
const (
	defaultMaxRetries = 2
	defaultBackoff    = 5 * time.Minute
)

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithClock injects the time source, used by tests to pin "now".
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}

// WithMaxRetries caps repeat notification attempts for an
// unacknowledged event.
func WithMaxRetries(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// WithBackoff sets the minimum spacing between repeated attempts.
func WithBackoff(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.backoff = d
		}
	}
}

// Policy decides whether an alert should (re)fire for an emergency
// event and mutates the event's notification counters on send and
// acknowledgement.
type Policy struct {
	now        func() time.Time
	maxRetries int
	backoff    time.Duration
}

// New creates a policy with the default retry window.
func New(opts ...Option) *Policy {
	p := &Policy{
		now:        time.Now,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldNotify reports whether an alert may be sent for the event:
//
//   - acknowledged events never re-notify, regardless of retries or
//     elapsed time
//   - an event whose alert was never sent notifies immediately
//   - otherwise a retry is allowed only while the retry budget lasts
//     and at least the backoff has elapsed since the last send
func (p *Policy) ShouldNotify(e *model.EmergencyEvent) bool {
	if e.Acknowledged {
		return false
	}
	if !e.AlertSent {
		return true
	}
	if e.NotificationRetries >= p.maxRetries {
		return false
	}
	if e.LastNotificationSent == nil {
		// Sent flag without a timestamp; treat the backoff as elapsed.
		return true
	}
	return p.now().Sub(*e.LastNotificationSent) >= p.backoff
}

// RecordSent marks a successful delivery on the event. The caller is
// responsible for persisting the mutated event. A failed delivery
// must NOT be recorded so the next evaluation retries per the normal
// policy.
func (p *Policy) RecordSent(e *model.EmergencyEvent) {
	now := p.now()
	if e.AlertSent {
		e.NotificationRetries++
	}
	e.AlertSent = true
	e.LastNotificationSent = &now
}

// Acknowledge idempotently marks the event acknowledged by userID.
// Acknowledgement is terminal for notification purposes; the event
// itself may still be resolved or cancelled separately.
func (p *Policy) Acknowledge(e *model.EmergencyEvent, userID string) {
	if e.Acknowledged {
		return
	}
	now := p.now()
	e.Acknowledged = true
	e.AcknowledgedAt = &now
	e.AcknowledgedBy = userID
}
