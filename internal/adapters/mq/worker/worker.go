// Package worker defines worker contracts for asynchronous
// classification and storage of vitals readings.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/medreach/vitalguard/internal/domain/model"
	"github.com/medreach/vitalguard/internal/domain/vitals"
	"github.com/medreach/vitalguard/pkg/logger"
	"github.com/medreach/vitalguard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Reading abstracts what workers read off the queue.
type Reading = model.VitalsReading

// Classifier grades a reading's vitals into a severity tier.
type Classifier interface {
	Classify(in vitals.Input) (vitals.Result, error)
}

// Appender stores a classified reading.
type Appender interface {
	AppendReading(ctx context.Context, r model.VitalsReading) error
}

// Escalator reacts to a critical classification, typically by
// ensuring an active AI-triggered emergency and consulting the
// notification gate.
type Escalator interface {
	EscalateCritical(ctx context.Context, r model.VitalsReading)
}

// Queue defines how workers receive readings.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Reading
}

// Worker processes readings: classify, persist, escalate.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing readings.
type InMemoryWorker struct {
	queue      Queue
	classifier Classifier
	appender   Appender
	escalator  Escalator
	name       string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, classifier Classifier, appender Appender, escalator Escalator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      queue,
		classifier: classifier,
		appender:   appender,
		escalator:  escalator,
		name:       "worker", // default name
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	readingChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-readingChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processReading(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing reading", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processReading classifies one reading, stores it and escalates a
// critical result. Store failures after a successful classification
// are reported without retrying; the submitter can resubmit under the
// same reading id.
func (w *InMemoryWorker) processReading(ctx context.Context, r Reading) error { //nolint:gocritic // hugeParam: Reading must be passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	classifyStart := time.Now()
	result, err := w.classifier.Classify(vitals.InputFromReading(&r))
	metrics.RecordClassificationLatency(float64(time.Since(classifyStart).Milliseconds()))

	if err != nil {
		metrics.RecordClassificationError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "classification_error")
		w.logger.Error(ctx, "classification failed for reading",
			logger.String("readingID", r.ReadingID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to classify reading %s: %w", r.ReadingID, err)
	}

	r.Status = result.Status
	metrics.RecordClassification(string(result.Status))

	if err := w.appender.AppendReading(ctx, r); err != nil {
		metrics.RecordStoreError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		w.logger.Error(ctx, "store append failed for reading",
			logger.String("readingID", r.ReadingID),
			logger.Error(err),
		)
		return fmt.Errorf("store append failed: %w", err)
	}
	metrics.RecordReadingProcessed()

	if result.Status == model.StatusCritical && w.escalator != nil {
		w.escalator.EscalateCritical(ctx, r)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers    []*InMemoryWorker
	queue      Queue
	classifier Classifier
	appender   Appender
	escalator  Escalator

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Metrics tracking
	processedCount    int64
	lastProcessedTime time.Time

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, classifier Classifier, appender Appender, escalator Escalator) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             queue,
		classifier:        classifier,
		appender:          appender,
		escalator:         escalator,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			classifier,
			appender,
			escalator,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerIdleCount(0)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	// Start metrics updater
	go p.startMetricsUpdater(ctx)
}

// startMetricsUpdater starts a background goroutine that updates worker metrics.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

// updateMetrics updates worker-related metrics.
func (p *Pool) updateMetrics() {
	now := time.Now()
	timeDiff := now.Sub(p.lastProcessedTime).Seconds()
	if timeDiff > 0 {
		messagesPerSecond := float64(p.processedCount) / timeDiff
		metrics.UpdateWorkerMessagesPerSecond(messagesPerSecond)
	}

	// Reset counters
	p.processedCount = 0
	p.lastProcessedTime = now
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish
	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new readings
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Signal shutdown to all workers
	close(p.shutdown)

	// Wait for all workers to finish or context to timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
