package queue

import (
	"errors"
	"sync"
	"time"

	"dealscreener/server/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// EvaluationQueue buffers evaluation records in memory and hands them to subscribers
// in batches, either when a batch fills up or when it has waited long enough.
type EvaluationQueue struct {
	items    chan *models.EvaluationRecord
	done     chan struct{}
	maxSize  int
	maxBatch int
	maxWait  time.Duration
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]*models.EvaluationRecord) error
}

// NewEvaluationQueue creates a queue holding up to bufferSize pending records
func NewEvaluationQueue(bufferSize, maxBatch int, maxWait time.Duration, logger *logrus.Logger) *EvaluationQueue {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	if maxWait <= 0 {
		maxWait = time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &EvaluationQueue{
		items:    make(chan *models.EvaluationRecord, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		maxBatch: maxBatch,
		maxWait:  maxWait,
		logger:   logger,
		handlers: make([]func([]*models.EvaluationRecord) error, 0),
	}
}

// Push adds a record without blocking. The read lock is held through the send so
// Close cannot close the channel underneath it.
func (q *EvaluationQueue) Push(rec *models.EvaluationRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- rec:
		q.logger.WithField("evaluation_id", rec.ID).Debug("Queued evaluation")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *EvaluationQueue) Subscribe(handler func([]*models.EvaluationRecord) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins batching records
func (q *EvaluationQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

// process accumulates records and flushes them until the channel is closed
func (q *EvaluationQueue) process() {
	defer close(q.done)

	batch := make([]*models.EvaluationRecord, 0, q.maxBatch)
	timer := time.NewTimer(q.maxWait)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		q.processBatch(batch)
		batch = make([]*models.EvaluationRecord, 0, q.maxBatch)
	}

	for {
		select {
		case rec, ok := <-q.items:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= q.maxBatch {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(q.maxWait)
		}
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *EvaluationQueue) processBatch(batch []*models.EvaluationRecord) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	q.logger.WithField("batch_size", len(batch)).Debug("Flushing evaluation batch")
	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting records and waits until everything pushed so far has been
// handed to the subscribers
func (q *EvaluationQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.items)
	q.mu.Unlock()

	if started {
		<-q.done
	}
	return nil
}

// Len returns the current number of pending records
func (q *EvaluationQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *EvaluationQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
