package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dealscreener/server/config"
	"dealscreener/server/internal/history"
	"dealscreener/server/internal/models"
	"dealscreener/server/internal/queue"
)

var ErrProcessorStopped = errors.New("batch processor is stopped")

// Transactor runs fc inside a database transaction. *gorm.DB satisfies it.
type Transactor interface {
	Transaction(fc func(*gorm.DB) error, opts ...*sql.TxOptions) error
}

// BatchProcessor persists evaluation batches handed out by the queue
type BatchProcessor struct {
	db        Transactor
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.EvaluationQueue
	jobs      chan []*models.EvaluationRecord
	waitGroup sync.WaitGroup
	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, queue *queue.EvaluationQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	workers := config.BatchProcessing.ProcessorCount
	if workers <= 0 {
		workers = 1
	}
	return &BatchProcessor{
		db:     db,
		queue:  queue,
		config: config,
		logger: logger,
		jobs:   make(chan []*models.EvaluationRecord, workers),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the queue and launches the workers
func (p *BatchProcessor) Start() {
	p.startOnce.Do(func() {
		p.queue.Subscribe(p.enqueue)

		for i := 0; i < cap(p.jobs); i++ {
			p.waitGroup.Add(1)
			go p.processLoop()
		}
	})
}

// Stop gracefully shuts down the processor. Batches already handed over are written
// before it returns.
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// enqueue passes a batch from the queue to the workers
func (p *BatchProcessor) enqueue(batch []*models.EvaluationRecord) error {
	select {
	case p.jobs <- batch:
		return nil
	case <-p.ctx.Done():
		return ErrProcessorStopped
	}
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		select {
		case batch := <-p.jobs:
			p.handle(batch)
		case <-p.ctx.Done():
			for {
				select {
				case batch := <-p.jobs:
					p.handle(batch)
				default:
					return
				}
			}
		}
	}
}

func (p *BatchProcessor) handle(batch []*models.EvaluationRecord) {
	if err := p.processBatch(batch); err != nil {
		p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Dropping evaluation batch")
	}
}

// processBatch writes a single batch with transaction and retry logic
func (p *BatchProcessor) processBatch(batch []*models.EvaluationRecord) error {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.db.Transaction(func(tx *gorm.DB) error {
			if err := history.InsertEvaluations(tx, batch); err != nil {
				return fmt.Errorf("failed to insert evaluation batch: %w", err)
			}
			return nil
		})

		if err == nil {
			p.logger.Infof("Successfully processed batch of %d evaluations", len(batch))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries+1, err)
}
