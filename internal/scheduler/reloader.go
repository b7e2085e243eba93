package scheduler

import (
	"os"
	"sync"
	"time"

	"dealscreener/server/internal/market"

	"github.com/sirupsen/logrus"
)

// Source produces market contexts from a versioned dataset.
type Source interface {
	Fingerprint() (string, error)
	Build() (*market.Context, error)
}

// Reloader periodically checks the dataset fingerprint and swaps in a freshly fitted
// market context when it changes. A failed rebuild keeps the current context.
type Reloader struct {
	source   Source
	holder   *market.Holder
	logger   *logrus.Logger
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures one rebuild at a time
}

// NewReloader creates a reloader that checks source every interval
func NewReloader(source Source, holder *market.Holder, interval time.Duration, logger *logrus.Logger) *Reloader {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Reloader{
		source:   source,
		holder:   holder,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic checks
func (r *Reloader) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Reloader) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.Check()
		}
	}
}

// Check rebuilds the market context if the dataset changed. It reports whether a new
// context was swapped in.
func (r *Reloader) Check() bool {
	r.jobMutex.Lock()
	defer r.jobMutex.Unlock()

	fingerprint, err := r.source.Fingerprint()
	if err != nil {
		r.logger.WithError(err).Warn("Failed to read dataset fingerprint")
		return false
	}

	current := r.holder.Current()
	if current != nil && current.Fingerprint() == fingerprint {
		r.logger.WithField("fingerprint", fingerprint).Debug("Dataset unchanged")
		return false
	}

	r.logger.WithFields(logrus.Fields{
		"fingerprint": fingerprint,
	}).Info("Dataset changed, rebuilding market context")

	next, err := r.source.Build()
	if err != nil {
		r.logger.WithError(err).WithField("fingerprint", fingerprint).Error("Market context rebuild failed, keeping current context")
		return false
	}

	r.holder.Swap(next)
	r.logger.WithFields(logrus.Fields{
		"fingerprint": next.Fingerprint(),
		"listings":    next.Stats().Listings,
	}).Info("Market context reloaded")
	return true
}

// Stop gracefully stops the reloader
func (r *Reloader) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}
