// internal/app/system/workers/stagingexpiry.go
package workers

import (
	"sync"
	"time"

	"github.com/chorushub/chorushub/internal/app/store/staging"
	"go.uber.org/zap"
)

// StagingExpiry is a background worker that discards staged configuration
// left uncommitted past its time-to-live.
type StagingExpiry struct {
	area     *staging.Area
	log      *zap.Logger
	interval time.Duration
	ttl      time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStagingExpiry creates a new staging expiry worker.
//
// Parameters:
//   - area: the staging area to sweep
//   - logger: zap logger for logging
//   - interval: how often to check (e.g., 30 seconds)
//   - ttl: how long staged content may sit uncommitted (e.g., 2 minutes)
func NewStagingExpiry(area *staging.Area, logger *zap.Logger, interval, ttl time.Duration) *StagingExpiry {
	return &StagingExpiry{
		area:     area,
		log:      logger,
		interval: interval,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *StagingExpiry) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("staging expiry worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("ttl", w.ttl))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *StagingExpiry) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("staging expiry worker stopped")
}

func (w *StagingExpiry) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.area.ClearExpired(w.ttl) {
				w.log.Info("discarded expired staged configuration",
					zap.Duration("ttl", w.ttl))
			}
		}
	}
}
