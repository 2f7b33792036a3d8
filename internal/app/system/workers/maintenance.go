// internal/app/system/workers/maintenance.go
package workers

import (
	"sync"
	"time"

	"github.com/chorushub/chorushub/internal/app/store/userdb"
	"github.com/chorushub/chorushub/internal/app/system/verify"
	"go.uber.org/zap"
)

// Maintenance is a background worker that periodically persists the user
// database and sweeps stale pending verifications. Verification handlers
// never save to disk themselves, so this loop bounds how much verified state
// a crash can lose.
type Maintenance struct {
	users     *userdb.DB
	engine    *verify.Engine
	statePath string
	log       *zap.Logger
	interval  time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewMaintenance creates a new maintenance worker writing the user database
// to statePath every interval.
func NewMaintenance(users *userdb.DB, engine *verify.Engine, statePath string, logger *zap.Logger, interval time.Duration) *Maintenance {
	return &Maintenance{
		users:     users,
		engine:    engine,
		statePath: statePath,
		log:       logger,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Maintenance) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("maintenance worker started",
		zap.Duration("interval", w.interval),
		zap.String("state_path", w.statePath))
}

// Stop signals the worker to stop, performs a final save, and waits.
func (w *Maintenance) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	if err := w.users.Save(w.statePath); err != nil {
		w.log.Error("final user database save failed", zap.Error(err))
	}
	w.log.Info("maintenance worker stopped")
}

func (w *Maintenance) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.users.Save(w.statePath); err != nil {
				w.log.Error("periodic user database save failed", zap.Error(err))
			}
			w.engine.SweepPending()
		}
	}
}
