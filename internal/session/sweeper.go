package session

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soyeahso/frontdesk/internal/logging"
)

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	store    *Store
	maxAge   time.Duration
	interval string
	onExpire func(ids []string)
	log      *logging.Logger
	cron     *cron.Cron
}

// NewSweeper schedules Sweep(maxAge) every interval (a Go duration such as "5m").
// onExpire, if non-nil, receives the IDs removed by each run.
func NewSweeper(store *Store, maxAge time.Duration, interval string, onExpire func([]string), log *logging.Logger) (*Sweeper, error) {
	if _, err := time.ParseDuration(interval); err != nil {
		return nil, fmt.Errorf("session: sweep interval: %w", err)
	}
	sw := &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		onExpire: onExpire,
		log:      log.Sub("sweeper"),
		cron:     cron.New(),
	}
	if _, err := sw.cron.AddFunc("@every "+interval, sw.RunOnce); err != nil {
		return nil, fmt.Errorf("session: scheduling sweep: %w", err)
	}
	return sw, nil
}

// Start begins the schedule in its own goroutine.
func (sw *Sweeper) Start() {
	sw.log.Debug().Str("interval", sw.interval).Dur("maxAge", sw.maxAge).Msg("session sweeper started")
	sw.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (sw *Sweeper) Stop() {
	<-sw.cron.Stop().Done()
}

// RunOnce performs one sweep immediately.
func (sw *Sweeper) RunOnce() {
	removed := sw.store.Sweep(sw.maxAge)
	if len(removed) == 0 {
		return
	}
	sw.log.Info().Int("count", len(removed)).Strs("sessions", removed).Msg("expired idle sessions")
	if sw.onExpire != nil {
		sw.onExpire(removed)
	}
}
