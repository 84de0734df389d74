package store

import (
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper walks the keyspace.
const DefaultSweepInterval = time.Minute

// Sweeper periodically evicts expired entries so that keys which are
// never read again do not retain memory until process exit.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(evicted int)

	stopCh chan struct{}
	doneCh chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepInterval sets the sweep interval.
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(sw *Sweeper) {
		if d > 0 {
			sw.interval = d
		}
	}
}

// WithSweepLogger sets the logger.
func WithSweepLogger(logger *slog.Logger) SweeperOption {
	return func(sw *Sweeper) {
		sw.logger = logger
	}
}

// WithOnSweep registers a callback invoked after each pass with the
// number of entries evicted. Used to feed metrics.
func WithOnSweep(fn func(evicted int)) SweeperOption {
	return func(sw *Sweeper) {
		sw.onSweep = fn
	}
}

// NewSweeper creates a sweeper for the given store. Call Start to
// begin sweeping and Stop to halt it.
func NewSweeper(s *Store, opts ...SweeperOption) *Sweeper {
	sw := &Sweeper{
		store:    s,
		interval: DefaultSweepInterval,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(sw)
	}

	return sw
}

// Start launches the background sweep loop.
func (sw *Sweeper) Start() {
	go sw.loop()
}

// Stop halts the sweep loop and waits for it to finish.
func (sw *Sweeper) Stop() {
	close(sw.stopCh)
	<-sw.doneCh
}

func (sw *Sweeper) loop() {
	defer close(sw.doneCh)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			evicted := sw.store.SweepExpired()
			if evicted > 0 {
				sw.logger.Debug("swept expired keys", "evicted", evicted)
			}
			if sw.onSweep != nil {
				sw.onSweep(evicted)
			}
		case <-sw.stopCh:
			return
		}
	}
}
