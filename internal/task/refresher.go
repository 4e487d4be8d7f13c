package task

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultRefreshInterval = 5 * time.Minute

// CatalogRefresher is the part of store.Catalog reloaded in the background.
type CatalogRefresher interface {
	RefreshAll(ctx context.Context) error
}

// Refresher reloads the catalog on a fixed interval and on demand.
type Refresher struct {
	interval     time.Duration
	catalog      CatalogRefresher
	logger       *zap.Logger
	trigger      chan struct{}
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewRefresher builds a refresher. A non-positive interval uses five minutes.
func NewRefresher(interval time.Duration, catalog CatalogRefresher, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		interval: interval,
		catalog:  catalog,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the refresh loop. Calling it twice has no effect.
func (refresher *Refresher) Start(ctx context.Context) {
	if refresher == nil || refresher.catalog == nil {
		return
	}
	refresher.controlMutex.Lock()
	defer refresher.controlMutex.Unlock()
	if refresher.cancel != nil {
		return
	}
	loopContext, cancel := context.WithCancel(ctx)
	refresher.cancel = cancel
	refresher.done = make(chan struct{})
	go refresher.loop(loopContext, refresher.done)
}

// Trigger requests an immediate refresh without blocking.
func (refresher *Refresher) Trigger() {
	if refresher == nil {
		return
	}
	select {
	case refresher.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for an in-flight refresh to return.
func (refresher *Refresher) Stop() {
	if refresher == nil {
		return
	}
	refresher.controlMutex.Lock()
	cancel := refresher.cancel
	done := refresher.done
	refresher.cancel = nil
	refresher.done = nil
	refresher.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (refresher *Refresher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(refresher.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-refresher.trigger:
			refresher.refresh(ctx)
		case <-ticker.C:
			refresher.refresh(ctx)
		}
	}
}

func (refresher *Refresher) refresh(ctx context.Context) {
	started := time.Now()
	if refreshErr := refresher.catalog.RefreshAll(ctx); refreshErr != nil {
		if ctx.Err() != nil {
			return
		}
		refresher.logger.Warn("refresh_catalog_failed", zap.Error(refreshErr))
		return
	}
	refresher.logger.Debug("refresh_catalog", zap.Duration("dur", time.Since(started)))
}
