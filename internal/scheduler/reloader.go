// Package scheduler reloads stores on operator request.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/MrSnakeDoc/urlinfo/internal/databases"
	"github.com/MrSnakeDoc/urlinfo/internal/logger"
	"github.com/MrSnakeDoc/urlinfo/internal/reputation"
)

// ReloadResult lists which stores reloaded, which are pinned and which failed.
type ReloadResult struct {
	Reloaded []string
	Pinned   []string
	Errors   map[string]error
}

// Failed reports whether any store failed to reload.
func (r ReloadResult) Failed() bool { return len(r.Errors) > 0 }

// ReloadAll reloads, in order, every store implementing reputation.Reloader.
// A failing store keeps serving its previous data and does not stop the others.
func ReloadAll(ctx context.Context, stores []databases.Built, log logger.Logger) ReloadResult {
	res := ReloadResult{Reloaded: []string{}}
	for _, b := range stores {
		rl, ok := b.Store.(reputation.Reloader)
		if !ok {
			continue
		}
		err := rl.Reload(ctx)
		if errors.Is(err, reputation.ErrPinned) {
			res.Pinned = append(res.Pinned, b.Name)
			continue
		}
		if err != nil {
			if res.Errors == nil {
				res.Errors = make(map[string]error)
			}
			res.Errors[b.Name] = err
			log.Warn("store reload failed",
				logger.String("store", b.Name),
				logger.Error(err))
			continue
		}
		res.Reloaded = append(res.Reloaded, b.Name)
	}
	return res
}

// StoreReloader reloads every reloadable store each time its trigger fires,
// typically on SIGHUP. It never reloads on its own.
type StoreReloader struct {
	stores   []databases.Built
	logger   logger.Logger
	trigger  <-chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewStoreReloader creates a reloader listening on trigger.
func NewStoreReloader(stores []databases.Built, log logger.Logger, trigger <-chan struct{}) *StoreReloader {
	return &StoreReloader{
		stores:  stores,
		logger:  log,
		trigger: trigger,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start begins listening for triggers.
func (sr *StoreReloader) Start(ctx context.Context) {
	go func() {
		defer close(sr.done)
		for {
			select {
			case <-sr.trigger:
				sr.logger.Info("manual reload triggered")
				res := ReloadAll(ctx, sr.stores, sr.logger)
				sr.logger.Info("manual reload done",
					logger.Strings("reloaded", res.Reloaded),
					logger.Strings("pinned", res.Pinned),
					logger.Int("failed", len(res.Errors)))
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the reloader and waits for an in-flight reload to finish.
// It must only be called after Start.
func (sr *StoreReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
	<-sr.done
}
