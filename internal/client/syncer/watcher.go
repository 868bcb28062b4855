package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/versemark/versemark/internal/client/netcheck"
	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/logging"
)

// Watcher polls the connectivity detector and, on an offline-to-online
// transition, immediately kicks off a sync pass so queued edits reach the
// server without waiting for user action.
type Watcher struct {
	engine   *Engine
	detector *netcheck.Detector
	interval time.Duration
	log      logging.Logger

	online bool
}

func NewWatcher(engine *Engine, detector *netcheck.Detector, interval time.Duration, log logging.Logger) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		engine:   engine,
		detector: detector,
		interval: interval,
		log:      log.With("component", "watcher"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.online = w.detector.Check(ctx)
	w.log.Info(ctx, "connectivity watcher started", "online", w.online, "interval", w.interval)
	if w.online {
		w.drain(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	online := w.detector.Check(ctx)
	if online == w.online {
		if online {
			// Still online: opportunistically drain anything that queued up
			// because of a transient request failure.
			w.drain(ctx)
		}
		return
	}

	w.online = online
	if online {
		w.log.Info(ctx, "connectivity restored")
		w.drain(ctx)
	} else {
		w.log.Warn(ctx, "connectivity lost, edits will queue locally")
	}
}

func (w *Watcher) drain(ctx context.Context) {
	res, err := w.engine.ProcessQueue(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrSyncInProgress) {
			w.log.Error(ctx, "sync pass failed", "err", err)
		}
		return
	}
	if res.Processed > 0 {
		w.log.Info(ctx, "sync pass finished",
			"processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed)
	}
}
