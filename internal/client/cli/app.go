package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/versemark/versemark/internal/client/config"
	"github.com/versemark/versemark/internal/client/events"
	"github.com/versemark/versemark/internal/client/netcheck"
	"github.com/versemark/versemark/internal/client/remote"
	"github.com/versemark/versemark/internal/client/services"
	"github.com/versemark/versemark/internal/client/store"
	"github.com/versemark/versemark/internal/client/syncer"
	"github.com/versemark/versemark/internal/logging"
)

// cmdContext holds common resources for CLI commands.
type cmdContext struct {
	Config   *config.Config
	Store    *store.Store
	Adapter  *remote.HTTPAdapter
	Service  *services.AnnotationService
	Engine   *syncer.Engine
	Bus      *events.Bus
	Detector *netcheck.Detector
	Log      logging.Logger
}

// Close releases resources held by cmdContext.
func (c *cmdContext) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// initContext loads config and opens the local store; migrations run as part
// of opening. Commands that never touch the network still get an adapter, so
// they can fall back to the offline path uniformly.
func initContext(ctx context.Context) *cmdContext {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	log := logging.NewSlogLogger(slog.New(handler))

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		exitError("failed to open local store: %v", err)
	}

	adapter := remote.NewHTTPAdapter(cfg.ServerURL, cfg.Token, log.Slog())

	return &cmdContext{
		Config:  cfg,
		Store:   st,
		Adapter: adapter,
		Service: services.NewAnnotationService(st, adapter, log),
		Log:     log,
	}
}

// initSyncContext additionally wires the sync engine, the completion bus and
// the connectivity detector, for commands that drain or watch the outbox.
func initSyncContext(ctx context.Context) *cmdContext {
	c := initContext(ctx)
	c.Bus = events.NewBus()
	c.Engine = syncer.NewEngine(c.Store, c.Adapter, c.Bus, c.Log)
	c.Detector = netcheck.NewDetector(c.Config.ProbeURL, c.Config.ProbeTimeout)
	return c
}

func (c *cmdContext) newWatcher() *syncer.Watcher {
	return syncer.NewWatcher(c.Engine, c.Detector, c.Config.OnlineCheckInterval, c.Log)
}
