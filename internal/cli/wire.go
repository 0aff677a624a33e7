package cli

import (
	"fmt"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/compose"
	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/soyeahso/frontdesk/internal/dialog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/engine"
	"github.com/soyeahso/frontdesk/internal/hooks"
	"github.com/soyeahso/frontdesk/internal/intent"
	"github.com/soyeahso/frontdesk/internal/llm"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/soyeahso/frontdesk/internal/metrics"
	"github.com/soyeahso/frontdesk/internal/session"
	"github.com/soyeahso/frontdesk/internal/store"
	"github.com/soyeahso/frontdesk/internal/throttle"
)

// app is a fully wired receptionist: everything serve and chat share.
type app struct {
	cfg      config.Config
	catalog  *catalog.Catalog
	db       *store.DB
	bookings *store.BookingStore
	calls    *store.CallLog
	sessions *session.Store
	queue    *throttle.Queue // nil when no provider is configured
	hooks    *hooks.Manager
	metrics  *metrics.Metrics
	engine   *engine.Engine
	sweeper  *session.Sweeper
	provider string
}

// loadConfig reads and validates the config file. A missing file yields the
// defaults.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// buildApp wires every component from cfg. dbPath ":memory:" gives a
// throwaway booking store.
func buildApp(cfg config.Config, dbPath string, log *logging.Logger) (*app, error) {
	cat, err := catalog.Load(cfg.Business.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if cfg.Business.Name != "" {
		cat.Business = cfg.Business.Name
	}

	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		catalog:  cat,
		db:       db,
		bookings: store.NewBookingStore(db),
		calls:    store.NewCallLog(db),
		sessions: session.NewStore(),
		hooks:    hooks.NewManager(log),
	}
	if !cfg.Metrics.Disabled {
		a.metrics = metrics.New()
	}
	if n := a.hooks.RegisterCommands(cfg.Hooks); n > 0 {
		log.Info().Int("hooks", n).Msg("command hooks registered")
	}

	lang := domain.Language(cfg.Business.DefaultLanguage)

	var model *intent.LLM
	registry := llm.NewRegistryFromConfig(cfg.Provider, log)
	if client := registry.Default(); client != nil {
		a.provider = client.Name()
		a.queue = throttle.New(throttle.Options{
			MinInterval: cfg.Throttle.MinInterval(),
			JobTimeout:  cfg.Throttle.JobTimeout(),
			QueueSize:   cfg.Throttle.QueueSize,
			Observe: func(r throttle.Result) {
				a.metrics.ProviderResult(string(r.Status), r.EnqueuedAt, r.DispatchedAt)
			},
		}, log)
		model = &intent.LLM{
			Client:       client,
			Queue:        a.queue,
			Catalog:      cat,
			Model:        cfg.Provider.Model,
			MaxTokens:    cfg.Provider.MaxTokens,
			HistoryTurns: cfg.Dialog.HistoryTurns,
			Log:          log.Sub("llm"),
		}
		log.Info().Str("provider", a.provider).Msg("language model enabled")
	} else {
		log.Info().Msg("no language model configured, using rules only")
	}

	a.engine = engine.New(engine.Options{
		Store:    a.sessions,
		Resolver: intent.NewResolver(cat, log, intent.DefaultCascade(cat, model)...),
		Machine: dialog.NewMachine(dialog.Options{
			Catalog:         cat,
			Tracker:         a.bookings,
			UnclearCap:      cfg.Dialog.UnclearCap,
			DefaultLanguage: lang,
		}, log),
		Composer:        compose.New(cat, nil),
		Hooks:           a.hooks,
		Metrics:         a.metrics,
		Bookings:        a.bookings,
		Calls:           a.calls,
		DefaultLanguage: lang,
		HistoryTurns:    cfg.Dialog.HistoryTurns,
		Strict:          cfg.Dialog.Strict,
	}, log)

	a.sweeper, err = session.NewSweeper(a.sessions, cfg.Session.MaxAge(), cfg.Session.SweepInterval, a.engine.Expired, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("session sweeper: %w", err)
	}
	return a, nil
}

// Close stops background workers, waits for in-flight hooks and closes the
// database.
func (a *app) Close() error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.queue != nil {
		a.queue.Close()
	}
	a.hooks.Wait()
	a.sessions.Close()
	return a.db.Close()
}
