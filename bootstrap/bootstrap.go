// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/themebake/adapters/broadcast"
	"github.com/artpar/themebake/adapters/compiler"
	apihttp "github.com/artpar/themebake/adapters/http"
	"github.com/artpar/themebake/adapters/idgen"
	"github.com/artpar/themebake/adapters/memory"
	"github.com/artpar/themebake/adapters/metrics"
	"github.com/artpar/themebake/adapters/random"
	"github.com/artpar/themebake/adapters/sqlite"
	"github.com/artpar/themebake/app"
	"github.com/artpar/themebake/config"
	"github.com/artpar/themebake/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB // nil with the memory driver
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Registry   *prometheus.Registry
	Themes     *app.ThemeService
	Bus        *broadcast.Bus
	Hub        *broadcast.Hub

	followers []*broadcast.Follower
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	once      sync.Once
}

// New creates and initializes the application from cfg.
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)
	return NewWithLogger(cfg, logger)
}

// NewWithLogger is New with a caller supplied logger.
func NewWithLogger(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	nodeID := cfg.Broadcast.NodeID
	if nodeID == "" {
		nodeID = idgen.UUID{}.New()
	}
	logger = logger.With().Str("node", nodeID).Logger()
	logger.Info().Msg("initializing themebake")

	a := &App{Logger: logger, Config: cfg}

	if cfg.Metrics.Enabled {
		a.Registry = prometheus.NewRegistry()
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.Registry)
		logger.Info().Msg("prometheus metrics enabled")
	}

	stores, err := a.initStores(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	comp, err := compiler.New(cfg.Compiler.Mode, cfg.Compiler.Version)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("init compiler: %w", err)
	}

	a.Bus = broadcast.NewBus(nodeID, logger)
	a.Hub = broadcast.NewHub(logger)
	a.Bus.Subscribe(broadcast.ChannelFileChange, a.Hub.Broadcast)

	a.Themes = app.NewThemeService(app.Deps{
		Themes:    stores.themes,
		Fields:    stores.fields,
		Relations: stores.relations,
		Compiler:  comp,
		Cache:     memory.NewBakeCache(),
		Publisher: a.Bus,
		Keys:      idgen.UUID{},
		Tokens:    random.Hex{},
		Metrics:   a.Metrics,
		Logger:    logger,
	})

	for _, peer := range cfg.Broadcast.Peers {
		f := broadcast.NewFollower(peer, nodeID, cfg.Broadcast.ReconnectDelay, a.onPeerMessage, logger)
		f.OnConnect(a.onPeerConnect)
		a.followers = append(a.followers, f)
	}

	a.initHTTPServer(cfg)
	return a, nil
}

type stores struct {
	themes    ports.ThemeStore
	fields    ports.FieldStore
	relations ports.RelationStore
}

func (a *App) initStores(cfg config.DatabaseConfig) (stores, error) {
	if cfg.Driver == "memory" {
		s := memory.NewStore()
		a.Logger.Warn().Msg("using in-memory store, themes are lost on restart")
		return stores{themes: s.Themes, fields: s.Fields, relations: s.Relations}, nil
	}

	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return stores{}, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("dsn", cfg.DSN).Msg("database initialized")

	return stores{
		themes:    sqlite.NewThemeStore(db),
		fields:    sqlite.NewFieldStore(db),
		relations: sqlite.NewRelationStore(db),
	}, nil
}

func (a *App) initHTTPServer(cfg *config.Config) {
	var health *apihttp.HealthHandler
	if a.DB != nil {
		health = apihttp.NewHealthHandler(a.DB)
	} else {
		health = apihttp.NewHealthHandler(nil)
	}

	routerCfg := apihttp.RouterConfig{
		Version:        Version,
		Metrics:        a.Metrics,
		MetricsPath:    cfg.Metrics.Path,
		EnableOpenAPI:  cfg.OpenAPI.Enabled,
		MessageBus:     a.Hub,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.Registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
	}

	router := apihttp.NewRouter(apihttp.NewThemeHandler(a.Themes, a.Logger), health, a.Logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// onPeerConnect drops local bakes whenever a peer link comes up, since
// anything the peer published while disconnected was missed.
func (a *App) onPeerConnect() {
	a.Themes.Invalidator().ClearLocal()
	a.Logger.Debug().Msg("peer connected, local bake cache cleared")
}

// onPeerMessage drops local bakes when a peer announces a change. The
// message is not re-broadcast, so peers must be configured as a full mesh.
func (a *App) onPeerMessage(ctx context.Context, msg broadcast.Message) error {
	a.Metrics.PeerMessage()
	a.Themes.Invalidator().ClearLocal()
	a.Logger.Debug().
		Str("origin", msg.Origin).
		Int("changes", len(msg.Changes)).
		Msg("peer invalidation received")
	return nil
}

// WatchConfig applies reloadable settings from h as they change.
func (a *App) WatchConfig(h *config.Holder) {
	h.OnChange(func(cfg *config.Config) {
		if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(level)
		}
		a.Metrics.ConfigReloaded(nil)
	})
	h.OnReloadError(func(err error) {
		a.Metrics.ConfigReloaded(err)
	})
}

// Start launches background peer followers. It does not block.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	for _, f := range a.followers {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			f.Run(ctx)
		}()
	}
	if len(a.followers) > 0 {
		a.Logger.Info().Int("peers", len(a.followers)).Msg("following peers")
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	a.Start(context.Background())

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application. It is safe to call twice.
func (a *App) Shutdown() error {
	var err error
	a.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()

		// Hub connections are hijacked, so the server does not wait for them.
		a.Hub.Close()

		if a.HTTPServer != nil {
			if shutdownErr := a.HTTPServer.Shutdown(ctx); shutdownErr != nil {
				a.Logger.Error().Err(shutdownErr).Msg("http server shutdown error")
				err = shutdownErr
			}
		}

		if closeErr := a.closeDB(); closeErr != nil {
			a.Logger.Error().Err(closeErr).Msg("database close error")
			err = errors.Join(err, closeErr)
		}

		a.Logger.Info().Msg("shutdown complete")
	})
	return err
}

func (a *App) closeDB() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
