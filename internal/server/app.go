// Package server wires the gophsecrets components together and runs them
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/assets"
	"github.com/dmitrijs2005/gophsecrets/internal/server/auth"
	"github.com/dmitrijs2005/gophsecrets/internal/server/config"
	"github.com/dmitrijs2005/gophsecrets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsecrets/internal/server/services"
	"github.com/dmitrijs2005/gophsecrets/internal/server/sessions"
	"github.com/dmitrijs2005/gophsecrets/internal/server/web"

	gs "github.com/dmitrijs2005/gophsecrets/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	rm       repomanager.RepositoryManager
	sessions *sessions.MemoryStore
	http     *web.HTTPServer
	grpc     *gs.GRPCServer
}

// NewApp opens the database, applies migrations and builds every component.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, rm, err := repomanager.Open(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repomanager.SetLogger(logger)
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	src, err := newAssetSource(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("assets init error: %w", err)
	}

	warnSecureCookies(ctx, c, logger)

	store := sessions.NewMemoryStore()
	sm := sessions.NewManager(store, c.SecretKey, c.SessionValidityDuration, !c.Development, logger)
	svc := services.NewAuthService(db, rm, auth.NewPBKDF2Hasher(c.PBKDF2Iterations), logger)

	h, err := web.NewHandler(svc, sm, src, c.DownloadFile, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	router := web.NewRouter(web.RouterConfig{
		Handler:     h,
		Sessions:    sm,
		DB:          db,
		Log:         logger,
		Metrics:     c.MetricsEnabled,
		Development: c.Development,
	})

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		rm:       rm,
		sessions: store,
		http:     web.NewHTTPServer(c.EndpointAddrHTTP, router, logger),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db, c.HealthCheckInterval)
	}

	return app, nil
}

// warnSecureCookies flags the production cookie setting, which browsers
// drop over the plain-HTTP listener unless a TLS proxy fronts it.
func warnSecureCookies(ctx context.Context, c *config.Config, logger logging.Logger) bool {
	if c.Development {
		return false
	}
	logger.Warn(ctx, "session cookies are Secure but the listener is plain HTTP; serve behind TLS or run with -dev",
		"address", c.EndpointAddrHTTP)
	return true
}

func newAssetSource(ctx context.Context, c *config.Config) (assets.Source, error) {
	if c.UseS3() {
		return assets.NewS3Source(ctx, c)
	}
	return assets.NewLocalSource(c.AssetsDir), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the HTTP server, the optional gRPC health server and the
// session sweeper. It returns once all of them have stopped, which happens
// on SIGINT/SIGTERM, when ctx is cancelled, or when a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.grpc.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				cancelFunc()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunSweeper(ctx, app.config.SessionSweepInterval, func(removed int) {
			if removed > 0 {
				app.logger.Debug(ctx, "expired sessions swept", "count", removed)
			}
		})
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
