// Package server wires configuration, storage, the auth core and the
// transports into a runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/idkeeper/internal/logging"
	"github.com/dmitrijs2005/idkeeper/internal/server/auth"
	"github.com/dmitrijs2005/idkeeper/internal/server/config"
	"github.com/dmitrijs2005/idkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/idkeeper/internal/server/services"
	"github.com/gin-gonic/gin"

	gs "github.com/dmitrijs2005/idkeeper/internal/server/grpc"
	hs "github.com/dmitrijs2005/idkeeper/internal/server/http"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *hs.HTTPServer
	grpcServer *gs.GRPCServer
}

// NewApp validates c, opens and migrates the store and builds both servers.
// The signing key is read from c once here and handed to the issuer and the
// verifier; nothing else keeps it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	key, err := auth.NewSigningKey(c.SecretKey)
	if err != nil {
		return nil, err
	}
	issuer, err := auth.NewIssuer(key)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewVerifier(key)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewHasher(c.HashCost, c.HashWorkers)
	if err != nil {
		return nil, err
	}

	db, rm, err := repomanager.Open(ctx, c.StorageDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUserService(db, rm, hasher, issuer, c, logger)
	gate := auth.NewGate(verifier)

	gin.SetMode(gin.ReleaseMode)
	router := hs.NewRouter(us, gate, db, logger)

	app := &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: hs.NewHTTPServer(c.EndpointAddrHTTP, logger, router),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gate)
	}
	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run starts the servers and blocks until ctx is cancelled, a signal
// arrives or a server fails. The store is closed on the way out.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.grpcServer.Run(ctx); err != nil {
				app.logger.Error(ctx, err.Error())
				cancelFunc()
			}
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
