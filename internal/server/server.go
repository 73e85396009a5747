// Package server boots a giftbid process: configuration, backing stores,
// the service graph, the HTTP router, and the auction sweep schedule.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/giftbid/app/notify"
	"github.com/shashiranjanraj/giftbid/app/routes"
	"github.com/shashiranjanraj/giftbid/app/services"
	"github.com/shashiranjanraj/giftbid/app/store"
	"github.com/shashiranjanraj/giftbid/config"
	"github.com/shashiranjanraj/giftbid/pkg/cache"
	"github.com/shashiranjanraj/giftbid/pkg/logger"
	"github.com/shashiranjanraj/giftbid/pkg/metrics"
	"github.com/shashiranjanraj/giftbid/pkg/middleware"
	"github.com/shashiranjanraj/giftbid/pkg/reqid"
	"github.com/shashiranjanraj/giftbid/pkg/router"
	"github.com/shashiranjanraj/giftbid/pkg/schedule"
	"github.com/shashiranjanraj/giftbid/pkg/storage"
	"github.com/shashiranjanraj/giftbid/pkg/workerpool"
)

// sweepWorkers bounds how many expired listings settle concurrently.
const sweepWorkers = 4

// App is a fully wired giftbid process, shared by the server and the CLI.
type App struct {
	Store    *store.Store
	Services routes.Services
	Router   *router.Router

	mongoClient *mongo.Client
	pool        *workerpool.Pool
}

// Wire builds the service graph over st. Split out so the CLI can run
// commands like route:list against an in-memory store.
func Wire(st *store.Store, pool *workerpool.Pool) routes.Services {
	sink := notify.NewSink(st.Users)

	return routes.Services{
		Listings: services.NewListingsService(st, sink),
		Bidding:  services.NewBiddingService(st, sink),
		Orders:   services.NewOrdersService(st, sink),
		Reviews:  services.NewReviewsService(st, sink),
		Users:    services.NewUsersService(st),
		Sweep:    services.NewSweepService(st, sink, pool),
	}
}

// Bootstrap loads configuration, connects Mongo, Redis, and storage, and
// wires the service graph and router. The caller owns Close.
func Bootstrap(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	st, client, err := store.Connect(ctx)
	if err != nil {
		return nil, err
	}

	// Cache is optional; browse just skips it when Redis is down.
	if err := cache.Connect(); err != nil {
		logger.Warn("server: cache unavailable, browse caching disabled", "error", err)
	}

	storage.Connect()

	pool := workerpool.New(sweepWorkers)

	app := &App{
		Store:       st,
		Services:    Wire(st, pool),
		Router:      NewRouter(),
		mongoClient: client,
		pool:        pool,
	}
	routes.RegisterAPI(app.Router, app.Services)
	return app, nil
}

// NewRouter builds the router with the standard middleware chain.
func NewRouter() *router.Router {
	r := router.New()
	r.Use(
		reqid.Middleware(),
		metrics.Middleware(),
		middleware.Recovery,
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
	)
	return r
}

// Close releases the worker pool and the Mongo connection.
func (a *App) Close(ctx context.Context) {
	a.pool.Shutdown()
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			logger.Error("server: mongo disconnect failed", "error", err)
		}
	}
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and shuts down the scheduler and worker pool.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Bootstrap(ctx)
	if err != nil {
		return err
	}

	go notify.Feed.Run()

	schedule.
		EveryInterval(config.SweepInterval()).
		Name("auction-sweep").
		WithoutOverlapping().
		Run(func() {
			if err := app.Services.Sweep.Run(context.Background()); err != nil {
				logger.Error("server: auction sweep failed", "error", err)
			}
		})
	schedule.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           app.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server: listening", "addr", srv.Addr, "env", config.AppEnv())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		app.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server: shutdown error", "error", err)
	}
	app.Close(shutdownCtx)
	return nil
}
