package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"medminder-go/internal/config"
	"medminder-go/internal/db"
	"medminder-go/internal/demo"
	"medminder-go/internal/metrics"
	"medminder-go/internal/remote"
	"medminder-go/internal/remote/postgres"
	"medminder-go/internal/remote/supabase"
	"medminder-go/internal/snapshot"
	"medminder-go/internal/state"
	"medminder-go/internal/transport/httpserver"
	"medminder-go/internal/transport/httpserver/handler"
	"medminder-go/internal/transport/httpserver/middleware"
	"medminder-go/internal/transport/httpserver/ws"
	"medminder-go/pkg/logger"
)

const (
	initialLoadTimeout   = 20 * time.Second
	limiterCleanupPeriod = 10 * time.Minute
)

type App struct {
	cfg         config.Config
	httpServer  *http.Server
	db          *gorm.DB
	snapshots   *snapshot.Store
	store       *state.Store
	unsubscribe func()
	cancel      context.CancelFunc
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: opening snapshot store", "path", cfg.SnapshotPath)
	snapshots, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	log.Info("app: initializing remote backend", "provider", cfg.RemoteProvider)
	api, dbConn, err := newRemote(cfg, snapshots, log)
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}

	m := metrics.New()
	store := state.New(api, demo.New(), snapshots, log.With("component", "state"), state.WithMetrics(m))

	a := &App{
		cfg:       cfg,
		db:        dbConn,
		snapshots: snapshots,
		store:     store,
	}

	log.Info("app: restoring state")
	if err := store.Restore(context.Background()); err != nil {
		log.Warn("app: snapshot restore failed, starting from demo data", "err", err)
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), initialLoadTimeout)
	if err := store.LoadInitialData(loadCtx); err != nil {
		log.Warn("app: initial data load failed, keeping restored state", "err", err)
	}
	cancelLoad()
	log.Info("app: state ready", "mode", store.Mode())

	hub := ws.NewHub(log.With("component", "ws"), m)
	a.unsubscribe = store.Subscribe(hub.Publish)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	limiter := middleware.NewRateLimiter(cfg.LoginRate.PerMinute, cfg.LoginRate.Burst, log)
	limiter.StartCleanup(ctx, limiterCleanupPeriod)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handler.New(store, log), hub, limiter, m)

	log.Info("app: initializing http server")
	a.httpServer = httpserver.New(cfg, router)

	return a, nil
}

func newRemote(cfg config.Config, snapshots *snapshot.Store, log logger.Logger) (*remote.Client, *gorm.DB, error) {
	switch cfg.RemoteProvider {
	case config.ProviderPostgres:
		dbConn, err := db.NewPostgres(cfg.DB, log)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(dbConn, log); err != nil {
			closeDB(dbConn)
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(dbConn, snapshots, log).Remote(), dbConn, nil
	default:
		if !remote.Configured(cfg.Supabase.URL, cfg.Supabase.AnonKey) {
			log.Warn("app: supabase not configured, running demo only")
			return remote.NewMock(), nil, nil
		}
		client := supabase.New(supabase.Config{
			URL:     cfg.Supabase.URL,
			APIKey:  cfg.Supabase.AnonKey,
			Timeout: cfg.Supabase.Timeout,
		}, snapshots, log)
		return client.Remote(), nil, nil
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Store() *state.Store {
	return a.store
}

func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	var errs []error
	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			errs = append(errs, err)
		} else if err := sqlDB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeDB(dbConn *gorm.DB) {
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
