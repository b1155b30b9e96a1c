package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/filters"
	"github.com/angelmondragon/storefront/internal/wishlist"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/persist"
	"github.com/angelmondragon/storefront/pkg/redis"
	"github.com/angelmondragon/storefront/pkg/storefrontapi"
)

const shutdownTimeout = 15 * time.Second

// storage is the snapshot gateway chosen by STOREFRONT_STORAGE_DRIVER plus
// whatever must be closed after the last write.
type storage struct {
	gateway persist.Gateway
	redis   *redis.Client
	closer  func() error
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.App.Port = port
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "storage_driver": cfg.Storage.Driver})

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	store, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if store.closer != nil {
			err = multierr.Append(err, store.closer())
		}
	}()

	persistenceMetrics := metrics.NewPersistenceMetrics(prometheus.DefaultRegisterer)
	syncerParams := func(key string) persist.SyncerParams {
		return persist.SyncerParams{
			Gateway:       store.gateway,
			Key:           key,
			Logger:        logg,
			Metrics:       persistenceMetrics,
			WriteTimeout:  cfg.Storage.WriteTimeout,
			CoalesceDelay: cfg.Storage.CoalesceDelay,
		}
	}

	cartSyncer, err := persist.NewSyncer[cart.Item](syncerParams(persist.KeyCart))
	if err != nil {
		return fmt.Errorf("cart syncer: %w", err)
	}
	wishlistSyncer, err := persist.NewSyncer[wishlist.Item](syncerParams(persist.KeyWishlist))
	if err != nil {
		return multierr.Append(fmt.Errorf("wishlist syncer: %w", err), cartSyncer.Close(context.Background()))
	}

	cartStore := cart.NewStore(cart.StoreParams{Persister: cartSyncer, Logger: logg})
	wishlistStore := wishlist.NewStore(wishlist.StoreParams{Persister: wishlistSyncer, Logger: logg})

	api := storefrontapi.NewClient(cfg.API,
		storefrontapi.WithCredentials(storefrontapi.NewCredentialStore(store.gateway)),
		storefrontapi.WithLogger(logg),
	)

	params := routes.Params{
		Config:   cfg,
		Logger:   logg,
		Cart:     cartStore,
		Wishlist: wishlistStore,
		Filters:  filters.NewStore(),
		API:      api,
	}
	if store.redis != nil {
		params.Counters = store.redis
		params.Replays = store.redis
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	hydrate, hctx := errgroup.WithContext(ctx)
	hydrate.Go(func() error {
		hydrateCtx := logg.WithStore(hctx, "cart")
		logg.Info(logg.WithField(hydrateCtx, "items", cartStore.Hydrate(hydrateCtx)), "store.hydrated")
		return nil
	})
	hydrate.Go(func() error {
		hydrateCtx := logg.WithStore(hctx, "wishlist")
		logg.Info(logg.WithField(hydrateCtx, "items", wishlistStore.Hydrate(hydrateCtx)), "store.hydrated")
		return nil
	})
	_ = hydrate.Wait()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	drainErr := multierr.Combine(
		drain(drainCtx, cartSyncer),
		drain(drainCtx, wishlistSyncer),
	)
	if drainErr != nil {
		logg.Error(ctx, "snapshot flush incomplete", drainErr)
	} else {
		logg.Info(ctx, "snapshots flushed")
	}
	return multierr.Append(err, drainErr)
}

type snapshotSyncer interface {
	Key() string
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

func drain(ctx context.Context, s snapshotSyncer) error {
	if err := s.Flush(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", s.Key(), err)
	}
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("close %s: %w", s.Key(), err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logg.Warn(ctx, "memory storage selected, cart and wishlist will not survive restarts")
		return storage{gateway: persist.NewMemory()}, nil

	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return storage{}, fmt.Errorf("bootstrap redis: %w", err)
		}
		return storage{gateway: client, redis: client, closer: client.Close}, nil

	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		var (
			client *db.Client
			err    error
		)
		if cfg.Storage.Driver == config.StorageDriverSQLite {
			client, err = db.NewSQLite(ctx, cfg.Storage.SQLitePath, logg)
		} else {
			client, err = db.New(ctx, cfg.DB, logg)
		}
		if err != nil {
			return storage{}, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg, logg, client); err != nil {
			return storage{}, multierr.Append(fmt.Errorf("run migrations: %w", err), client.Close())
		}
		return storage{gateway: db.NewSnapshotRepository(client.DB()), closer: client.Close}, nil
	}
	return storage{}, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

// compile-time checks that the redis client serves the optional guards.
var (
	_ middleware.CounterStore = (*redis.Client)(nil)
	_ middleware.ReplayStore  = (*redis.Client)(nil)
)
