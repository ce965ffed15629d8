package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"chessfam/cache"
	"chessfam/config"
	"chessfam/handlers"
	"chessfam/logger"
	"chessfam/media"
	"chessfam/metrics"
	"chessfam/notify"
	"chessfam/repository"
	"chessfam/services"
	"chessfam/workers"
)

const uploadDir = "./uploads"

func main() {
	app := &cli.App{
		Name:  "chessfam",
		Usage: "tournament pricing and registration service",
		Commands: []*cli.Command{
			commandServe(),
			commandMigrate(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "chessfam",
	})
	return cfg, log, nil
}

func commandMigrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update the database schema",
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if cfg.Database.DSN == "" {
				return fmt.Errorf("DATABASE_URL environment variable not set")
			}
			db, err := repository.Open(cfg.Database.DSN)
			if err != nil {
				return err
			}
			if err := repository.Migrate(db); err != nil {
				return err
			}
			log.Info("database migrated")
			return nil
		},
	}
}

func commandServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the HTTP server and background workers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address, defaults to :$PORT",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			if err := cfg.Validate(); err != nil {
				return err
			}
			addr := c.String("addr")
			if addr == "" {
				addr = fmt.Sprintf(":%d", cfg.Server.Port)
			}
			return serve(cfg, log, addr)
		},
	}
}

func serve(cfg *config.Config, log *logger.Logger, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}
	store := repository.NewGormStore(db)
	m := metrics.New()

	seriesCache := cache.NewRedisCache(nil, true)
	if cfg.Redis.Address != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Address, cfg.Redis.Password)
		if err != nil {
			return err
		}
		defer client.Close()
		seriesCache = cache.NewRedisCache(client, true)
		log.Info("series cache backed by redis", "addr", cfg.Redis.Address)
	}

	var notifier services.Notifier = notify.NewLogNotifier(log)
	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL, log)
		if err != nil {
			return err
		}
		defer nc.Drain() //nolint:errcheck
		notifier = notify.NewNATSNotifier(nc, cfg.NATS.SubjectPrefix)
		log.Info("notifications published to NATS", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	var storage media.Storage
	if cfg.R2.Bucket != "" {
		storage, err = media.NewR2Storage(ctx, media.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
	} else {
		storage, err = media.NewLocalStorage(uploadDir, "/uploads")
	}
	if err != nil {
		return err
	}

	sideEffects := services.NewSideEffects(log, m, cfg.Notify.Timeout)
	deps := services.Dependencies{
		Store:         store,
		Users:         store,
		Subscriptions: store,
		Refunds:       store,
		Notifier:      notifier,
		SideEffects:   sideEffects,
		Logger:        log,
		Metrics:       m,
		Tracer:        otel.Tracer("chessfam/services"),
		SeriesCache:   seriesCache,
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	if cfg.R2.Bucket == "" {
		app.Static("/uploads", uploadDir)
	}
	handlers.SetupRoutes(app, &handlers.Handlers{
		Tournaments:   services.NewTournamentService(store, storage, log),
		Registrations: services.NewRegistrationCoordinator(deps),
		Withdrawals:   services.NewWithdrawalCoordinator(deps),
		Series:        services.NewSeriesAggregator(store, seriesCache, cfg.Redis.SeriesCacheTTL, log),
		Players:       services.NewPlayerSearch(store),
		Metrics:       m,
		Log:           log,
	}, cfg.Server.GatewayToken)

	sched, err := services.StartLifecycleScheduler(ctx, services.NewLifecycleJob(store, log, m), time.Minute)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", addr, "origins", cfg.Server.AllowedOrigins)
		return app.Listen(addr)
	})

	if cfg.Sync.ServiceURL != "" {
		client := workers.NewSyncClient(cfg.Sync.ServiceURL, cfg.Sync.ServiceToken)
		players := workers.NewPlayerSyncWorker(client, store, cfg.Sync.Interval, log, m)
		subs := workers.NewSubscriptionSyncWorker(client, store, cfg.Sync.Interval, log, m)
		g.Go(func() error { return players.Run(gctx) })
		g.Go(func() error { return subs.Run(gctx) })
	} else {
		log.Warn("SYNC_SERVICE_URL not set, player and subscription mirrors will not refresh")
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := app.ShutdownWithContext(shutdownCtx)
		if serr := sched.Shutdown(); serr != nil {
			log.Warn("scheduler shutdown failed", "error", serr)
		}
		sideEffects.Wait()
		return err
	})

	return g.Wait()
}
