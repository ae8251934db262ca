package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/config"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/database"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/handler"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/queue"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/repository/memory"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/router"
	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/service"
)

// store is satisfied by both repository.Store and memory.Store.
type store interface {
	service.CatalogStore
	service.BookingStore
	service.LedgerStore
	service.InvoiceStore
	service.ScheduleStore
	service.UserStore
}

type redisPinger struct{ *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.Ping(ctx).Err() }

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	log := config.NewLogger(cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ready := map[string]handler.Pinger{}
	var st store
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		st = memory.New()
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) { _ = db.Close() }(db)
		if cfg.DBAutoMigrate {
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			log.Info("schema migrated")
		}
		ready["mysql"] = db
		st = repository.NewStore(db)
	}

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		return err
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		return err
	}
	redisCfg, err := config.LoadRedisConfig()
	if err != nil {
		return err
	}
	rdb := config.NewRedisClient(redisCfg)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and catalog cache disabled", slog.String("addr", redisCfg.Addr))
	} else {
		defer func() { _ = rdb.Close() }()
		ready["redis"] = redisPinger{rdb}
	}

	qCfg, err := config.LoadQueueConfig()
	if err != nil {
		return err
	}
	pub := queue.NewPublisher(qCfg.URL, qCfg.Queue, log)

	catalog := service.NewCatalogService(st, log)
	schedule := service.NewScheduleService(st, st, st, log)
	bookings := service.NewBookingService(st, st, st, schedule, pub, log)
	invoices := service.NewInvoiceService(st, st, st, pub, log, service.InvoiceOptions{Locale: cfg.InvoiceLocale, Currency: cfg.Currency})
	ledger := service.NewLedgerService(st, st, pub, log)

	e := router.New(router.Handlers{
		Bookings: handler.NewBookingHandler(bookings, ledger, invoices, log),
		Payments: handler.NewPaymentHandler(ledger, log),
		Invoices: handler.NewInvoiceHandler(invoices, log),
		Schedule: handler.NewScheduleHandler(schedule, log),
		Catalog:  handler.NewCatalogHandler(catalog, log),
	}, router.Options{
		JWTSecret:  cfg.JWTSecret,
		Production: cfg.IsProduction(),
		Log:        log,
		Redis:      rdb,
		RateLimit:  rlCfg,
		Cache:      cacheCfg,
		Ready:      ready,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", slog.String("addr", srv.Addr), slog.String("env", cfg.Env), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if pub.Enabled() {
		consumer := &queue.Consumer{URL: qCfg.URL, Queue: qCfg.Queue, LogDir: qCfg.LogDir, Log: log}
		g.Go(func() error { return consumer.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
