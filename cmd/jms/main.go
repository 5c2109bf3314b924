package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jms-erp/jms/cmd/jms/cli"
	"github.com/jms-erp/jms/internal/app"
	"github.com/jms-erp/jms/internal/debt"
	"github.com/jms-erp/jms/internal/inventory"
	"github.com/jms-erp/jms/internal/observability"
	"github.com/jms-erp/jms/internal/platform/cache"
	"github.com/jms-erp/jms/internal/platform/db"
	"github.com/jms-erp/jms/internal/sales"
	"github.com/jms-erp/jms/internal/sequence"
	"github.com/jms-erp/jms/internal/shared"
	"github.com/jms-erp/jms/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, os.Args[1:]); err != nil {
			logger.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if err := db.RunMigrations(ctx, dbpool); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.Redis()); err != nil {
		logger.Warn("redis unavailable, catalogue cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	catalogue := cache.NewVersioned(redisClient, "jms:catalogue", cfg.CatalogueCacheTTL)

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, catalogue, logger)
	salesService := sales.NewService(sales.NewRepository(dbpool), auditLogger, idempotencyStore, sales.ServiceConfig{
		PhoneRegion: cfg.PhoneRegion,
		TxTimeout:   cfg.TxTimeout,
		Metrics:     metrics,
		Catalogue:   catalogue,
		Logger:      logger,
	})
	debtService := debt.NewService(debt.NewRepository(dbpool), auditLogger, debt.NewSalesAdapter(salesService), debt.ServiceConfig{
		PhoneRegion: cfg.PhoneRegion,
		TxTimeout:   cfg.TxTimeout,
		Metrics:     metrics,
		Logger:      logger,
	})

	inspector := asynq.NewInspector(jobs.RedisOpt(cfg.Redis()))
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inventoryService),
		SalesHandler:     sales.NewHandler(logger, salesService),
		DebtHandler:      debt.NewHandler(logger, debtService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		DB:               dbpool,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

// runCommand handles operator subcommands: "jobs trigger <task>", "jobs stats",
// "jobs scheduled" and "counters [name...]".
func runCommand(ctx context.Context, cfg *app.Config, args []string) error {
	if args[0] == "counters" {
		return runCounters(ctx, cfg, args[1:])
	}
	if args[0] != "jobs" || len(args) < 2 {
		return fmt.Errorf("usage: jms jobs trigger <task> | jms jobs stats | jms counters [name...]")
	}
	jobsCLI, err := cli.NewJobsCLI(jobs.RedisOpt(cfg.Redis()), cfg.IdempotencyRetention)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			slog.Default().Warn("jobs cli close", slog.Any("error", err))
		}
	}()

	switch args[1] {
	case "trigger":
		if len(args) < 3 {
			return fmt.Errorf("usage: jms jobs trigger <task>")
		}
		info, err := jobsCLI.Trigger(ctx, args[2])
		if err != nil {
			return err
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			return err
		}
		fmt.Println(stats)
	case "scheduled":
		tasks, err := jobsCLI.ListScheduled(ctx, 20)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			fmt.Printf("%s %s next=%s\n", t.ID, t.Type, t.NextProcessAt.Format(time.RFC3339))
		}
	default:
		return fmt.Errorf("unknown jobs command %q", args[1])
	}
	return nil
}

func runCounters(ctx context.Context, cfg *app.Config, names []string) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 1})
	if err != nil {
		return err
	}
	defer pool.Close()

	counters, err := cli.ReadCounters(ctx, sequence.NewGenerator(pool), names...)
	if err != nil {
		return err
	}
	for _, c := range counters {
		fmt.Println(c)
	}
	return nil
}
