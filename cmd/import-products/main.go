package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jms-erp/jms/internal/app"
	"github.com/jms-erp/jms/internal/inventory"
	"github.com/jms-erp/jms/internal/platform/cache"
	"github.com/jms-erp/jms/internal/platform/db"
	"github.com/jms-erp/jms/internal/shared"
)

func main() {
	file := flag.String("file", "", "path to the .xlsx product sheet")
	sheet := flag.String("sheet", "", "worksheet name (defaults to the first sheet)")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import-products -file products.xlsx [-sheet Stock]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("open workbook", slog.Any("error", err))
		os.Exit(1)
	}
	defer f.Close()

	rows, err := inventory.ParseProductSheet(f, *sheet)
	if err != nil {
		logger.Error("parse workbook", slog.String("file", *file), slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Catalogue reads served by the API must see the new stock.
	catalogue := cache.NewVersioned(nil, "jms:catalogue", cfg.CatalogueCacheTTL)
	if client, err := cache.New(ctx, cfg.Redis()); err != nil {
		logger.Warn("redis unavailable, catalogue cache not invalidated", slog.Any("error", err))
	} else {
		defer client.Close()
		catalogue = cache.NewVersioned(client, "jms:catalogue", cfg.CatalogueCacheTTL)
	}

	service := inventory.NewService(inventory.NewRepository(pool), shared.NewAuditLogger(pool), catalogue, logger)
	summary, err := service.Import(ctx, rows)
	if err != nil {
		logger.Error("import products", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("import finished",
		slog.Int("rows", len(rows)),
		slog.Int("created", summary.Created),
		slog.Int("restocked", summary.Restocked),
		slog.Int("failed", len(summary.Failed)),
	)
	for _, failure := range summary.Failed {
		fmt.Printf("row %d (%s): %s\n", failure.Row, failure.Name, failure.Message)
	}
	if len(summary.Failed) > 0 {
		os.Exit(3)
	}
}
