package main

import (
	"log/slog"
	"os"

	"github.com/marcus-alicia/blesta-sub002/infra"
	infrarepo "github.com/marcus-alicia/blesta-sub002/infra/repository"
	"github.com/marcus-alicia/blesta-sub002/pkg/config"
	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/eventbus"
	transactionsvc "github.com/marcus-alicia/blesta-sub002/pkg/service/transaction"
	"github.com/marcus-alicia/blesta-sub002/webapi"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := infrarepo.Migrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	resolver := currency.NewResolver(infrarepo.NewCurrencyRepository(db), logger)
	svc := transactionsvc.NewService(transactionsvc.Deps{
		Uow:       infrarepo.NewUow(db),
		Invoices:  infrarepo.NewInvoiceRepository(db),
		Clients:   infrarepo.NewClientRepository(db),
		Refs:      infrarepo.NewReferenceChecker(db),
		Audit:     infrarepo.NewAuditLogger(db),
		Precision: resolver,
		Bus:       eventbus.NewMemoryBus(logger),
		Logger:    logger,
	})

	app := webapi.New(svc)
	logger.Info("starting server", "addr", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
