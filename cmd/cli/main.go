package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcus-alicia/blesta-sub002/infra"
	infrarepo "github.com/marcus-alicia/blesta-sub002/infra/repository"
	"github.com/marcus-alicia/blesta-sub002/pkg/config"
	"github.com/marcus-alicia/blesta-sub002/pkg/currency"
	"github.com/marcus-alicia/blesta-sub002/pkg/domain"
	"github.com/marcus-alicia/blesta-sub002/pkg/dto"
	"github.com/marcus-alicia/blesta-sub002/pkg/eventbus"
	"github.com/marcus-alicia/blesta-sub002/pkg/ledger"
	transactionsvc "github.com/marcus-alicia/blesta-sub002/pkg/service/transaction"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: cli <command> [arguments]")
		fmt.Println("Commands:")
		fmt.Println("  add <company_id> <client_id> <amount> <currency>")
		fmt.Println("  credits <company_id> <client_id> [currency]")
		fmt.Println("  apply-credits <company_id> <client_id> <currency>")
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(logger)
	if err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		fmt.Println("Failed to connect to database:", err)
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

	ctx := context.Background()
	switch os.Args[1] {
	case "add":
		if len(os.Args) < 6 {
			fmt.Println("Usage: add <company_id> <client_id> <amount> <currency>")
			return
		}
		companyID := mustUUID(os.Args[2])
		clientID := mustUUID(os.Args[3])
		amount, err := decimal.NewFromString(os.Args[4])
		if err != nil {
			fmt.Println("Invalid amount:", err)
			os.Exit(1)
		}
		id, err := svc.Add(ctx, dto.TransactionCreate{
			CompanyID: companyID,
			ClientID:  clientID,
			Amount:    amount,
			Currency:  os.Args[5],
			Type:      domain.TypeOther,
		})
		if err != nil {
			fmt.Println("Error adding transaction:", err)
			os.Exit(1)
		}
		fmt.Printf("Transaction added: %s\n", id)
	case "credits":
		if len(os.Args) < 4 {
			fmt.Println("Usage: credits <company_id> <client_id> [currency]")
			return
		}
		currencyCode := ""
		if len(os.Args) > 4 {
			currencyCode = os.Args[4]
		}
		credits, err := svc.Credits(ctx, mustUUID(os.Args[2]), mustUUID(os.Args[3]), currencyCode)
		if err != nil {
			fmt.Println("Error listing credits:", err)
			os.Exit(1)
		}
		for code, sources := range credits {
			fmt.Printf("%s: %s across %d transactions\n", code, credits.Total(code), len(sources))
			for _, src := range sources {
				fmt.Printf("  %s  %s\n", src.TransactionID, src.Credit)
			}
		}
	case "apply-credits":
		if len(os.Args) < 5 {
			fmt.Println("Usage: apply-credits <company_id> <client_id> <currency>")
			return
		}
		plan, err := svc.ApplyFromCredits(ctx,
			mustUUID(os.Args[2]), mustUUID(os.Args[3]), os.Args[4],
			nil, ledger.OrderOldestFirst)
		if err != nil {
			fmt.Println("Error applying credits:", err)
			os.Exit(1)
		}
		fmt.Printf("Applied %s across %d source transactions\n", plan.Total(), len(plan))
		for _, sp := range plan {
			for _, entry := range sp.Entries {
				fmt.Printf("  %s -> invoice %s: %s\n", sp.TransactionID, entry.InvoiceID, entry.Amount)
			}
		}
	default:
		fmt.Println("Unknown command:", os.Args[1])
		os.Exit(1)
	}
}

func mustUUID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		fmt.Println("Invalid id:", raw)
		os.Exit(1)
	}
	return id
}
