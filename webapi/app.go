// Package webapi assembles the Fiber application exposing the ledger.
package webapi

import (
	"github.com/gofiber/fiber/v2"

	transactionapi "github.com/marcus-alicia/blesta-sub002/webapi/transaction"
)

// New builds the Fiber app with every route registered.
func New(svc transactionapi.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "billing-ledger",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	transactionapi.Routes(app, svc)
	return app
}
