package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lastro-bank/lastro/internal/ledger"
)

// RegisterLedgerRoutes wires the two ledger endpoints.
func RegisterLedgerRoutes(app *fiber.App, h *ledger.Handler) {
	accounts := app.Group("/accounts")
	accounts.Post("/:id/transactions", h.CreateTransaction)
	accounts.Get("/:id/statement", h.GetStatement)
}
