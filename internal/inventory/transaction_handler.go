package inventory

import (
	"strings"

	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GET /api/transactions?itemCode=
func ListTransactionsHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.TrimSpace(c.Query("itemCode"))
		if code != "" {
			txs, err := store.Transactions().ListByItemCode(c.UserContext(), code)
			if err != nil {
				return err
			}
			return c.JSON(txs)
		}

		txs, err := store.Transactions().List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(txs)
	}
}

// POST /api/transactions (admin)
func CreateTransactionHandler(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ledger.Request
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
		}
		// the acting user always wins over a client supplied id
		req.UserID, _ = auth.Actor(c)

		rec, err := engine.Apply(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}
