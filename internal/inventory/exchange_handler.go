package inventory

import (
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/exchange-queue?pending=true
func ListExchangeQueueHandler(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := engine.ListExchange(c.UserContext(), c.QueryBool("pending", false))
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// POST /api/exchange-queue/:id/process (admin)
// Unknown and already processed ids both answer 404.
func ProcessExchangeHandler(engine *ledger.Engine, store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		rec, err := engine.ProcessExchange(c.UserContext(), id, userID)
		if err != nil {
			return err
		}

		if err := audit.WriteLog(c.UserContext(), store, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityExchangeQueue,
			EntityID:    id,
			Action:      models.AuditActionProcess,
			Description: "exchange item returned to stock: " + rec.ItemCode,
			After:       rec,
		}); err != nil {
			log.Warn("exchange audit entry not written", zap.Uint("id", id), zap.Error(err))
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
