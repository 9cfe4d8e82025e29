package audit

import (
	"strconv"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"createdAt"`
	UserID      *uint              `json:"userId"`
	UserName    string             `json:"userName"`
	EntityType  string             `json:"entityType"`
	EntityID    uint               `json:"entityId"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"beforeData"`
	AfterData   string             `json:"afterData"`
}

// GET /api/audit-logs?entityType=inventory_item&entityId=1&userId=1
func ListAuditLogsHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := repository.AuditFilter{EntityType: c.Query("entityType")}

		if v := c.Query("entityId"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return apperror.Validation("invalid entityId")
			}
			filter.EntityID = uint(id)
		}
		if v := c.Query("userId"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return apperror.Validation("invalid userId")
			}
			filter.UserID = uint(id)
		}

		logs, err := store.Audit().List(c.UserContext(), filter)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityID:    log.EntityID,
				Action:      log.Action,
				Description: log.Description,
				BeforeData:  log.BeforeData,
				AfterData:   log.AfterData,
			})
		}
		return c.JSON(resp)
	}
}
