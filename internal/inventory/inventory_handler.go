package inventory

import (
	"errors"
	"strconv"
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CreateItemRequest struct {
	Code         string  `json:"code" validate:"required,max=64"`
	Name         string  `json:"name" validate:"required,max=255"`
	Category     string  `json:"category" validate:"max=100"`
	Manufacturer *string `json:"manufacturer" validate:"omitempty,max=255"`
	Stock        int     `json:"stock" validate:"gte=0"`
	MinStock     int     `json:"minStock" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"max=20"`
	Location     *string `json:"location" validate:"omitempty,max=100"`
	BoxSize      *int    `json:"boxSize" validate:"omitempty,gt=0"`
}

type UpdateItemRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Category     *string `json:"category" validate:"omitempty,max=100"`
	Manufacturer *string `json:"manufacturer" validate:"omitempty,max=255"`
	Unit         *string `json:"unit" validate:"omitempty,min=1,max=20"`
	Location     *string `json:"location" validate:"omitempty,max=100"`
	Stock        *int    `json:"stock" validate:"omitempty,gte=0"`
	MinStock     *int    `json:"minStock" validate:"omitempty,gte=0"`
	BoxSize      *int    `json:"boxSize" validate:"omitempty,gt=0"`
}

func (r UpdateItemRequest) patch() repository.InventoryPatch {
	return repository.InventoryPatch{
		Name:         r.Name,
		Category:     r.Category,
		Manufacturer: r.Manufacturer,
		Unit:         r.Unit,
		Location:     r.Location,
		Stock:        r.Stock,
		MinStock:     r.MinStock,
		BoxSize:      r.BoxSize,
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid id")
	}
	return uint(id), nil
}

// GET /api/inventory
func ListInventoryHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := store.Inventory().List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// GET /api/inventory/:code returns the first row with the code.
func GetInventoryHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item, err := store.Inventory().GetByCode(c.UserContext(), c.Params("code"))
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Item")
		}
		if err != nil {
			return err
		}
		return c.JSON(item)
	}
}

// GET /api/inventory/stats
func StatsHandler(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := engine.Stats(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

// POST /api/inventory (admin)
func CreateInventoryHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		item := models.InventoryItem{
			Code:         strings.TrimSpace(body.Code),
			Name:         strings.TrimSpace(body.Name),
			Category:     body.Category,
			Manufacturer: body.Manufacturer,
			Stock:        body.Stock,
			MinStock:     body.MinStock,
			Unit:         body.Unit,
			Location:     body.Location,
			BoxSize:      body.BoxSize,
		}
		if item.Category == "" {
			item.Category = defaultCategory
		}
		if item.Unit == "" {
			item.Unit = defaultUnit
		}
		if item.BoxSize == nil {
			item.BoxSize = intPtr(1)
		}

		userID, userName := auth.Actor(c)
		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			if err := tx.Inventory().Create(c.UserContext(), &item); err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				EntityID:    item.ID,
				Action:      models.AuditActionCreate,
				Description: "inventory row created: " + item.Code,
				After:       item,
			})
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// PATCH /api/inventory/items/:id (admin)
func UpdateInventoryItemHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body UpdateItemRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		var updated *models.InventoryItem
		err = store.Atomic(c.UserContext(), func(tx repository.Store) error {
			before, err := tx.Inventory().GetByID(c.UserContext(), id)
			if err != nil {
				return err
			}
			updated, err = tx.Inventory().UpdateByID(c.UserContext(), id, body.patch())
			if err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				EntityID:    id,
				Action:      models.AuditActionUpdate,
				Description: "inventory row updated: " + before.Code,
				Before:      before,
				After:       updated,
			})
		})
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Item")
		}
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}

// PATCH /api/inventory/:code (admin). Legacy route: updates only the first row
// with the code. Clients that know the row id use /items/:id.
func UpdateInventoryByCodeHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		var body UpdateItemRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		var updated *models.InventoryItem
		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			before, err := tx.Inventory().GetByCode(c.UserContext(), code)
			if err != nil {
				return err
			}
			updated, err = tx.Inventory().UpdateByCode(c.UserContext(), code, body.patch())
			if err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				EntityID:    before.ID,
				Action:      models.AuditActionUpdate,
				Description: "inventory row updated by code: " + code,
				Before:      before,
				After:       updated,
			})
		})
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Item")
		}
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}

// DELETE /api/inventory/:code (admin) removes the first row with the code.
func DeleteInventoryHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		userID, userName := auth.Actor(c)

		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			before, err := tx.Inventory().GetByCode(c.UserContext(), code)
			if err != nil {
				return err
			}
			if _, err := tx.Inventory().DeleteByCode(c.UserContext(), code); err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				EntityID:    before.ID,
				Action:      models.AuditActionDelete,
				Description: "inventory row deleted: " + code,
				Before:      before,
			})
		})
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Item")
		}
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DELETE /api/inventory (admin) wipes every inventory row. The ledger is kept.
func ResetInventoryHandler(store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName := auth.Actor(c)

		var removed int
		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			items, err := tx.Inventory().List(c.UserContext())
			if err != nil {
				return err
			}
			removed = len(items)
			if err := tx.Inventory().ResetAll(c.UserContext()); err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				Action:      models.AuditActionDelete,
				Description: "inventory reset: " + strconv.Itoa(removed) + " rows removed",
			})
		})
		if err != nil {
			return err
		}

		log.Warn("inventory reset", zap.Int("rows", removed), zap.String("by", userName))
		return c.SendStatus(fiber.StatusNoContent)
	}
}
