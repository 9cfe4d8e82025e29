package inventory

import (
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/bom"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GET /api/bom
func ListBomHandler(svc *bom.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(rows)
	}
}

// GET /api/bom/guides
func ListBomGuideNamesHandler(svc *bom.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names, err := svc.GuideNames(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(names)
	}
}

// GET /api/bom/:guideName returns the summed requirement per part.
func GetBomHandler(svc *bom.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqs, err := svc.Requirements(c.UserContext(), c.Params("guideName"))
		if err != nil {
			return err
		}
		return c.JSON(reqs)
	}
}

// GET /api/bom/:guideName/check
func CheckBomHandler(svc *bom.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := svc.Check(c.UserContext(), c.Params("guideName"))
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}

// POST /api/bom (admin)
func CreateBomHandler(svc *bom.Service, store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body bom.CreateRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		row, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(c.UserContext(), store, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityBomGuide,
			EntityID:    row.ID,
			Action:      models.AuditActionCreate,
			Description: "BOM row created: " + row.GuideName,
			After:       row,
		})
		return c.Status(fiber.StatusCreated).JSON(row)
	}
}

// DELETE /api/bom/:guideName (admin)
func DeleteBomHandler(svc *bom.Service, store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		guide := c.Params("guideName")
		if err := svc.DeleteGuide(c.UserContext(), guide); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		_ = audit.WriteLog(c.UserContext(), store, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityBomGuide,
			Action:      models.AuditActionDelete,
			Description: "BOM guide deleted: " + guide,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
