package inventory

import (
	"errors"
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/layout"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
	"warehouse-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CreateZoneRequest struct {
	ZoneName    string   `json:"zoneName" validate:"required,max=50"`
	SubZoneName string   `json:"subZoneName" validate:"required,max=50"`
	Floors      []string `json:"floors" validate:"required,min=1,dive,required,max=20"`
}

// GET /api/warehouse/layout
func ListLayoutHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := store.Layout().List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(zones)
	}
}

// GET /api/warehouse/locations
func ListLocationsHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := store.Layout().List(c.UserContext())
		if err != nil {
			return err
		}
		locations := layout.Locations(zones)
		if locations == nil {
			locations = []string{}
		}
		return c.JSON(fiber.Map{"locations": locations})
	}
}

// POST /api/warehouse/layout (admin)
func CreateZoneHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateZoneRequest
		if err := validation.BindAndValidate(c, &body); err != nil {
			return err
		}

		zone := models.WarehouseZone{
			ZoneName:    strings.TrimSpace(body.ZoneName),
			SubZoneName: strings.TrimSpace(body.SubZoneName),
			Floors:      body.Floors,
		}

		userID, userName := auth.Actor(c)
		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			existing, err := tx.Layout().List(c.UserContext())
			if err != nil {
				return err
			}
			if err := layout.ValidateZone(zone, existing); err != nil {
				return err
			}
			if err := tx.Layout().Create(c.UserContext(), &zone); err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityWarehouseZone,
				EntityID:    zone.ID,
				Action:      models.AuditActionCreate,
				Description: "zone added: " + zone.ZoneName + " " + zone.SubZoneName,
				After:       zone,
			})
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(zone)
	}
}

// DELETE /api/warehouse/layout/:id (admin)
func DeleteZoneHandler(store repository.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		err = store.Atomic(c.UserContext(), func(tx repository.Store) error {
			ok, err := tx.Layout().Delete(c.UserContext(), id)
			if err != nil {
				return err
			}
			if !ok {
				return repository.ErrNotFound
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityWarehouseZone,
				EntityID:    id,
				Action:      models.AuditActionDelete,
				Description: "zone deleted",
			})
		})
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("Warehouse zone")
		}
		if err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
