package inventory

import (
	"fmt"
	"strconv"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/audit"
	"warehouse-backend/internal/auth"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type bulkRequest struct {
	Items []Row `json:"items"`
}

func parseBulk(c *fiber.Ctx) ([]Row, error) {
	var body bulkRequest
	if err := c.BodyParser(&body); err != nil || body.Items == nil {
		return nil, apperror.Validation("Items must be an array")
	}
	return body.Items, nil
}

// POST /api/upload/master (admin) replaces inventory with stock-0 master rows.
func UploadMasterHandler(store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := parseBulk(c)
		if err != nil {
			return err
		}

		items := make([]models.InventoryItem, 0, len(rows))
		for _, r := range rows {
			if item, ok := MasterItem(r); ok {
				items = append(items, item)
			}
		}

		created, err := replaceInventory(c, store, items, "product master uploaded")
		if err != nil {
			return err
		}
		log.Info("product master uploaded", zap.Int("rows", len(created)))
		return c.JSON(fiber.Map{"created": len(created), "items": created})
	}
}

// POST /api/upload/inventory-sync (admin) replaces inventory with a stock snapshot.
func UploadInventorySyncHandler(store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := parseBulk(c)
		if err != nil {
			return err
		}

		items := make([]models.InventoryItem, 0, len(rows))
		for i, r := range rows {
			item, ok := SyncItem(r)
			if !ok {
				continue
			}
			if item.Stock < 0 {
				return apperror.Validation("stock must not be negative").
					WithDetail("row", strconv.Itoa(i)).
					WithDetail("code", item.Code)
			}
			items = append(items, item)
		}

		synced, err := replaceInventory(c, store, items, "inventory synced")
		if err != nil {
			return err
		}
		log.Info("inventory synced", zap.Int("rows", len(synced)))
		return c.JSON(fiber.Map{"synced": len(synced), "items": synced})
	}
}

func replaceInventory(c *fiber.Ctx, store repository.Store, items []models.InventoryItem, what string) ([]models.InventoryItem, error) {
	userID, userName := auth.Actor(c)

	var out []models.InventoryItem
	err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
		before, err := tx.Inventory().List(c.UserContext())
		if err != nil {
			return err
		}
		out, err = tx.Inventory().ReplaceAll(c.UserContext(), items)
		if err != nil {
			return err
		}
		return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityInventoryItem,
			Action:      models.AuditActionReplace,
			Description: fmt.Sprintf("%s: %d rows replaced by %d", what, len(before), len(out)),
			Before:      fiber.Map{"rows": len(before)},
			After:       fiber.Map{"rows": len(out)},
		})
	})
	return out, err
}

// POST /api/upload/bom (admin) replaces every BOM row.
func UploadBomHandler(store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := parseBulk(c)
		if err != nil {
			return err
		}

		guides := make([]models.BomGuide, 0, len(rows))
		for _, r := range rows {
			if g, ok := BomRow(r); ok {
				guides = append(guides, g)
			}
		}

		userID, userName := auth.Actor(c)
		var created []models.BomGuide
		err = store.Atomic(c.UserContext(), func(tx repository.Store) error {
			before, err := tx.Bom().List(c.UserContext())
			if err != nil {
				return err
			}
			created, err = tx.Bom().ReplaceAll(c.UserContext(), guides)
			if err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityBomGuide,
				Action:      models.AuditActionReplace,
				Description: fmt.Sprintf("BOM uploaded: %d rows replaced by %d", len(before), len(created)),
			})
		})
		if err != nil {
			return err
		}
		log.Info("BOM uploaded", zap.Int("rows", len(created)))
		return c.JSON(fiber.Map{"created": len(created), "items": created})
	}
}

// POST /api/upload/inventory-add (admin) books every row as an inbound through
// the engine, so each one gets a ledger record. One bad row rejects the batch.
func UploadInventoryAddHandler(engine *ledger.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := parseBulk(c)
		if err != nil {
			return err
		}

		userID, _ := auth.Actor(c)
		reqs := make([]ledger.Request, 0, len(rows))
		for _, r := range rows {
			if req, ok := InboundRequest(r, userID); ok {
				reqs = append(reqs, req)
			}
		}

		recs, err := engine.ApplyBatch(c.UserContext(), reqs)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"updated": len(recs), "transactions": recs})
	}
}

type RestoreRequest struct {
	Inventory    []models.InventoryItem `json:"inventory"`
	Transactions []models.Transaction   `json:"transactions"`
	BomGuides    []models.BomGuide      `json:"bomGuides"`
}

// POST /api/restore-backup (admin) replaces inventory and BOM with the backup
// and appends its transactions to the ledger. Everything commits together.
func RestoreBackupHandler(store repository.Store, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RestoreRequest
		if err := c.BodyParser(&body); err != nil {
			return apperror.Validation("invalid backup payload")
		}
		if err := prepareBackup(body); err != nil {
			return err
		}

		userID, userName := auth.Actor(c)
		var inv []models.InventoryItem
		var boms []models.BomGuide
		err := store.Atomic(c.UserContext(), func(tx repository.Store) error {
			var err error
			if inv, err = tx.Inventory().ReplaceAll(c.UserContext(), body.Inventory); err != nil {
				return err
			}
			for i := range body.Transactions {
				if err := tx.Transactions().Append(c.UserContext(), &body.Transactions[i]); err != nil {
					return err
				}
			}
			if boms, err = tx.Bom().ReplaceAll(c.UserContext(), body.BomGuides); err != nil {
				return err
			}
			return audit.WriteLog(c.UserContext(), tx, audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityInventoryItem,
				Action:      models.AuditActionReplace,
				Description: "backup restored",
				After: fiber.Map{
					"inventory":    len(inv),
					"transactions": len(body.Transactions),
					"bomGuides":    len(boms),
				},
			})
		})
		if err != nil {
			log.Error("backup restore failed", zap.Error(err))
			return err
		}

		log.Info("backup restored",
			zap.Int("inventory", len(inv)),
			zap.Int("transactions", len(body.Transactions)),
			zap.Int("bomGuides", len(boms)),
		)
		return c.JSON(fiber.Map{
			"inventoryCount":   len(inv),
			"transactionCount": len(body.Transactions),
			"bomCount":         len(boms),
			"message":          "backup restored",
		})
	}
}

// prepareBackup rejects malformed rows and fills row defaults in place.
func prepareBackup(b RestoreRequest) error {
	for i, item := range b.Inventory {
		if item.Code == "" || item.Name == "" {
			return apperror.Validation("inventory row needs code and name").WithDetail("inventory", strconv.Itoa(i))
		}
		if item.Stock < 0 {
			return apperror.Validation("stock must not be negative").WithDetail("inventory", strconv.Itoa(i))
		}
	}
	for i := range b.Inventory {
		if b.Inventory[i].Category == "" {
			b.Inventory[i].Category = defaultCategory
		}
		if b.Inventory[i].Unit == "" {
			b.Inventory[i].Unit = defaultUnit
		}
	}
	for i, tx := range b.Transactions {
		switch tx.Type {
		case models.TransactionInbound, models.TransactionOutbound, models.TransactionMove, models.TransactionAdjustment:
		default:
			return apperror.Validation("unknown transaction type").WithDetail("transactions", strconv.Itoa(i))
		}
		if tx.ItemCode == "" {
			return apperror.Validation("transaction needs itemCode").WithDetail("transactions", strconv.Itoa(i))
		}
	}
	for i, g := range b.BomGuides {
		if g.GuideName == "" || g.ItemCode == "" || g.RequiredQuantity <= 0 {
			return apperror.Validation("invalid BOM row").WithDetail("bomGuides", strconv.Itoa(i))
		}
	}
	return nil
}
