package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"
)

const (
	EntityInventoryItem = "inventory_item"
	EntityBomGuide      = "bom_guide"
	EntityWarehouseZone = "warehouse_zone"
	EntityExchangeQueue = "exchange_queue"
	EntityUser          = "user"
)

type LogOptions struct {
	UserID      *uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores a before/after snapshot. Pass the transactional store when the
// change itself runs inside Atomic so both commit together.
func WriteLog(ctx context.Context, store repository.Store, opts LogOptions) error {
	// jsonb columns need the literal "null", not an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := store.Audit().Create(ctx, &log); err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}
