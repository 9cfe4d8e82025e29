package repository

import (
	"context"
	"errors"
	"time"

	"warehouse-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store bundles the repositories behind one storage backend.
type Store interface {
	Inventory() InventoryRepository
	Transactions() TransactionRepository
	Exchange() ExchangeRepository
	Bom() BomRepository
	Layout() LayoutRepository
	Users() UserRepository
	Audit() AuditRepository

	// Atomic runs fn against a store whose writes become visible only if fn returns nil.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

// InventoryPatch carries the fields to change; nil fields are left untouched.
type InventoryPatch struct {
	Name         *string
	Category     *string
	Manufacturer *string
	Unit         *string
	Location     *string
	Stock        *int
	MinStock     *int
	BoxSize      *int
}

func (p InventoryPatch) apply(item *models.InventoryItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Manufacturer != nil {
		item.Manufacturer = p.Manufacturer
	}
	if p.Unit != nil {
		item.Unit = *p.Unit
	}
	if p.Location != nil {
		item.Location = p.Location
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	if p.MinStock != nil {
		item.MinStock = *p.MinStock
	}
	if p.BoxSize != nil {
		item.BoxSize = p.BoxSize
	}
}

func (p InventoryPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Manufacturer != nil {
		cols["manufacturer"] = *p.Manufacturer
	}
	if p.Unit != nil {
		cols["unit"] = *p.Unit
	}
	if p.Location != nil {
		cols["location"] = *p.Location
	}
	if p.Stock != nil {
		cols["stock"] = *p.Stock
	}
	if p.MinStock != nil {
		cols["min_stock"] = *p.MinStock
	}
	if p.BoxSize != nil {
		cols["box_size"] = *p.BoxSize
	}
	return cols
}

// InventoryRepository stores inventory rows. It does not enforce stock >= 0.
type InventoryRepository interface {
	// List returns every row ordered by id.
	List(ctx context.Context) ([]models.InventoryItem, error)
	GetByID(ctx context.Context, id uint) (*models.InventoryItem, error)
	// GetByCode returns the first row with the code. Read-only callers only.
	GetByCode(ctx context.Context, code string) (*models.InventoryItem, error)
	ListByCode(ctx context.Context, code string) ([]models.InventoryItem, error)
	// LockByCode is ListByCode that also row-locks the result for the enclosing transaction.
	LockByCode(ctx context.Context, code string) ([]models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	UpdateByID(ctx context.Context, id uint, patch InventoryPatch) (*models.InventoryItem, error)
	// UpdateByCode touches only the first row with the code. The ledger engine never
	// calls it; it backs the legacy PATCH /api/inventory/:code route.
	UpdateByCode(ctx context.Context, code string, patch InventoryPatch) (*models.InventoryItem, error)
	DeleteByID(ctx context.Context, id uint) (bool, error)
	// DeleteByCode removes the first row with the code.
	DeleteByCode(ctx context.Context, code string) (bool, error)
	ResetAll(ctx context.Context) error
	ReplaceAll(ctx context.Context, items []models.InventoryItem) ([]models.InventoryItem, error)
}

// TransactionRepository is the append-only ledger. Lists are in insertion order.
type TransactionRepository interface {
	Append(ctx context.Context, tx *models.Transaction) error
	List(ctx context.Context) ([]models.Transaction, error)
	ListByItemCode(ctx context.Context, code string) ([]models.Transaction, error)
}

type ExchangeRepository interface {
	Create(ctx context.Context, item *models.ExchangeQueueItem) error
	List(ctx context.Context) ([]models.ExchangeQueueItem, error)
	ListPending(ctx context.Context) ([]models.ExchangeQueueItem, error)
	Get(ctx context.Context, id uint) (*models.ExchangeQueueItem, error)
	// MarkProcessed flips processed from false to true. It reports false if the item
	// was missing or already processed.
	MarkProcessed(ctx context.Context, id uint, at time.Time) (bool, error)
}

type BomRepository interface {
	List(ctx context.Context) ([]models.BomGuide, error)
	ListByGuide(ctx context.Context, guideName string) ([]models.BomGuide, error)
	GuideNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, row *models.BomGuide) error
	DeleteByGuide(ctx context.Context, guideName string) (int64, error)
	ReplaceAll(ctx context.Context, rows []models.BomGuide) ([]models.BomGuide, error)
}

type LayoutRepository interface {
	List(ctx context.Context) ([]models.WarehouseZone, error)
	Create(ctx context.Context, zone *models.WarehouseZone) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type AuditFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
}

type AuditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
	// List returns matching entries newest first.
	List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
}
