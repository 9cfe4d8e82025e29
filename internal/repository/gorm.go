package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warehouse-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*GormStore)(nil)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Inventory() InventoryRepository     { return gormInventory{s.db} }
func (s *GormStore) Transactions() TransactionRepository { return gormTransactions{s.db} }
func (s *GormStore) Exchange() ExchangeRepository        { return gormExchange{s.db} }
func (s *GormStore) Bom() BomRepository                  { return gormBom{s.db} }
func (s *GormStore) Layout() LayoutRepository            { return gormLayout{s.db} }
func (s *GormStore) Users() UserRepository               { return gormUsers{s.db} }
func (s *GormStore) Audit() AuditRepository              { return gormAudit{s.db} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// inventory

type gormInventory struct{ db *gorm.DB }

func (r gormInventory) List(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

func (r gormInventory) GetByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r gormInventory) GetByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("code = ?", code).Order("id asc").First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r gormInventory) ListByCode(ctx context.Context, code string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Where("code = ?", code).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list inventory by code: %w", err)
	}
	return items, nil
}

func (r gormInventory) LockByCode(ctx context.Context, code string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("lock inventory rows: %w", err)
	}
	return items, nil
}

func (r gormInventory) Create(ctx context.Context, item *models.InventoryItem) error {
	item.ID = 0
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create inventory item: %w", err)
	}
	return nil
}

func (r gormInventory) UpdateByID(ctx context.Context, id uint, patch InventoryPatch) (*models.InventoryItem, error) {
	cols := patch.columns()
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, fmt.Errorf("update inventory item %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r gormInventory) UpdateByCode(ctx context.Context, code string, patch InventoryPatch) (*models.InventoryItem, error) {
	first, err := r.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return r.UpdateByID(ctx, first.ID, patch)
}

func (r gormInventory) DeleteByID(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete inventory item %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r gormInventory) DeleteByCode(ctx context.Context, code string) (bool, error) {
	first, err := r.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.DeleteByID(ctx, first.ID)
}

func (r gormInventory) ResetAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.InventoryItem{}).Error; err != nil {
		return fmt.Errorf("reset inventory: %w", err)
	}
	return nil
}

func (r gormInventory) ReplaceAll(ctx context.Context, items []models.InventoryItem) ([]models.InventoryItem, error) {
	if err := r.ResetAll(ctx); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []models.InventoryItem{}, nil
	}
	for i := range items {
		items[i].ID = 0
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&items, 200).Error; err != nil {
		return nil, fmt.Errorf("replace inventory: %w", err)
	}
	return items, nil
}

// transactions

type gormTransactions struct{ db *gorm.DB }

func (r gormTransactions) Append(ctx context.Context, tx *models.Transaction) error {
	tx.ID = 0
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (r gormTransactions) List(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).Order("id asc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r gormTransactions) ListByItemCode(ctx context.Context, code string) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := r.db.WithContext(ctx).Where("item_code = ?", code).Order("id asc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("list transactions by code: %w", err)
	}
	return txs, nil
}

// exchange queue

type gormExchange struct{ db *gorm.DB }

func (r gormExchange) Create(ctx context.Context, item *models.ExchangeQueueItem) error {
	item.ID = 0
	item.Processed = false
	if item.OutboundDate.IsZero() {
		item.OutboundDate = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create exchange item: %w", err)
	}
	return nil
}

func (r gormExchange) List(ctx context.Context) ([]models.ExchangeQueueItem, error) {
	var items []models.ExchangeQueueItem
	if err := r.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list exchange queue: %w", err)
	}
	return items, nil
}

func (r gormExchange) ListPending(ctx context.Context) ([]models.ExchangeQueueItem, error) {
	var items []models.ExchangeQueueItem
	if err := r.db.WithContext(ctx).Where("processed = ?", false).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list pending exchange items: %w", err)
	}
	return items, nil
}

func (r gormExchange) Get(ctx context.Context, id uint) (*models.ExchangeQueueItem, error) {
	var item models.ExchangeQueueItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r gormExchange) MarkProcessed(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ExchangeQueueItem{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{"processed": true, "processed_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("mark exchange item %d processed: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// bom

type gormBom struct{ db *gorm.DB }

func (r gormBom) List(ctx context.Context) ([]models.BomGuide, error) {
	var rows []models.BomGuide
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bom: %w", err)
	}
	return rows, nil
}

func (r gormBom) ListByGuide(ctx context.Context, guideName string) ([]models.BomGuide, error) {
	var rows []models.BomGuide
	if err := r.db.WithContext(ctx).Where("guide_name = ?", guideName).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bom by guide: %w", err)
	}
	return rows, nil
}

func (r gormBom) GuideNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.BomGuide{}).
		Distinct("guide_name").
		Order("guide_name asc").
		Pluck("guide_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list bom guide names: %w", err)
	}
	return names, nil
}

func (r gormBom) Create(ctx context.Context, row *models.BomGuide) error {
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create bom row: %w", err)
	}
	return nil
}

func (r gormBom) DeleteByGuide(ctx context.Context, guideName string) (int64, error) {
	res := r.db.WithContext(ctx).Where("guide_name = ?", guideName).Delete(&models.BomGuide{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete bom guide: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r gormBom) ReplaceAll(ctx context.Context, rows []models.BomGuide) ([]models.BomGuide, error) {
	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.BomGuide{}).Error; err != nil {
		return nil, fmt.Errorf("clear bom: %w", err)
	}
	if len(rows) == 0 {
		return []models.BomGuide{}, nil
	}
	for i := range rows {
		rows[i].ID = 0
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&rows, 200).Error; err != nil {
		return nil, fmt.Errorf("replace bom: %w", err)
	}
	return rows, nil
}

// layout

type gormLayout struct{ db *gorm.DB }

func (r gormLayout) List(ctx context.Context) ([]models.WarehouseZone, error) {
	var zones []models.WarehouseZone
	if err := r.db.WithContext(ctx).Order("id asc").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("list layout: %w", err)
	}
	return zones, nil
}

func (r gormLayout) Create(ctx context.Context, zone *models.WarehouseZone) error {
	zone.ID = 0
	if err := r.db.WithContext(ctx).Create(zone).Error; err != nil {
		return fmt.Errorf("create zone: %w", err)
	}
	return nil
}

func (r gormLayout) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.WarehouseZone{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete zone %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// users

type gormUsers struct{ db *gorm.DB }

func (r gormUsers) Create(ctx context.Context, user *models.User) error {
	user.ID = 0
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r gormUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r gormUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r gormUsers) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r gormUsers) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r gormUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// audit

type gormAudit struct{ db *gorm.DB }

func (r gormAudit) Create(ctx context.Context, log *models.AuditLog) error {
	log.ID = 0
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

func (r gormAudit) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var logs []models.AuditLog
	if err := q.Order("id desc").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
