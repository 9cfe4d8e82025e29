package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"warehouse-backend/internal/models"
)

type memData struct {
	items    []models.InventoryItem
	txs      []models.Transaction
	exchange []models.ExchangeQueueItem
	bom      []models.BomGuide
	zones    []models.WarehouseZone
	users    []models.User
	audit    []models.AuditLog

	itemSeq, txSeq, exchangeSeq, bomSeq, zoneSeq, userSeq, auditSeq uint
}

func (d *memData) clone() *memData {
	c := *d
	c.items = append([]models.InventoryItem(nil), d.items...)
	c.txs = append([]models.Transaction(nil), d.txs...)
	c.exchange = append([]models.ExchangeQueueItem(nil), d.exchange...)
	c.bom = append([]models.BomGuide(nil), d.bom...)
	c.zones = append([]models.WarehouseZone(nil), d.zones...)
	c.users = append([]models.User(nil), d.users...)
	c.audit = append([]models.AuditLog(nil), d.audit...)
	return &c
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process. Atomic works on a copy of the data and
// swaps it in on success, so a failed unit of work leaves nothing behind.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu:   &sync.Mutex{},
		data: &memData{},
		now:  time.Now,
	}
}

// SetClock overrides the timestamp source. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &MemoryStore{mu: s.mu, data: s.data.clone(), inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Inventory() InventoryRepository     { return memInventory{s} }
func (s *MemoryStore) Transactions() TransactionRepository { return memTransactions{s} }
func (s *MemoryStore) Exchange() ExchangeRepository        { return memExchange{s} }
func (s *MemoryStore) Bom() BomRepository                  { return memBom{s} }
func (s *MemoryStore) Layout() LayoutRepository            { return memLayout{s} }
func (s *MemoryStore) Users() UserRepository               { return memUsers{s} }
func (s *MemoryStore) Audit() AuditRepository              { return memAudit{s} }

// inventory

type memInventory struct{ s *MemoryStore }

func (r memInventory) List(ctx context.Context) ([]models.InventoryItem, error) {
	defer r.s.lock()()
	return append([]models.InventoryItem{}, r.s.data.items...), nil
}

func (r memInventory) GetByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].ID == id {
			item := r.s.data.items[i]
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (r memInventory) GetByCode(ctx context.Context, code string) (*models.InventoryItem, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].Code == code {
			item := r.s.data.items[i]
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (r memInventory) ListByCode(ctx context.Context, code string) ([]models.InventoryItem, error) {
	defer r.s.lock()()
	out := []models.InventoryItem{}
	for _, item := range r.s.data.items {
		if item.Code == code {
			out = append(out, item)
		}
	}
	return out, nil
}

// LockByCode needs no row lock here: Atomic already holds the store mutex.
func (r memInventory) LockByCode(ctx context.Context, code string) ([]models.InventoryItem, error) {
	return r.ListByCode(ctx, code)
}

func (r memInventory) Create(ctx context.Context, item *models.InventoryItem) error {
	defer r.s.lock()()
	r.s.create(item)
	return nil
}

func (s *MemoryStore) create(item *models.InventoryItem) {
	s.data.itemSeq++
	now := s.now()
	item.ID = s.data.itemSeq
	item.CreatedAt = now
	item.UpdatedAt = now
	s.data.items = append(s.data.items, *item)
}

func (r memInventory) UpdateByID(ctx context.Context, id uint, patch InventoryPatch) (*models.InventoryItem, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].ID == id {
			return r.s.update(i, patch), nil
		}
	}
	return nil, ErrNotFound
}

func (r memInventory) UpdateByCode(ctx context.Context, code string, patch InventoryPatch) (*models.InventoryItem, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].Code == code {
			return r.s.update(i, patch), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) update(i int, patch InventoryPatch) *models.InventoryItem {
	item := s.data.items[i]
	patch.apply(&item)
	item.UpdatedAt = s.now()
	s.data.items[i] = item
	return &item
}

func (r memInventory) DeleteByID(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].ID == id {
			r.s.data.items = append(r.s.data.items[:i:i], r.s.data.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memInventory) DeleteByCode(ctx context.Context, code string) (bool, error) {
	defer r.s.lock()()
	for i := range r.s.data.items {
		if r.s.data.items[i].Code == code {
			r.s.data.items = append(r.s.data.items[:i:i], r.s.data.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memInventory) ResetAll(ctx context.Context) error {
	defer r.s.lock()()
	r.s.data.items = nil
	return nil
}

func (r memInventory) ReplaceAll(ctx context.Context, items []models.InventoryItem) ([]models.InventoryItem, error) {
	defer r.s.lock()()
	r.s.data.items = nil
	out := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		r.s.create(&item)
		out = append(out, item)
	}
	return out, nil
}

// transactions

type memTransactions struct{ s *MemoryStore }

func (r memTransactions) Append(ctx context.Context, tx *models.Transaction) error {
	defer r.s.lock()()
	r.s.data.txSeq++
	tx.ID = r.s.data.txSeq
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.s.now()
	}
	r.s.data.txs = append(r.s.data.txs, *tx)
	return nil
}

func (r memTransactions) List(ctx context.Context) ([]models.Transaction, error) {
	defer r.s.lock()()
	return append([]models.Transaction{}, r.s.data.txs...), nil
}

func (r memTransactions) ListByItemCode(ctx context.Context, code string) ([]models.Transaction, error) {
	defer r.s.lock()()
	out := []models.Transaction{}
	for _, tx := range r.s.data.txs {
		if tx.ItemCode == code {
			out = append(out, tx)
		}
	}
	return out, nil
}

// exchange queue

type memExchange struct{ s *MemoryStore }

func (r memExchange) Create(ctx context.Context, item *models.ExchangeQueueItem) error {
	defer r.s.lock()()
	r.s.data.exchangeSeq++
	item.ID = r.s.data.exchangeSeq
	item.Processed = false
	item.CreatedAt = r.s.now()
	if item.OutboundDate.IsZero() {
		item.OutboundDate = item.CreatedAt
	}
	r.s.data.exchange = append(r.s.data.exchange, *item)
	return nil
}

func (r memExchange) List(ctx context.Context) ([]models.ExchangeQueueItem, error) {
	defer r.s.lock()()
	return append([]models.ExchangeQueueItem{}, r.s.data.exchange...), nil
}

func (r memExchange) ListPending(ctx context.Context) ([]models.ExchangeQueueItem, error) {
	defer r.s.lock()()
	out := []models.ExchangeQueueItem{}
	for _, item := range r.s.data.exchange {
		if !item.Processed {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r memExchange) Get(ctx context.Context, id uint) (*models.ExchangeQueueItem, error) {
	defer r.s.lock()()
	for _, item := range r.s.data.exchange {
		if item.ID == id {
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

func (r memExchange) MarkProcessed(ctx context.Context, id uint, at time.Time) (bool, error) {
	defer r.s.lock()()
	for i := range r.s.data.exchange {
		item := &r.s.data.exchange[i]
		if item.ID != id {
			continue
		}
		if item.Processed {
			return false, nil
		}
		item.Processed = true
		item.ProcessedAt = &at
		return true, nil
	}
	return false, nil
}

// bom

type memBom struct{ s *MemoryStore }

func (r memBom) List(ctx context.Context) ([]models.BomGuide, error) {
	defer r.s.lock()()
	return append([]models.BomGuide{}, r.s.data.bom...), nil
}

func (r memBom) ListByGuide(ctx context.Context, guideName string) ([]models.BomGuide, error) {
	defer r.s.lock()()
	out := []models.BomGuide{}
	for _, row := range r.s.data.bom {
		if row.GuideName == guideName {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r memBom) GuideNames(ctx context.Context) ([]string, error) {
	defer r.s.lock()()
	seen := map[string]bool{}
	names := []string{}
	for _, row := range r.s.data.bom {
		if !seen[row.GuideName] {
			seen[row.GuideName] = true
			names = append(names, row.GuideName)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r memBom) Create(ctx context.Context, row *models.BomGuide) error {
	defer r.s.lock()()
	r.s.createBom(row)
	return nil
}

func (s *MemoryStore) createBom(row *models.BomGuide) {
	s.data.bomSeq++
	row.ID = s.data.bomSeq
	row.CreatedAt = s.now()
	s.data.bom = append(s.data.bom, *row)
}

func (r memBom) DeleteByGuide(ctx context.Context, guideName string) (int64, error) {
	defer r.s.lock()()
	kept := r.s.data.bom[:0:0]
	var removed int64
	for _, row := range r.s.data.bom {
		if row.GuideName == guideName {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	r.s.data.bom = kept
	return removed, nil
}

func (r memBom) ReplaceAll(ctx context.Context, rows []models.BomGuide) ([]models.BomGuide, error) {
	defer r.s.lock()()
	r.s.data.bom = nil
	out := make([]models.BomGuide, 0, len(rows))
	for _, row := range rows {
		r.s.createBom(&row)
		out = append(out, row)
	}
	return out, nil
}

// layout

type memLayout struct{ s *MemoryStore }

func (r memLayout) List(ctx context.Context) ([]models.WarehouseZone, error) {
	defer r.s.lock()()
	return append([]models.WarehouseZone{}, r.s.data.zones...), nil
}

func (r memLayout) Create(ctx context.Context, zone *models.WarehouseZone) error {
	defer r.s.lock()()
	r.s.data.zoneSeq++
	zone.ID = r.s.data.zoneSeq
	zone.CreatedAt = r.s.now()
	r.s.data.zones = append(r.s.data.zones, *zone)
	return nil
}

func (r memLayout) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock()()
	for i := range r.s.data.zones {
		if r.s.data.zones[i].ID == id {
			r.s.data.zones = append(r.s.data.zones[:i:i], r.s.data.zones[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// users

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Username == user.Username {
			return ErrDuplicate
		}
	}
	r.s.data.userSeq++
	now := r.s.now()
	user.ID = r.s.data.userSeq
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.data.users = append(r.s.data.users, *user)
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.data.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) List(ctx context.Context) ([]models.User, error) {
	defer r.s.lock()()
	return append([]models.User{}, r.s.data.users...), nil
}

func (r memUsers) Delete(ctx context.Context, id uint) (bool, error) {
	defer r.s.lock()()
	for i := range r.s.data.users {
		if r.s.data.users[i].ID == id {
			r.s.data.users = append(r.s.data.users[:i:i], r.s.data.users[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Count(ctx context.Context) (int64, error) {
	defer r.s.lock()()
	return int64(len(r.s.data.users)), nil
}

// audit

type memAudit struct{ s *MemoryStore }

func (r memAudit) Create(ctx context.Context, log *models.AuditLog) error {
	defer r.s.lock()()
	r.s.data.auditSeq++
	log.ID = r.s.data.auditSeq
	log.CreatedAt = r.s.now()
	r.s.data.audit = append(r.s.data.audit, *log)
	return nil
}

func (r memAudit) List(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error) {
	defer r.s.lock()()
	out := []models.AuditLog{}
	for i := len(r.s.data.audit) - 1; i >= 0; i-- {
		log := r.s.data.audit[i]
		if filter.EntityType != "" && log.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != 0 && log.EntityID != filter.EntityID {
			continue
		}
		if filter.UserID != 0 && (log.UserID == nil || *log.UserID != filter.UserID) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}
