package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/layout"
	"warehouse-backend/internal/locker"
	"warehouse-backend/internal/metrics"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultCategory = "기타"
	defaultUnit     = "ea"
)

// Engine applies transaction requests to inventory. Every request runs under a
// per-code lock inside one store transaction, so a rejected request leaves no
// trace in either inventory or the ledger.
type Engine struct {
	store   repository.Store
	locker  locker.Locker
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEngine(store repository.Store, lk locker.Locker, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		store:   store,
		locker:  lk,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

func itemKey(code string) string {
	return "item:" + code
}

// Apply validates req, mutates inventory and appends the ledger record.
func (e *Engine) Apply(ctx context.Context, req Request) (*models.Transaction, error) {
	recs, err := e.ApplyBatch(ctx, []Request{req})
	if err != nil {
		return nil, err
	}
	return &recs[0], nil
}

// ApplyBatch applies every request in one store transaction. Either all are
// recorded or none.
func (e *Engine) ApplyBatch(ctx context.Context, reqs []Request) ([]models.Transaction, error) {
	if len(reqs) == 0 {
		return []models.Transaction{}, nil
	}

	for i := range reqs {
		if err := e.prepare(ctx, &reqs[i]); err != nil {
			e.reject(reqs[i], err)
			return nil, err
		}
	}

	unlock, err := e.lockCodes(ctx, reqs)
	if err != nil {
		return nil, err
	}
	defer unlock()

	e.metrics.TransactionStarted()
	defer e.metrics.TransactionFinished()

	recs := make([]models.Transaction, 0, len(reqs))
	var failed *Request
	err = e.store.Atomic(ctx, func(tx repository.Store) error {
		recs = recs[:0]
		for i := range reqs {
			rec, err := e.apply(ctx, tx, reqs[i])
			if err != nil {
				failed = &reqs[i]
				return err
			}
			recs = append(recs, *rec)
		}
		return nil
	})
	if err != nil {
		if failed != nil {
			e.reject(*failed, err)
		}
		return nil, err
	}

	for _, rec := range recs {
		e.metrics.RecordTransaction(string(rec.Type), rec.ReasonValue(), "ok")
		e.logger.Info("transaction applied",
			zap.Uint("id", rec.ID),
			zap.String("type", string(rec.Type)),
			zap.String("itemCode", rec.ItemCode),
			zap.Int("quantity", rec.Quantity),
			zap.String("fromLocation", rec.FromLocationValue()),
			zap.String("reason", rec.ReasonValue()),
		)
	}
	return recs, nil
}

func (e *Engine) prepare(ctx context.Context, req *Request) error {
	req.normalize()
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Type == models.TransactionInbound && req.hasSlot() {
		zones, err := e.store.Layout().List(ctx)
		if err != nil {
			return fmt.Errorf("load layout: %w", err)
		}
		loc, err := layout.Resolve(zones, req.Zone, req.SubZone, req.Floor)
		if err != nil {
			return err
		}
		req.ToLocation = loc
	}
	return nil
}

// lockCodes takes the item locks in sorted order so batches never deadlock.
func (e *Engine) lockCodes(ctx context.Context, reqs []Request) (func(), error) {
	seen := map[string]bool{}
	var codes []string
	for _, r := range reqs {
		if !seen[r.ItemCode] {
			seen[r.ItemCode] = true
			codes = append(codes, r.ItemCode)
		}
	}
	sort.Strings(codes)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, code := range codes {
		unlock, err := e.locker.Lock(ctx, itemKey(code))
		if err != nil {
			release()
			e.logger.Warn("item lock not acquired", zap.String("itemCode", code), zap.Error(err))
			return nil, apperror.Unavailable("system busy, please try again later").Wrap(err)
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func (e *Engine) reject(req Request, err error) {
	result := "error"
	if _, ok := apperror.As(err); ok {
		result = "rejected"
	}
	e.metrics.RecordTransaction(string(req.Type), req.Reason, result)

	fields := []zap.Field{
		zap.String("type", string(req.Type)),
		zap.String("itemCode", req.ItemCode),
		zap.Int("quantity", req.Quantity),
		zap.String("reason", req.Reason),
		zap.Error(err),
	}
	if result == "rejected" {
		e.logger.Warn("transaction rejected", fields...)
		return
	}
	e.logger.Error("transaction failed", fields...)
}

func (e *Engine) apply(ctx context.Context, tx repository.Store, req Request) (*models.Transaction, error) {
	rows, err := tx.Inventory().LockByCode(ctx, req.ItemCode)
	if err != nil {
		return nil, err
	}
	if req.ItemName == "" {
		req.ItemName = req.ItemCode
		if len(rows) > 0 {
			req.ItemName = rows[0].Name
		}
	}

	rec := &models.Transaction{
		Type:     req.Type,
		ItemCode: req.ItemCode,
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Reason:   optional(req.Reason),
		Memo:     optional(req.Memo),
		UserID:   req.UserID,
	}

	switch req.Type {
	case models.TransactionInbound:
		err = e.inbound(ctx, tx, rows, req, rec)
	case models.TransactionOutbound:
		if req.Reason == models.ReasonReturn {
			err = e.returnStock(ctx, tx, rows, req, rec)
		} else {
			err = e.outbound(ctx, tx, rows, req, rec)
		}
	case models.TransactionMove:
		err = e.move(ctx, tx, rows, req, rec)
	case models.TransactionAdjustment:
		err = e.adjust(ctx, tx, rows, req, rec)
	default:
		err = apperror.Validation("unknown transaction type").WithDetail("type", string(req.Type))
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Transactions().Append(ctx, rec); err != nil {
		return nil, err
	}

	if req.Type == models.TransactionOutbound && req.Reason == models.ReasonExchangeOutbound {
		item := &models.ExchangeQueueItem{
			ItemCode:            rec.ItemCode,
			ItemName:            rec.ItemName,
			Quantity:            rec.Quantity,
			OutboundDate:        e.now(),
			SourceTransactionID: &rec.ID,
			FromLocation:        rec.FromLocation,
		}
		if err := tx.Exchange().Create(ctx, item); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// inbound merges into the row already at the destination, claims an empty
// unplaced master row, or creates a new row.
func (e *Engine) inbound(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, rec *models.Transaction) error {
	loc := req.ToLocation
	rec.ToLocation = &loc

	if row := findAt(rows, loc); row != nil {
		_, err := tx.Inventory().UpdateByID(ctx, row.ID, repository.InventoryPatch{Stock: intPtr(row.Stock + req.Quantity)})
		return err
	}

	for _, row := range rows {
		if row.LocationValue() == "" && row.Stock == 0 {
			_, err := tx.Inventory().UpdateByID(ctx, row.ID, repository.InventoryPatch{
				Location: &loc,
				Stock:    intPtr(req.Quantity),
			})
			return err
		}
	}

	item := newRow(req, rows, loc, req.Quantity)
	return tx.Inventory().Create(ctx, &item)
}

// outbound deducts FIFO across every row of the code with stock, oldest id first.
func (e *Engine) outbound(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, rec *models.Transaction) error {
	total := 0
	for _, row := range rows {
		if row.Stock > 0 {
			total += row.Stock
		}
	}
	if total < req.Quantity {
		return apperror.InsufficientStock(req.ItemCode, req.Quantity, total)
	}

	remaining := req.Quantity
	var touched []string
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		if row.Stock <= 0 {
			continue
		}
		deduct := min(row.Stock, remaining)
		if _, err := tx.Inventory().UpdateByID(ctx, row.ID, repository.InventoryPatch{Stock: intPtr(row.Stock - deduct)}); err != nil {
			return err
		}
		remaining -= deduct
		if loc := row.LocationValue(); loc != "" && !contains(touched, loc) {
			touched = append(touched, loc)
		}
	}

	if len(touched) > 0 {
		rec.FromLocation = optional(strings.Join(touched, ","))
	}
	return nil
}

// returnStock credits a "출고 반환" back to where the goods were drawn from.
func (e *Engine) returnStock(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, rec *models.Transaction) error {
	loc := req.FromLocation
	if loc == "" {
		prior, err := lastOutbound(ctx, tx, req.ItemCode, func(r string) bool { return r != models.ReasonReturn })
		if err != nil {
			return err
		}
		if prior != nil {
			loc = firstLocation(prior.FromLocationValue())
		}
	}

	row, err := credit(ctx, tx, rows, req, loc, req.Quantity)
	if err != nil {
		return err
	}
	rec.FromLocation = optional(req.FromLocation)
	rec.ToLocation = row.Location
	return nil
}

// move is location-exact: it never falls back to other rows of the code.
func (e *Engine) move(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, rec *models.Transaction) error {
	var src *models.InventoryItem
	for i := range rows {
		if rows[i].AtLocation(req.FromLocation) && rows[i].Stock >= req.Quantity {
			src = &rows[i]
			break
		}
	}
	if src == nil {
		return apperror.SourceNotFound(req.ItemCode, req.FromLocation)
	}

	from, to := req.FromLocation, req.ToLocation
	rec.FromLocation = &from
	rec.ToLocation = &to

	// An exact move keeps the source row id. A row already at the target is
	// folded into it so (code, location) stays unique.
	if src.Stock == req.Quantity {
		stock := src.Stock
		if target := findAt(rows, to); target != nil {
			stock += target.Stock
			if _, err := tx.Inventory().DeleteByID(ctx, target.ID); err != nil {
				return err
			}
		}
		_, err := tx.Inventory().UpdateByID(ctx, src.ID, repository.InventoryPatch{Location: &to, Stock: intPtr(stock)})
		return err
	}

	if _, err := tx.Inventory().UpdateByID(ctx, src.ID, repository.InventoryPatch{Stock: intPtr(src.Stock - req.Quantity)}); err != nil {
		return err
	}
	if target := findAt(rows, to); target != nil {
		_, err := tx.Inventory().UpdateByID(ctx, target.ID, repository.InventoryPatch{Stock: intPtr(target.Stock + req.Quantity)})
		return err
	}
	item := copyRow(*src, to, req.Quantity)
	return tx.Inventory().Create(ctx, &item)
}

// adjust overwrites stock on exactly one row. A code with several rows needs
// inventoryId or a location to say which.
func (e *Engine) adjust(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, rec *models.Transaction) error {
	var target *models.InventoryItem
	loc := req.FromLocation
	if loc == "" {
		loc = req.ToLocation
	}

	switch {
	case req.InventoryID != nil:
		for i := range rows {
			if rows[i].ID == *req.InventoryID {
				target = &rows[i]
				break
			}
		}
	case loc != "":
		target = findAt(rows, loc)
	case len(rows) == 1:
		target = &rows[0]
	case len(rows) > 1:
		return apperror.Validation("adjustment is ambiguous for an item stored at several locations").
			WithDetail("inventoryId", "inventoryId or fromLocation is required").
			WithDetail("rows", fmt.Sprint(len(rows)))
	}
	if target == nil {
		return apperror.NotFound("Inventory item").WithDetail("itemCode", req.ItemCode)
	}

	if _, err := tx.Inventory().UpdateByID(ctx, target.ID, repository.InventoryPatch{Stock: intPtr(req.Quantity)}); err != nil {
		return err
	}
	rec.ToLocation = target.Location
	return nil
}

// credit adds qty at loc, creating the row from the code's template row when
// needed. An empty loc credits the first row of the code.
func credit(ctx context.Context, tx repository.Store, rows []models.InventoryItem, req Request, loc string, qty int) (*models.InventoryItem, error) {
	var target *models.InventoryItem
	if loc != "" {
		target = findAt(rows, loc)
	} else if len(rows) > 0 {
		target = &rows[0]
	}

	if target != nil {
		return tx.Inventory().UpdateByID(ctx, target.ID, repository.InventoryPatch{Stock: intPtr(target.Stock + qty)})
	}

	item := newRow(req, rows, loc, qty)
	if err := tx.Inventory().Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// lastOutbound returns the most recent outbound for code whose reason passes keep.
func lastOutbound(ctx context.Context, tx repository.Store, code string, keep func(reason string) bool) (*models.Transaction, error) {
	txs, err := tx.Transactions().ListByItemCode(ctx, code)
	if err != nil {
		return nil, err
	}
	for i := len(txs) - 1; i >= 0; i-- {
		t := txs[i]
		if t.Type == models.TransactionOutbound && keep(t.ReasonValue()) && t.FromLocationValue() != "" {
			return &t, nil
		}
	}
	return nil, nil
}

// newRow builds a row for code at loc. Master attributes come from the first
// existing row of the code, then from the request, then from defaults.
func newRow(req Request, rows []models.InventoryItem, loc string, stock int) models.InventoryItem {
	if len(rows) > 0 {
		return copyRow(rows[0], loc, stock)
	}

	item := models.InventoryItem{
		Code:     req.ItemCode,
		Name:     req.ItemName,
		Category: req.Category,
		Unit:     req.Unit,
		Stock:    stock,
		Location: optional(loc),
		BoxSize:  req.BoxSize,
	}
	if item.Name == "" {
		item.Name = req.ItemCode
	}
	if item.Category == "" {
		item.Category = defaultCategory
	}
	if item.Unit == "" {
		item.Unit = defaultUnit
	}
	if req.Manufacturer != "" {
		item.Manufacturer = optional(req.Manufacturer)
	}
	if req.MinStock != nil {
		item.MinStock = *req.MinStock
	}
	if item.BoxSize == nil {
		item.BoxSize = intPtr(1)
	}
	return item
}

func copyRow(src models.InventoryItem, loc string, stock int) models.InventoryItem {
	return models.InventoryItem{
		Code:         src.Code,
		Name:         src.Name,
		Category:     src.Category,
		Manufacturer: src.Manufacturer,
		Unit:         src.Unit,
		MinStock:     src.MinStock,
		BoxSize:      src.BoxSize,
		Stock:        stock,
		Location:     optional(loc),
	}
}

func findAt(rows []models.InventoryItem, loc string) *models.InventoryItem {
	for i := range rows {
		if rows[i].AtLocation(loc) {
			return &rows[i]
		}
	}
	return nil
}

func firstLocation(joined string) string {
	first, _, _ := strings.Cut(joined, ",")
	return strings.TrimSpace(first)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(i int) *int {
	return &i
}

// isNotFound maps repository misses onto the API error.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
