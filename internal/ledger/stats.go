package ledger

import (
	"context"

	"warehouse-backend/internal/models"

	"go.uber.org/zap"
)

type Stats struct {
	TotalItems          int `json:"totalItems"`
	TotalRows           int `json:"totalRows"`
	TotalStock          int `json:"totalStock"`
	ShortageItems       int `json:"shortageItems"`
	WarehouseZones      int `json:"warehouseZones"`
	IntegrityViolations int `json:"integrityViolations"`
}

// Stats summarises inventory per code: an item is short when its cross-location
// stock is below the highest minStock on any of its rows.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	items, err := e.store.Inventory().List(ctx)
	if err != nil {
		return nil, err
	}
	zones, err := e.store.Layout().List(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct{ stock, minStock int }
	byCode := map[string]*agg{}
	st := &Stats{TotalRows: len(items), WarehouseZones: len(zones)}
	for _, it := range items {
		a, ok := byCode[it.Code]
		if !ok {
			a = &agg{}
			byCode[it.Code] = a
		}
		a.stock += it.Stock
		a.minStock = max(a.minStock, it.MinStock)
		st.TotalStock += it.Stock
	}
	st.TotalItems = len(byCode)
	for _, a := range byCode {
		if a.stock < a.minStock {
			st.ShortageItems++
		}
	}

	st.IntegrityViolations = len(e.checkIntegrity(items))
	return st, nil
}

// CheckIntegrity reports rows with negative stock. They are logged and counted,
// never corrected.
func (e *Engine) CheckIntegrity(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := e.store.Inventory().List(ctx)
	if err != nil {
		return nil, err
	}
	return e.checkIntegrity(items), nil
}

func (e *Engine) checkIntegrity(items []models.InventoryItem) []models.InventoryItem {
	bad := []models.InventoryItem{}
	for _, it := range items {
		if it.Stock < 0 {
			bad = append(bad, it)
			e.logger.Warn("inventory row has negative stock",
				zap.Uint("id", it.ID),
				zap.String("itemCode", it.Code),
				zap.String("location", it.LocationValue()),
				zap.Int("stock", it.Stock),
			)
		}
	}
	e.metrics.SetIntegrityViolations(len(bad))
	return bad
}
