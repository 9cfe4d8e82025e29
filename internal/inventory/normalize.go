package inventory

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"warehouse-backend/internal/layout"
	"warehouse-backend/internal/ledger"
	"warehouse-backend/internal/models"
)

const (
	defaultCategory      = "기타"
	masterCategory       = "일반자재"
	masterManufacturer   = "Ocado"
	defaultUnit          = "ea"
	defaultZone          = "A구역"
	defaultSubZone       = "A-1"
	defaultFloor         = "1층"
	bulkInventoryAddMemo = "bulk inventory-add"
)

// Row is one loosely shaped record from a spreadsheet export. Keys may be the
// Korean column headers or their English field names.
type Row map[string]any

// str returns the first non-empty value among keys, stringified.
func (r Row) str(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			s = t.String()
		default:
			s = strings.TrimSpace(fmt.Sprint(t))
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// num returns the first non-zero numeric value among keys. Strings holding
// numbers are accepted; anything unparsable is skipped.
func (r Row) num(keys ...string) int {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var f float64
		switch t := v.(type) {
		case float64:
			f = t
		case int:
			f = float64(t)
		case json.Number:
			parsed, err := t.Float64()
			if err != nil {
				continue
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if n := int(math.Trunc(f)); n != 0 {
			return n
		}
	}
	return 0
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
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

func positiveOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// MasterItem maps a product master row. Master rows carry no stock and no
// location; the first inbound for the code claims them. Rows without a code
// are dropped.
func MasterItem(r Row) (models.InventoryItem, bool) {
	code := r.str("제품코드", "code")
	if code == "" {
		return models.InventoryItem{}, false
	}
	return models.InventoryItem{
		Code:         code,
		Name:         orDefault(r.str("품명", "name"), code),
		Category:     orDefault(r.str("카테고리", "category"), masterCategory),
		Manufacturer: optional(orDefault(r.str("제조사", "manufacturer"), masterManufacturer)),
		Stock:        0,
		MinStock:     max(r.num("최소재고", "minStock"), 0),
		Unit:         orDefault(r.str("단위", "unit"), defaultUnit),
		BoxSize:      intPtr(positiveOr(r.num("박스당수량(ea)", "박스당수량", "boxSize"), 1)),
	}, true
}

// SyncItem maps a full stock snapshot row. A negative stock is returned as is
// for the caller to reject.
func SyncItem(r Row) (models.InventoryItem, bool) {
	code := r.str("제품코드", "code")
	if code == "" {
		return models.InventoryItem{}, false
	}
	return models.InventoryItem{
		Code:         code,
		Name:         orDefault(r.str("품명", "name"), code),
		Category:     orDefault(r.str("카테고리", "category"), defaultCategory),
		Manufacturer: optional(r.str("제조사", "manufacturer")),
		Stock:        r.num("현재고", "stock"),
		MinStock:     max(r.num("최소재고", "minStock"), 0),
		Unit:         orDefault(r.str("단위", "unit"), defaultUnit),
		Location:     optional(r.str("위치", "location")),
		BoxSize:      intPtr(positiveOr(r.num("박스당수량(ea)", "박스당수량", "boxSize"), 1)),
	}, true
}

// InboundRequest maps an inventory-add row onto an inbound ledger request.
// Missing slot parts default to A구역 / A-1 / 1층. Rows without a code or a
// positive quantity are dropped.
func InboundRequest(r Row, userID *uint) (ledger.Request, bool) {
	code := r.str("제품코드", "code")
	qty := r.num("수량", "quantity")
	if code == "" || qty <= 0 {
		return ledger.Request{}, false
	}

	loc := layout.BuildLocation(
		orDefault(r.str("구역", "zone"), defaultZone),
		orDefault(r.str("세부구역", "subZone"), defaultSubZone),
		orDefault(r.str("층수", "floor"), defaultFloor),
	)

	req := ledger.Request{
		Type:         models.TransactionInbound,
		ItemCode:     code,
		ItemName:     r.str("품명", "name"),
		Quantity:     qty,
		ToLocation:   loc,
		Memo:         bulkInventoryAddMemo,
		UserID:       userID,
		Category:     r.str("카테고리", "category"),
		Manufacturer: r.str("제조사", "manufacturer"),
		Unit:         r.str("단위", "unit"),
	}
	if n := r.num("최소재고", "minStock"); n > 0 {
		req.MinStock = intPtr(n)
	}
	if n := r.num("박스당수량(ea)", "박스당수량", "boxSize"); n > 0 {
		req.BoxSize = intPtr(n)
	}
	return req, true
}

// BomRow maps a BOM sheet row. Rows missing the guide, the part code or a
// positive quantity are dropped.
func BomRow(r Row) (models.BomGuide, bool) {
	guide := r.str("설치가이드명", "guideName")
	code := r.str("필요부품코드", "itemCode")
	qty := r.num("필요수량", "requiredQuantity")
	if guide == "" || code == "" || qty <= 0 {
		return models.BomGuide{}, false
	}
	return models.BomGuide{GuideName: guide, ItemCode: code, RequiredQuantity: qty}, true
}
