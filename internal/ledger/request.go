package ledger

import (
	"strings"

	"warehouse-backend/internal/apperror"
	"warehouse-backend/internal/models"
	"warehouse-backend/internal/validation"
)

// Request is one stock-affecting operation submitted to the engine.
type Request struct {
	Type     models.TransactionType `json:"type" validate:"required,oneof=inbound outbound move adjustment"`
	ItemCode string                 `json:"itemCode" validate:"required,max=64"`
	ItemName string                 `json:"itemName" validate:"max=255"`
	Quantity int                    `json:"quantity" validate:"gte=0"`

	FromLocation string `json:"fromLocation" validate:"max=100"`
	ToLocation   string `json:"toLocation" validate:"max=100"`

	// Structured destination for inbound; resolved against the layout.
	Zone    string `json:"zone"`
	SubZone string `json:"subZone"`
	Floor   string `json:"floor"`

	Reason string `json:"reason" validate:"max=100"`
	Memo   string `json:"memo" validate:"max=500"`
	UserID *uint  `json:"userId"`

	// InventoryID selects the row an adjustment overwrites.
	InventoryID *uint `json:"inventoryId"`

	// Attributes for a row created by inbound when the code has no template row.
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	Unit         string `json:"unit"`
	MinStock     *int   `json:"minStock" validate:"omitempty,gte=0"`
	BoxSize      *int   `json:"boxSize" validate:"omitempty,gt=0"`
}

func (r *Request) normalize() {
	r.ItemCode = strings.TrimSpace(r.ItemCode)
	r.ItemName = strings.TrimSpace(r.ItemName)
	r.FromLocation = strings.TrimSpace(r.FromLocation)
	r.ToLocation = strings.TrimSpace(r.ToLocation)
	r.Zone = strings.TrimSpace(r.Zone)
	r.SubZone = strings.TrimSpace(r.SubZone)
	r.Floor = strings.TrimSpace(r.Floor)
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *Request) hasSlot() bool {
	return r.Zone != "" || r.SubZone != "" || r.Floor != ""
}

// Validate checks shape and per-type field rules. It does not look at stock.
func (r *Request) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	if r.Type != models.TransactionAdjustment && r.Quantity <= 0 {
		return apperror.Validation("validation failed").WithDetail("quantity", "quantity must be greater than 0")
	}

	switch r.Type {
	case models.TransactionInbound:
		if r.ToLocation == "" && !r.hasSlot() {
			return apperror.Validation("validation failed").WithDetail("toLocation", "toLocation or zone/subZone/floor is required for inbound")
		}
		if r.hasSlot() && (r.Zone == "" || r.SubZone == "" || r.Floor == "") {
			return apperror.Validation("validation failed").WithDetail("zone", "zone, subZone and floor must be given together")
		}
	case models.TransactionMove:
		if r.FromLocation == "" || r.ToLocation == "" {
			return apperror.Validation("validation failed").WithDetail("location", "fromLocation and toLocation are required for move")
		}
		if r.FromLocation == r.ToLocation {
			return apperror.Validation("validation failed").WithDetail("toLocation", "toLocation must differ from fromLocation")
		}
	}
	return nil
}
