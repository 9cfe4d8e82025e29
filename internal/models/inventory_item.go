package models

import "time"

// InventoryItem is one physical stock lot. The same Code may appear on several
// rows at different locations; ID is the only identity.
type InventoryItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:64;index;not null" json:"code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Category     string    `gorm:"size:100;not null" json:"category"`
	Manufacturer *string   `gorm:"size:255" json:"manufacturer,omitempty"`
	Stock        int       `gorm:"not null;default:0;check:chk_inventory_stock_non_negative,stock >= 0" json:"stock"`
	MinStock     int       `gorm:"not null;default:0" json:"minStock"`
	Unit         string    `gorm:"size:20;not null;default:ea" json:"unit"`
	Location     *string   `gorm:"size:100;index" json:"location,omitempty"` // nil for master rows
	BoxSize      *int      `gorm:"default:1" json:"boxSize,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LocationValue returns the location or "" for master rows.
func (i InventoryItem) LocationValue() string {
	if i.Location == nil {
		return ""
	}
	return *i.Location
}

// AtLocation reports whether the row sits at loc. An empty loc matches master rows.
func (i InventoryItem) AtLocation(loc string) bool {
	return i.LocationValue() == loc
}
