package models

import "time"

// BomGuide is one (guide, part, quantity) row. A part may repeat within a guide.
type BomGuide struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	GuideName        string    `gorm:"size:255;not null;index" json:"guideName"`
	ItemCode         string    `gorm:"size:64;not null" json:"itemCode"`
	RequiredQuantity int       `gorm:"not null" json:"requiredQuantity"`
	CreatedAt        time.Time `json:"createdAt"`
}
