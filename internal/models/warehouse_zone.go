package models

import "time"

type WarehouseZone struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ZoneName    string    `gorm:"size:100;not null" json:"zoneName"`
	SubZoneName string    `gorm:"size:100;not null" json:"subZoneName"`
	Floors      []string  `gorm:"serializer:json;type:jsonb;not null" json:"floors"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (WarehouseZone) TableName() string {
	return "warehouse_layout"
}
