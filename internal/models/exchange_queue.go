package models

import "time"

// ExchangeQueueItem holds defective units taken out of stock until a replacement
// arrives. Processed flips to true exactly once.
type ExchangeQueueItem struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	ItemCode            string     `gorm:"size:64;not null;index" json:"itemCode"`
	ItemName            string     `gorm:"size:255;not null" json:"itemName"`
	Quantity            int        `gorm:"not null" json:"quantity"`
	OutboundDate        time.Time  `gorm:"not null" json:"outboundDate"`
	Processed           bool       `gorm:"not null;default:false;index" json:"processed"`
	ProcessedAt         *time.Time `json:"processedAt,omitempty"`
	SourceTransactionID *uint      `json:"sourceTransactionId,omitempty"`
	FromLocation        *string    `gorm:"size:512" json:"fromLocation,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func (ExchangeQueueItem) TableName() string {
	return "exchange_queue"
}
