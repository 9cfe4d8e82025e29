package models

import "time"

type TransactionType string

const (
	TransactionInbound    TransactionType = "inbound"
	TransactionOutbound   TransactionType = "outbound"
	TransactionMove       TransactionType = "move"
	TransactionAdjustment TransactionType = "adjustment"
)

// Outbound reasons. The reason string selects the outbound sub-policy.
const (
	ReasonAssemblyTransfer = "조립장 이동"
	ReasonReturn           = "출고 반환"
	ReasonExchangeOutbound = "불량품 교환 출고"
	ReasonOther            = "기타"

	// ReasonExchangeInbound tags the synthetic inbound written when an exchange item is processed.
	ReasonExchangeInbound = "불량품교환 새제품 입고"
)

// Transaction is an immutable ledger entry. Rows are never updated or deleted.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Type         TransactionType `gorm:"size:20;not null;index" json:"type"`
	ItemCode     string          `gorm:"size:64;not null;index" json:"itemCode"`
	ItemName     string          `gorm:"size:255;not null" json:"itemName"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	FromLocation *string         `gorm:"size:512" json:"fromLocation,omitempty"` // comma-joined for FIFO outbound
	ToLocation   *string         `gorm:"size:100" json:"toLocation,omitempty"`
	Reason       *string         `gorm:"size:100" json:"reason,omitempty"`
	Memo         *string         `gorm:"size:500" json:"memo,omitempty"`
	UserID       *uint           `json:"userId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (t Transaction) ReasonValue() string {
	if t.Reason == nil {
		return ""
	}
	return *t.Reason
}

func (t Transaction) FromLocationValue() string {
	if t.FromLocation == nil {
		return ""
	}
	return *t.FromLocation
}
