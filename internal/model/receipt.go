package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderType string

const (
	OrderDineIn  OrderType = "DINE_IN"
	OrderTakeOut OrderType = "TAKE_OUT"
)

// ReceiptLine is the order-line snapshot stored on a receipt. It is kept as
// JSON so it stays valid after product data changes.
type ReceiptLine struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"total_price"`
}

// Receipt is immutable once written: no updates, no deletes.
type Receipt struct {
	ID        uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"receipt_id"`
	OrderKey  *string                          `gorm:"type:varchar(128);uniqueIndex" json:"order_key,omitempty"`
	Reference string                           `gorm:"type:varchar(128);not null;index" json:"reference"`
	OrderType OrderType                        `gorm:"type:varchar(10);not null" json:"order_type"`
	Lines     datatypes.JSONSlice[ReceiptLine] `gorm:"type:jsonb;not null" json:"order_lines"`
	Total     decimal.Decimal                  `gorm:"type:numeric(12,2);not null" json:"total"`
	ActorID   string                           `gorm:"type:varchar(255)" json:"actor_id"`
	CreatedAt time.Time                        `gorm:"index" json:"created_at"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
