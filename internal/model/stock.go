package model

import "time"

// StockItem is a raw ingredient tracked by the ledger. Quantity is only ever
// changed through the ledger's apply/increment paths.
type StockItem struct {
	ID               uint      `gorm:"primaryKey" json:"stock_id"`
	Name             string    `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Quantity         int       `gorm:"not null;default:0;check:chk_stocks_quantity_nonnegative,quantity >= 0" json:"quantity" validate:"gte=0"`
	MinimumThreshold int       `gorm:"not null;default:0" json:"minimum_threshold" validate:"gte=0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (StockItem) TableName() string {
	return "stocks"
}

// IsLow reports whether the item fell under its configured minimum.
func (s StockItem) IsLow() bool {
	return s.Quantity < s.MinimumThreshold
}
