package model

import "time"

// RFIDTag maps a scannable tag to a fixed replenishment amount of one stock item.
type RFIDTag struct {
	ID        string     `gorm:"type:varchar(64);primaryKey" json:"rfid_id"`
	StockID   uint       `gorm:"not null;index" json:"stock_id" validate:"required"`
	Quantity  int        `gorm:"not null" json:"quantity" validate:"gt=0"`
	Disabled  bool       `gorm:"default:false" json:"disabled"`
	Stock     *StockItem `gorm:"foreignKey:StockID" json:"stock,omitempty" validate:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (RFIDTag) TableName() string {
	return "rfid_tags"
}
