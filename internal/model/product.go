package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey" json:"product_id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"unit_price"`
	Disabled  bool            `gorm:"default:false" json:"disabled"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relasi
	Recipes []Recipe `json:"recipes,omitempty"`
}
