package model

import "time"

type MovementKind string

const (
	MovementSale      MovementKind = "SALE"
	MovementReplenish MovementKind = "REPLENISH"
)

// StockMovement is written in the same transaction as the quantity change it
// describes. (reference, stock_id, kind) is unique, so one reference can
// deduct a stock row at most once.
type StockMovement struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	StockID   uint         `gorm:"not null;uniqueIndex:idx_movement_reference" json:"stock_id"`
	Kind      MovementKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_movement_reference" json:"kind"`
	Reference string       `gorm:"type:varchar(128);not null;uniqueIndex:idx_movement_reference" json:"reference"`
	Delta     int          `gorm:"not null" json:"delta"`
	Before    int          `gorm:"column:quantity_before;not null" json:"quantity_before"`
	After     int          `gorm:"column:quantity_after;not null" json:"quantity_after"`
	ActorID   string       `gorm:"type:varchar(255)" json:"actor_id"`
	CreatedAt time.Time    `json:"created_at"`
}
