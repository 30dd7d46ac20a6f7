package model

// Recipe says how many units of a stock item one unit of a product consumes.
type Recipe struct {
	ID              uint       `gorm:"primaryKey" json:"recipe_id"`
	ProductID       uint       `gorm:"not null;uniqueIndex:idx_recipe_product_stock" json:"product_id" validate:"required"`
	StockID         uint       `gorm:"not null;uniqueIndex:idx_recipe_product_stock;index" json:"stock_id" validate:"required"`
	QuantityPerUnit int        `gorm:"not null;check:chk_recipe_quantity_positive,quantity_per_unit > 0" json:"quantity_per_unit" validate:"gt=0"`
	Stock           *StockItem `gorm:"foreignKey:StockID" json:"stock,omitempty" validate:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}
