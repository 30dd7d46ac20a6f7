package repository

import (
	"context"

	"go-pos-ledger/internal/model"

	"gorm.io/gorm"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *model.Recipe) error
	FindByProductIDs(ctx context.Context, productIDs []uint) ([]model.Recipe, error)
}

type recipeRepo struct {
	db *gorm.DB
}

func NewRecipeRepo(db *gorm.DB) RecipeRepository {
	return &recipeRepo{db}
}

func (r *recipeRepo) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// FindByProductIDs returns every recipe row of the given products in one
// query, ordered by product then row id.
func (r *recipeRepo) FindByProductIDs(ctx context.Context, productIDs []uint) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if len(productIDs) == 0 {
		return recipes, nil
	}
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC, id ASC").
		Find(&recipes).Error
	return recipes, err
}
