package ledger

import (
	"context"
	"fmt"

	"go-pos-ledger/internal/model"
)

// RecipeSource loads recipe rows for a set of products in one round trip.
type RecipeSource interface {
	FindByProductIDs(ctx context.Context, productIDs []uint) ([]model.Recipe, error)
}

// RecipeResolver maps products to their ordered stock requirements.
type RecipeResolver struct {
	source RecipeSource
}

func NewRecipeResolver(source RecipeSource) *RecipeResolver {
	return &RecipeResolver{source: source}
}

// Resolve returns the requirements of a single product, or ErrRecipeNotFound
// when it has no recipe rows.
func (r *RecipeResolver) Resolve(ctx context.Context, productID uint) ([]Requirement, error) {
	batch, err := r.ResolveBatch(ctx, []uint{productID})
	if err != nil {
		return nil, err
	}
	reqs, ok := batch[productID]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, ErrRecipeNotFound)
	}
	return reqs, nil
}

// ResolveBatch loads the recipes of all given products with a single query.
// Products without recipe rows are absent from the result. Requirements keep
// the order the source returns them in.
func (r *RecipeResolver) ResolveBatch(ctx context.Context, productIDs []uint) (map[uint][]Requirement, error) {
	ids := uniqueIDs(productIDs)
	out := make(map[uint][]Requirement, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.source.FindByProductIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = append(out[row.ProductID], Requirement{
			StockID:         row.StockID,
			QuantityPerUnit: row.QuantityPerUnit,
		})
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
