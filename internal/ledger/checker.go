package ledger

import (
	"context"
	"fmt"
)

// UnrecipedPolicy decides what an order line for a product without recipe
// rows means.
type UnrecipedPolicy string

const (
	// ZeroConsumption treats the product as not backed by stock.
	ZeroConsumption UnrecipedPolicy = "zero_consumption"
	// RejectUnreciped fails the order with a ValidationError.
	RejectUnreciped UnrecipedPolicy = "reject"
)

func ParseUnrecipedPolicy(s string) (UnrecipedPolicy, error) {
	switch UnrecipedPolicy(s) {
	case "", ZeroConsumption:
		return ZeroConsumption, nil
	case RejectUnreciped:
		return RejectUnreciped, nil
	}
	return "", fmt.Errorf("unknown unreciped policy %q", s)
}

// Snapshotter reads current quantities for a set of stock ids.
type Snapshotter interface {
	Snapshot(ctx context.Context, stockIDs []uint) (map[uint]int, error)
}

// AvailabilityChecker is the advisory, read-only pre-check. The ledger's
// Apply re-validates under lock, so a pass here is not a guarantee.
type AvailabilityChecker struct {
	resolver *RecipeResolver
	stocks   Snapshotter
	policy   UnrecipedPolicy
}

func NewAvailabilityChecker(resolver *RecipeResolver, stocks Snapshotter, policy UnrecipedPolicy) *AvailabilityChecker {
	if policy == "" {
		policy = ZeroConsumption
	}
	return &AvailabilityChecker{resolver: resolver, stocks: stocks, policy: policy}
}

// Expand resolves all lines in one batch and aggregates them into a Demand.
func (c *AvailabilityChecker) Expand(ctx context.Context, lines []OrderLine) (Demand, error) {
	productIDs := make([]uint, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	recipes, err := c.resolver.ResolveBatch(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if c.policy == RejectUnreciped {
		for i, l := range lines {
			if _, ok := recipes[l.ProductID]; !ok {
				return nil, newValidationError(fmt.Sprintf("lines[%d].product_id", i), ErrRecipeNotFound.Error())
			}
		}
	}
	return BuildDemand(lines, recipes)
}

// Check expands the order and compares its aggregated demand against one
// snapshot of every involved stock row.
func (c *AvailabilityChecker) Check(ctx context.Context, lines []OrderLine) (Demand, error) {
	demand, err := c.Expand(ctx, lines)
	if err != nil {
		return nil, err
	}
	if len(demand) == 0 {
		return demand, nil
	}
	available, err := c.stocks.Snapshot(ctx, demand.StockIDs())
	if err != nil {
		return nil, fmt.Errorf("snapshot stock: %w", err)
	}
	if short := FirstShortfall(demand, available); short != nil {
		return nil, short
	}
	return demand, nil
}
