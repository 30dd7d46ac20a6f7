package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"go-pos-ledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDemand_AggregatesSharedIngredients(t *testing.T) {
	recipes := map[uint][]Requirement{
		6: {{StockID: 2, QuantityPerUnit: 5}, {StockID: 1, QuantityPerUnit: 1}},
		7: {{StockID: 2, QuantityPerUnit: 5}},
	}
	d, err := BuildDemand([]OrderLine{{ProductID: 6, Quantity: 1}, {ProductID: 7, Quantity: 1}, {ProductID: 6, Quantity: 2}}, recipes)
	require.NoError(t, err)

	assert.Equal(t, Demand{1: 3, 2: 20}, d)
	assert.Equal(t, []uint{1, 2}, d.StockIDs())
}

func TestBuildDemand_UnrecipedContributesNothing(t *testing.T) {
	d, err := BuildDemand([]OrderLine{{ProductID: 8, Quantity: 4}}, map[uint][]Requirement{})
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestBuildDemand_Overflow(t *testing.T) {
	tests := []struct {
		name    string
		recipes map[uint][]Requirement
		lines   []OrderLine
		field   string
	}{
		{
			name:    "line product wraps",
			recipes: map[uint][]Requirement{5: {{StockID: 1, QuantityPerUnit: 3}}},
			lines:   []OrderLine{{ProductID: 5, Quantity: 6148914691236517206}},
			field:   "lines[0].quantity",
		},
		{
			name:    "per-unit quantity wraps",
			recipes: map[uint][]Requirement{5: {{StockID: 1, QuantityPerUnit: math.MaxInt / 2}}},
			lines:   []OrderLine{{ProductID: 5, Quantity: 3}},
			field:   "lines[0].quantity",
		},
		{
			name:    "aggregate wraps",
			recipes: map[uint][]Requirement{5: {{StockID: 1, QuantityPerUnit: math.MaxInt / 2}}},
			lines:   []OrderLine{{ProductID: 5, Quantity: 1}, {ProductID: 5, Quantity: 1}, {ProductID: 5, Quantity: 1}},
			field:   "lines[2].quantity",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildDemand(tt.lines, tt.recipes)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, ErrDemandOverflow.Error(), verr.Fields[tt.field])
			assert.Nil(t, d)
		})
	}
}

func TestFirstShortfall(t *testing.T) {
	tests := []struct {
		name      string
		demand    Demand
		available map[uint]int
		want      *InsufficientStockError
	}{
		{"covered", Demand{1: 6}, map[uint]int{1: 10}, nil},
		{"exact", Demand{1: 10}, map[uint]int{1: 10}, nil},
		{"short", Demand{1: 12}, map[uint]int{1: 10}, &InsufficientStockError{StockID: 1, Required: 12, Available: 10}},
		{"lowest id reported first", Demand{3: 5, 2: 9}, map[uint]int{2: 1, 3: 1}, &InsufficientStockError{StockID: 2, Required: 9, Available: 1}},
		{"missing row counts as zero", Demand{4: 1}, map[uint]int{}, &InsufficientStockError{StockID: 4, Required: 1, Available: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstShortfall(tt.demand, tt.available))
		})
	}
}

func TestRecipeResolver_Resolve(t *testing.T) {
	src := &stubRecipes{rows: []model.Recipe{
		{ProductID: 5, StockID: 1, QuantityPerUnit: 3},
		{ProductID: 5, StockID: 2, QuantityPerUnit: 1},
	}}
	r := NewRecipeResolver(src)

	reqs, err := r.Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []Requirement{{StockID: 1, QuantityPerUnit: 3}, {StockID: 2, QuantityPerUnit: 1}}, reqs)

	_, err = r.Resolve(context.Background(), 99)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestRecipeResolver_ResolveBatchSingleQuery(t *testing.T) {
	src := &stubRecipes{rows: []model.Recipe{
		{ProductID: 5, StockID: 1, QuantityPerUnit: 3},
		{ProductID: 6, StockID: 2, QuantityPerUnit: 5},
	}}
	r := NewRecipeResolver(src)

	got, err := r.ResolveBatch(context.Background(), []uint{5, 6, 5, 8})
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, uint(8))
}

func TestRecipeResolver_SourceError(t *testing.T) {
	boom := errors.New("db down")
	r := NewRecipeResolver(&stubRecipes{err: boom})

	_, err := r.ResolveBatch(context.Background(), []uint{1})
	assert.ErrorIs(t, err, boom)
}

func TestAvailabilityChecker_ScenarioD_AggregatedDemand(t *testing.T) {
	f := newFixture(ZeroConsumption)
	checker := NewAvailabilityChecker(NewRecipeResolver(f.recipes), f.store, ZeroConsumption)

	_, err := checker.Check(context.Background(), []OrderLine{{ProductID: 6, Quantity: 1}, {ProductID: 7, Quantity: 1}})

	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, InsufficientStockError{StockID: 2, Required: 10, Available: 8}, *short)
}

func TestAvailabilityChecker_UnrecipedPolicy(t *testing.T) {
	lines := []OrderLine{{ProductID: 8, Quantity: 1}}

	t.Run("zero consumption", func(t *testing.T) {
		f := newFixture(ZeroConsumption)
		checker := NewAvailabilityChecker(NewRecipeResolver(f.recipes), f.store, ZeroConsumption)
		d, err := checker.Check(context.Background(), lines)
		require.NoError(t, err)
		assert.Empty(t, d)
	})

	t.Run("reject", func(t *testing.T) {
		f := newFixture(RejectUnreciped)
		checker := NewAvailabilityChecker(NewRecipeResolver(f.recipes), f.store, RejectUnreciped)
		_, err := checker.Check(context.Background(), lines)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "lines[0].product_id")
	})
}

func TestParseUnrecipedPolicy(t *testing.T) {
	p, err := ParseUnrecipedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ZeroConsumption, p)

	p, err = ParseUnrecipedPolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, RejectUnreciped, p)

	_, err = ParseUnrecipedPolicy("ignore")
	assert.Error(t, err)
}
