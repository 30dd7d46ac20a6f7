// Package ledger is the order fulfillment and inventory ledger engine: it
// resolves products into recipes, aggregates an order's stock demand, and
// deducts it from the stock ledger as one all-or-nothing unit.
package ledger

import (
	"fmt"
	"math"
	"sort"
)

// Requirement is one recipe row seen from the product side.
type Requirement struct {
	StockID         uint
	QuantityPerUnit int
}

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 10000

// OrderLine is a transient cart line.
type OrderLine struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gt=0,lte=10000"`
}

// Demand is the aggregated stock requirement of a whole order, keyed by stock id.
type Demand map[uint]int

// StockIDs returns the demanded stock ids in ascending order. Stores lock rows
// in this order so two overlapping orders cannot deadlock each other.
func (d Demand) StockIDs() []uint {
	ids := make([]uint, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BuildDemand expands every line through its recipe and sums per stock id.
// Lines whose product has no entry in recipes contribute nothing. A line
// whose demand does not fit in an int fails with a ValidationError.
func BuildDemand(lines []OrderLine, recipes map[uint][]Requirement) (Demand, error) {
	demand := make(Demand)
	for i, line := range lines {
		for _, req := range recipes[line.ProductID] {
			qty, ok := mulQuantity(req.QuantityPerUnit, line.Quantity)
			if ok {
				qty, ok = addQuantity(demand[req.StockID], qty)
			}
			if !ok {
				return nil, newValidationError(fmt.Sprintf("lines[%d].quantity", i), ErrDemandOverflow.Error())
			}
			demand[req.StockID] = qty
		}
	}
	return demand, nil
}

func mulQuantity(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}

func addQuantity(a, b int) (int, bool) {
	if b > math.MaxInt-a {
		return 0, false
	}
	return a + b, true
}

// FirstShortfall compares demand with available quantities in ascending stock
// id order and reports the first item that cannot be covered. A stock id
// missing from available counts as zero.
func FirstShortfall(demand Demand, available map[uint]int) *InsufficientStockError {
	for _, id := range demand.StockIDs() {
		have := available[id]
		if have < demand[id] {
			return &InsufficientStockError{StockID: id, Required: demand[id], Available: have}
		}
	}
	return nil
}
