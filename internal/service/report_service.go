package service

import (
	"context"
	"sort"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const popularItemsLimit = 5

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

type PopularItem struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	TodayTotal   decimal.Decimal   `json:"today_total"`
	TodayOrders  int               `json:"today_orders"`
	MonthTotal   decimal.Decimal   `json:"month_total"`
	MonthOrders  int               `json:"month_orders"`
	PopularItems []PopularItem     `json:"popular_items"`
	LowStock     []model.StockItem `json:"low_stock"`
}

type ReportService interface {
	LowStock(ctx context.Context) ([]model.StockItem, error)
	GetReceipt(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	ListReceipts(ctx context.Context, f repository.ReceiptFilter) (*Page[model.Receipt], error)
	ListAuditLog(ctx context.Context, f repository.AuditFilter) (*Page[model.AuditEntry], error)
	SalesSummary(ctx context.Context, now time.Time) (*SalesSummary, error)
	SalesByDay(ctx context.Context, days int) ([]repository.DailySales, error)
	StockMovement(ctx context.Context, days int) ([]repository.MovementByDay, error)
	StockHistory(ctx context.Context, stockID uint, limit int) ([]model.StockMovement, error)
}

type reportService struct {
	stocks    repository.StockRepository
	receipts  repository.ReceiptRepository
	audit     repository.AuditRepository
	movements repository.MovementRepository
}

func NewReportService(stocks repository.StockRepository, receipts repository.ReceiptRepository, audit repository.AuditRepository, movements repository.MovementRepository) ReportService {
	return &reportService{stocks: stocks, receipts: receipts, audit: audit, movements: movements}
}

func (s *reportService) LowStock(ctx context.Context) ([]model.StockItem, error) {
	return s.stocks.FindLow(ctx)
}

func (s *reportService) GetReceipt(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	return s.receipts.FindByID(ctx, id)
}

func (s *reportService) ListReceipts(ctx context.Context, f repository.ReceiptFilter) (*Page[model.Receipt], error) {
	items, total, err := s.receipts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page[model.Receipt]{Items: items, Total: total}, nil
}

func (s *reportService) ListAuditLog(ctx context.Context, f repository.AuditFilter) (*Page[model.AuditEntry], error) {
	items, total, err := s.audit.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page[model.AuditEntry]{Items: items, Total: total}, nil
}

// SalesSummary totals today and the current month and ranks the month's
// products by units sold.
func (s *reportService) SalesSummary(ctx context.Context, now time.Time) (*SalesSummary, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := dayStart.AddDate(0, 0, 1)

	receipts, err := s.receipts.FindBetween(ctx, monthStart, end)
	if err != nil {
		return nil, err
	}
	low, err := s.stocks.FindLow(ctx)
	if err != nil {
		return nil, err
	}

	out := &SalesSummary{TodayTotal: decimal.Zero, MonthTotal: decimal.Zero, LowStock: low}
	byProduct := make(map[uint]*PopularItem)
	for _, r := range receipts {
		out.MonthTotal = out.MonthTotal.Add(r.Total)
		out.MonthOrders++
		if !r.CreatedAt.Before(dayStart) {
			out.TodayTotal = out.TodayTotal.Add(r.Total)
			out.TodayOrders++
		}
		for _, line := range r.Lines {
			item, ok := byProduct[line.ProductID]
			if !ok {
				item = &PopularItem{ProductID: line.ProductID, ProductName: line.ProductName, Revenue: decimal.Zero}
				byProduct[line.ProductID] = item
			}
			item.Quantity += line.Quantity
			item.Revenue = item.Revenue.Add(line.LineTotal)
		}
	}
	out.PopularItems = rankPopular(byProduct, popularItemsLimit)
	return out, nil
}

func rankPopular(byProduct map[uint]*PopularItem, limit int) []PopularItem {
	items := make([]PopularItem, 0, len(byProduct))
	for _, it := range byProduct {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].ProductID < items[j].ProductID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *reportService) SalesByDay(ctx context.Context, days int) ([]repository.DailySales, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -clampDays(days))
	return s.receipts.SalesByDay(ctx, startDate, endDate)
}

func (s *reportService) StockMovement(ctx context.Context, days int) ([]repository.MovementByDay, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -clampDays(days))
	return s.movements.ByDay(ctx, startDate, endDate)
}

func (s *reportService) StockHistory(ctx context.Context, stockID uint, limit int) ([]model.StockMovement, error) {
	return s.movements.FindByStock(ctx, stockID, limit)
}

func clampDays(days int) int {
	switch {
	case days <= 0:
		return 7
	case days > 366:
		return 366
	}
	return days
}
