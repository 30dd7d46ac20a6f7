package handler

import (
	"errors"
	"time"

	"go-pos-ledger/internal/model"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetReceipts lists receipts, newest first.
// Query params: from, to (YYYY-MM-DD), order_type, actor, limit, offset
func (h *ReportHandler) GetReceipts(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid from date")
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid to date")
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}

	page, err := h.service.ListReceipts(c.UserContext(), repository.ReceiptFilter{
		From:      from,
		To:        to,
		OrderType: model.OrderType(c.Query("order_type")),
		ActorID:   c.Query("actor"),
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch receipts")
	}
	return c.JSON(page)
}

// GET /api/v1/receipts/:id
func (h *ReportHandler) GetReceipt(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid receipt ID")
	}
	receipt, err := h.service.GetReceipt(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Receipt not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch receipt")
	}
	return c.JSON(receipt)
}

// GetLogs lists the audit trail.
// Query params: title, actor, from, to, limit, offset
func (h *ReportHandler) GetLogs(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid from date")
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid to date")
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}

	page, err := h.service.ListAuditLog(c.UserContext(), repository.AuditFilter{
		Title:   c.Query("title"),
		ActorID: c.Query("actor"),
		From:    from,
		To:      to,
		Limit:   c.QueryInt("limit", 50),
		Offset:  c.QueryInt("offset", 0),
	})
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch logs")
	}
	return c.JSON(page)
}

// GetDashboardStats returns today's and this month's sales with popular items
func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.SalesSummary(c.UserContext(), time.Now())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch dashboard stats")
	}
	return c.JSON(stats)
}

// GetSales returns sales totals per day for charts
// Query params: days (default 7)
func (h *ReportHandler) GetSales(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	data, err := h.service.SalesByDay(c.UserContext(), days)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch sales")
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	data, err := h.service.StockMovement(c.UserContext(), days)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch stock movement")
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}
