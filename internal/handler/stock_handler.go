package handler

import (
	"errors"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"
	"go-pos-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	catalog   service.CatalogService
	replenish service.ReplenishmentService
	reports   service.ReportService
}

func NewStockHandler(catalog service.CatalogService, replenish service.ReplenishmentService, reports service.ReportService) *StockHandler {
	return &StockHandler{catalog: catalog, replenish: replenish, reports: reports}
}

type ScanRequest struct {
	RFID string `json:"rfid_id" validate:"required"`
}

// GET /api/v1/stock
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	items, err := h.catalog.ListStock(c.UserContext())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch stock")
	}
	return c.JSON(items)
}

// GET /api/v1/stock/low
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.reports.LowStock(c.UserContext())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch low stock")
	}
	return c.JSON(items)
}

// GET /api/v1/stock/:id/movements
func (h *StockHandler) GetMovements(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid stock ID")
	}
	movements, err := h.reports.StockHistory(c.UserContext(), id, c.QueryInt("limit", 100))
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch movements")
	}
	return c.JSON(movements)
}

// POST /api/v1/stock/:id/replenish
func (h *StockHandler) Replenish(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid stock ID")
	}
	var req service.ReplenishRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid request", "fields": validator.FieldMap(errs)})
	}

	adj, err := h.replenish.Replenish(c.UserContext(), id, req.Quantity, getUserID(c))
	if err != nil {
		return writeStockError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock replenished", "data": adj})
}

// POST /api/v1/rfid/scan
func (h *StockHandler) ScanRFID(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid request", "fields": validator.FieldMap(errs)})
	}

	adj, err := h.replenish.ScanRFID(c.UserContext(), req.RFID, getUserID(c))
	if err != nil {
		return writeStockError(c, err)
	}
	return c.JSON(fiber.Map{"message": "RFID scanned", "data": adj})
}

// GET /api/v1/rfid
func (h *StockHandler) GetTags(c *fiber.Ctx) error {
	tags, err := h.catalog.ListRFIDTags(c.UserContext())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch tags")
	}
	return c.JSON(tags)
}

func writeStockError(c *fiber.Ctx, err error) error {
	var conflict *ledger.ConflictError
	switch {
	case errors.Is(err, service.ErrTagNotFound), errors.Is(err, ledger.ErrStockNotFound), errors.Is(err, repository.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTagDisabled):
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrInvalidDemand):
		return errorJSON(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &conflict):
		return errorJSON(c, fiber.StatusServiceUnavailable, "Stock is busy, please retry")
	}
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to update stock")
}
