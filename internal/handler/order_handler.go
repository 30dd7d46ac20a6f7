package handler

import (
	"context"
	"errors"

	"go-pos-ledger/internal/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const (
	HeaderSessionID      = "X-Session-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// msgVerifyInventory is what a cashier sees when stock may have moved
// without a receipt.
const msgVerifyInventory = "order confirmation failed, please verify inventory"

type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req ledger.OrderRequest) (*ledger.Result, error)
}

type OrderHandler struct {
	orders OrderSubmitter
}

func NewOrderHandler(orders OrderSubmitter) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder confirms a cart.
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req ledger.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	req.ActorID = getUserID(c)
	if sid := c.Get(HeaderSessionID); sid != "" {
		req.SessionID = sid
	}
	if key := c.Get(HeaderIdempotencyKey); key != "" {
		req.OrderKey = key
	}

	res, err := h.orders.SubmitOrder(c.UserContext(), req)
	if err != nil {
		return writeOrderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order confirmed",
		"data":    res,
	})
}

func writeOrderError(c *fiber.Ctx, err error) error {
	var (
		verr     *ledger.ValidationError
		short    *ledger.InsufficientStockError
		dup      *ledger.DuplicateOrderError
		disabled *ledger.ProductUnavailableError
		conflict *ledger.ConflictError
		partial  *ledger.PartialFailureError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Invalid order",
			"fields": verr.Fields,
		})
	case errors.As(err, &short):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Insufficient stock",
			"code":      "INSUFFICIENT_STOCK",
			"stock_id":  short.StockID,
			"required":  short.Required,
			"available": short.Available,
		})
	case errors.As(err, &dup):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      "Order already confirmed",
			"code":       "DUPLICATE_ORDER",
			"receipt_id": dup.ReceiptID,
		})
	case errors.As(err, &disabled):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      disabled.Error(),
			"code":       "PRODUCT_UNAVAILABLE",
			"product_id": disabled.ProductID,
		})
	case errors.Is(err, ledger.ErrOrderInFlight):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "An order for this session is already being confirmed",
			"code":  "ORDER_IN_FLIGHT",
		})
	case errors.As(err, &conflict):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": msgVerifyInventory,
			"code":  "LEDGER_CONFLICT",
		})
	case errors.As(err, &partial):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     msgVerifyInventory,
			"code":      "PARTIAL_FAILURE",
			"reference": partial.Reference,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, fiber.StatusRequestTimeout, "Request cancelled")
	}
	log.Ctx(c.UserContext()).Error().Err(err).Msg("order submission failed")
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}
