package handler

import (
	"errors"

	"go-pos-ledger/internal/repository"
	"go-pos-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	catalog service.CatalogService
}

func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type AvailabilityRequest struct {
	Disabled bool `json:"disabled"`
}

// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext())
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch products")
	}
	return c.JSON(products)
}

// PUT /api/v1/products/:id/availability
func (h *ProductHandler) SetAvailability(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid product ID")
	}
	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	product, err := h.catalog.SetProductDisabled(c.UserContext(), id, req.Disabled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Product not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update product")
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}
