package handler

import (
	"strconv"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/middleware"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CartHandler struct {
	carts    service.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		validate: validator.New(),
		logger:   logger,
	}
}

type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gt=0"`
}

type UpdateQuantityInput struct {
	Quantity int32 `json:"quantity" validate:"gte=0"`
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ctx := c.UserContext()

	input := new(AddItemInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"failed to parse body in add item",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	cart, err := h.carts.AddItem(ctx, middleware.Identity(c), input.ProductID, input.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(cartResponse(cart))
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.carts.GetCart(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(cartResponse(cart))
}

func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	ctx := c.UserContext()

	productID, err := strconv.ParseInt(c.Params("productId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	input := new(UpdateQuantityInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	cart, err := h.carts.UpdateQuantity(ctx, middleware.Identity(c), productID, input.Quantity)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(cartResponse(cart))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("productId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), middleware.Identity(c), productID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(cartResponse(cart))
}

func cartResponse(cart *domain.Cart) fiber.Map {
	items := make([]fiber.Map, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, fiber.Map{
			"product_id":   item.ProductID,
			"product_name": item.ProductName,
			"quantity":     item.Quantity,
			"unit_price":   item.UnitPrice,
		})
	}

	return fiber.Map{
		"cart_id": cart.ID,
		"status":  cart.Status,
		"items":   items,
	}
}
