package handler

import (
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

func (h *OrderHandler) FindByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "order code is required",
		})
	}

	order, err := h.orders.FindByCode(c.UserContext(), code)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"code":           order.Code,
		"status":         order.Status,
		"address":        order.Address,
		"phone":          order.Phone,
		"email":          order.Email,
		"payment_method": order.Payment,
		"bill":           order.Bill,
		"discount":       order.Discount,
		"created_at":     order.CreatedAt,
	})
}
